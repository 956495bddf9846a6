package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/naccer/portal/backend/internal/access"
	"github.com/naccer/portal/backend/internal/config"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/store"
	"github.com/naccer/portal/backend/pkg/logger"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
	"gorm.io/gorm"
)

const (
	SourceBuiltin  = "builtin"
	maxSuggestions = 10
)

// builtinSuggestions is the checklist returned when no provider is available.
var builtinSuggestions = []string{
	"Add more details to the methodology section.",
	"Clarify budget allocation for equipment vs manpower.",
	"Strengthen novelty by citing 2-3 more research papers.",
	"Include risk analysis & mitigation plan.",
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)]|\(\d+\))\s*`)

var errNoProvider = errors.New("AI provider not configured")

// completer sends a prompt to a model and returns its text answer.
type completer func(ctx context.Context, prompt string) (string, error)

// AIService produces review suggestions for a proposal. It never changes
// the proposal.
type AIService struct {
	cfg       *config.AIConfig
	proposals *store.ProposalStore
	complete  completer
}

func NewAIService(db *gorm.DB, cfg *config.AIConfig) *AIService {
	s := &AIService{cfg: cfg, proposals: store.NewProposalStore(db)}
	s.complete = s.callLLM
	return s
}

type SuggestionResult struct {
	ProposalID  uint     `json:"proposalId"`
	Suggestions []string `json:"suggestions"`
	Source      string   `json:"source"`
	Model       string   `json:"model,omitempty"`
}

// Suggest returns review suggestions for a proposal the caller may assess.
// Provider failures fall back to the builtin checklist.
func (s *AIService) Suggest(ctx context.Context, caller access.Principal, id uint) (*SuggestionResult, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, access.OpAISuggestions, access.FactsFor(p, caller)); err != nil {
		return nil, err
	}

	result := &SuggestionResult{ProposalID: p.ID, Suggestions: builtinSuggestions, Source: SourceBuiltin}
	if s.cfg == nil || !s.cfg.Enabled {
		return result, nil
	}

	content, err := s.complete(ctx, buildSuggestionPrompt(p))
	if err != nil {
		logger.Warn().Err(err).Uint("proposal_id", p.ID).Msg("[AI] provider failed, using builtin suggestions")
		return result, nil
	}
	suggestions := parseSuggestions(content)
	if len(suggestions) == 0 {
		logger.Warn().Uint("proposal_id", p.ID).Msg("[AI] empty answer, using builtin suggestions")
		return result, nil
	}

	return &SuggestionResult{
		ProposalID:  p.ID,
		Suggestions: suggestions,
		Source:      s.cfg.Provider,
		Model:       s.cfg.Model,
	}, nil
}

func buildSuggestionPrompt(p *models.Proposal) string {
	var b strings.Builder
	b.WriteString("You are reviewing a research funding proposal submitted to a coal research council.\n")
	b.WriteString("List up to 10 concrete, actionable suggestions that would improve it. ")
	b.WriteString("Cover methodology, budget allocation, novelty and risk. ")
	b.WriteString("Answer with one suggestion per line and no other text.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Domain: %s\n", p.Domain)
	fmt.Fprintf(&b, "Budget: %.2f\n", p.Budget)
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Fprintf(&b, "\nDescription:\n%s\n", p.Description)
	return b.String()
}

// parseSuggestions reads one suggestion per line, dropping list markers.
func parseSuggestions(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		line = strings.Trim(line, "*_` ")
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		out = append(out, line)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func (s *AIService) callLLM(ctx context.Context, prompt string) (string, error) {
	if s.cfg.APIKey == "" && s.cfg.Provider != "ollama" {
		return "", errNoProvider
	}
	logger.Infof("[AI] Using provider: %s, model: %s, baseURL: %s", s.cfg.Provider, s.cfg.Model, s.cfg.BaseURL)

	switch s.cfg.Provider {
	case "anthropic":
		return s.callAnthropic(ctx, prompt)
	case "ollama":
		return s.callOllama(ctx, prompt)
	case "gemini":
		return s.callGemini(ctx, prompt)
	case "azure":
		return s.callAzure(ctx, prompt)
	default:
		return s.callOpenAI(ctx, prompt)
	}
}

func (s *AIService) temperature() float32 {
	if s.cfg.Temperature > 0 {
		return float32(s.cfg.Temperature)
	}
	return 0.3
}

func (s *AIService) chatCompletion(ctx context.Context, client *openai.Client, name, prompt string) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: s.temperature(),
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", name)
	}
	return resp.Choices[0].Message.Content, nil
}

// callOpenAI also serves OpenAI-compatible endpoints through BaseURL.
func (s *AIService) callOpenAI(ctx context.Context, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(s.cfg.APIKey)
	if s.cfg.BaseURL != "" {
		clientConfig.BaseURL = s.cfg.BaseURL
	}
	return s.chatCompletion(ctx, openai.NewClientWithConfig(clientConfig), "OpenAI", prompt)
}

// callAzure expects BaseURL https://{resource}.openai.azure.com; Model is
// the deployment name.
func (s *AIService) callAzure(ctx context.Context, prompt string) (string, error) {
	clientConfig := openai.DefaultAzureConfig(s.cfg.APIKey, s.cfg.BaseURL)
	if s.cfg.APIVersion != "" {
		clientConfig.APIVersion = s.cfg.APIVersion
	}
	return s.chatCompletion(ctx, openai.NewClientWithConfig(clientConfig), "Azure OpenAI", prompt)
}

func (s *AIService) callAnthropic(ctx context.Context, prompt string) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(s.cfg.APIKey)}
	if s.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := int64(s.cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 1024
	}
	model := s.cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return content.String(), nil
}

func (s *AIService) callOllama(ctx context.Context, prompt string) (string, error) {
	baseURL := s.cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := s.cfg.Model
	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Options:  map[string]interface{}{"temperature": s.temperature()},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}
	return content.String(), nil
}

func (s *AIService) callGemini(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: s.cfg.APIKey})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := s.cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return resp.Text(), nil
}
