package services

import (
	"context"
	"errors"
	"testing"

	"github.com/naccer/portal/backend/internal/config"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"numbered", "1. Add a timeline\n2) Justify equipment costs\n", []string{"Add a timeline", "Justify equipment costs"}},
		{"bullets", "- Cite recent work\n* Add risk matrix\n• Clarify scope", []string{"Cite recent work", "Add risk matrix", "Clarify scope"}},
		{"headings and blanks", "Suggestions:\n\n**Expand methodology**\n", []string{"Expand methodology"}},
		{"empty", "   \n\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSuggestions(tt.content))
		})
	}
}

func TestParseSuggestions_Caps(t *testing.T) {
	content := ""
	for i := 0; i < 15; i++ {
		content += "- item\n"
	}
	assert.Len(t, parseSuggestions(content), maxSuggestions)
}

func TestBuildSuggestionPrompt(t *testing.T) {
	prompt := buildSuggestionPrompt(&models.Proposal{
		Title:       "Fly ash bricks",
		Domain:      "Materials",
		Budget:      1200.5,
		Description: "Reuse of fly ash",
		Tags:        models.StringList{"waste", "construction"},
	})
	assert.True(t, containsAll(prompt, "Fly ash bricks", "Materials", "1200.50", "waste, construction", "Reuse of fly ash"))
}

func newAIEnv(t *testing.T, cfg *config.AIConfig, complete completer) (*env, *AIService, *models.Proposal) {
	e := newEnv(t)
	svc := NewAIService(e.db, cfg)
	if complete != nil {
		svc.complete = complete
	}
	return e, svc, e.submit(t, "AI target")
}

func TestAIService_BuiltinWhenDisabled(t *testing.T) {
	called := false
	e, svc, p := newAIEnv(t, &config.AIConfig{Enabled: false}, func(context.Context, string) (string, error) {
		called = true
		return "", nil
	})

	result, err := svc.Suggest(context.Background(), principal(e.reviewer), p.ID)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, SourceBuiltin, result.Source)
	assert.Equal(t, builtinSuggestions, result.Suggestions)
}

func TestAIService_ProviderAnswer(t *testing.T) {
	var prompt string
	e, svc, p := newAIEnv(t, &config.AIConfig{Enabled: true, Provider: "anthropic", Model: "claude-test"},
		func(ctx context.Context, in string) (string, error) {
			prompt = in
			return "1. Quantify expected emission reduction\n2. Add a field trial", nil
		})

	result, err := svc.Suggest(context.Background(), principal(e.reviewer), p.ID)
	require.NoError(t, err)
	assert.Contains(t, prompt, "AI target")
	assert.Equal(t, "anthropic", result.Source)
	assert.Equal(t, "claude-test", result.Model)
	assert.Equal(t, []string{"Quantify expected emission reduction", "Add a field trial"}, result.Suggestions)

	reloaded, err := e.proposals.Get(context.Background(), principal(e.author), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Status, reloaded.Status)
	assert.Empty(t, reloaded.Feedback)
}

func TestAIService_FallsBackOnProviderError(t *testing.T) {
	e, svc, p := newAIEnv(t, &config.AIConfig{Enabled: true, Provider: "openai"},
		func(context.Context, string) (string, error) { return "", errors.New("429 rate limited") })

	result, err := svc.Suggest(context.Background(), principal(e.reviewer), p.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceBuiltin, result.Source)
}

func TestAIService_Access(t *testing.T) {
	e, svc, p := newAIEnv(t, &config.AIConfig{}, nil)
	ctx := context.Background()

	_, err := svc.Suggest(ctx, principal(e.author), p.ID)
	assert.True(t, response.IsKind(err, response.KindAuthorization))
	_, err = svc.Suggest(ctx, principal(e.staff), p.ID)
	assert.True(t, response.IsKind(err, response.KindAuthorization))

	_, err = e.proposals.AssignStaff(ctx, principal(e.reviewer), p.ID, &AssignStaffRequest{StaffID: models.FlexibleID(e.staff.ID)})
	require.NoError(t, err)
	_, err = svc.Suggest(ctx, principal(e.staff), p.ID)
	assert.NoError(t, err)

	_, err = svc.Suggest(ctx, principal(e.reviewer), 777)
	assert.True(t, response.IsKind(err, response.KindNotFound))
}

func TestAIService_CallLLMWithoutKey(t *testing.T) {
	svc := &AIService{cfg: &config.AIConfig{Enabled: true, Provider: "gemini"}}
	_, err := svc.callLLM(context.Background(), "prompt")
	assert.ErrorIs(t, err, errNoProvider)
}
