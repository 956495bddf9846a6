package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/naccer/portal/backend/internal/metrics"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/pkg/logger"
)

// Notification is a request to email one recipient using a template.
// It is JSON encoded when it travels through the Redis queue.
type Notification struct {
	Template TemplateID        `json:"template"`
	To       string            `json:"to"`
	Data     map[string]string `json:"data"`
}

// NotificationResult reports a single delivery. Callers log it; it never
// changes the outcome of the operation that triggered it.
type NotificationResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NotificationService renders templates and hands messages to an injected
// transport. Dispatch is fire-and-forget; Deliver is synchronous.
type NotificationService struct {
	transport  MailTransport
	dispatcher Dispatcher
	templates  map[TemplateID]*emailTemplate
	clientURL  string
	metrics    *metrics.Metrics
}

// NewNotificationService delivers inline until SetDispatcher is called.
func NewNotificationService(transport MailTransport, clientURL string, m *metrics.Metrics) *NotificationService {
	s := &NotificationService{
		transport: transport,
		templates: parseTemplates(),
		clientURL: strings.TrimRight(clientURL, "/"),
		metrics:   m,
	}
	s.dispatcher = NewInlineDispatcher(s.Process)
	return s
}

// SetDispatcher replaces the dispatch strategy.
func (s *NotificationService) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// Mode is the transport mode, "smtp" or "development-mock".
func (s *NotificationService) Mode() string {
	return s.transport.Mode()
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)
var blankLines = regexp.MustCompile(`\n\s*\n+`)

// Render produces the subject and bodies for n.
func (s *NotificationService) Render(n *Notification) (*EmailMessage, error) {
	tpl, ok := s.templates[n.Template]
	if !ok {
		return nil, fmt.Errorf("unknown notification template %q", n.Template)
	}
	if n.To == "" {
		return nil, errors.New("notification has no recipient")
	}

	data := make(map[string]string, len(n.Data)+1)
	for k, v := range n.Data {
		data[k] = v
	}
	data["ClientURL"] = s.clientURL

	var subject bytes.Buffer
	if err := tpl.subject.Execute(&subject, data); err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := tpl.body.ExecuteTemplate(&body, "layout", data); err != nil {
		return nil, err
	}

	html := body.String()
	text := tagPattern.ReplaceAllString(html, "")
	text = blankLines.ReplaceAllString(strings.TrimSpace(text), "\n\n")

	return &EmailMessage{
		To:       n.To,
		Subject:  strings.NewReplacer("\r", " ", "\n", " ").Replace(subject.String()),
		HTMLBody: html,
		TextBody: text,
	}, nil
}

// Deliver renders and sends n now. Failures are logged and reported in the
// result, never returned as errors.
func (s *NotificationService) Deliver(ctx context.Context, n *Notification) NotificationResult {
	msg, err := s.Render(n)
	if err != nil {
		return s.failed(n, err)
	}
	receipt, err := s.transport.Send(ctx, msg)
	if err != nil {
		return s.failed(n, err)
	}

	s.metrics.ObserveNotification(string(n.Template), "sent")
	logger.Info().
		Str("template", string(n.Template)).
		Str("to", n.To).
		Str("message_id", receipt.MessageID).
		Str("mode", receipt.Mode).
		Msg("[Notification] delivered")
	return NotificationResult{Success: true, MessageID: receipt.MessageID, Mode: receipt.Mode}
}

func (s *NotificationService) failed(n *Notification, err error) NotificationResult {
	s.metrics.ObserveNotification(string(n.Template), "failed")
	logger.Warn().
		Err(err).
		Str("template", string(n.Template)).
		Str("to", n.To).
		Msg("[Notification] delivery failed")
	return NotificationResult{Success: false, Mode: s.transport.Mode(), Error: err.Error()}
}

// Process is the dispatcher callback. The result is already logged by Deliver.
func (s *NotificationService) Process(ctx context.Context, n *Notification) error {
	s.Deliver(ctx, n)
	return nil
}

// Dispatch queues n without waiting for delivery.
func (s *NotificationService) Dispatch(ctx context.Context, n *Notification) {
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		logger.Warn().Err(err).
			Str("template", string(n.Template)).
			Str("to", n.To).
			Msg("[Notification] dispatch failed, notification dropped")
		s.metrics.ObserveNotification(string(n.Template), "failed")
	}
}

// --- Typed notifications ---

func (s *NotificationService) NotifyWelcome(ctx context.Context, user *models.User) {
	s.Dispatch(ctx, &Notification{
		Template: TemplateWelcome,
		To:       user.Email,
		Data:     map[string]string{"Name": user.Name, "Role": string(user.Role)},
	})
}

func (s *NotificationService) NotifyStatusChange(ctx context.Context, author *models.User, title string, from, to models.ProposalStatus, byName, comment string) {
	if author == nil {
		return
	}
	s.Dispatch(ctx, &Notification{
		Template: TemplateProposalStatus,
		To:       author.Email,
		Data: map[string]string{
			"Name":          author.Name,
			"ProposalTitle": title,
			"OldStatus":     string(from),
			"NewStatus":     string(to),
			"ReviewerName":  byName,
			"Comment":       comment,
		},
	})
}

func (s *NotificationService) NotifyFeedback(ctx context.Context, author *models.User, title, fromName, message string) {
	if author == nil {
		return
	}
	s.Dispatch(ctx, &Notification{
		Template: TemplateFeedback,
		To:       author.Email,
		Data: map[string]string{
			"Name":          author.Name,
			"ProposalTitle": title,
			"ReviewerName":  fromName,
			"Message":       message,
		},
	})
}

func (s *NotificationService) NotifyStaffAssignment(ctx context.Context, staff *models.User, title, authorName, reviewerName string, due *time.Time) {
	data := map[string]string{
		"Name":          staff.Name,
		"ProposalTitle": title,
		"AuthorName":    authorName,
		"ReviewerName":  reviewerName,
	}
	if due != nil {
		data["DueDate"] = due.Format("02 Jan 2006")
	}
	s.Dispatch(ctx, &Notification{Template: TemplateStaffAssignment, To: staff.Email, Data: data})
}

// SendAssignmentReminder delivers synchronously so the caller can record success.
func (s *NotificationService) SendAssignmentReminder(ctx context.Context, staff *models.User, title string, due time.Time) NotificationResult {
	return s.Deliver(ctx, &Notification{
		Template: TemplateAssignmentReminder,
		To:       staff.Email,
		Data: map[string]string{
			"Name":          staff.Name,
			"ProposalTitle": title,
			"DueDate":       due.Format("02 Jan 2006"),
		},
	})
}

// SendCollaborationInvite delivers synchronously; the invite is the operation.
func (s *NotificationService) SendCollaborationInvite(ctx context.Context, to, title, inviterName, role, message string) NotificationResult {
	return s.Deliver(ctx, &Notification{
		Template: TemplateCollaborationInvite,
		To:       to,
		Data: map[string]string{
			"ProposalTitle": title,
			"InviterName":   inviterName,
			"Role":          role,
			"Message":       message,
		},
	})
}
