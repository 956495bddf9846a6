package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/naccer/portal/backend/internal/access"
	"github.com/naccer/portal/backend/internal/metrics"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/testutil"
	"gorm.io/gorm"
)

// recordingTransport keeps every message it is asked to send.
type recordingTransport struct {
	mu   sync.Mutex
	sent []*EmailMessage
	fail bool
}

func (t *recordingTransport) Mode() string { return "test" }

func (t *recordingTransport) Send(ctx context.Context, msg *EmailMessage) (*DeliveryReceipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail {
		return nil, errors.New("smtp: connection refused")
	}
	t.sent = append(t.sent, msg)
	return &DeliveryReceipt{MessageID: fmt.Sprintf("test-%d", len(t.sent)), Mode: "test"}, nil
}

func (t *recordingTransport) messages() []*EmailMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*EmailMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

func (t *recordingTransport) to(email string) []*EmailMessage {
	var out []*EmailMessage
	for _, m := range t.messages() {
		if m.To == email {
			out = append(out, m)
		}
	}
	return out
}

func (t *recordingTransport) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = nil
}

// env wires every service against one in-memory database. Notifications are
// delivered inline so tests can inspect them right away.
type env struct {
	db        *gorm.DB
	mail      *recordingTransport
	metrics   *metrics.Metrics
	notifier  *NotificationService
	proposals *ProposalService
	audit     *SystemLogService
	events    *EventHub

	author   *models.User
	other    *models.User
	reviewer *models.User
	staff    *models.User
	staff2   *models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	e := &env{db: db, mail: &recordingTransport{}, metrics: metrics.New(), events: NewEventHub()}
	e.notifier = NewNotificationService(e.mail, "http://portal.test", e.metrics)
	e.audit = NewSystemLogService(db)
	e.proposals = NewProposalService(db, e.notifier, e.audit, e.metrics, e.events)

	e.author = testutil.CreateUser(t, db, "Asha Rao", "asha@example.com", models.RoleUser)
	e.other = testutil.CreateUser(t, db, "Ben Ode", "ben@example.com", models.RoleUser)
	e.reviewer = testutil.CreateUser(t, db, "Dr. Reviewer", "reviewer@example.com", models.RoleReviewer)
	e.staff = testutil.CreateUser(t, db, "Sam Staff", "sam@example.com", models.RoleStaff)
	e.staff2 = testutil.CreateUser(t, db, "Kim Staff", "kim@example.com", models.RoleStaff)
	return e
}

func principal(u *models.User) access.Principal {
	return access.Principal{UserID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email}
}

func budget(v float64) *float64 { return &v }

// submit creates a proposal as the author and clears the outbox.
func (e *env) submit(t *testing.T, title string) *models.Proposal {
	t.Helper()
	p, err := e.proposals.Create(context.Background(), principal(e.author), &CreateProposalRequest{
		Title:       title,
		Description: "Carbon capture using modified amine solvents",
		Domain:      "Clean Coal",
		Budget:      budget(250000),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	e.mail.reset()
	return p
}

// setStatus forces a status directly in the database.
func (e *env) setStatus(t *testing.T, id uint, status models.ProposalStatus) {
	t.Helper()
	if err := e.db.Model(&models.Proposal{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		t.Fatalf("failed to set status: %v", err)
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
