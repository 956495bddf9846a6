package services

import (
	"testing"

	"github.com/naccer/portal/backend/internal/access"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestEventHub_FiltersByVisibility(t *testing.T) {
	h := NewEventHub()
	author := h.Subscribe("author", access.Principal{UserID: 1, Role: models.RoleUser})
	stranger := h.Subscribe("stranger", access.Principal{UserID: 2, Role: models.RoleUser})
	reviewer := h.Subscribe("reviewer", access.Principal{UserID: 3, Role: models.RoleReviewer})
	assigned := h.Subscribe("assigned", access.Principal{UserID: 4, Role: models.RoleStaff})
	unassigned := h.Subscribe("unassigned", access.Principal{UserID: 5, Role: models.RoleStaff})
	assert.Equal(t, 5, h.ClientCount())

	p := &models.Proposal{
		ID:            7,
		AuthorID:      1,
		Status:        models.StatusAssignedToStaff,
		AssignedStaff: []models.StaffAssignment{{UserID: 4}},
	}
	h.Publish(newProposalEvent(p, "AssignStaff", models.StatusSubmitted, "Dr. R"))

	assert.Len(t, author, 1)
	assert.Len(t, stranger, 0)
	assert.Len(t, reviewer, 1)
	assert.Len(t, assigned, 1)
	assert.Len(t, unassigned, 0)

	draft := &models.Proposal{ID: 8, AuthorID: 1, Status: models.StatusDraft}
	h.Publish(newProposalEvent(draft, "Update", models.StatusDraft, "Asha"))
	assert.Len(t, author, 2)
	assert.Len(t, reviewer, 1, "drafts stay private")
}

func TestEventHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe("c", access.Principal{UserID: 1, Role: models.RoleUser})
	h.Unsubscribe("c")
	h.Unsubscribe("c")

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, h.ClientCount())
}

func TestEventHub_DropsWhenFull(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe("slow", access.Principal{UserID: 1, Role: models.RoleUser})
	p := &models.Proposal{ID: 1, AuthorID: 1, Status: models.StatusSubmitted}
	for i := 0; i < 150; i++ {
		h.Publish(newProposalEvent(p, "Update", p.Status, "x"))
	}
	assert.Len(t, ch, cap(ch))
}

func TestEventHub_NilPublish(t *testing.T) {
	var h *EventHub
	assert.NotPanics(t, func() { h.Publish(ProposalEvent{}) })
}
