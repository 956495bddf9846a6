package services

import (
	"sync"
	"time"

	"github.com/naccer/portal/backend/internal/access"
	"github.com/naccer/portal/backend/internal/models"
)

// ProposalEvent is pushed to connected clients when a proposal changes.
type ProposalEvent struct {
	ProposalID uint                  `json:"proposalId"`
	Title      string                `json:"title"`
	Action     string                `json:"action"`
	From       models.ProposalStatus `json:"from"`
	To         models.ProposalStatus `json:"to"`
	By         string                `json:"by"`
	At         time.Time             `json:"at"`

	authorID uint
	staffIDs []uint
}

func newProposalEvent(p *models.Proposal, action string, from models.ProposalStatus, by string) ProposalEvent {
	e := ProposalEvent{
		ProposalID: p.ID,
		Title:      p.Title,
		Action:     action,
		From:       from,
		To:         p.Status,
		By:         by,
		At:         time.Now(),
		authorID:   p.AuthorID,
	}
	for _, a := range p.AssignedStaff {
		e.staffIDs = append(e.staffIDs, a.UserID)
	}
	return e
}

// visibleTo applies the proposal read rules to the event.
func (e ProposalEvent) visibleTo(p access.Principal) bool {
	assigned := false
	for _, id := range e.staffIDs {
		if id == p.UserID {
			assigned = true
			break
		}
	}
	return access.Decide(p, access.OpReadProposal, access.Facts{
		AuthorID: e.authorID,
		Status:   e.To,
		Assigned: assigned,
	}).Allowed
}

type subscriber struct {
	principal access.Principal
	ch        chan ProposalEvent
}

// EventHub fans proposal events out to SSE subscribers. A nil hub drops
// everything.
type EventHub struct {
	clients map[string]*subscriber
	mu      sync.RWMutex
}

func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[string]*subscriber)}
}

// Subscribe registers a client that only receives events it may read.
func (h *EventHub) Subscribe(clientID string, p access.Principal) <-chan ProposalEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ProposalEvent, 100)
	h.clients[clientID] = &subscriber{principal: p, ch: ch}
	return ch
}

func (h *EventHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.clients[clientID]; ok {
		close(sub.ch)
		delete(h.clients, clientID)
	}
}

// Publish never blocks; a client with a full buffer misses the event.
func (h *EventHub) Publish(e ProposalEvent) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.clients {
		if !e.visibleTo(sub.principal) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
		}
	}
}

func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
