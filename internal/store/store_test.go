package store

import (
	"context"
	"testing"
	"time"

	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/testutil"
	"github.com/naccer/portal/backend/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProposal(authorID uint, status models.ProposalStatus) *models.Proposal {
	return &models.Proposal{
		Title:       "Clean coal gasification",
		Description: "Pilot plant study",
		Domain:      "Energy",
		Budget:      1000,
		AuthorID:    authorID,
		Status:      status,
	}
}

func setup(t *testing.T) (*gorm.DB, *ProposalStore, *models.User) {
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "Asha", "asha@example.com", models.RoleUser)
	return db, NewProposalStore(db), author
}

func TestProposalStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	_, s, author := setup(t)

	p := newProposal(author.ID, models.StatusSubmitted)
	p.Tags = models.StringList{"coal", "energy"}
	require.NoError(t, s.Create(ctx, p))
	require.NotZero(t, p.ID)

	got, err := s.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clean coal gasification", got.Title)
	assert.Equal(t, models.PriorityMedium, got.Priority)
	assert.Equal(t, models.StringList{"coal", "energy"}, got.Tags)
	require.NotNil(t, got.Author)
	assert.Equal(t, "Asha", got.Author.Name)
}

func TestProposalStore_CreateRejectsInvalid(t *testing.T) {
	_, s, author := setup(t)

	p := newProposal(author.ID, models.StatusSubmitted)
	p.Budget = -5
	err := s.Create(context.Background(), p)

	assert.True(t, response.IsKind(err, response.KindValidation), "got %v", err)
}

func TestProposalStore_FindMissing(t *testing.T) {
	_, s, _ := setup(t)

	_, err := s.FindByID(context.Background(), 999)
	assert.True(t, response.IsKind(err, response.KindNotFound))
}

func TestProposalStore_AddAssignmentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, s, author := setup(t)
	staff := testutil.CreateUser(t, db, "Kiran", "kiran@example.com", models.RoleStaff)

	p := newProposal(author.ID, models.StatusSubmitted)
	require.NoError(t, s.Create(ctx, p))

	created, err := s.AddAssignment(ctx, &models.StaffAssignment{ProposalID: p.ID, UserID: staff.ID, AssignedDate: time.Now()})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.AddAssignment(ctx, &models.StaffAssignment{ProposalID: p.ID, UserID: staff.ID, AssignedDate: time.Now()})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.AssignedStaff, 1)
	assert.Equal(t, "Kiran", got.AssignedStaff[0].User.Name)
}

func TestProposalStore_FeedbackIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	db, s, author := setup(t)
	reviewer := testutil.CreateUser(t, db, "Ravi", "ravi@example.com", models.RoleReviewer)

	p := newProposal(author.ID, models.StatusSubmitted)
	require.NoError(t, s.Create(ctx, p))

	for _, msg := range []string{"first", "second"} {
		require.NoError(t, s.AppendFeedback(ctx, &models.FeedbackEntry{ProposalID: p.ID, FromID: reviewer.ID, Message: msg}))
	}

	got, err := s.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Feedback, 2)
	assert.Equal(t, "first", got.Feedback[0].Message)
	assert.Equal(t, "second", got.Feedback[1].Message)
	assert.Equal(t, "Ravi", got.Feedback[0].From.Name)

	entry := got.Feedback[0]
	err = db.Model(&entry).Update("message", "rewritten").Error
	assert.ErrorIs(t, err, models.ErrFeedbackImmutable)
	err = db.Delete(&entry).Error
	assert.ErrorIs(t, err, models.ErrFeedbackImmutable)
}

func TestProposalStore_Listing(t *testing.T) {
	ctx := context.Background()
	db, s, author := setup(t)
	other := testutil.CreateUser(t, db, "Meera", "meera@example.com", models.RoleUser)
	staff := testutil.CreateUser(t, db, "Kiran", "kiran@example.com", models.RoleStaff)

	draft := newProposal(author.ID, models.StatusDraft)
	submitted := newProposal(author.ID, models.StatusSubmitted)
	foreign := newProposal(other.ID, models.StatusUnderReview)
	for _, p := range []*models.Proposal{draft, submitted, foreign} {
		require.NoError(t, s.Create(ctx, p))
	}
	_, err := s.AddAssignment(ctx, &models.StaffAssignment{ProposalID: foreign.ID, UserID: staff.ID, AssignedDate: time.Now()})
	require.NoError(t, err)
	_, err = s.AddAssignment(ctx, &models.StaffAssignment{ProposalID: draft.ID, UserID: staff.ID, AssignedDate: time.Now()})
	require.NoError(t, err)

	own, total, err := s.ListByAuthor(ctx, author.ID, ProposalFilter{})
	require.NoError(t, err)
	assert.Len(t, own, 2)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, submitted.ID, own[0].ID, "newest first")

	visible, _, err := s.ListNonDraft(ctx, ProposalFilter{})
	require.NoError(t, err)
	assert.Len(t, visible, 2)
	for _, p := range visible {
		assert.NotEqual(t, models.StatusDraft, p.Status)
	}

	assigned, _, err := s.ListAssignedTo(ctx, staff.ID, ProposalFilter{})
	require.NoError(t, err)
	require.Len(t, assigned, 1, "drafts stay hidden from staff")
	assert.Equal(t, foreign.ID, assigned[0].ID)

	filtered, total, err := s.ListNonDraft(ctx, ProposalFilter{Status: models.StatusUnderReview})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
	assert.Equal(t, int64(1), total)

	paged, total, err := s.ListByAuthor(ctx, author.ID, ProposalFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, draft.ID, paged[0].ID)

	all, total, err := s.ListAll(ctx, ProposalFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, int64(3), total)
}

func TestProposalStore_CountByStatus(t *testing.T) {
	ctx := context.Background()
	_, s, author := setup(t)

	for _, status := range []models.ProposalStatus{models.StatusSubmitted, models.StatusSubmitted, models.StatusApproved} {
		require.NoError(t, s.Create(ctx, newProposal(author.ID, status)))
	}

	rows, err := s.CountByStatus(ctx, AuthoredBy(author.ID))
	require.NoError(t, err)

	counts := map[models.ProposalStatus]int64{}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	assert.Equal(t, int64(2), counts[models.StatusSubmitted])
	assert.Equal(t, int64(1), counts[models.StatusApproved])
}

func TestProposalStore_DueAssignments(t *testing.T) {
	ctx := context.Background()
	db, s, author := setup(t)
	staff := testutil.CreateUser(t, db, "Kiran", "kiran@example.com", models.RoleStaff)

	now := time.Now()
	soon := now.Add(24 * time.Hour)
	later := now.Add(10 * 24 * time.Hour)

	active := newProposal(author.ID, models.StatusAssignedToStaff)
	decided := newProposal(author.ID, models.StatusApproved)
	distant := newProposal(author.ID, models.StatusStaffReviewing)
	for _, p := range []*models.Proposal{active, decided, distant} {
		require.NoError(t, s.Create(ctx, p))
	}
	for p, due := range map[*models.Proposal]time.Time{active: soon, decided: soon, distant: later} {
		due := due
		_, err := s.AddAssignment(ctx, &models.StaffAssignment{ProposalID: p.ID, UserID: staff.ID, AssignedDate: now, DueDate: &due})
		require.NoError(t, err)
	}

	due, err := s.DueAssignments(ctx, now.Add(2*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, active.ID, due[0].ProposalID)
	assert.Equal(t, "Kiran", due[0].User.Name)

	require.NoError(t, s.MarkReminderSent(ctx, due[0].ID, now))
	due, err = s.DueAssignments(ctx, now.Add(2*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	s := NewUserStore(db)
	asha := testutil.CreateUser(t, db, "Asha", "asha@example.com", models.RoleUser)
	testutil.CreateUser(t, db, "Kiran", "kiran@example.com", models.RoleStaff)
	testutil.CreateUser(t, db, "Bala", "bala@example.com", models.RoleStaff)

	found, err := s.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, asha.ID, found.ID)

	missing, err := s.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	taken, err := s.EmailTaken(ctx, "asha@example.com", asha.ID)
	require.NoError(t, err)
	assert.False(t, taken, "own email is not taken")

	taken, err = s.EmailTaken(ctx, "kiran@example.com", asha.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	staff, err := s.ListByRole(ctx, models.RoleStaff)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "Bala", staff[0].Name)

	dup := &models.User{Name: "Again", Email: "asha@example.com", Password: "x", Role: models.RoleUser}
	assert.True(t, response.IsKind(s.Create(ctx, dup), response.KindConflict))

	_, err = s.FindByID(ctx, 4242)
	assert.True(t, response.IsKind(err, response.KindNotFound))
}
