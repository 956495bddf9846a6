package store

import (
	"context"
	"time"

	"github.com/naccer/portal/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const proposalNotFound = "Proposal not found"

// ProposalFilter narrows list queries. Zero values mean no restriction.
type ProposalFilter struct {
	Status   models.ProposalStatus
	Domain   string
	Page     int
	PageSize int
}

const maxPageSize = 100

func (f ProposalFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("proposals.status = ?", f.Status)
	}
	if f.Domain != "" {
		q = q.Where("proposals.domain = ?", f.Domain)
	}
	if f.PageSize > 0 {
		size := f.PageSize
		if size > maxPageSize {
			size = maxPageSize
		}
		page := f.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * size).Limit(size)
	}
	return q
}

// ProposalStore persists proposals with their assignments and feedback.
// Every mutation touches a single row, so concurrent writers rely on the
// database's per-row atomicity and the last write wins.
type ProposalStore struct {
	db *gorm.DB
}

func NewProposalStore(db *gorm.DB) *ProposalStore {
	return &ProposalStore{db: db}
}

func (s *ProposalStore) withRelations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Reviewer").
		Preload("AssignedStaff", func(db *gorm.DB) *gorm.DB { return db.Order("assigned_date ASC, id ASC") }).
		Preload("AssignedStaff.User").
		Preload("Feedback", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Feedback.From")
}

// Create inserts p without touching associations.
func (s *ProposalStore) Create(ctx context.Context, p *models.Proposal) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
	return translate(err, proposalNotFound, "failed to create proposal")
}

// FindByID loads a proposal with author, reviewer, staff and feedback.
func (s *ProposalStore) FindByID(ctx context.Context, id uint) (*models.Proposal, error) {
	var p models.Proposal
	if err := s.withRelations(s.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, translate(err, proposalNotFound, "failed to load proposal")
	}
	return &p, nil
}

// UpdateFields writes the given columns of one proposal in a single statement.
func (s *ProposalStore) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Proposal{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, proposalNotFound, "failed to update proposal")
	}
	return nil
}

// AppendFeedback inserts a feedback entry. Entries are never updated.
func (s *ProposalStore) AppendFeedback(ctx context.Context, entry *models.FeedbackEntry) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error,
		proposalNotFound, "failed to add feedback")
}

// AddAssignment inserts a if no row exists for its (proposal, user) pair and
// reports whether a row was created.
func (s *ProposalStore) AddAssignment(ctx context.Context, a *models.StaffAssignment) (bool, error) {
	res := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "proposal_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(a)
	if res.Error != nil {
		return false, translate(res.Error, proposalNotFound, "failed to assign staff")
	}
	return res.RowsAffected > 0, nil
}

func (s *ProposalStore) list(ctx context.Context, filter ProposalFilter, scope func(*gorm.DB) *gorm.DB) ([]models.Proposal, int64, error) {
	base := scope(s.db.WithContext(ctx).Model(&models.Proposal{}))

	var total int64
	countFilter := filter
	countFilter.PageSize = 0
	if err := countFilter.apply(base.Session(&gorm.Session{})).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "", "failed to count proposals")
	}

	var proposals []models.Proposal
	q := filter.apply(s.withRelations(base.Session(&gorm.Session{}))).Order("proposals.created_at DESC, proposals.id DESC")
	if err := q.Find(&proposals).Error; err != nil {
		return nil, 0, translate(err, "", "failed to list proposals")
	}
	return proposals, total, nil
}

// ListAll returns every proposal, for operator tooling.
func (s *ProposalStore) ListAll(ctx context.Context, filter ProposalFilter) ([]models.Proposal, int64, error) {
	return s.list(ctx, filter, func(q *gorm.DB) *gorm.DB { return q })
}

// ListByAuthor returns every proposal of authorID, drafts included.
func (s *ProposalStore) ListByAuthor(ctx context.Context, authorID uint, filter ProposalFilter) ([]models.Proposal, int64, error) {
	return s.list(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("proposals.author_id = ?", authorID)
	})
}

// ListNonDraft returns every proposal past the draft stage.
func (s *ProposalStore) ListNonDraft(ctx context.Context, filter ProposalFilter) ([]models.Proposal, int64, error) {
	return s.list(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("proposals.status <> ?", models.StatusDraft)
	})
}

// ListAssignedTo returns non-draft proposals staffID is assigned to.
func (s *ProposalStore) ListAssignedTo(ctx context.Context, staffID uint, filter ProposalFilter) ([]models.Proposal, int64, error) {
	return s.list(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.
			Where("proposals.status <> ?", models.StatusDraft).
			Where("proposals.id IN (?)", s.db.Model(&models.StaffAssignment{}).
				Select("proposal_id").
				Where("user_id = ?", staffID))
	})
}

// StatusCount is one row of CountByStatus.
type StatusCount struct {
	Status models.ProposalStatus
	Count  int64
}

// CountByStatus groups proposals by status within scope.
func (s *ProposalStore) CountByStatus(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]StatusCount, error) {
	var rows []StatusCount
	q := s.db.WithContext(ctx).Model(&models.Proposal{})
	if scope != nil {
		q = scope(q)
	}
	err := q.Select("proposals.status AS status, COUNT(*) AS count").
		Group("proposals.status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "", "failed to count proposals")
	}
	return rows, nil
}

// AuthoredBy scopes CountByStatus to an author.
func AuthoredBy(authorID uint) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB { return q.Where("proposals.author_id = ?", authorID) }
}

// NonDraft scopes CountByStatus to proposals visible to reviewers.
func NonDraft() func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB { return q.Where("proposals.status <> ?", models.StatusDraft) }
}

// AssignedTo scopes CountByStatus to a staff member's assignments.
func (s *ProposalStore) AssignedTo(staffID uint) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.
			Where("proposals.status <> ?", models.StatusDraft).
			Where("proposals.id IN (?)", s.db.Model(&models.StaffAssignment{}).
				Select("proposal_id").
				Where("user_id = ?", staffID))
	}
}

// DueAssignments returns assignments due before deadline that have not been
// reminded yet and whose proposal is still with staff.
func (s *ProposalStore) DueAssignments(ctx context.Context, deadline time.Time) ([]models.StaffAssignment, error) {
	var assignments []models.StaffAssignment
	err := s.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN proposals ON proposals.id = proposal_staff_assignments.proposal_id").
		Where("proposal_staff_assignments.due_date IS NOT NULL AND proposal_staff_assignments.due_date <= ?", deadline).
		Where("proposal_staff_assignments.reminder_sent_at IS NULL").
		Where("proposals.status IN ?", []models.ProposalStatus{models.StatusAssignedToStaff, models.StatusStaffReviewing}).
		Order("proposal_staff_assignments.due_date ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, translate(err, "", "failed to load due assignments")
	}
	return assignments, nil
}

// MarkReminderSent records that the staff member was reminded.
func (s *ProposalStore) MarkReminderSent(ctx context.Context, assignmentID uint, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.StaffAssignment{}).
		Where("id = ?", assignmentID).
		Update("reminder_sent_at", at).Error
	return translate(err, "Assignment not found", "failed to update assignment")
}

// FindTitle returns the title of a proposal without loading relations.
func (s *ProposalStore) FindTitle(ctx context.Context, id uint) (string, error) {
	var p models.Proposal
	if err := s.db.WithContext(ctx).Select("id", "title").First(&p, id).Error; err != nil {
		return "", translate(err, proposalNotFound, "failed to load proposal")
	}
	return p.Title, nil
}
