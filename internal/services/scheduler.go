package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/naccer/portal/backend/internal/config"
	"github.com/naccer/portal/backend/internal/metrics"
	"github.com/naccer/portal/backend/internal/store"
	"github.com/naccer/portal/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	reminderLockName = "assignment_reminder"
	cleanupLockName  = "audit_cleanup"
	cleanupSpec      = "30 3 * * *"
	lockTTL          = 23 * time.Hour
)

// Scheduler runs the daily staff reminders and audit log retention.
type Scheduler struct {
	cfg       *config.Config
	proposals *store.ProposalStore
	locks     *store.SchedulerLockStore
	notifier  *NotificationService
	audit     *SystemLogService
	holidays  *HolidayCalendar
	metrics   *metrics.Metrics
	owner     string
	cron      *cron.Cron
	now       func() time.Time
}

func NewScheduler(db *gorm.DB, cfg *config.Config, notifier *NotificationService, audit *SystemLogService, m *metrics.Metrics) *Scheduler {
	host, _ := os.Hostname()
	return &Scheduler{
		cfg:       cfg,
		proposals: store.NewProposalStore(db),
		locks:     store.NewSchedulerLockStore(db),
		notifier:  notifier,
		audit:     audit,
		holidays:  NewHolidayCalendar(),
		metrics:   m,
		owner:     fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
		now:       time.Now,
	}
}

// Start registers the enabled jobs. A bad cron spec is returned and nothing
// is started.
func (s *Scheduler) Start() error {
	c := cron.New()

	if s.cfg.Reminders.Enabled {
		if _, err := c.AddFunc(s.cfg.Reminders.Cron, func() {
			if _, err := s.SendReminders(context.Background()); err != nil {
				logger.Error().Err(err).Msg("[Scheduler] reminder run failed")
			}
		}); err != nil {
			return fmt.Errorf("invalid reminders cron %q: %w", s.cfg.Reminders.Cron, err)
		}
		if !s.holidays.Supports(s.cfg.Reminders.HolidayCountry) {
			logger.Warnf("[Scheduler] Unknown holiday calendar %q, using weekdays only", s.cfg.Reminders.HolidayCountry)
		}
		logger.Infof("[Scheduler] Reminders scheduled (cron: %s, lead days: %d, calendar: %s)",
			s.cfg.Reminders.Cron, s.cfg.Reminders.LeadDays, s.cfg.Reminders.HolidayCountry)
	}

	if s.cfg.Audit.Enabled && s.cfg.Audit.RetentionDays > 0 {
		if _, err := c.AddFunc(cleanupSpec, func() { s.CleanupAuditLogs(context.Background()) }); err != nil {
			return err
		}
		logger.Infof("[Scheduler] Audit cleanup scheduled (retention: %d days)", s.cfg.Audit.RetentionDays)
	}

	s.cron = c
	c.Start()
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// ReminderRun summarises one reminder pass.
type ReminderRun struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
	Due     int    `json:"due"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
}

// SendReminders emails every staff member whose assignment is due within
// the lead time. It runs at most once per day across instances and not at
// all on non-workdays.
func (s *Scheduler) SendReminders(ctx context.Context) (*ReminderRun, error) {
	now := s.now()
	if !s.holidays.IsWorkday(now, s.cfg.Reminders.HolidayCountry) {
		logger.Info().Str("date", now.Format("2006-01-02")).Msg("[Scheduler] non-workday, reminders skipped")
		return &ReminderRun{Skipped: true, Reason: "holiday"}, nil
	}

	acquired, err := s.locks.TryAcquire(ctx, reminderLockName, now.Format("2006-01-02"), s.owner, lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return &ReminderRun{Skipped: true, Reason: "locked"}, nil
	}

	deadline := now.AddDate(0, 0, s.cfg.Reminders.LeadDays)
	due, err := s.proposals.DueAssignments(ctx, deadline)
	if err != nil {
		return nil, err
	}

	run := &ReminderRun{Due: len(due)}
	for _, a := range due {
		if a.User == nil || a.DueDate == nil {
			continue
		}
		title, err := s.proposals.FindTitle(ctx, a.ProposalID)
		if err != nil {
			logger.Warn().Err(err).Uint("proposal_id", a.ProposalID).Msg("[Scheduler] proposal lookup failed")
			run.Failed++
			continue
		}
		result := s.notifier.SendAssignmentReminder(ctx, a.User, title, *a.DueDate)
		if !result.Success {
			run.Failed++
			continue
		}
		if err := s.proposals.MarkReminderSent(ctx, a.ID, now); err != nil {
			logger.Warn().Err(err).Uint("assignment_id", a.ID).Msg("[Scheduler] failed to mark reminder")
		}
		s.metrics.ObserveReminder()
		run.Sent++
	}

	logger.Info().Int("due", run.Due).Int("sent", run.Sent).Int("failed", run.Failed).Msg("[Scheduler] reminders done")
	return run, nil
}

// CleanupAuditLogs deletes audit entries past retention.
func (s *Scheduler) CleanupAuditLogs(ctx context.Context) {
	if s.audit == nil {
		return
	}
	now := s.now()
	acquired, err := s.locks.TryAcquire(ctx, cleanupLockName, now.Format("2006-01-02"), s.owner, lockTTL)
	if err != nil || !acquired {
		return
	}
	deleted, err := s.audit.CleanupOldLogs(ctx, s.cfg.Audit.RetentionDays)
	if err != nil {
		logger.Error().Err(err).Msg("[Scheduler] audit cleanup failed")
		return
	}
	logger.Infof("[Scheduler] Deleted %d audit entries older than %d days", deleted, s.cfg.Audit.RetentionDays)
}
