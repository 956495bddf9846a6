package main

import (
	"github.com/naccer/portal/backend/internal/config"
	"github.com/naccer/portal/backend/internal/handlers"
	"github.com/naccer/portal/backend/internal/metrics"
	"github.com/naccer/portal/backend/internal/services"
	"github.com/naccer/portal/backend/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg        *config.Config
	metrics    *metrics.Metrics
	audit      *services.SystemLogService
	events     *services.EventHub
	notifier   *services.NotificationService
	dispatcher services.Dispatcher
	worker     *services.Worker
	scheduler  *services.Scheduler

	authService *services.AuthService

	authHandler          *handlers.AuthHandler
	proposalHandler      *handlers.ProposalHandler
	collaborationHandler *handlers.CollaborationHandler
	dashboardHandler     *handlers.DashboardHandler
	healthHandler        *handlers.HealthHandler
	eventsHandler        *handlers.EventsHandler
}

// bootstrap wires services over db. Nothing runs in the background until start.
func bootstrap(cfg *config.Config, db *gorm.DB, transport services.MailTransport) *appServices {
	m := metrics.New()
	audit := services.NewSystemLogService(db)
	events := services.NewEventHub()

	notifier := services.NewNotificationService(transport, cfg.Server.ClientURL, m)
	dispatcher := services.NewDispatcher(&cfg.Redis, notifier.Process)
	notifier.SetDispatcher(dispatcher)

	authService := services.NewAuthService(db, &cfg.JWT, notifier)
	proposalService := services.NewProposalService(db, notifier, audit, m, events)

	return &appServices{
		cfg:         cfg,
		metrics:     m,
		audit:       audit,
		events:      events,
		notifier:    notifier,
		dispatcher:  dispatcher,
		worker:      services.NewWorker(&cfg.Redis, notifier.Process),
		scheduler:   services.NewScheduler(db, cfg, notifier, audit, m),
		authService: authService,

		authHandler:          handlers.NewAuthHandler(authService),
		proposalHandler:      handlers.NewProposalHandler(proposalService, services.NewAIService(db, &cfg.AI)),
		collaborationHandler: handlers.NewCollaborationHandler(services.NewCollaborationService(db, notifier, audit)),
		dashboardHandler:     handlers.NewDashboardHandler(services.NewDashboardService(db)),
		healthHandler:        handlers.NewHealthHandler(db, notifier, events, dispatcher),
		eventsHandler:        handlers.NewEventsHandler(events),
	}
}

// start launches the queue worker and the cron scheduler.
func (s *appServices) start() error {
	if s.worker != nil {
		if err := s.worker.Start(); err != nil {
			return err
		}
	}
	return s.scheduler.Start()
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close dispatcher")
		}
	}
}
