package main

import (
	"github.com/gin-gonic/gin"
	"github.com/naccer/portal/backend/internal/access"
	"github.com/naccer/portal/backend/internal/middleware"
	"github.com/naccer/portal/backend/pkg/logger"
	"github.com/naccer/portal/backend/pkg/response"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.RequestID(), logger.GinLogger(), logger.GinRecovery())
	r.Use(svc.metrics.GinMiddleware())
	r.Use(middleware.CORS(svc.cfg.AllowedOrigins()))
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	authLimiter := middleware.PerMinute(svc.cfg.RateLimit.AuthPerMinute, svc.cfg.RateLimit.AuthBurst)
	authenticated := middleware.AuthRequired(svc.authService)
	can := middleware.Authorize

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", gin.WrapH(svc.metrics.Handler()))

	api := r.Group("/api")
	api.GET("/health", svc.healthHandler.CheckHealth)

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		limited := auth.Group("", authLimiter.Middleware())
		limited.POST("/register", svc.authHandler.Register)
		limited.POST("/login", svc.authHandler.Login)
		limited.POST("/refresh", svc.authHandler.Refresh)
		auth.GET("/register", svc.authHandler.RegisterUsage)
		auth.GET("/login", svc.authHandler.LoginUsage)
	}

	// SSE accepts the token as a query parameter
	api.GET("/events", middleware.StreamAuth(svc.authService), svc.eventsHandler.Stream)

	protected := api.Group("", authenticated)
	if svc.cfg.Audit.Enabled {
		protected.Use(middleware.AuditLog(svc.audit))
	}
	{
		protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
		protected.PUT("/auth/profile", svc.authHandler.UpdateProfile)
		protected.POST("/auth/logout", svc.authHandler.Logout)
		protected.POST("/auth/change-password", svc.authHandler.ChangePassword)
		protected.GET("/auth/staff", can(access.OpListStaff), svc.authHandler.ListStaff)

		ph := svc.proposalHandler
		proposals := protected.Group("/proposals")
		proposals.POST("", can(access.OpCreateProposal), ph.Create)
		proposals.POST("/upload", can(access.OpCreateProposal), ph.Create)
		proposals.GET("", can(access.OpListProposals), ph.List)
		proposals.GET("/my-proposals", can(access.OpListOwn), ph.ListMine)
		proposals.GET("/assigned", can(access.OpListAssigned), ph.ListAssigned)
		proposals.GET("/:id", can(access.OpReadProposal), ph.Get)
		proposals.PUT("/:id", can(access.OpUpdateProposal), ph.Update)
		proposals.POST("/:id/feedback", can(access.OpAddFeedback), ph.AddFeedback)
		proposals.POST("/:id/assign", can(access.OpAssignStaff), ph.AssignStaff)
		proposals.PUT("/:id/status", can(access.OpUpdateStatus), ph.UpdateStatus)
		proposals.POST("/:id/staff-report", can(access.OpSubmitStaffReport), ph.SubmitStaffReport)
		proposals.POST("/:id/ai-suggestions", can(access.OpAISuggestions), ph.AISuggestions)

		protected.POST("/collaboration/invite", can(access.OpInvite), svc.collaborationHandler.Invite)
		protected.GET("/collaboration/invitations/:proposalId", can(access.OpInvite), svc.collaborationHandler.Invitations)

		protected.GET("/dashboard/stats", can(access.OpViewStats), svc.dashboardHandler.GetStats)
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route "+c.Request.URL.Path+" not found")
	})
}
