package main

import (
	"aira-backend/internal/assistant"
	"aira-backend/internal/auth"
	"aira-backend/internal/calls"
	"aira-backend/internal/httpapi"
	"aira-backend/internal/rbac"
	"aira-backend/internal/reporting"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d deps) {
	h := httpapi.Handlers{Auth: d.auth, DB: d.db, Redis: d.rdb}

	// public
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(d.metrics.Handler()))

	if d.assistant != nil {
		assistant.Handlers{Service: d.assistant}.Register(r)
	}

	api := r.Group("")
	if d.auth != nil {
		if d.cfg.Auth.Required {
			api.Use(auth.RequireAccessToken(d.auth))
		} else {
			// Anonymous callers pass; a presented token still scopes ownership.
			api.Use(auth.OptionalAccessToken(d.auth))
		}
		if !d.cfg.IsProduction() {
			r.POST("/auth/token", h.IssueToken)
		}
		r.GET("/me", auth.RequireAccessToken(d.auth), h.Me)
	}

	calls.Handlers{Tracker: d.tracker}.Register(api)
	api.GET("/history/:userId/summary", reporting.Handlers{Service: reporting.NewService(d.store)}.Summary)

	// ADMIN routes need a verified admin identity, so they exist only with auth.
	if d.auth != nil {
		admin := r.Group("/admin")
		admin.Use(auth.RequireAccessToken(d.auth))
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.POST("/retention/sweep", calls.Handlers{Tracker: d.tracker}.Sweep)
		}
	}
}
