package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Issues *handlers.IssuesHandler
	Stats  *handlers.StatsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	issues := app.Group("/issues")
	issues.Post("", cfg.Issues.Report)
	issues.Get("", cfg.Issues.List)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Patch("/:id", cfg.Issues.Update)

	stats := app.Group("/stats")
	stats.Get("/public", cfg.Stats.Public)
	stats.Get("/dashboard", cfg.Stats.Dashboard)
	stats.Get("/sla", cfg.Stats.SLA)
}
