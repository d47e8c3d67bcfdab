package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	SLA      *handlers.SLAHandler
	Policies *handlers.PoliciesHandler
	Metrics  *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	slaGroup := app.Group("/sla")
	slaGroup.Get("/stats", cfg.SLA.Stats)
	slaGroup.Post("/reconcile", cfg.SLA.Reconcile)

	slaGroup.Post("/tickets", cfg.SLA.RegisterTicket)
	slaGroup.Get("/tickets/:id", cfg.SLA.GetRecord)
	slaGroup.Post("/tickets/:id/first-response", cfg.SLA.FirstResponse)
	slaGroup.Post("/tickets/:id/resolve", cfg.SLA.Resolve)

	slaGroup.Get("/policies", cfg.Policies.List)
	slaGroup.Post("/policies", cfg.Policies.Create)
	slaGroup.Post("/policies/:id/deactivate", cfg.Policies.Deactivate)
}
