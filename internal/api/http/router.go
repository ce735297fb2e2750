package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/http/handlers"
	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Incidents      *handlers.IncidentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	incidents := api.Group("/incidents", cfg.AuthMiddleware.Handle)
	incidents.Post("/", auth.RequireAction(policy.ActionCreateIncident), cfg.Incidents.Create)
	incidents.Get("/", auth.RequireAction(policy.ActionListIncidents), cfg.Incidents.List)
	incidents.Get("/my", auth.RequireAction(policy.ActionGetMyIncidents), cfg.Incidents.Mine)
	incidents.Get("/assigned", auth.RequireAction(policy.ActionGetAssignedIncidents), cfg.Incidents.Assigned)
	incidents.Get("/stats", auth.RequireAction(policy.ActionGetStats), cfg.Incidents.Stats)
	incidents.Put("/:id/assign", auth.RequireAction(policy.ActionAssignEngineer), cfg.Incidents.Assign)
	incidents.Put("/:id/status", auth.RequireAction(policy.ActionUpdateStatus), cfg.Incidents.UpdateStatus)
	incidents.Patch("/:id/status", auth.RequireAction(policy.ActionUpdateStatus), cfg.Incidents.UpdateStatus)
	incidents.Put("/:id/reopen", auth.RequireAction(policy.ActionReopenIncident), cfg.Incidents.Reopen)

	users := api.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", auth.RequireAction(policy.ActionListUsers), cfg.Users.List)
	users.Post("/save-fcm-token", auth.RequireAction(policy.ActionSavePushToken), cfg.Users.SavePushToken)
}
