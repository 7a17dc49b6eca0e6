package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Statuses       *handlers.TicketStatusesHandler
	AI             *handlers.AIHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/users/password-reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/users/password-reset/confirm", cfg.Users.ConfirmPasswordReset)
	authGroup.Post("/users/password", cfg.AuthMiddleware.Handle, auth.RequireUser(), cfg.Users.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())

	// Status catalog routes come first so "statuses" never matches :id.
	tickets.Post("/statuses", auth.RequireSuperuser(), cfg.Statuses.Create)
	tickets.Get("/statuses", cfg.Statuses.List)
	tickets.Get("/statuses/:status_id", cfg.Statuses.Get)
	tickets.Delete("/statuses/:status_id", auth.RequireSuperuser(), cfg.Statuses.Delete)

	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/messages", cfg.Tickets.CreateMessage)
	tickets.Get("/:id/ai-response", cfg.AI.StreamResponse)
}
