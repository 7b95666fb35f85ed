package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ondapiu/ticketdesk/internal/api/http/handlers"
	"github.com/ondapiu/ticketdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/auth/logout", cfg.Auth.Logout)

	tickets := protected.Group("/tickets")
	tickets.Get("/export", auth.RequireAdmin(), cfg.Tickets.Export)
	tickets.Get("/mine", cfg.Tickets.ListMine)
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", auth.RequireAdmin(), cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id", cfg.Tickets.Update)
	tickets.Get("/:id/actions", cfg.Tickets.Actions)
	tickets.Post("/:id/attachment", cfg.Tickets.UploadAttachment)

	protected.Get("/attachments/:name", cfg.Tickets.DownloadAttachment)

	users := protected.Group("/users", auth.RequireAdmin())
	users.Post("", cfg.Users.Register)
	users.Get("", cfg.Users.List)
	users.Delete("/:id", cfg.Users.Delete)
	users.Post("/:id/password/reset", cfg.Users.ResetPassword)
}
