package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insightboard/auth-service/internal/auth/domain"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	app.Post("/api/v1/register", h.Register)
	app.Post("/api/v1/login", h.Login)
	app.Post("/api/v1/refresh", h.Refresh)
	app.Delete("/api/v1/session", h.Logout)
	app.Get("/api/v1/session", h.Session)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Admin-only endpoints
	admin := app.Group("/api/v1/admin", h.RequireRole(string(domain.RoleAdmin)))
	admin.Delete("/user/:id/sessions", h.ForceLogout)
	admin.Get("/user/:id/sessions", h.GetUserSessions)
}
