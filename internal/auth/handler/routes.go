package handler

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the auth API. The credential endpoints share a
// per-IP rate limit; /me and /logout-all require a valid access token.
func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	app.Get("/api/v1/health", h.Health)

	limited := NewRateLimiter(5, 10).Middleware()
	app.Post("/api/v1/register", limited, h.Register)
	app.Post("/api/v1/login", limited, h.Login)
	app.Post("/api/v1/refresh", limited, h.Refresh)
	app.Post("/api/v1/logout", h.Logout)

	auth := h.RequireAuth()
	app.Post("/api/v1/logout-all", auth, h.LogoutAll)
	app.Get("/api/v1/me", auth, h.Me)
}
