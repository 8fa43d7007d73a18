package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citizen-portal/citizen_portal/internal/session"
)

// RegisterSessionRoutes wires the login/signup/verify/logout lifecycle.
func RegisterSessionRoutes(r fiber.Router, h *session.Handler, rateLimiter, idempotency fiber.Handler) {
	group := r.Group("/session")
	group.Get("", h.State)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	if idempotency != nil {
		group.Post("/signup", idempotency, h.Signup)
	} else {
		group.Post("/signup", h.Signup)
	}
	group.Post("/verify-otp", h.VerifyOTP)
	group.Post("/resend-otp", h.ResendOTP)
	group.Get("/otp", h.Challenge)
	group.Post("/logout", h.Logout)
}
