package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/citizen-portal/citizen_portal/internal/middleware"
	"github.com/citizen-portal/citizen_portal/internal/session"
)

// RegisterProfileRoute exposes the verified identity behind the route guard.
func RegisterProfileRoute(r fiber.Router, sessions *session.Manager) {
	r.Get("/me", func(c *fiber.Ctx) error {
		user, ok := sessions.Current()
		if !ok || user.ID != middleware.IdentityID(c) {
			// logged out or replaced between the guard and here
			return fiber.NewError(http.StatusUnauthorized, "verification required")
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"id":           user.ID,
			"name":         user.Name,
			"email":        user.Email,
			"phone":        user.Phone,
			"phoneNumber":  user.PhoneNumber,
			"aadharNumber": user.AadharNumber,
			"verified":     user.Verified,
		})
	})
}
