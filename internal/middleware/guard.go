package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/citizen-portal/citizen_portal/internal/identity"
)

const identityIDLocal = "identity_id"

// SessionState is the read side of the session manager used by route guards.
type SessionState interface {
	Loading() bool
	Authenticated() bool
	Current() (identity.Identity, bool)
}

// RequireAuthenticated lets a request through only when the session holds a
// verified identity. While the durable slot is still being read it answers
// 503 so clients retry instead of redirecting to the entry page.
func RequireAuthenticated(state SessionState) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if state.Loading() {
			c.Set(fiber.HeaderRetryAfter, "1")
			return fiber.NewError(http.StatusServiceUnavailable, "session is loading")
		}
		if !state.Authenticated() {
			return fiber.NewError(http.StatusUnauthorized, "verification required")
		}
		if cur, ok := state.Current(); ok {
			c.Locals(identityIDLocal, cur.ID)
		}
		return c.Next()
	}
}

// IdentityID returns the identity attached by RequireAuthenticated.
func IdentityID(c *fiber.Ctx) string {
	id, _ := c.Locals(identityIDLocal).(string)
	return id
}
