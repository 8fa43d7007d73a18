package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/citizen-portal/citizen_portal/internal/identity"
)

type stubState struct {
	loading bool
	current *identity.Identity
}

func (s stubState) Loading() bool { return s.loading }

func (s stubState) Authenticated() bool { return s.current != nil && s.current.Verified }

func (s stubState) Current() (identity.Identity, bool) {
	if s.current == nil {
		return identity.Identity{}, false
	}
	return *s.current, true
}

func guardedStatus(t *testing.T, state SessionState) (int, string) {
	t.Helper()
	app := fiber.New()
	var seen string
	app.Get("/me", RequireAuthenticated(state), func(c *fiber.Ctx) error {
		seen = IdentityID(c)
		return c.SendStatus(fiber.StatusOK)
	})
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode, seen
}

func TestRequireAuthenticated(t *testing.T) {
	cases := []struct {
		name   string
		state  stubState
		status int
	}{
		{"loading", stubState{loading: true, current: &identity.Identity{ID: "1", Verified: true}}, fiber.StatusServiceUnavailable},
		{"anonymous", stubState{}, fiber.StatusUnauthorized},
		{"unverified", stubState{current: &identity.Identity{ID: "2"}}, fiber.StatusUnauthorized},
		{"verified", stubState{current: &identity.Identity{ID: "3", Verified: true}}, fiber.StatusOK},
	}
	for _, tc := range cases {
		status, seen := guardedStatus(t, tc.state)
		if status != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, status)
		}
		if tc.status == fiber.StatusOK && seen != "3" {
			t.Fatalf("%s: expected identity id in locals, got %q", tc.name, seen)
		}
	}
}
