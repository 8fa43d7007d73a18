package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func loginApp(limiter fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Post("/login", limiter, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func attemptLogin(t *testing.T, app *fiber.App, email string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`","password":"x"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestLoginRateLimitRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := loginApp(LoginRateLimit(cache, 2))
	for i := 0; i < 2; i++ {
		if status := attemptLogin(t, app, "Admin"); status != fiber.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, status)
		}
	}
	if status := attemptLogin(t, app, "Admin"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	if status := attemptLogin(t, app, "demo@example.com"); status != fiber.StatusOK {
		t.Fatalf("expected other key unaffected, got %d", status)
	}
	if ttl := mr.TTL(loginRateKeyPrefix + "Admin"); ttl <= 0 {
		t.Fatalf("expected counter to expire, ttl=%v", ttl)
	}
}

func TestLoginRateLimitLocalFallback(t *testing.T) {
	app := loginApp(LoginRateLimit(nil, 3))
	for i := 0; i < 3; i++ {
		if status := attemptLogin(t, app, "Admin"); status != fiber.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, status)
		}
	}
	if status := attemptLogin(t, app, "Admin"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 once the bucket is empty, got %d", status)
	}
}
