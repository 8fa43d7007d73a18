package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/citizen-portal/citizen_portal/internal/logging"
)

func setupIdempotencyApp(t *testing.T, status int) (*fiber.App, *int64, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	var calls int64
	app.Post("/signup", Idempotency(cache, time.Minute, logging.Discard()), func(c *fiber.Ctx) error {
		n := atomic.AddInt64(&calls, 1)
		return c.Status(status).JSON(fiber.Map{"call": n})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, &calls, cleanup
}

func postSignup(t *testing.T, app *fiber.App, key string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/signup", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body), resp.Header.Get(fiber.HeaderContentType)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	app, calls, cleanup := setupIdempotencyApp(t, fiber.StatusCreated)
	defer cleanup()

	postSignup(t, app, "")
	postSignup(t, app, "")
	if *calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d", *calls)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, calls, cleanup := setupIdempotencyApp(t, fiber.StatusCreated)
	defer cleanup()

	status, body, _ := postSignup(t, app, "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, status)
	}

	replayStatus, replayBody, contentType := postSignup(t, app, "abc123")
	if replayStatus != fiber.StatusCreated || replayBody != body {
		t.Fatalf("expected cached %d %s, got %d %s", status, body, replayStatus, replayBody)
	}
	if !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		t.Fatalf("expected json content type on replay, got %q", contentType)
	}
	if *calls != 1 {
		t.Fatalf("expected handler to run once, ran %d", *calls)
	}

	postSignup(t, app, "other")
	if *calls != 2 {
		t.Fatalf("expected a new key to reach the handler")
	}
}

func TestIdempotencyDoesNotCacheFailures(t *testing.T) {
	app, calls, cleanup := setupIdempotencyApp(t, fiber.StatusBadRequest)
	defer cleanup()

	postSignup(t, app, "k")
	postSignup(t, app, "k")
	if *calls != 2 {
		t.Fatalf("expected failed responses to be retried, handler ran %d", *calls)
	}
}

func TestIdempotencyRenderingReplaysLiveBody(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	current := "first"
	render := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"current": current})
	}
	var calls int64
	app := fiber.New()
	app.Post("/signup", IdempotencyRendering(cache, time.Minute, nil, render), func(c *fiber.Ctx) error {
		atomic.AddInt64(&calls, 1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"current": current})
	})

	if status, body, _ := postSignup(t, app, "k1"); status != fiber.StatusCreated || body != `{"current":"first"}` {
		t.Fatalf("unexpected first response %d %s", status, body)
	}

	current = "changed"
	status, body, contentType := postSignup(t, app, "k1")
	if status != fiber.StatusCreated {
		t.Fatalf("expected recorded status on replay, got %d", status)
	}
	if body != `{"current":"changed"}` {
		t.Fatalf("expected replay to render live state, got %s", body)
	}
	if !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		t.Fatalf("expected json content type, got %q", contentType)
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Fatalf("expected handler to run once, ran %d", n)
	}
}
