package session

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(mgr *Manager) *fiber.App {
	h := NewHandler(mgr)
	app := fiber.New()
	app.Get("/session", h.State)
	app.Post("/session/login", h.Login)
	app.Post("/session/signup", h.Signup)
	app.Post("/session/verify-otp", h.VerifyOTP)
	app.Post("/session/resend-otp", h.ResendOTP)
	app.Get("/session/otp", h.Challenge)
	app.Post("/session/logout", h.Logout)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out, resp.Header.Get(fiber.HeaderRetryAfter)
}

func TestHandlerLoginFlow(t *testing.T) {
	f := newFixture(t, Policy{})
	app := newTestApp(f.mgr)

	status, body, _ := do(t, app, fiber.MethodGet, "/session", "")
	if status != fiber.StatusOK || body["authenticated"] != false || body["identity"] != nil {
		t.Fatalf("unexpected initial state %d %v", status, body)
	}

	status, body, _ = do(t, app, fiber.MethodPost, "/session/login", `{"email":"demo@example.com","password":"nope"}`)
	if status != fiber.StatusUnauthorized || body["reason"] != string(ReasonInvalidCredentials) {
		t.Fatalf("expected 401 invalid_credentials, got %d %v", status, body)
	}

	status, body, _ = do(t, app, fiber.MethodPost, "/session/login", `{"email":"Admin","password":"Admin123"}`)
	if status != fiber.StatusOK || body["authenticated"] != true {
		t.Fatalf("expected authenticated admin, got %d %v", status, body)
	}
	id, _ := body["identity"].(map[string]any)
	if id["id"] != "admin" || id["verified"] != true {
		t.Fatalf("unexpected identity %v", id)
	}

	status, body, _ = do(t, app, fiber.MethodPost, "/session/logout", "")
	if status != fiber.StatusOK || body["authenticated"] != false || body["identity"] != nil {
		t.Fatalf("expected logged out state, got %d %v", status, body)
	}
}

func TestHandlerSignupValidation(t *testing.T) {
	f := newFixture(t, Policy{})
	app := newTestApp(f.mgr)

	status, body, _ := do(t, app, fiber.MethodPost, "/session/signup", `{"name":"","email":"a@x.com","phone":""}`)
	if status != fiber.StatusBadRequest || body["reason"] != string(ReasonInvalidProfile) {
		t.Fatalf("expected 400 invalid_profile, got %d %v", status, body)
	}
	if body["error"] != "invalid profile: missing name, phone" {
		t.Fatalf("unexpected error message %q", body["error"])
	}
	details, _ := body["details"].([]any)
	if len(details) != 2 {
		t.Fatalf("expected two field errors, got %v", body["details"])
	}
}

func TestHandlerSignupAndVerify(t *testing.T) {
	f := newFixture(t, Policy{})
	app := newTestApp(f.mgr)

	status, body, _ := do(t, app, fiber.MethodPost, "/session/verify-otp", `{"code":"123456"}`)
	if status != fiber.StatusConflict || body["reason"] != string(ReasonNoPendingVerification) {
		t.Fatalf("expected 409 before signup, got %d %v", status, body)
	}

	status, body, _ = do(t, app, fiber.MethodPost, "/session/signup", `{"name":"Asha","email":"asha@x.com","phone":"9876543210"}`)
	if status != fiber.StatusCreated || body["authenticated"] != false {
		t.Fatalf("expected 201 unverified, got %d %v", status, body)
	}
	id, _ := body["identity"].(map[string]any)
	if id["aadharNumber"] != "0000-0000-0000" || id["phoneNumber"] != "9876543210" {
		t.Fatalf("unexpected identity %v", id)
	}

	status, body, _ = do(t, app, fiber.MethodGet, "/session/otp", "")
	if status != fiber.StatusOK || body["destination"] != "9876543210" || body["seconds_remaining"] != float64(300) {
		t.Fatalf("unexpected challenge %d %v", status, body)
	}

	status, body, _ = do(t, app, fiber.MethodPost, "/session/verify-otp", `{"code":"12345"}`)
	if status != fiber.StatusBadRequest || body["reason"] != string(ReasonInvalidCode) {
		t.Fatalf("expected 400 invalid_code, got %d %v", status, body)
	}

	status, body, _ = do(t, app, fiber.MethodPost, "/session/verify-otp", `{"code":"123456"}`)
	if status != fiber.StatusOK || body["authenticated"] != true {
		t.Fatalf("expected verified session, got %d %v", status, body)
	}
}

func TestHandlerResendCooldown(t *testing.T) {
	f := newFixture(t, Policy{})
	app := newTestApp(f.mgr)

	if status, _, _ := do(t, app, fiber.MethodPost, "/session/signup", `{"name":"A","email":"a@x.com","phone":"111"}`); status != fiber.StatusCreated {
		t.Fatalf("signup status %d", status)
	}

	f.now = f.now.Add(20 * time.Second)
	status, body, retry := do(t, app, fiber.MethodPost, "/session/resend-otp", "")
	if status != fiber.StatusTooManyRequests || body["reason"] != string(ReasonResendTooSoon) {
		t.Fatalf("expected 429, got %d %v", status, body)
	}
	if retry != "40" {
		t.Fatalf("expected Retry-After 40, got %q", retry)
	}
	ch, _ := body["challenge"].(map[string]any)
	if ch["destination"] != "111" || ch["can_resend"] != false || ch["seconds_remaining"] != float64(280) {
		t.Fatalf("expected existing challenge in 429 body, got %v", body)
	}

	f.now = f.now.Add(40 * time.Second)
	status, body, _ = do(t, app, fiber.MethodPost, "/session/resend-otp", "")
	if status != fiber.StatusOK || body["can_resend"] != false || body["seconds_remaining"] != float64(300) {
		t.Fatalf("expected fresh challenge, got %d %v", status, body)
	}
}

func TestHandlerHidesInternalErrors(t *testing.T) {
	f := newFixture(t, Policy{})
	f.store.failWrite = true
	app := newTestApp(f.mgr)

	status, body, _ := do(t, app, fiber.MethodPost, "/session/login", `{"email":"Admin","password":"Admin123"}`)
	if status != fiber.StatusInternalServerError || body["reason"] != string(ReasonInternal) {
		t.Fatalf("expected 500 internal_error, got %d %v", status, body)
	}
	if msg, _ := body["error"].(string); strings.Contains(msg, "disk") {
		t.Fatalf("internal detail leaked: %q", msg)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[Reason]int{
		ReasonInvalidCredentials:    fiber.StatusUnauthorized,
		ReasonNoPendingVerification: fiber.StatusConflict,
		ReasonInvalidCode:           fiber.StatusBadRequest,
		ReasonInvalidProfile:        fiber.StatusBadRequest,
		ReasonCodeExpired:           fiber.StatusGone,
		ReasonResendTooSoon:         fiber.StatusTooManyRequests,
		ReasonInternal:              fiber.StatusInternalServerError,
	}
	for reason, want := range cases {
		if got := StatusFor(reason); got != want {
			t.Fatalf("StatusFor(%s) = %d, want %d", reason, got, want)
		}
	}
}
