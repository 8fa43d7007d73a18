package session

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/citizen-portal/citizen_portal/internal/identity"
)

// Handler exposes the session lifecycle over HTTP.
type Handler struct {
	mgr *Manager
}

// NewHandler constructs a session HTTP handler.
func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AadharNumber string `json:"aadharNumber"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type stateResponse struct {
	Loading       bool               `json:"loading"`
	Authenticated bool               `json:"authenticated"`
	Identity      *identity.Identity `json:"identity"`
}

type challengeResponse struct {
	Destination      string    `json:"destination"`
	ExpiresAt        time.Time `json:"expires_at"`
	ResendAt         time.Time `json:"resend_at"`
	SecondsRemaining int64     `json:"seconds_remaining"`
	CanResend        bool      `json:"can_resend"`
}

type errorResponse struct {
	Error   string                `json:"error"`
	Reason  Reason                `json:"reason"`
	Details []identity.FieldError `json:"details,omitempty"`
}

type throttledResponse struct {
	errorResponse
	Challenge challengeResponse `json:"challenge"`
}

// State reports the loading and authenticated flags and the current identity.
func (h *Handler) State(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.state())
}

// Login validates the credential pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.mgr.Login(c.UserContext(), req.Email, req.Password); err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(h.state())
}

// Signup registers a new unverified identity.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	in := identity.ProfileInput{Name: req.Name, Email: req.Email, Phone: req.Phone, AadharNumber: req.AadharNumber}
	if _, err := h.mgr.Signup(c.UserContext(), in); err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(h.state())
}

// VerifyOTP checks the one-time passcode for the current identity.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.mgr.VerifyOTP(c.UserContext(), req.Code); err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(h.state())
}

// ResendOTP re-issues the verification challenge.
func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	ch, err := h.mgr.ResendOTP(c.UserContext())
	if errors.Is(err, ErrResendTooSoon) {
		wait := int(ch.ResendAt.Sub(h.mgr.now()) / time.Second)
		if wait < 1 {
			wait = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(wait))
		return c.Status(StatusFor(ReasonResendTooSoon)).JSON(throttledResponse{
			errorResponse: errorResponse{Error: err.Error(), Reason: ReasonResendTooSoon},
			Challenge:     h.challenge(ch),
		})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(h.challenge(ch))
}

// Snapshot renders the current session state without touching the status
// code. Idempotent replays use it so a retried request never reports a
// session the manager no longer holds.
func (h *Handler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(h.state())
}

// Challenge reports the countdown of the pending verification code.
func (h *Handler) Challenge(c *fiber.Ctx) error {
	ch, ok := h.mgr.Challenge()
	if !ok {
		return writeError(c, ErrNoPendingVerification)
	}
	return c.Status(http.StatusOK).JSON(h.challenge(ch))
}

// Logout clears the session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.mgr.Logout(c.UserContext()); err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(h.state())
}

func (h *Handler) state() stateResponse {
	resp := stateResponse{Loading: h.mgr.Loading(), Authenticated: h.mgr.Authenticated()}
	if cur, ok := h.mgr.Current(); ok {
		resp.Identity = &cur
	}
	return resp
}

func (h *Handler) challenge(ch Challenge) challengeResponse {
	now := h.mgr.now()
	return challengeResponse{
		Destination:      ch.Destination,
		ExpiresAt:        ch.ExpiresAt,
		ResendAt:         ch.ResendAt,
		SecondsRemaining: int64(ch.Remaining(now) / time.Second),
		CanResend:        ch.CanResend(now),
	}
}

// StatusFor maps a failure reason to an HTTP status code.
func StatusFor(reason Reason) int {
	switch reason {
	case ReasonInvalidCredentials:
		return http.StatusUnauthorized
	case ReasonNoPendingVerification:
		return http.StatusConflict
	case ReasonInvalidCode, ReasonInvalidProfile:
		return http.StatusBadRequest
	case ReasonCodeExpired:
		return http.StatusGone
	case ReasonResendTooSoon:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	reason := ReasonOf(err)
	resp := errorResponse{Error: err.Error(), Reason: reason}
	if reason == ReasonInternal {
		resp.Error = ErrInternal.Error()
	}
	var verr *identity.ValidationError
	if errors.As(err, &verr) {
		resp.Details = verr.Fields
	}
	return c.Status(StatusFor(reason)).JSON(resp)
}
