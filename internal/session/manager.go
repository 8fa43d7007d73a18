package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/citizen-portal/citizen_portal/internal/identity"
	"github.com/citizen-portal/citizen_portal/internal/logging"
	"github.com/citizen-portal/citizen_portal/internal/notification"
	"github.com/citizen-portal/citizen_portal/internal/slot"
)

const (
	defaultOTPTTL         = 5 * time.Minute
	defaultResendCooldown = time.Minute
)

// Deps aggregates the collaborators of a Manager.
type Deps struct {
	Slot     slot.Store
	Backend  identity.Backend
	Notifier notification.Notifier
	Logger   *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Policy tunes the verification challenge.
type Policy struct {
	OTPTTL         time.Duration
	ResendCooldown time.Duration
	// EnforceExpiry rejects codes after OTPTTL. Off by default: the countdown
	// is advisory.
	EnforceExpiry bool
}

// Manager owns the single current identity of the process and mirrors it to
// the durable slot.
type Manager struct {
	store    slot.Store
	backend  identity.Backend
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
	policy   Policy

	mu        sync.RWMutex
	current   *identity.Identity
	challenge *Challenge
	loading   bool
}

// NewManager builds a Manager in the loading state. Call Restore once before
// serving.
func NewManager(d Deps, p Policy) *Manager {
	if p.OTPTTL <= 0 {
		p.OTPTTL = defaultOTPTTL
	}
	if p.ResendCooldown <= 0 {
		p.ResendCooldown = defaultResendCooldown
	}
	m := &Manager{
		store:    d.Slot,
		backend:  d.Backend,
		notifier: d.Notifier,
		logger:   d.Logger,
		now:      d.Clock,
		policy:   p,
		loading:  true,
	}
	if m.logger == nil {
		m.logger = logging.Discard()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Restore reads the durable slot once. A parseable record becomes the current
// identity without further checks; anything else leaves the session empty.
// Loading is cleared whatever the outcome.
func (m *Manager) Restore(ctx context.Context) error {
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	raw, err := m.store.Read(ctx)
	if errors.Is(err, slot.ErrEmpty) {
		return nil
	}
	if err != nil {
		m.logger.Error("session.restore failed", slog.Any("error", err))
		return internalError("restore", err)
	}
	restored, err := identity.ParseRecord(raw)
	if err != nil {
		m.logger.Warn("session.restore discarded unreadable record", slog.Any("error", err))
		return nil
	}

	m.mu.Lock()
	m.current = &restored
	m.mu.Unlock()
	m.logger.Info("session.restore completed",
		slog.String("identity_id", restored.ID),
		slog.Bool("verified", restored.Verified),
	)
	return nil
}

// Login checks the pair against the backend and, on a match, makes the
// returned identity current.
func (m *Manager) Login(ctx context.Context, email, password string) (identity.Identity, error) {
	ctx = context.WithoutCancel(ctx)

	user, err := m.backend.Authenticate(ctx, email, password)
	if errors.Is(err, identity.ErrNoMatch) {
		m.logger.Info("session.login rejected")
		return identity.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		m.logger.Error("session.login backend failure", slog.Any("error", err))
		return identity.Identity{}, internalError("login", err)
	}

	if err := m.replace(ctx, user, nil); err != nil {
		return identity.Identity{}, internalError("login", err)
	}
	m.logger.Info("session.login completed", slog.String("identity_id", user.ID))
	return user, nil
}

// Signup registers a new unverified identity, makes it current and issues a
// verification challenge. Duplicate emails are not checked.
func (m *Manager) Signup(ctx context.Context, in identity.ProfileInput) (identity.Identity, error) {
	ctx = context.WithoutCancel(ctx)

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	user, err := m.backend.Register(ctx, in)
	if err != nil {
		var verr *identity.ValidationError
		if errors.As(err, &verr) {
			return identity.Identity{}, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
		m.logger.Error("session.signup backend failure", slog.Any("error", err))
		return identity.Identity{}, internalError("signup", err)
	}

	ch := m.newChallenge(user)
	if err := m.replace(ctx, user, &ch); err != nil {
		return identity.Identity{}, internalError("signup", err)
	}
	m.logger.Info("session.signup completed", slog.String("identity_id", user.ID))
	m.notify(ctx, notification.KindOTPIssued, ch)
	return user, nil
}

// VerifyOTP marks the current identity verified when the backend accepts the
// code. The identity captured at call time is the one written back.
func (m *Manager) VerifyOTP(ctx context.Context, code string) (identity.Identity, error) {
	ctx = context.WithoutCancel(ctx)

	m.mu.RLock()
	var pending *identity.Identity
	if m.current != nil {
		cp := *m.current
		pending = &cp
	}
	ch := m.challenge
	m.mu.RUnlock()

	if pending == nil {
		return identity.Identity{}, ErrNoPendingVerification
	}
	if !validCodeShape(code) {
		return identity.Identity{}, ErrInvalidCode
	}
	if m.policy.EnforceExpiry && (ch == nil || ch.Expired(m.now())) {
		return identity.Identity{}, ErrCodeExpired
	}

	ok, err := m.backend.CheckCode(ctx, *pending, code)
	if err != nil {
		m.logger.Error("session.verify backend failure", slog.Any("error", err))
		return identity.Identity{}, internalError("verify", err)
	}
	if !ok {
		m.logger.Info("session.verify rejected", slog.String("identity_id", pending.ID))
		return identity.Identity{}, ErrInvalidCode
	}

	verified := *pending
	verified.Verified = true
	if err := m.replace(ctx, verified, nil); err != nil {
		return identity.Identity{}, internalError("verify", err)
	}
	m.logger.Info("session.verify completed", slog.String("identity_id", verified.ID))
	return verified, nil
}

// ResendOTP re-issues the challenge for a current unverified identity.
// On ErrResendTooSoon the existing challenge is returned alongside the error.
func (m *Manager) ResendOTP(ctx context.Context) (Challenge, error) {
	now := m.now()

	m.mu.Lock()
	if m.current == nil || m.current.Verified {
		m.mu.Unlock()
		return Challenge{}, ErrNoPendingVerification
	}
	if m.challenge != nil && !m.challenge.CanResend(now) {
		existing := *m.challenge
		m.mu.Unlock()
		return existing, ErrResendTooSoon
	}
	ch := m.newChallenge(*m.current)
	m.challenge = &ch
	m.mu.Unlock()

	m.notify(ctx, notification.KindOTPResent, ch)
	return ch, nil
}

// Challenge returns the pending challenge, if any.
func (m *Manager) Challenge() (Challenge, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.challenge == nil {
		return Challenge{}, false
	}
	return *m.challenge, true
}

// Logout clears the current identity and deletes the durable record. The
// in-memory identity is cleared even when the delete fails.
func (m *Manager) Logout(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.current
	m.current = nil
	m.challenge = nil

	if err := m.store.Delete(ctx); err != nil {
		m.logger.Error("session.logout delete failed", slog.Any("error", err))
		return internalError("logout", err)
	}
	if prev != nil {
		m.logger.Info("session.logout completed", slog.String("identity_id", prev.ID))
	}
	return nil
}

// Current returns a copy of the current identity.
func (m *Manager) Current() (identity.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return identity.Identity{}, false
	}
	return *m.current, true
}

// Authenticated is true iff a current identity exists and is verified.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil && m.current.Verified
}

// Loading is true until Restore has completed.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// replace writes next to the slot and then swaps it in, so a failed write
// leaves both copies unchanged.
func (m *Manager) replace(ctx context.Context, next identity.Identity, ch *Challenge) error {
	raw, err := next.Record()
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Write(ctx, raw); err != nil {
		m.logger.Error("session slot write failed", slog.String("identity_id", next.ID), slog.Any("error", err))
		return fmt.Errorf("write slot: %w", err)
	}
	m.current = &next
	m.challenge = ch
	return nil
}

func (m *Manager) newChallenge(user identity.Identity) Challenge {
	now := m.now()
	return Challenge{
		Destination: user.PhoneNumber,
		IssuedAt:    now,
		ExpiresAt:   now.Add(m.policy.OTPTTL),
		ResendAt:    now.Add(m.policy.ResendCooldown),
	}
}

func (m *Manager) notify(ctx context.Context, kind string, ch Challenge) {
	if m.notifier == nil {
		return
	}
	msg := notification.Message{
		Kind:        kind,
		Destination: ch.Destination,
		Body:        "A 6-digit verification code has been sent to your registered phone number.",
	}
	if err := m.notifier.Send(ctx, msg); err != nil {
		m.logger.Warn("session.notify failed", slog.String("kind", kind), slog.Any("error", err))
	}
}
