package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials means the login pair matched no account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoPendingVerification means there is no current identity to verify
	// or resend a code for.
	ErrNoPendingVerification = errors.New("no pending verification")
	// ErrInvalidCode means the passcode was malformed or wrong.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrCodeExpired is only returned when expiry enforcement is enabled.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrInvalidProfile wraps an identity.ValidationError from signup.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrResendTooSoon means the resend cooldown has not elapsed.
	ErrResendTooSoon = errors.New("verification code resent too recently")
	// ErrInternal wraps backend and storage failures.
	ErrInternal = errors.New("internal error")
)

// Reason is the machine-readable cause of a failed session operation.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonInvalidCredentials    Reason = "invalid_credentials"
	ReasonNoPendingVerification Reason = "no_pending_verification"
	ReasonInvalidCode           Reason = "invalid_code"
	ReasonCodeExpired           Reason = "code_expired"
	ReasonInvalidProfile        Reason = "invalid_profile"
	ReasonResendTooSoon         Reason = "resend_too_soon"
	ReasonInternal              Reason = "internal_error"
)

var reasons = []struct {
	err    error
	reason Reason
}{
	{ErrInvalidCredentials, ReasonInvalidCredentials},
	{ErrNoPendingVerification, ReasonNoPendingVerification},
	{ErrInvalidCode, ReasonInvalidCode},
	{ErrCodeExpired, ReasonCodeExpired},
	{ErrInvalidProfile, ReasonInvalidProfile},
	{ErrResendTooSoon, ReasonResendTooSoon},
}

// ReasonOf maps an error returned by the Manager to its Reason. Unknown
// errors map to ReasonInternal and nil maps to ReasonNone.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonInternal
}

func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
