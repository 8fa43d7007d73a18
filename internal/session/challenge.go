package session

import "time"

// Challenge is the pending verification code for the current identity. It is
// held in memory only.
type Challenge struct {
	Destination string    `json:"destination"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	ResendAt    time.Time `json:"resend_at"`
}

// Remaining is the time left before the code expires, floored at zero.
func (c Challenge) Remaining(now time.Time) time.Duration {
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Expired reports whether the advisory expiry has passed.
func (c Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CanResend reports whether the resend cooldown has elapsed.
func (c Challenge) CanResend(now time.Time) bool {
	return !now.Before(c.ResendAt)
}

func validCodeShape(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
