package domain

import "time"

// LoginMethod records how a session was established. It determines the
// session lifetime and which capabilities the surrounding screens expose.
type LoginMethod string

const (
	LoginMethodPassword LoginMethod = "password"
	LoginMethodOTP      LoginMethod = "otp"
)

// Session lifetimes by login method.
const (
	PasswordSessionTTL = 1 * time.Hour
	OTPSessionTTL      = 10 * time.Minute
)

// Valid reports whether m is one of the known login methods.
func (m LoginMethod) Valid() bool {
	return m == LoginMethodPassword || m == LoginMethodOTP
}

// TTL returns the session lifetime policy for this login method.
func (m LoginMethod) TTL() time.Duration {
	if m == LoginMethodOTP {
		return OTPSessionTTL
	}
	return PasswordSessionTTL
}

// Session is the authoritative record of an authenticated identity.
// A Session exists if and only if the client is in the authenticated state;
// readers must never treat a session whose expiry has passed as valid.
type Session struct {
	// Token is the opaque bearer credential issued by the backend,
	// attached to all authenticated requests.
	Token string

	// ExpiresAt is the absolute instant after which the session is invalid.
	ExpiresAt time.Time

	// UserID is the backend-assigned identifier of the authenticated principal.
	UserID string

	// Method is the login method that established this session.
	Method LoginMethod
}

// Remaining returns the time left before the session expires at now.
// Non-positive means the session is already expired.
func (s Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// Expired reports whether the session's expiry has passed at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// PendingTwoFactor marks a user for whom the backend has dispatched a
// second-factor challenge but who is not yet authenticated. At most one
// instance exists at a time and it never survives a process restart.
type PendingTwoFactor struct {
	UserID string
}
