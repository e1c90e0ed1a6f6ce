// Package flows implements the two credential flows of the client: password
// (with its pending-second-factor branch) and one-time passcode. Each flow
// validates locally, exchanges credentials with the backend, and on success
// hands a session descriptor to the session manager. Neither flow ever
// leaves the client partially authenticated, and neither clears caller-held
// draft fields - a failed attempt can always be retried as-is.
package flows

import (
	"context"
	"log/slog"
	"time"

	"github.com/openlodge/lodge/internal/client/domain"
	"github.com/openlodge/lodge/internal/client/session"
	"github.com/openlodge/lodge/pkg/lodgeapi"
)

// PasswordFlow exchanges email/password credentials for a session with a
// one hour lifetime, or parks the login behind a second-factor challenge.
type PasswordFlow struct {
	API      *lodgeapi.Client
	Sessions *session.Manager
	Logger   *slog.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (f *PasswordFlow) clock() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Login runs the password flow. Outcomes:
//   - nil: a password session is established.
//   - *TwoFactorRequiredError: the backend dispatched a 2FA challenge; the
//     pending marker is set and the client remains logged out.
//   - *Error: validation or backend rejection, message ready for display.
func (f *PasswordFlow) Login(ctx context.Context, email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	result, err := f.API.Login(ctx, email, password)
	if err != nil {
		f.Logger.Warn("password login failed", "error", err)
		return surface(err)
	}

	switch result.Kind {
	case lodgeapi.LoginRejected:
		message := result.Message
		if message == "" {
			message = genericFailureMessage
		}
		return &Error{Message: message}

	case lodgeapi.LoginSecondFactorRequired:
		f.Sessions.SetPendingTwoFactor(result.UserID)
		return &TwoFactorRequiredError{UserID: result.UserID, Message: result.Message}

	case lodgeapi.LoginAuthenticated:
		sess := domain.Session{
			Token:     result.Token,
			ExpiresAt: f.clock().Add(domain.PasswordSessionTTL),
			UserID:    result.UserID,
			Method:    domain.LoginMethodPassword,
		}
		if err := f.Sessions.Login(ctx, sess); err != nil {
			return surface(err)
		}
		return nil

	default:
		return &Error{Message: genericFailureMessage}
	}
}

// CompleteTwoFactor submits the second-factor code for the pending login.
// Success establishes a password session and clears the pending marker;
// failure keeps the marker so the user can retry with another code.
func (f *PasswordFlow) CompleteTwoFactor(ctx context.Context, code string) error {
	pending, ok := f.Sessions.PendingTwoFactor()
	if !ok {
		return ErrNoPendingLogin
	}
	if code == "" {
		return ErrCodeRequired
	}

	grant, err := f.API.VerifyTwoFactor(ctx, pending.UserID, code)
	if err != nil {
		f.Logger.Warn("second factor verification failed", "user_id", pending.UserID, "error", err)
		return surface(err)
	}

	sess := domain.Session{
		Token:     grant.Token,
		ExpiresAt: f.clock().Add(domain.PasswordSessionTTL),
		UserID:    grant.UserID,
		Method:    domain.LoginMethodPassword,
	}
	if err := f.Sessions.Login(ctx, sess); err != nil {
		return surface(err)
	}
	return nil
}

// Abandon discards the pending second-factor challenge, e.g. when the user
// navigates away from the login screen.
func (f *PasswordFlow) Abandon() {
	f.Sessions.ClearPendingTwoFactor()
}
