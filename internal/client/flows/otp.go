package flows

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/openlodge/lodge/internal/client/domain"
	"github.com/openlodge/lodge/internal/client/session"
	"github.com/openlodge/lodge/pkg/lodgeapi"
)

// OTPFlow is the two-step passcode flow: request a code for a member name,
// then exchange name+code for a ten minute session. Both steps may be
// repeated freely - resending does not lock the user out, and a failed
// verification keeps the sent flag so the user retries without resending.
type OTPFlow struct {
	API      *lodgeapi.Client
	Sessions *session.Manager
	Logger   *slog.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time

	mu   sync.Mutex
	sent bool
}

func (f *OTPFlow) clock() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Send asks the backend to dispatch a passcode for name. Returns the
// backend's confirmation message. No session state changes.
func (f *OTPFlow) Send(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrNameRequired
	}

	message, err := f.API.SendOTP(ctx, name)
	if err != nil {
		f.Logger.Warn("send-otp failed", "error", err)
		return "", surface(err)
	}

	f.mu.Lock()
	f.sent = true
	f.mu.Unlock()
	return message, nil
}

// Sent reports whether a passcode has been requested in this flow.
func (f *OTPFlow) Sent() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

// Verify exchanges the passcode for a session with the OTP lifetime.
// Failure leaves the sent flag intact.
func (f *OTPFlow) Verify(ctx context.Context, name, otp string) error {
	if otp == "" {
		return ErrOTPRequired
	}

	grant, err := f.API.VerifyOTP(ctx, name, otp)
	if err != nil {
		f.Logger.Warn("verify-otp failed", "error", err)
		return surface(err)
	}

	sess := domain.Session{
		Token:     grant.Token,
		ExpiresAt: f.clock().Add(domain.OTPSessionTTL),
		UserID:    grant.UserID,
		Method:    domain.LoginMethodOTP,
	}
	if err := f.Sessions.Login(ctx, sess); err != nil {
		return surface(err)
	}
	return nil
}

// Reset discards the local draft state, e.g. on navigating away.
func (f *OTPFlow) Reset() {
	f.mu.Lock()
	f.sent = false
	f.mu.Unlock()
}
