package flows

import (
	"errors"
	"fmt"

	"github.com/openlodge/lodge/pkg/lodgeapi"
)

// genericFailureMessage is shown when the failure carries nothing the user
// could act on (network unreachable, malformed response).
const genericFailureMessage = "Something went wrong. Please try again."

// Error is a flow failure whose Message is ready for direct display. The
// underlying cause, when there is one, stays reachable through Unwrap for
// logging.
type Error struct {
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.cause }

// Local validation failures, detected before any network I/O. The texts are
// the exact strings the screens display.
var (
	ErrInvalidEmail     = &Error{Message: "Please enter a valid email address"}
	ErrPasswordTooShort = &Error{Message: "Password must be at least 8 characters"}
	ErrNameRequired     = &Error{Message: "Please enter your name"}
	ErrOTPRequired      = &Error{Message: "Please enter the code you received"}
	ErrCodeRequired     = &Error{Message: "Please enter the verification code"}
	ErrNoPendingLogin   = &Error{Message: "No login is awaiting a second factor"}
)

// TwoFactorRequiredError reports that the password was accepted but the
// backend dispatched a second-factor challenge; no session exists yet.
type TwoFactorRequiredError struct {
	UserID  string
	Message string
}

func (e *TwoFactorRequiredError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "A second factor is required to complete this login"
}

// surface translates an API-layer failure into a user-displayable flow
// error: backend rejections keep their message verbatim, everything else
// (transport, parsing) collapses to the generic text.
func surface(err error) error {
	var apiErr *lodgeapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return &Error{Message: apiErr.Message, cause: err}
	}
	return &Error{Message: genericFailureMessage, cause: fmt.Errorf("flow failed: %w", err)}
}
