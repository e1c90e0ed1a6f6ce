package flows

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/openlodge/lodge/internal/client/domain"
	"github.com/stretchr/testify/require"
)

func TestPasswordLoginShortPasswordMakesNoNetworkCall(t *testing.T) {
	env := newFlowEnv(t, nil)
	flow := env.passwordFlow()

	err := flow.Login(context.Background(), "a@b.com", "short")
	require.ErrorIs(t, err, ErrPasswordTooShort)
	require.Equal(t, "Password must be at least 8 characters", err.Error())
	require.Zero(t, env.requests.Load())
	require.False(t, env.sessions.Authenticated())
}

func TestPasswordLoginInvalidEmailMakesNoNetworkCall(t *testing.T) {
	env := newFlowEnv(t, nil)
	flow := env.passwordFlow()

	err := flow.Login(context.Background(), "not-an-email", "long-enough-password")
	require.ErrorIs(t, err, ErrInvalidEmail)
	require.Zero(t, env.requests.Load())
}

func TestPasswordLoginSuccess(t *testing.T) {
	env := newFlowEnv(t, jsonHandler(http.StatusOK, `{"token":"tok-1","userId":"u-1"}`))
	flow := env.passwordFlow()

	require.NoError(t, flow.Login(context.Background(), "a@b.com", "long-enough-password"))

	sess, ok := env.sessions.Current()
	require.True(t, ok)
	require.Equal(t, "tok-1", sess.Token)
	require.Equal(t, "u-1", sess.UserID)
	require.Equal(t, domain.LoginMethodPassword, sess.Method)
	require.WithinDuration(t, env.now.Add(domain.PasswordSessionTTL), sess.ExpiresAt, time.Second)
}

func TestPasswordLoginRejectedSurfacesBackendMessage(t *testing.T) {
	env := newFlowEnv(t, jsonHandler(http.StatusOK, `{"error":"Invalid email or password"}`))
	flow := env.passwordFlow()

	err := flow.Login(context.Background(), "a@b.com", "long-enough-password")
	require.EqualError(t, err, "Invalid email or password")
	require.False(t, env.sessions.Authenticated())
}

func TestPasswordLoginSecondFactorBranch(t *testing.T) {
	env := newFlowEnv(t, jsonHandler(http.StatusOK,
		`{"message":"Successfully sent 2FA code to email","userId":"u1"}`))
	flow := env.passwordFlow()

	err := flow.Login(context.Background(), "a@b.com", "long-enough-password")

	var twoFA *TwoFactorRequiredError
	require.ErrorAs(t, err, &twoFA)
	require.Equal(t, "u1", twoFA.UserID)

	// Not authenticated, but the pending marker is set.
	require.False(t, env.sessions.Authenticated())
	pending, ok := env.sessions.PendingTwoFactor()
	require.True(t, ok)
	require.Equal(t, "u1", pending.UserID)
}

func TestPasswordLoginTransportFailureIsGeneric(t *testing.T) {
	env := newFlowEnv(t, jsonHandler(http.StatusOK, `{"token":"unused"}`))
	flow := env.passwordFlow()

	// Point the client at a dead address.
	env.api.BaseURL = "http://127.0.0.1:1"

	err := flow.Login(context.Background(), "a@b.com", "long-enough-password")
	require.EqualError(t, err, genericFailureMessage)
	require.False(t, env.sessions.Authenticated())
}

func TestPasswordLoginRemoteRejectionKeepsBackendText(t *testing.T) {
	env := newFlowEnv(t, jsonHandler(http.StatusUnauthorized, `{"message":"Account locked"}`))
	flow := env.passwordFlow()

	err := flow.Login(context.Background(), "a@b.com", "long-enough-password")
	require.EqualError(t, err, "Account locked")
}

func TestCompleteTwoFactorWithoutPendingLogin(t *testing.T) {
	env := newFlowEnv(t, nil)
	flow := env.passwordFlow()

	err := flow.CompleteTwoFactor(context.Background(), "123456")
	require.ErrorIs(t, err, ErrNoPendingLogin)
	require.Zero(t, env.requests.Load())
}

func TestCompleteTwoFactorEmptyCode(t *testing.T) {
	env := newFlowEnv(t, nil)
	env.sessions.SetPendingTwoFactor("u1")
	flow := env.passwordFlow()

	err := flow.CompleteTwoFactor(context.Background(), "")
	require.ErrorIs(t, err, ErrCodeRequired)
	require.Zero(t, env.requests.Load())
}

func TestCompleteTwoFactorSuccess(t *testing.T) {
	env := newFlowEnv(t, jsonHandler(http.StatusOK, `{"token":"tok-2fa","userId":"u1"}`))
	env.sessions.SetPendingTwoFactor("u1")
	flow := env.passwordFlow()

	require.NoError(t, flow.CompleteTwoFactor(context.Background(), "123456"))

	sess, ok := env.sessions.Current()
	require.True(t, ok)
	require.Equal(t, "tok-2fa", sess.Token)
	require.Equal(t, domain.LoginMethodPassword, sess.Method)
	require.WithinDuration(t, env.now.Add(domain.PasswordSessionTTL), sess.ExpiresAt, time.Second)

	// Completion consumed the pending marker.
	_, pendingStill := env.sessions.PendingTwoFactor()
	require.False(t, pendingStill)
}

func TestCompleteTwoFactorFailureKeepsPendingMarker(t *testing.T) {
	env := newFlowEnv(t, jsonHandler(http.StatusUnauthorized, `{"message":"Incorrect code"}`))
	env.sessions.SetPendingTwoFactor("u1")
	flow := env.passwordFlow()

	err := flow.CompleteTwoFactor(context.Background(), "999999")
	require.EqualError(t, err, "Incorrect code")

	pending, ok := env.sessions.PendingTwoFactor()
	require.True(t, ok)
	require.Equal(t, "u1", pending.UserID)
}

func TestAbandonClearsPendingMarker(t *testing.T) {
	env := newFlowEnv(t, nil)
	env.sessions.SetPendingTwoFactor("u1")
	flow := env.passwordFlow()

	flow.Abandon()
	_, ok := env.sessions.PendingTwoFactor()
	require.False(t, ok)
}
