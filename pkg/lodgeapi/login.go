package lodgeapi

import (
	"context"
	"fmt"
	"net/http"
)

// statusSecondFactorRequired is the explicit discriminant newer backend
// versions attach to the second-factor branch of POST /login. Older versions
// signal it implicitly with a userId-but-no-token body.
const statusSecondFactorRequired = "2fa_required"

// Login exchanges email/password credentials for a LoginResult.
// The three successful response shapes of POST /login (rejection, token,
// second-factor notice) are folded into the tagged result here and nowhere
// else.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	resp, err := c.postJSON(ctx, "/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return LoginResult{}, err
	}

	var body loginResponse
	if err := decodeJSON(resp, &body, http.StatusOK); err != nil {
		return LoginResult{}, err
	}

	return decodeLoginResult(body)
}

// decodeLoginResult classifies a 2xx login body.
func decodeLoginResult(body loginResponse) (LoginResult, error) {
	switch {
	case body.Error != "":
		return LoginResult{
			Kind:    LoginRejected,
			Message: body.Error,
		}, nil

	case body.Token != "":
		return LoginResult{
			Kind:   LoginAuthenticated,
			Token:  body.Token,
			UserID: body.UserID,
		}, nil

	case body.Status == statusSecondFactorRequired || body.UserID != "":
		if body.UserID == "" {
			return LoginResult{}, fmt.Errorf("second-factor response missing userId")
		}
		return LoginResult{
			Kind:    LoginSecondFactorRequired,
			Message: body.Message,
			UserID:  body.UserID,
		}, nil

	default:
		return LoginResult{}, fmt.Errorf("unrecognised login response shape")
	}
}

// SendOTP asks the backend to dispatch a one-time passcode to the member
// registered under name. Returns the backend's confirmation message.
func (c *Client) SendOTP(ctx context.Context, name string) (string, error) {
	resp, err := c.postJSON(ctx, "/login/send-otp", sendOTPRequest{Name: name})
	if err != nil {
		return "", err
	}

	var body messageResponse
	if err := decodeJSON(resp, &body, http.StatusOK); err != nil {
		return "", err
	}

	return body.Message, nil
}

// VerifyOTP exchanges a previously dispatched passcode for a token grant.
func (c *Client) VerifyOTP(ctx context.Context, name, otp string) (TokenGrant, error) {
	resp, err := c.postJSON(ctx, "/login/verify-otp", verifyOTPRequest{Name: name, OTP: otp})
	if err != nil {
		return TokenGrant{}, err
	}

	var body tokenResponse
	if err := decodeJSON(resp, &body, http.StatusOK); err != nil {
		return TokenGrant{}, err
	}
	if body.Token == "" {
		return TokenGrant{}, fmt.Errorf("verify-otp response missing token")
	}

	return TokenGrant{Token: body.Token, UserID: body.UserID}, nil
}

// VerifyTwoFactor completes a pending password login by submitting the
// second-factor code dispatched for userID.
func (c *Client) VerifyTwoFactor(ctx context.Context, userID, code string) (TokenGrant, error) {
	resp, err := c.postJSON(ctx, "/login/verify-2fa", verifyTwoFactorRequest{UserID: userID, Code: code})
	if err != nil {
		return TokenGrant{}, err
	}

	var body tokenResponse
	if err := decodeJSON(resp, &body, http.StatusOK); err != nil {
		return TokenGrant{}, err
	}
	if body.Token == "" {
		return TokenGrant{}, fmt.Errorf("verify-2fa response missing token")
	}

	return TokenGrant{Token: body.Token, UserID: body.UserID}, nil
}
