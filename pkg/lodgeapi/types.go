package lodgeapi

// ============================================================================
// Wire Types (used for JSON marshaling only)
// ============================================================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sendOTPRequest struct {
	Name string `json:"name"`
}

type verifyOTPRequest struct {
	Name string `json:"name"`
	OTP  string `json:"otp"`
}

type verifyTwoFactorRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

// loginResponse is the union of every shape POST /login answers with a 2xx
// status: an error field, a token grant, or a second-factor notice. It is
// interpreted exactly once, in decodeLoginResult.
type loginResponse struct {
	Error   string `json:"error,omitempty"`
	Token   string `json:"token,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// ============================================================================
// Result Types
// ============================================================================

// LoginResultKind discriminates the possible outcomes of a login attempt.
type LoginResultKind int

const (
	// LoginRejected: the backend refused the credentials; Message explains why.
	LoginRejected LoginResultKind = iota

	// LoginAuthenticated: the backend issued a token for UserID.
	LoginAuthenticated

	// LoginSecondFactorRequired: the backend dispatched a 2FA challenge for
	// UserID; no token has been issued yet.
	LoginSecondFactorRequired
)

// LoginResult is the tagged outcome of POST /login.
type LoginResult struct {
	Kind    LoginResultKind
	Message string
	Token   string
	UserID  string
}

// TokenGrant is a successful token issuance from the OTP and 2FA endpoints.
type TokenGrant struct {
	Token  string
	UserID string
}
