/*
Package lodgeapi provides a client for the Lodge member-services backend.

# Overview

The package wraps the backend's login endpoints behind typed methods and
decides the shape of every response exactly once, at the network boundary.
Callers never branch on raw JSON field presence.

Create a Client and call the flow methods:

	client := lodgeapi.NewClient("https://api.example.com")

	result, err := client.Login(ctx, "member@example.com", "hunter2-long")
	switch {
	case err != nil:
		// transport or backend failure
	case result.Kind == lodgeapi.LoginAuthenticated:
		// result.Token, result.UserID
	case result.Kind == lodgeapi.LoginSecondFactorRequired:
		// a 2FA code was dispatched for result.UserID
	case result.Kind == lodgeapi.LoginRejected:
		// result.Message holds the backend's reason
	}

# Login Outcome

POST /login can answer in three distinct successful shapes: an error field,
a token, or a "second factor required" notice carrying only a user id. The
Login method folds these into the LoginResult tagged union so the credential
flows upstream stay free of wire-format knowledge.

# Error Handling

Non-2xx responses become *APIError carrying the backend-supplied message when
one is present, otherwise a generic description of the HTTP status. Transport
and JSON-decoding failures are returned as plain wrapped errors; callers
translate both into user-facing text.

# Request Correlation

Every request carries a fresh ULID in the X-Request-ID header so client and
backend logs can be joined when debugging login trouble.
*/
package lodgeapi
