package lodgeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents a backend rejection with an HTTP status and, when the
// backend supplied one, a human-readable message suitable for display.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Message is the backend-supplied message, or a generic description of
	// the status when the body carried none.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// parseErrorResponse turns a non-2xx response body into a typed *APIError.
// The backend reports failures as {"message": "..."} on the login endpoints;
// {"error": "..."} is accepted as well for robustness.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			message = payload.Message
		case payload.Error != "":
			message = payload.Error
		}
	}

	if message == "" {
		message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
