package lodgeapi

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client is a client for the Lodge member-services backend.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// limiter paces outbound requests. It is deliberately generous: it
	// never rejects, only waits, so repeated user retries stay allowed.
	limiter *rate.Limiter
}

// NewClient creates a new backend client with a 10 second request timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}
