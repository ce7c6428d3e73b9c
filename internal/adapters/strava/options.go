package strava

import (
	"net/http"
	"time"

	"github.com/pablo-ross/komornicka100/pkg/logger"
)

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithAPIBase overrides the API root, mainly for tests.
func WithAPIBase(base string) ClientOption {
	return func(c *Client) {
		if base != "" {
			c.apiBase = base
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// TokenOption applies a configuration option to the TokenService.
type TokenOption func(*TokenService)

// WithTokenURL overrides the OAuth token endpoint, mainly for tests.
func WithTokenURL(u string) TokenOption {
	return func(s *TokenService) {
		if u != "" {
			s.tokenURL = u
		}
	}
}

// WithRefreshLeeway sets how long before expiry a token is refreshed.
func WithRefreshLeeway(d time.Duration) TokenOption {
	return func(s *TokenService) {
		if d > 0 {
			s.leeway = d
		}
	}
}

// WithClock replaces the time source, mainly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTokenLogger sets the token service logger.
func WithTokenLogger(l logger.Logger) TokenOption {
	return func(s *TokenService) {
		if l != nil {
			s.logger = l
		}
	}
}
