package market

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the default per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent sets a custom User-Agent for outgoing requests.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. The replacement must
// be safe for concurrent use.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithToken seeds the client with a pre-existing auth token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLanguage selects the localization used for translated publication
// fields. Defaults to English.
func WithLanguage(language Language) Option {
	return func(c *Client) {
		c.language = language
	}
}
