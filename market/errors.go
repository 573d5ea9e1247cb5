package market

import (
	"fmt"
)

// ConfigurationError indicates caller misuse detected before any request
// is sent: a missing path parameter, an invalid page size, a rating outside
// the accepted range. Never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("market: configuration error: %s", e.Reason)
}

// TransportError indicates a connection-level failure: refused connection,
// reset, DNS failure. Idempotent calls are retried once before this
// surfaces.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("market: transport failure for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates the per-call deadline was exceeded. Kept distinct
// from TransportError so callers can apply their own backoff.
type TimeoutError struct {
	URL string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("market: timeout for %s: %v", e.URL, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// AuthenticationError indicates a 401/403 response, a server-side credential
// rejection, or a missing token on a call that requires one. Never retried
// automatically.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("market: authentication failed: %s", e.Reason)
}

// NotFoundError indicates the requested resource is unknown to the market.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("market: not found: %s", e.Resource)
}

// RateLimitedError indicates a 429 response. RetryAfter carries the server's
// Retry-After hint in seconds, 0 when the server did not supply one. The
// client never sleeps or retries on its own; backoff policy belongs to the
// caller.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("market: rate limited, retry after %ds", e.RetryAfter)
	}
	return "market: rate limited"
}

// ServerError indicates a 5xx response. Not retried automatically; the
// caller may retry explicitly.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("market: server error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("market: server error: status %d", e.StatusCode)
}

// RequestError indicates the market rejected the request: an unclassified
// 4xx status, or a success=false envelope whose reason does not map to a
// more specific error.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("market: request rejected: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("market: request rejected: %s", e.Message)
}

// SchemaError indicates the response shape violates the market's data
// contract: malformed payload, a missing or unknown field, a value outside
// its documented bounds. Always fatal to the call; usually a client/server
// version mismatch.
type SchemaError struct {
	Field  string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("market: schema violation in field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("market: schema violation: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
