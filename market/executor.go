package market

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

// retryDelay is the pause before the single automatic retry of a
// transport-level failure.
const retryDelay = 250 * time.Millisecond

// request describes one HTTP call before execution.
type request struct {
	method    string
	url       string
	form      url.Values // POST form body, nil for GET
	retryable bool       // safe to re-issue on a connection-level failure
	stampAuth bool       // attach the Authorization header when a token is set
}

// rawResponse is a fully buffered HTTP response handed to the decoder.
type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// do performs the request with the single-retry policy and returns the
// buffered response. HTTP error statuses are not errors at this layer; the
// decoder maps them.
func (c *Client) do(ctx context.Context, req request) (*rawResponse, error) {
	var resp *rawResponse

	// The token is captured once per call, so a concurrent re-login never
	// re-stamps an in-flight request between attempts.
	token := c.callToken(req)

	attempts := uint(1)
	if req.retryable {
		attempts = 2
	}

	err := retry.Do(
		func() error {
			r, err := c.roundTrip(ctx, req, token)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return isTransient(err) && ctx.Err() == nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// doStream performs the request and returns the live response so the body
// can be consumed incrementally. The retry policy covers establishing the
// response, never a partially consumed body, and the client timeout bounds
// each attempt up to the response headers. The caller owns resp.Body.
func (c *Client) doStream(ctx context.Context, req request) (*http.Response, error) {
	var resp *http.Response

	token := c.callToken(req)

	attempts := uint(1)
	if req.retryable {
		attempts = 2
	}

	err := retry.Do(
		func() error {
			r, err := c.streamAttempt(ctx, req, token)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return isTransient(err) && ctx.Err() == nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// streamAttempt performs one streaming attempt. The client timeout bounds
// only the time to response headers; once they arrive the body may be read
// for as long as the caller's context allows.
func (c *Client) streamAttempt(ctx context.Context, req request, token string) (*http.Response, error) {
	attemptCtx, cancel := context.WithCancel(ctx)

	httpReq, err := c.buildRequest(attemptCtx, req, token)
	if err != nil {
		cancel()
		return nil, err
	}

	headerTimer := time.AfterFunc(c.timeout, cancel)
	resp, err := c.httpClient.Do(httpReq)
	timedOut := !headerTimer.Stop()
	if err != nil {
		cancel()
		if timedOut && ctx.Err() == nil {
			return nil, &TimeoutError{URL: req.url, Err: err}
		}
		return nil, c.classifyNetError(req.url, err)
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the attempt context once the stream is done.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// callToken resolves the credential stamped on every attempt of one call.
func (c *Client) callToken(req request) string {
	if !req.stampAuth {
		return ""
	}
	return c.Token()
}

// roundTrip performs one attempt under its own deadline and buffers the
// body so a retry never re-reads a consumed stream.
func (c *Client) roundTrip(ctx context.Context, req request, token string) (*rawResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.buildRequest(attemptCtx, req, token)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("method", req.method).
		Str("url", req.url).
		Msg("market request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classifyNetError(req.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classifyNetError(req.url, err)
	}

	return &rawResponse{
		status: resp.StatusCode,
		header: resp.Header,
		body:   body,
	}, nil
}

// buildRequest constructs a fresh http.Request for one attempt.
func (c *Client) buildRequest(ctx context.Context, req request, token string) (*http.Request, error) {
	var body io.Reader
	if req.form != nil {
		body = strings.NewReader(req.form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return nil, &ConfigurationError{Reason: "cannot build request: " + err.Error()}
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

// classifyNetError maps a connection-level failure into the typed taxonomy.
// Caller cancellation passes through untouched so it stays recognizable.
func (c *Client) classifyNetError(reqURL string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: reqURL, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: reqURL, Err: err}
	}
	return &TransportError{URL: reqURL, Err: err}
}

// isTransient reports whether the failure is connection-level and therefore
// eligible for the single automatic retry.
func isTransient(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// callScript issues one market script call and returns the decoded result
// payload from the response envelope.
func (c *Client) callScript(ctx context.Context, script string, form url.Values, retryable bool) ([]byte, error) {
	endpoint, err := c.scriptURL(script)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, request{
		method:    http.MethodPost,
		url:       endpoint,
		form:      form,
		retryable: retryable,
		stampAuth: true,
	})
	if err != nil {
		return nil, err
	}

	return decodeEnvelope(raw)
}
