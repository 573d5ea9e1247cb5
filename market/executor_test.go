package market

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport counts round trips and delegates to fn.
type stubTransport struct {
	mu    sync.Mutex
	calls int
	fn    func(req *http.Request) (*http.Response, error)
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(req)
}

func (s *stubTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newStubClient(t *testing.T, transport *stubTransport, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: transport})}, opts...)
	client, err := NewClient("http://market.local/", zerolog.Nop(), opts...)
	require.NoError(t, err)
	return client
}

func TestDoRetriesTransportFailureOnce(t *testing.T) {
	transport := &stubTransport{fn: func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}}
	client := newStubClient(t, transport)

	_, err := client.do(context.Background(), request{
		method:    http.MethodPost,
		url:       "http://market.local/publications.php",
		retryable: true,
	})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 2, transport.callCount())
}

func TestDoRecoveryOnSecondAttempt(t *testing.T) {
	transport := &stubTransport{}
	transport.fn = func(*http.Request) (*http.Response, error) {
		if transport.callCount() == 1 {
			return nil, errors.New("connection reset by peer")
		}
		return okResponse(`{"success":true}`), nil
	}
	client := newStubClient(t, transport)

	raw, err := client.do(context.Background(), request{
		method:    http.MethodPost,
		url:       "http://market.local/statistics.php",
		retryable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 200, raw.status)
	assert.Equal(t, 2, transport.callCount())
}

func TestDoNeverRetriesMutations(t *testing.T) {
	transport := &stubTransport{fn: func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}}
	client := newStubClient(t, transport)

	_, err := client.do(context.Background(), request{
		method:    http.MethodPost,
		url:       "http://market.local/review.php",
		retryable: false,
	})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 1, transport.callCount())
}

func TestDoMapsTimeouts(t *testing.T) {
	transport := &stubTransport{fn: func(*http.Request) (*http.Response, error) {
		return nil, fakeTimeoutError{}
	}}
	client := newStubClient(t, transport)

	_, err := client.do(context.Background(), request{
		method:    http.MethodPost,
		url:       "http://market.local/publications.php",
		retryable: true,
	})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 2, transport.callCount())
}

func TestDoStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transport := &stubTransport{fn: func(*http.Request) (*http.Response, error) {
		cancel()
		return nil, errors.New("connection refused")
	}}
	client := newStubClient(t, transport)

	_, err := client.do(ctx, request{
		method:    http.MethodPost,
		url:       "http://market.local/publications.php",
		retryable: true,
	})

	require.Error(t, err)
	assert.Equal(t, 1, transport.callCount(), "canceled context must suppress the retry")
}

func TestBuildRequestHeaders(t *testing.T) {
	var got *http.Request
	transport := &stubTransport{fn: func(req *http.Request) (*http.Response, error) {
		got = req
		return okResponse(`{"success":true}`), nil
	}}
	client := newStubClient(t, transport, WithUserAgent("test-agent"), WithToken("tok-1"))

	form := url.Values{}
	form.Set("search", "redstone")
	_, err := client.do(context.Background(), request{
		method:    http.MethodPost,
		url:       "http://market.local/publications.php",
		form:      form,
		retryable: true,
		stampAuth: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "test-agent", got.Header.Get("User-Agent"))
	assert.Equal(t, "application/x-www-form-urlencoded", got.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer tok-1", got.Header.Get("Authorization"))
}

func TestBuildRequestSkipsAuthWhenUnstamped(t *testing.T) {
	var got *http.Request
	transport := &stubTransport{fn: func(req *http.Request) (*http.Response, error) {
		got = req
		return okResponse("file contents"), nil
	}}
	client := newStubClient(t, transport, WithToken("tok-1"))

	_, err := client.do(context.Background(), request{
		method:    http.MethodGet,
		url:       "http://files.example/app.lua",
		retryable: true,
		stampAuth: false,
	})
	require.NoError(t, err)
	assert.Empty(t, got.Header.Get("Authorization"))
}

func TestDoStreamBoundsTimeToHeaders(t *testing.T) {
	transport := &stubTransport{fn: func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}}
	client := newStubClient(t, transport, WithTimeout(25*time.Millisecond))

	_, err := client.doStream(context.Background(), request{
		method: http.MethodGet,
		url:    "http://files.example/app.lua",
	})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr, "a server that never sends headers must not hang the call")
	assert.Equal(t, 1, transport.callCount())
}

func TestDoStreamBodyOutlivesHeaderDeadline(t *testing.T) {
	transport := &stubTransport{fn: func(req *http.Request) (*http.Response, error) {
		return okResponse("file contents"), nil
	}}
	client := newStubClient(t, transport, WithTimeout(25*time.Millisecond))

	resp, err := client.doStream(context.Background(), request{
		method: http.MethodGet,
		url:    "http://files.example/app.lua",
	})
	require.NoError(t, err)

	// The header deadline must not tick on while the body is consumed.
	time.Sleep(50 * time.Millisecond)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(data))
	assert.NoError(t, resp.Body.Close())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&TransportError{URL: "x", Err: errors.New("reset")}))
	assert.True(t, isTransient(&TimeoutError{URL: "x", Err: errors.New("deadline")}))
	assert.False(t, isTransient(&ServerError{StatusCode: 500}))
	assert.False(t, isTransient(&AuthenticationError{Reason: "bad token"}))
	assert.False(t, isTransient(context.Canceled))
}

func TestClassifyNetError(t *testing.T) {
	client := newStubClient(t, &stubTransport{})

	t.Run("cancellation passes through", func(t *testing.T) {
		err := client.classifyNetError("http://x", context.Canceled)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("deadline is a timeout", func(t *testing.T) {
		var timeoutErr *TimeoutError
		assert.ErrorAs(t, client.classifyNetError("http://x", context.DeadlineExceeded), &timeoutErr)
	})

	t.Run("net timeout is a timeout", func(t *testing.T) {
		var timeoutErr *TimeoutError
		assert.ErrorAs(t, client.classifyNetError("http://x", fakeTimeoutError{}), &timeoutErr)
	})

	t.Run("anything else is transport", func(t *testing.T) {
		var transportErr *TransportError
		err := client.classifyNetError("http://x", errors.New("no route to host"))
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, "http://x", transportErr.URL)
	})
}
