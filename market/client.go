package market

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the API root of the public MineOS App Market.
const DefaultBaseURL = "http://mineos.buttex.ru/MineOSAPI/2.04/"

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "marketctl"
)

// Client talks to the MineOS App Market. A single Client owns one pooled
// HTTP transport and is safe for concurrent use; the base URL is fixed at
// construction. The auth token is the only mutable field and is
// last-writer-wins under concurrent updates.
type Client struct {
	baseURL    string
	userAgent  string
	language   Language
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger

	mu       sync.RWMutex
	token    string
	userName string
}

// NewClient creates a new market client. baseURL may be empty to use the
// public market root.
func NewClient(baseURL string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &ConfigurationError{Reason: "invalid base URL: " + baseURL}
	}
	// Script paths are appended directly to the root.
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	client := &Client{
		baseURL:    baseURL,
		userAgent:  defaultUserAgent,
		language:   LanguageEnglish,
		timeout:    defaultTimeout,
		httpClient: cleanhttp.DefaultPooledClient(),
		logger:     logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.timeout <= 0 {
		return nil, &ConfigurationError{Reason: "timeout must be positive"}
	}

	return client, nil
}

// BaseURL returns the API root this client was constructed with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken replaces the auth token stamped on subsequent authenticated
// calls. In-flight calls keep the token they were issued with. An empty
// string clears the credential.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if token == "" {
		c.userName = ""
	}
}

// Token returns the currently stored auth token, or "" when the client is
// unauthenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authenticated reports whether a token is currently set.
func (c *Client) Authenticated() bool {
	return c.Token() != ""
}

func (c *Client) setIdentity(token, userName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.userName = userName
}

func (c *Client) identity() (token, userName string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.userName
}

// requireToken returns the stored token or an AuthenticationError without
// touching the network.
func (c *Client) requireToken() (string, error) {
	token := c.Token()
	if token == "" {
		return "", &AuthenticationError{Reason: "no token set, call Authenticate first"}
	}
	return token, nil
}

// Close releases idle connections held by the transport. The client must
// not be used afterwards.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
