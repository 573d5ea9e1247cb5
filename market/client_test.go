package market

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name    string
		baseURL string
		opts    []Option
		wantErr bool
		errMsg  string
	}{
		{
			name:    "empty URL takes the public market",
			baseURL: "",
		},
		{
			name:    "explicit URL",
			baseURL: "http://market.local/api/2.04/",
		},
		{
			name:    "missing scheme",
			baseURL: "market.local/api",
			wantErr: true,
			errMsg:  "invalid base URL",
		},
		{
			name:    "garbage URL",
			baseURL: "://nope",
			wantErr: true,
			errMsg:  "invalid base URL",
		},
		{
			name:    "zero timeout rejected",
			baseURL: "http://market.local/",
			opts:    []Option{func(c *Client) { c.timeout = 0 }},
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.baseURL, logger, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				var confErr *ConfigurationError
				assert.ErrorAs(t, err, &confErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient("", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, client.BaseURL())
	assert.Equal(t, defaultTimeout, client.timeout)
	assert.Equal(t, defaultUserAgent, client.userAgent)
	assert.Equal(t, LanguageEnglish, client.language)
	assert.False(t, client.Authenticated())
}

func TestNewClientNormalizesBaseURL(t *testing.T) {
	client, err := NewClient("http://market.local/api/2.04", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "http://market.local/api/2.04/", client.BaseURL())

	endpoint, err := client.scriptURL("publications")
	require.NoError(t, err)
	assert.Equal(t, "http://market.local/api/2.04/publications.php", endpoint)
}

func TestClientOptions(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("with timeout", func(t *testing.T) {
		client, err := NewClient("http://market.local/", logger, WithTimeout(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.timeout)
	})

	t.Run("with user agent", func(t *testing.T) {
		client, err := NewClient("http://market.local/", logger, WithUserAgent("opencomputers/1.8"))
		require.NoError(t, err)
		assert.Equal(t, "opencomputers/1.8", client.userAgent)
	})

	t.Run("with http client", func(t *testing.T) {
		custom := &http.Client{Timeout: 10 * time.Second}
		client, err := NewClient("http://market.local/", logger, WithHTTPClient(custom))
		require.NoError(t, err)
		assert.Same(t, custom, client.httpClient)
	})

	t.Run("with token", func(t *testing.T) {
		client, err := NewClient("http://market.local/", logger, WithToken("abc123"))
		require.NoError(t, err)
		assert.True(t, client.Authenticated())
		assert.Equal(t, "abc123", client.Token())
	})

	t.Run("with language", func(t *testing.T) {
		client, err := NewClient("http://market.local/", logger, WithLanguage(LanguageRussian))
		require.NoError(t, err)
		assert.Equal(t, LanguageRussian, client.language)
	})
}

func TestClientTokenLifecycle(t *testing.T) {
	client, err := NewClient("http://market.local/", zerolog.Nop())
	require.NoError(t, err)

	_, err = client.requireToken()
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)

	client.setIdentity("tok", "holo")
	token, userName := client.identity()
	assert.Equal(t, "tok", token)
	assert.Equal(t, "holo", userName)

	// Clearing the token drops the stored identity too.
	client.SetToken("")
	token, userName = client.identity()
	assert.Empty(t, token)
	assert.Empty(t, userName)
	assert.False(t, client.Authenticated())
}

func TestClientTokenConcurrentWriters(t *testing.T) {
	client, err := NewClient("http://market.local/", zerolog.Nop())
	require.NoError(t, err)

	const writers = 8
	written := make([]string, writers)
	for i := range written {
		written[i] = fmt.Sprintf("tok-%d", i)
	}

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(tok string) {
			defer wg.Done()
			client.setIdentity(tok, "user-"+tok)
		}(written[i])
		go func() {
			defer wg.Done()
			token, userName := client.identity()
			if token != "" {
				// A reader sees a complete identity, never a torn one.
				assert.Equal(t, "user-"+token, userName)
			}
			_ = client.Authenticated()
		}()
	}
	wg.Wait()

	// Whichever write landed last wins in full.
	token, userName := client.identity()
	assert.Contains(t, written, token)
	assert.Equal(t, "user-"+token, userName)
}
