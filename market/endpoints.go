package market

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

// scriptPathTemplate is the market's endpoint shape: every operation is a
// PHP script under the API root.
const scriptPathTemplate = "{script}.php"

// ExpandPath fills {name} placeholders in a path template with
// percent-encoded values. Every placeholder must have a value; a missing
// one is a ConfigurationError. Pure function, safe from any goroutine.
func ExpandPath(template string, params map[string]string) (string, error) {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return "", &ConfigurationError{Reason: fmt.Sprintf("unterminated placeholder in template %q", template)}
		}
		closing += open

		b.WriteString(rest[:open])
		name := rest[open+1 : closing]
		if name == "" {
			return "", &ConfigurationError{Reason: fmt.Sprintf("empty placeholder in template %q", template)}
		}
		value, ok := params[name]
		if !ok {
			return "", &ConfigurationError{Reason: fmt.Sprintf("missing value for path parameter %q", name)}
		}
		b.WriteString(url.PathEscape(value))
		rest = rest[closing+1:]
	}
}

// scriptURL returns the absolute URL of a market script endpoint.
func (c *Client) scriptURL(script string) (string, error) {
	path, err := ExpandPath(scriptPathTemplate, map[string]string{"script": script})
	if err != nil {
		return "", err
	}
	return c.baseURL + path, nil
}

// encodeForm turns an options struct with `url` tags into form values.
func encodeForm(opts any) (url.Values, error) {
	values, err := query.Values(opts)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("cannot encode parameters: %v", err)}
	}
	return values, nil
}
