package market

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mineos-tools/marketctl/luatable"
)

// envelope is the market's uniform response wrapper. A missing success
// field means success, matching the live server.
type envelope struct {
	Success *bool           `json:"success"`
	Reason  string          `json:"reason"`
	Result  json.RawMessage `json:"result"`
}

// decodeEnvelope validates the HTTP status, parses the response envelope,
// and returns the raw result payload. The live market emits Lua table
// literals; JSON mirrors are accepted first.
func decodeEnvelope(raw *rawResponse) ([]byte, error) {
	if err := checkStatus(raw); err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(raw.body)
	if title, ok := htmlPageTitle(body); ok {
		return nil, &SchemaError{Reason: "got HTML page " + strconv.Quote(title) + ", not market data"}
	}

	env, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}

	if env.Success != nil && !*env.Success {
		reason := strings.TrimSpace(env.Reason)
		if reason == "" {
			reason = "no reason returned by the market"
		}
		return nil, classifyReason(reason)
	}

	return env.Result, nil
}

func parseEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if json.Valid(body) {
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, asSchemaError(err)
		}
		return &env, nil
	}

	value, err := luatable.Parse(body)
	if err != nil {
		return nil, &SchemaError{Reason: "response is neither JSON nor a Lua table", Err: err}
	}
	table, ok := value.(map[string]any)
	if !ok {
		return nil, &SchemaError{Reason: "response envelope is not a table"}
	}

	if success, present := table["success"]; present {
		flag, ok := success.(bool)
		if !ok {
			return nil, &SchemaError{Field: "success", Reason: "not a boolean"}
		}
		env.Success = &flag
	}
	if reason, present := table["reason"]; present {
		text, ok := reason.(string)
		if !ok {
			return nil, &SchemaError{Field: "reason", Reason: "not a string"}
		}
		env.Reason = text
	}
	if result, present := table["result"]; present {
		encoded, err := json.Marshal(result)
		if err != nil {
			return nil, &SchemaError{Field: "result", Reason: "cannot re-encode", Err: err}
		}
		env.Result = encoded
	}
	return &env, nil
}

// checkStatus maps HTTP error statuses into the typed taxonomy.
func checkStatus(raw *rawResponse) error {
	switch {
	case raw.status >= 200 && raw.status <= 299:
		return nil
	case raw.status == http.StatusUnauthorized || raw.status == http.StatusForbidden:
		return &AuthenticationError{Reason: "status " + strconv.Itoa(raw.status)}
	case raw.status == http.StatusNotFound:
		return &NotFoundError{Resource: "endpoint or resource (status 404)"}
	case raw.status == http.StatusTooManyRequests:
		return &RateLimitedError{RetryAfter: parseRetryAfter(raw.header.Get("Retry-After"))}
	case raw.status >= 500 && raw.status <= 599:
		return &ServerError{StatusCode: raw.status, Message: serverMessage(raw.body)}
	default:
		return &RequestError{StatusCode: raw.status, Message: serverMessage(raw.body)}
	}
}

// classifyReason maps a success=false envelope reason onto the taxonomy.
// The market reports credential and lookup failures inside the envelope
// with a 200 status.
func classifyReason(reason string) error {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "token"),
		strings.Contains(lower, "password"),
		strings.Contains(lower, "credential"),
		strings.Contains(lower, "login"),
		strings.Contains(lower, "unauthorized"):
		return &AuthenticationError{Reason: reason}
	case strings.Contains(lower, "not found"),
		strings.Contains(lower, "doesn't exist"),
		strings.Contains(lower, "does not exist"):
		return &NotFoundError{Resource: reason}
	default:
		return &RequestError{Message: reason}
	}
}

func parseRetryAfter(value string) int {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return seconds
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return int(d.Seconds() + 0.5)
		}
	}
	return 0
}

func serverMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

func htmlPageTitle(body []byte) (string, bool) {
	text := string(body)
	if !strings.Contains(text, "<html>") {
		return "", false
	}
	start := strings.Index(text, "<title>")
	end := strings.Index(text, "</title>")
	if start >= 0 && end > start {
		return text[start+len("<title>") : end], true
	}
	return "<unknown title>", true
}

// decodeRecord strictly unmarshals one domain record: unknown fields,
// missing required fields, and out-of-range values are all SchemaErrors,
// never a partially populated record.
func decodeRecord[T any](data []byte) (*T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &SchemaError{Reason: "empty result payload"}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var v T
	if err := dec.Decode(&v); err != nil {
		return nil, asSchemaError(err)
	}
	if record, ok := any(v).(interface{ validate() error }); ok {
		if err := record.validate(); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

// decodeList strictly unmarshals a list result. Older market responses key
// list entries by result index instead of using an array; both shapes are
// accepted, preserving the server's order.
func decodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var raws []json.RawMessage
	if trimmed[0] == '{' {
		keyed := map[string]json.RawMessage{}
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return nil, asSchemaError(err)
		}
		indexes := make([]int, 0, len(keyed))
		byIndex := make(map[int]json.RawMessage, len(keyed))
		for key, value := range keyed {
			index, err := strconv.Atoi(key)
			if err != nil {
				return nil, &SchemaError{Field: key, Reason: "non-numeric list index"}
			}
			indexes = append(indexes, index)
			byIndex[index] = value
		}
		sort.Ints(indexes)
		for _, index := range indexes {
			raws = append(raws, byIndex[index])
		}
	} else {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, asSchemaError(err)
		}
	}

	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		item, err := decodeRecord[T](raw)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// asSchemaError converts an encoding/json failure into a SchemaError,
// naming the offending field where the library reports one.
func asSchemaError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &SchemaError{Field: typeErr.Field, Reason: "unexpected " + typeErr.Value, Err: err}
	}
	msg := err.Error()
	if field, ok := strings.CutPrefix(msg, "json: unknown field "); ok {
		return &SchemaError{Field: strings.Trim(field, `"`), Reason: "unknown field", Err: err}
	}
	return &SchemaError{Reason: "malformed payload", Err: err}
}
