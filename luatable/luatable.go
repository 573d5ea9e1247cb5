package luatable

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports malformed input with the byte offset it was found at.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("luatable: offset %d: %s", e.Offset, e.Msg)
}

// Parse reads one Lua value from data and returns it as a Go value:
// map[string]any, []any, float64, string, bool, or nil. Trailing content
// after the value is an error.
func Parse(data []byte) (any, error) {
	p := &parser{src: string(data)}
	p.skipSpace()
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing content")
	}
	return value, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.pos++
		case strings.HasPrefix(p.src[p.pos:], "--"):
			end := strings.IndexByte(p.src[p.pos:], '\n')
			if end < 0 {
				p.pos = len(p.src)
				return
			}
			p.pos += end + 1
		default:
			return
		}
	}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) parseValue() (any, error) {
	c, ok := p.peek()
	if !ok {
		return nil, p.errorf("unexpected end of input")
	}
	switch {
	case c == '{':
		return p.parseTable()
	case c == '"' || c == '\'':
		return p.parseString()
	case c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case isIdentStart(c):
		return p.parseKeyword()
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *parser) parseKeyword() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	switch word := p.src[start:p.pos]; word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "nil":
		return nil, nil
	default:
		p.pos = start
		return nil, p.errorf("unexpected identifier %q", word)
	}
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	if c, _ := p.peek(); c == '-' {
		p.pos++
	}

	if strings.HasPrefix(p.src[p.pos:], "0x") || strings.HasPrefix(p.src[p.pos:], "0X") {
		p.pos += 2
		digitStart := p.pos
		for p.pos < len(p.src) && isHexDigit(p.src[p.pos]) {
			p.pos++
		}
		if p.pos == digitStart {
			return 0, p.errorf("malformed hexadecimal number")
		}
		n, err := strconv.ParseUint(p.src[digitStart:p.pos], 16, 64)
		if err != nil {
			return 0, p.errorf("malformed hexadecimal number: %v", err)
		}
		value := float64(n)
		if p.src[start] == '-' {
			value = -value
		}
		return value, nil
	}

	for p.pos < len(p.src) && isNumberPart(p.src[p.pos]) {
		// Sign characters only continue a number right after an exponent.
		if c := p.src[p.pos]; c == '+' || c == '-' {
			prev := p.src[p.pos-1]
			if prev != 'e' && prev != 'E' {
				break
			}
		}
		p.pos++
	}
	text := p.src[start:p.pos]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, p.errorf("malformed number %q", text)
	}
	return value, nil
}

func (p *parser) parseString() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if err := p.parseEscape(&b); err != nil {
				return "", err
			}
		case '\n':
			return "", p.errorf("unescaped newline in string")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) parseEscape(b *strings.Builder) error {
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape sequence")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '\\', '"', '\'', '\n':
		b.WriteByte(c)
	case 'x':
		if p.pos+2 > len(p.src) || !isHexDigit(p.src[p.pos]) || !isHexDigit(p.src[p.pos+1]) {
			return p.errorf("malformed \\x escape")
		}
		n, _ := strconv.ParseUint(p.src[p.pos:p.pos+2], 16, 8)
		b.WriteByte(byte(n))
		p.pos += 2
	default:
		if c < '0' || c > '9' {
			return p.errorf("unknown escape sequence \\%c", c)
		}
		// Decimal escape, up to three digits.
		digits := string(c)
		for len(digits) < 3 && p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			digits += string(p.src[p.pos])
			p.pos++
		}
		n, err := strconv.ParseUint(digits, 10, 16)
		if err != nil || n > 255 {
			return p.errorf("decimal escape \\%s out of range", digits)
		}
		b.WriteByte(byte(n))
	}
	return nil
}

func (p *parser) parseTable() (any, error) {
	p.pos++ // consume '{'

	var items []any
	keyed := map[string]any{}

	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, p.errorf("unterminated table")
		}
		if c == '}' {
			p.pos++
			break
		}

		switch {
		case c == '[':
			p.pos++
			p.skipSpace()
			key, err := p.parseTableKey()
			if err != nil {
				return nil, err
			}
			p.skipSpace()
			if err := p.expect(']'); err != nil {
				return nil, err
			}
			p.skipSpace()
			if err := p.expect('='); err != nil {
				return nil, err
			}
			p.skipSpace()
			value, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			keyed[key] = value

		case isIdentStart(c) && p.identAssignAhead():
			start := p.pos
			for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
				p.pos++
			}
			name := p.src[start:p.pos]
			p.skipSpace()
			if err := p.expect('='); err != nil {
				return nil, err
			}
			p.skipSpace()
			value, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			keyed[name] = value

		default:
			value, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}

		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return nil, p.errorf("unterminated table")
		}
		switch c {
		case ',', ';':
			p.pos++
		case '}':
			// Closing brace handled at loop top.
		default:
			return nil, p.errorf("expected ',' or '}' in table, found %q", c)
		}
	}

	if len(keyed) == 0 {
		if items == nil {
			// Empty constructor: the market uses {} for empty records and
			// empty lists alike; the decoder accepts both shapes.
			return map[string]any{}, nil
		}
		return items, nil
	}
	// Mixed tables fold positional entries in under their 1-based index.
	for i, item := range items {
		keyed[strconv.Itoa(i+1)] = item
	}
	return keyed, nil
}

// parseTableKey reads the bracketed key form: a string or numeric literal.
func (p *parser) parseTableKey() (string, error) {
	c, ok := p.peek()
	if !ok {
		return "", p.errorf("unterminated table key")
	}
	if c == '"' || c == '\'' {
		return p.parseString()
	}
	n, err := p.parseNumber()
	if err != nil {
		return "", err
	}
	return formatNumberKey(n), nil
}

// identAssignAhead reports whether an identifier followed by '=' starts at
// the current position, distinguishing `name = value` entries from bare
// keyword values like true/false/nil.
func (p *parser) identAssignAhead() bool {
	i := p.pos
	for i < len(p.src) && isIdentPart(p.src[i]) {
		i++
	}
	for i < len(p.src) {
		switch p.src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		case '=':
			return i+1 >= len(p.src) || p.src[i+1] != '='
		default:
			return false
		}
	}
	return false
}

func (p *parser) expect(c byte) error {
	got, ok := p.peek()
	if !ok || got != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func formatNumberKey(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNumberPart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-'
}
