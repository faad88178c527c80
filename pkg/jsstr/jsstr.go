// Package jsstr quotes and unquotes string literals of the rewriter
// definition language, which follows JavaScript literal syntax.
package jsstr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnterminated is returned when a literal lacks its closing quote.
var ErrUnterminated = errors.New("unterminated string literal")

// ErrBadEscape is returned for a malformed escape sequence.
var ErrBadEscape = errors.New("invalid escape sequence")

const hexDigitsUnicode = 4

// Quote returns s as a double-quoted literal.
func Quote(s string) string {
	var sb strings.Builder

	sb.Grow(len(s) + 2) //nolint:mnd // two quotes.
	sb.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)

				continue
			}

			sb.WriteRune(r)
		}
	}

	sb.WriteByte('"')

	return sb.String()
}

// QuoteTemplate returns s as a backtick template literal with no substitutions.
func QuoteTemplate(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")

	return "`" + r.Replace(s) + "`"
}

// Unquote strips the quotes of a single, double or backtick literal and
// resolves its escapes.
func Unquote(lit string) (string, error) {
	if len(lit) < 2 { //nolint:mnd // two quotes.
		return "", ErrUnterminated
	}

	quote := lit[0]
	if quote != '"' && quote != '\'' && quote != '`' {
		return "", fmt.Errorf("%w: %q", ErrUnterminated, lit)
	}

	if lit[len(lit)-1] != quote {
		return "", fmt.Errorf("%w: %q", ErrUnterminated, lit)
	}

	return Unescape(lit[1 : len(lit)-1])
}

// Unescape resolves the escape sequences of a literal body.
func Unescape(body string) (string, error) {
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var sb strings.Builder

	sb.Grow(len(body))

	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' {
			sb.WriteByte(ch)

			continue
		}

		i++
		if i >= len(body) {
			return "", ErrBadEscape
		}

		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0':
			sb.WriteByte(0)
		case '\n':
			// Line continuation.
		case 'u':
			if i+hexDigitsUnicode >= len(body) {
				return "", fmt.Errorf("%w: %q", ErrBadEscape, body[i-1:])
			}

			code, err := strconv.ParseUint(body[i+1:i+1+hexDigitsUnicode], 16, 32)
			if err != nil {
				return "", fmt.Errorf("%w: %w", ErrBadEscape, err)
			}

			sb.WriteRune(rune(code))

			i += hexDigitsUnicode
		default:
			sb.WriteByte(body[i])
		}
	}

	return sb.String(), nil
}
