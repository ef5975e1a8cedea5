package chefdsl

import (
	"strconv"
	"strings"
)

// rawTokenDelimiters terminate an unquoted token. Whitespace also
// terminates; see scanRawToken.
const rawTokenDelimiters = ",}]"

// ParseLiteral parses one Ruby scalar literal starting at cursor and
// returns the value plus the cursor position just past it. It is a total
// function: any input, including empty or binary garbage, yields a value
// (falling back to a raw String token) and never panics. Every caller in
// this package leans on that guarantee.
//
// Match priority: quoted string, true/false, nil, integer, float
// (including exponent form), symbol, then raw token as String.
func ParseLiteral(text string, cursor int) (LiteralValue, int) {
	pos := skipSpaces(text, cursor)
	if pos >= len(text) {
		return StringLiteral(""), len(text)
	}

	if text[pos] == '\'' || text[pos] == '"' {
		s, next := scanQuoted(text, pos)

		return StringLiteral(s), next
	}

	token, next := scanRawToken(text, pos)

	return classifyToken(token), next
}

// classifyToken maps an unquoted token to its literal kind.
func classifyToken(token string) LiteralValue {
	switch token {
	case "true":
		return BooleanLiteral(true)
	case "false":
		return BooleanLiteral(false)
	case "nil":
		return NilLiteral()
	}

	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return IntegerLiteral(n)
	}

	if looksNumeric(token) {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return FloatLiteral(f)
		}
	}

	if len(token) > 1 && token[0] == ':' {
		return SymbolLiteral(token[1:])
	}

	return StringLiteral(token)
}

// looksNumeric pre-filters float candidates so that tokens like "inf" or
// "1_000_000x" are not accidentally accepted by strconv.
func looksNumeric(token string) bool {
	if token == "" {
		return false
	}

	start := 0
	if token[0] == '-' || token[0] == '+' {
		start = 1
	}

	if start >= len(token) {
		return false
	}

	for i := start; i < len(token); i++ {
		switch c := token[i]; {
		case c >= '0' && c <= '9':
		case c == '.' || c == 'e' || c == 'E' || c == '-' || c == '+':
		default:
			return false
		}
	}

	return token[start] >= '0' && token[start] <= '9'
}

// skipSpaces advances past spaces and tabs. Newlines are delimiters for
// every caller, so they are deliberately not skipped.
func skipSpaces(text string, pos int) int {
	for pos < len(text) && (text[pos] == ' ' || text[pos] == '\t') {
		pos++
	}

	return pos
}

// scanQuoted consumes a single- or double-quoted string starting at the
// opening quote. Backslash-escaped quotes do not terminate the scan. An
// unterminated string runs to end of input rather than failing.
func scanQuoted(text string, pos int) (string, int) {
	quote := text[pos]
	pos++

	var sb strings.Builder

	for pos < len(text) {
		c := text[pos]

		if c == '\\' && pos+1 < len(text) {
			next := text[pos+1]
			if next == quote || next == '\\' {
				sb.WriteByte(next)
				pos += 2

				continue
			}

			sb.WriteByte(c)
			pos++

			continue
		}

		if c == quote {
			return sb.String(), pos + 1
		}

		sb.WriteByte(c)
		pos++
	}

	return sb.String(), pos
}

// scanRawToken consumes characters up to the next delimiter (comma,
// closing brace or bracket, or a whitespace run).
func scanRawToken(text string, pos int) (string, int) {
	start := pos

	for pos < len(text) {
		c := text[pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}

		if strings.IndexByte(rawTokenDelimiters, c) >= 0 {
			break
		}

		pos++
	}

	return text[start:pos], pos
}
