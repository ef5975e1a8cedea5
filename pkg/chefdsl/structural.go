package chefdsl

import (
	"errors"
	"strings"
)

// ErrInvalidHashRoot is returned by ParseHash when the input does not
// start with an opening brace or a quoted key. It signals that the wrong
// parser was invoked, not that the source recipe is malformed; every
// other malformed shape degrades without error.
var ErrInvalidHashRoot = errors.New("hash parser: input does not start with '{' or a quoted key")

// ParseHash parses a Ruby hash literal, with or without the surrounding
// braces, into an ordered mapping. "{}" yields an empty mapping, trailing
// commas are tolerated, and duplicate keys follow Ruby hash-literal
// semantics (last write wins). This is the sole erroring entry point in
// the package; see ErrInvalidHashRoot.
func ParseHash(text string) (*Mapping, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrInvalidHashRoot
	}

	switch trimmed[0] {
	case '{':
		m, _ := parseNestedHash(trimmed, 0)

		return m, nil
	case '\'', '"':
		m, _ := parsePairs(trimmed, 0, 0)

		return m, nil
	default:
		return nil, ErrInvalidHashRoot
	}
}

// parseNestedHash parses "{ ... }" starting at the opening brace and
// returns the mapping plus the cursor just past the closing brace (or end
// of input when unterminated).
func parseNestedHash(text string, pos int) (*Mapping, int) {
	pos++ // consume '{'

	return parsePairs(text, pos, '}')
}

// parsePairs parses a comma-separated key/value list. closer is the byte
// that terminates the list ('}' for braced hashes, ']' never occurs here,
// 0 for a brace-less root which runs to end of input).
func parsePairs(text string, pos int, closer byte) (*Mapping, int) {
	mapping := NewMapping()

	for pos < len(text) {
		pos = skipLayout(text, pos)
		if pos >= len(text) {
			break
		}

		if closer != 0 && text[pos] == closer {
			return mapping, pos + 1
		}

		// Trailing comma or a stray separator.
		if text[pos] == ',' {
			pos++

			continue
		}

		key, keyEnd, ok := parseQuotedKey(text, pos)
		if !ok {
			// No parseable key here. Resynchronize at the next
			// separator so one bad pair does not eat the rest.
			pos = scanToBoundary(text, pos, closer)

			continue
		}

		pos = skipLayout(text, keyEnd)

		pos = skipPairSeparator(text, pos)

		var value StructuredValue

		value, pos = parseValueAt(text, pos)
		mapping.Set(key, value)

		pos = scanToBoundary(text, pos, closer)
	}

	return mapping, pos
}

// parseQuotedKey reads a hash key at pos: a quoted string, or a bare
// identifier immediately followed by ':' (Ruby symbol-key shorthand).
// Returns the key, the cursor past it, and whether a key was found.
func parseQuotedKey(text string, pos int) (string, int, bool) {
	if pos >= len(text) {
		return "", pos, false
	}

	if text[pos] == '\'' || text[pos] == '"' {
		key, end := scanQuoted(text, pos)

		return key, end, true
	}

	end := pos
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}

	if end > pos && end < len(text) && text[end] == ':' {
		return text[pos:end], end, true
	}

	return "", pos, false
}

// skipPairSeparator consumes "=>" or ":" between key and value.
func skipPairSeparator(text string, pos int) int {
	if pos+1 < len(text) && text[pos] == '=' && text[pos+1] == '>' {
		return skipLayout(text, pos+2)
	}

	if pos < len(text) && text[pos] == ':' {
		return skipLayout(text, pos+1)
	}

	return pos
}

// parseValueAt parses the value expression at pos: a nested hash, a
// nested array, or a scalar literal. Total, like everything it calls.
func parseValueAt(text string, pos int) (StructuredValue, int) {
	pos = skipLayout(text, pos)
	if pos >= len(text) {
		return LiteralNode(StringLiteral("")), pos
	}

	switch text[pos] {
	case '{':
		m, next := parseNestedHash(text, pos)

		return MappingNode(m), next
	case '[':
		items, next := parseArray(text, pos)

		return SequenceNode(items), next
	default:
		lit, next := ParseLiteral(text, pos)

		return LiteralNode(lit), next
	}
}

// parseArray parses "[ ... ]" starting at the opening bracket and returns
// the elements plus the cursor just past the closing bracket.
func parseArray(text string, pos int) ([]StructuredValue, int) {
	pos++ // consume '['

	items := make([]StructuredValue, 0)

	for pos < len(text) {
		pos = skipLayout(text, pos)
		if pos >= len(text) {
			break
		}

		if text[pos] == ']' {
			return items, pos + 1
		}

		if text[pos] == ',' {
			pos++

			continue
		}

		var value StructuredValue

		value, pos = parseValueAt(text, pos)
		items = append(items, value)

		pos = scanToBoundary(text, pos, ']')
	}

	return items, pos
}

// scanToBoundary advances from pos to the next top-level comma (consumed)
// or to the closer (left in place for the caller). It re-enters quote and
// nesting tracking so commas inside nested strings or containers are
// never mistaken for separators; a naive split would be wrong here.
func scanToBoundary(text string, pos int, closer byte) int {
	var (
		quote byte
		depth int
	)

	for pos < len(text) {
		c := text[pos]

		if quote != 0 {
			if c == '\\' && pos+1 < len(text) {
				pos += 2

				continue
			}

			if c == quote {
				quote = 0
			}

			pos++

			continue
		}

		switch c {
		case '\'', '"':
			quote = c
		case '{', '[':
			depth++
		case '}', ']':
			if depth > 0 {
				depth--

				break
			}

			if c == closer {
				return pos
			}
		case ',':
			if depth == 0 {
				return pos + 1
			}
		}

		pos++
	}

	return pos
}

// skipLayout advances past whitespace including newlines, so multi-line
// hash literals parse the same as single-line ones.
func skipLayout(text string, pos int) int {
	for pos < len(text) {
		switch text[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
		default:
			return pos
		}
	}

	return pos
}

// isIdentByte reports whether c can appear in a bare identifier.
func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
