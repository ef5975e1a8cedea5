package chefdsl

import (
	"fmt"
	"strings"
)

// Precedence is one of Chef's six attribute-priority tiers. Higher values
// win during resolution.
type Precedence int

// Precedence tiers in ascending rank order.
const (
	PrecedenceDefault Precedence = iota
	PrecedenceForceDefault
	PrecedenceNormal
	PrecedenceOverride
	PrecedenceForceOverride
	PrecedenceAutomatic
)

// precedenceNames maps Chef DSL keywords to their tier.
var precedenceNames = map[string]Precedence{
	"default":        PrecedenceDefault,
	"force_default":  PrecedenceForceDefault,
	"normal":         PrecedenceNormal,
	"override":       PrecedenceOverride,
	"force_override": PrecedenceForceOverride,
	"automatic":      PrecedenceAutomatic,
}

// String returns the Chef keyword for the tier.
func (p Precedence) String() string {
	switch p {
	case PrecedenceDefault:
		return "default"
	case PrecedenceForceDefault:
		return "force_default"
	case PrecedenceNormal:
		return "normal"
	case PrecedenceOverride:
		return "override"
	case PrecedenceForceOverride:
		return "force_override"
	case PrecedenceAutomatic:
		return "automatic"
	default:
		return "unknown"
	}
}

// MarshalText emits the keyword form for JSON/YAML output.
func (p Precedence) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// AttributeRecord is one parsed attribute assignment statement.
type AttributeRecord struct {
	Precedence Precedence      `json:"precedence"`
	Path       []string        `json:"path"`
	Value      StructuredValue `json:"value"`
	Line       int             `json:"line"`
}

// PathKey returns the canonical dotted form of the attribute path. Dots
// inside a segment are escaped so ["a.b"] and ["a","b"] never collide
// during resolution.
func (r AttributeRecord) PathKey() string {
	parts := make([]string, len(r.Path))
	for i, seg := range r.Path {
		parts[i] = strings.ReplaceAll(seg, ".", `\.`)
	}

	return strings.Join(parts, ".")
}

// ResolvedAttribute is the materialized value for one attribute path
// after precedence resolution. HasConflict is set when two or more
// distinct tiers contributed to the same path, which downstream migration
// notes surface to the operator.
type ResolvedAttribute struct {
	Path        []string        `json:"path"`
	Value       StructuredValue `json:"value"`
	Precedence  Precedence      `json:"precedence"`
	HasConflict bool            `json:"has_conflict"`
}

// AttributeResult is the outcome of parsing one attribute file.
type AttributeResult struct {
	Records  []AttributeRecord            `json:"records"`
	Resolved map[string]ResolvedAttribute `json:"resolved,omitempty"`
	Warnings []string                     `json:"warnings"`
}

// ParseAttributes parses attribute assignment statements of the form
// <precedence>['k1']['k2']... = <value>, with an optional leading "node."
// receiver. When resolve is set, records sharing a path are folded per
// Chef's precedence order into Resolved. Unrecognized statements become
// warnings; parsing never aborts.
func ParseAttributes(text string, resolve bool) *AttributeResult {
	result := &AttributeResult{
		Records:  []AttributeRecord{},
		Warnings: []string{},
	}

	if strings.TrimSpace(text) == "" {
		result.Warnings = append(result.Warnings, "no attribute statements found: input is empty")

		return result
	}

	var (
		pending      *AttributeRecord
		pendingBuf   []string
		pendingDepth int
	)

	for lineNo, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(stripComment(rawLine))
		if line == "" {
			continue
		}

		if pending != nil {
			pendingBuf = append(pendingBuf, line)

			pendingDepth += bracketDelta(line)
			if pendingDepth > 0 {
				continue
			}

			pending.Value = parsePropertyValue(strings.Join(pendingBuf, "\n"))
			result.Records = append(result.Records, *pending)
			pending, pendingBuf = nil, nil

			continue
		}

		rec, valueText, ok := parseAttributeStatement(line, lineNo+1)
		if !ok {
			continue
		}

		if delta := bracketDelta(valueText); delta > 0 {
			pending = &rec
			pendingBuf = []string{valueText}
			pendingDepth = delta

			continue
		}

		rec.Value = parsePropertyValue(valueText)
		result.Records = append(result.Records, rec)
	}

	if pending != nil {
		pending.Value = parsePropertyValue(strings.Join(pendingBuf, "\n"))
		result.Records = append(result.Records, *pending)
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"attribute %s at line %d has an unterminated value; parsed to end of file",
			pending.PathKey(), pending.Line))
	}

	if len(result.Records) == 0 {
		result.Warnings = append(result.Warnings, "no attribute statements found")
	}

	if resolve {
		result.Resolved = ResolveAttributes(result.Records)
	}

	return result
}

// parseAttributeStatement parses the precedence keyword, bracket-chain
// path, and assignment operator of one statement. It returns the partial
// record (value unset), the raw value text, and whether the line was an
// attribute statement at all.
func parseAttributeStatement(line string, lineNo int) (AttributeRecord, string, bool) {
	rest := strings.TrimPrefix(line, "node.")

	word, pos := scanIdentifier(rest)

	prec, ok := precedenceNames[word]
	if !ok {
		return AttributeRecord{}, "", false
	}

	path, pos := scanBracketPath(rest, pos)
	if len(path) == 0 {
		return AttributeRecord{}, "", false
	}

	pos = skipSpaces(rest, pos)
	if pos >= len(rest) || rest[pos] != '=' || (pos+1 < len(rest) && rest[pos+1] == '=') {
		return AttributeRecord{}, "", false
	}

	valueText := strings.TrimSpace(rest[pos+1:])

	return AttributeRecord{Precedence: prec, Path: path, Line: lineNo}, valueText, true
}

// scanIdentifier reads a leading identifier and returns it with the
// cursor past it.
func scanIdentifier(s string) (string, int) {
	pos := 0
	for pos < len(s) && isIdentByte(s[pos]) {
		pos++
	}

	return s[:pos], pos
}

// scanBracketPath reads a chain of ['key'] segments. Keys may be quoted
// strings or symbols; each is normalized to its string form.
func scanBracketPath(s string, pos int) ([]string, int) {
	var path []string

	for pos < len(s) && s[pos] == '[' {
		lit, next := ParseLiteral(s, pos+1)

		next = skipSpaces(s, next)
		if next >= len(s) || s[next] != ']' {
			break
		}

		switch lit.Kind {
		case LiteralString, LiteralSymbol:
			path = append(path, lit.Str)
		default:
			path = append(path, lit.GoString())
		}

		pos = next + 1
	}

	return path, pos
}

// ResolveAttributes folds records sharing a path into final values per
// Chef's precedence order: the highest-ranked tier present wins, ties at
// the same tier go to the last declaration, and any path fed by two or
// more distinct tiers is flagged as a conflict. The result is a pure
// function of declaration order and tier only.
func ResolveAttributes(records []AttributeRecord) map[string]ResolvedAttribute {
	resolved := make(map[string]ResolvedAttribute, len(records))
	tiers := make(map[string]map[Precedence]struct{}, len(records))

	for _, rec := range records {
		key := rec.PathKey()

		seen, ok := tiers[key]
		if !ok {
			seen = make(map[Precedence]struct{})
			tiers[key] = seen
		}

		seen[rec.Precedence] = struct{}{}

		cur, exists := resolved[key]
		if !exists || rec.Precedence >= cur.Precedence {
			cur = ResolvedAttribute{
				Path:       rec.Path,
				Value:      rec.Value,
				Precedence: rec.Precedence,
			}
		}

		cur.HasConflict = len(seen) > 1
		resolved[key] = cur
	}

	return resolved
}
