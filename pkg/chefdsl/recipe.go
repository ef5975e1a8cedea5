package chefdsl

import (
	"fmt"
	"strings"
)

// ResourceRecord is one extracted Chef resource block. Records appear in
// the result in source order; notification linking downstream depends on
// that ordering.
type ResourceRecord struct {
	Type          string           `json:"type"`
	Name          string           `json:"name"`
	Actions       []string         `json:"actions"`
	Properties    *Mapping         `json:"properties"`
	Guards        []GuardCondition `json:"guards,omitempty"`
	Notifications []string         `json:"notifications,omitempty"`
	Line          int              `json:"line"`
}

// WhenList returns the AND-combined condition list for the record.
func (r *ResourceRecord) WhenList() []string {
	return CombineGuards(r.Guards)
}

// RecipeResult is the outcome of parsing one recipe file. Warnings carry
// every structural problem that was recovered from; an empty Resources
// slice with a warning is the degenerate success case, never an error.
type RecipeResult struct {
	Resources []ResourceRecord `json:"resources"`
	Includes  []string         `json:"includes"`
	Warnings  []string         `json:"warnings"`
}

// blockKeywords open a nested scope when they lead a line. The extractor
// counts them against "end" so resources inside conditionals are still
// found and an inner "end" is not mistaken for a resource terminator.
var blockKeywords = map[string]struct{}{
	"if":     {},
	"unless": {},
	"case":   {},
	"while":  {},
	"until":  {},
	"def":    {},
	"class":  {},
	"module": {},
	"begin":  {},
}

// ParseRecipe extracts resource blocks, include_recipe directives, and
// structural warnings from recipe source. It never fails: malformed
// blocks produce best-effort records plus warnings, and parsing always
// continues past them.
func ParseRecipe(text string) *RecipeResult {
	result := &RecipeResult{
		Resources: []ResourceRecord{},
		Includes:  []string{},
		Warnings:  []string{},
	}

	if strings.TrimSpace(text) == "" {
		result.Warnings = append(result.Warnings, "no resources found: input is empty")

		return result
	}

	var builder *resourceBuilder

	for lineNo, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(stripComment(rawLine))
		if line == "" {
			continue
		}

		if builder != nil {
			builder = feedResourceLine(builder, line, result)

			continue
		}

		if name, ok := matchIncludeRecipe(line); ok {
			result.Includes = append(result.Includes, name)

			continue
		}

		if rtype, nameExpr, ok := matchResourceStart(line); ok {
			builder = newResourceBuilder(rtype, nameExpr, lineNo+1)

			continue
		}
		// Nesting outside resources is tracked only to stay aligned;
		// the depth itself does not affect extraction.
	}

	if builder != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"resource %s[%s] at line %d has no matching end; record spans to end of file",
			builder.rec.Type, builder.rec.Name, builder.rec.Line))
		result.Resources = append(result.Resources, builder.finish())
	}

	if len(result.Resources) == 0 {
		result.Warnings = append(result.Warnings, "no resources found")
	}

	return result
}

// resourceBuilder accumulates one resource block line by line.
type resourceBuilder struct {
	rec ResourceRecord

	// Multi-line property value capture (unbalanced brackets).
	pendingKey   string
	pendingBuf   []string
	pendingDepth int

	// Nested do/end block capture. guardKind is set when the block is a
	// guard body; otherwise the block is skipped (ruby_block bodies,
	// inline conditionals) because its contents are not resource
	// properties.
	nestedDepth int
	nestedBuf   []string
	guardKind   GuardKind
	guardBlock  bool
}

func newResourceBuilder(rtype, nameExpr string, line int) *resourceBuilder {
	return &resourceBuilder{
		rec: ResourceRecord{
			Type:       rtype,
			Name:       resourceName(nameExpr),
			Properties: NewMapping(),
			Line:       line,
		},
	}
}

// finish applies defaults and returns the completed record.
func (b *resourceBuilder) finish() ResourceRecord {
	if len(b.rec.Actions) == 0 {
		b.rec.Actions = []string{"default"}
	}

	return b.rec
}

// feedResourceLine routes one body line into the builder. It returns nil
// when the resource's own "end" was consumed, handing control back to the
// top-level scan.
func feedResourceLine(b *resourceBuilder, line string, result *RecipeResult) *resourceBuilder {
	if b.nestedDepth > 0 {
		b.feedNested(line)

		return b
	}

	if b.pendingDepth > 0 {
		b.feedPending(line)

		return b
	}

	if line == "end" {
		result.Resources = append(result.Resources, b.finish())

		return nil
	}

	key, rest := splitKeyword(line)

	switch key {
	case "only_if", "not_if":
		b.feedGuard(key, rest)
	case "action":
		b.rec.Actions = append(b.rec.Actions, parseActions(rest)...)
	case "notifies", "subscribes":
		b.rec.Notifications = append(b.rec.Notifications, key+" "+rest)
	default:
		b.feedProperty(key, rest, line)
	}

	return b
}

// feedGuard handles the four guard surface forms. String, array, lambda
// and single-line brace blocks resolve immediately; "do" and unbalanced
// "{" openers switch the builder into nested capture.
func (b *resourceBuilder) feedGuard(keyword, arg string) {
	kind := GuardOnlyIf
	if keyword == "not_if" {
		kind = GuardNotIf
	}

	arg = strings.TrimSpace(arg)

	if arg == "do" || strings.HasPrefix(arg, "do ") {
		b.nestedDepth = 1
		b.nestedBuf = nil
		b.guardKind = kind
		b.guardBlock = true

		return
	}

	if strings.HasPrefix(arg, "{") && bracketDelta(arg) > 0 {
		// Brace block continuing on following lines.
		b.pendingKey = ""
		b.pendingBuf = []string{arg}
		b.pendingDepth = bracketDelta(arg)
		b.guardKind = kind
		b.guardBlock = true

		return
	}

	b.rec.Guards = append(b.rec.Guards, guardsFromArgument(kind, arg)...)
}

// feedNested tracks do/end depth inside a captured block.
func (b *resourceBuilder) feedNested(line string) {
	if line == "end" {
		b.nestedDepth--

		if b.nestedDepth == 0 {
			if b.guardBlock {
				body := strings.Join(b.nestedBuf, "; ")
				b.rec.Guards = append(b.rec.Guards, newGuard(b.guardKind, FormBlock, body))
			}

			b.nestedBuf = nil
			b.guardBlock = false
		}

		return
	}

	if opensNestedBlock(line) {
		b.nestedDepth++
	}

	b.nestedBuf = append(b.nestedBuf, line)
}

// feedPending accumulates a multi-line value until brackets balance.
func (b *resourceBuilder) feedPending(line string) {
	b.pendingBuf = append(b.pendingBuf, line)

	b.pendingDepth += bracketDelta(line)
	if b.pendingDepth > 0 {
		return
	}

	joined := strings.Join(b.pendingBuf, "\n")
	b.pendingBuf = nil
	b.pendingDepth = 0

	if b.guardBlock {
		b.rec.Guards = append(b.rec.Guards, guardsFromArgument(b.guardKind, joined)...)
		b.guardBlock = false

		return
	}

	b.rec.Properties.Set(b.pendingKey, parsePropertyValue(joined))
	b.pendingKey = ""
}

// feedProperty records a property line, deferring multi-line values and
// skipping nested non-guard blocks.
func (b *resourceBuilder) feedProperty(key, rest, line string) {
	if !isIdentifier(key) {
		return
	}

	// A nested block such as ruby_block's "block do ... end" or an
	// inline conditional. Its body is not a property list.
	if rest == "do" || strings.HasSuffix(rest, " do") || lineOpensKeywordBlock(key) {
		b.nestedDepth = 1
		b.nestedBuf = nil
		b.guardBlock = false

		return
	}

	if rest == "" {
		// Bare word line, e.g. a lone "action" or stray token.
		return
	}

	if delta := bracketDelta(rest); delta > 0 {
		b.pendingKey = key
		b.pendingBuf = []string{rest}
		b.pendingDepth = delta

		return
	}

	b.rec.Properties.Set(key, parsePropertyValue(rest))
}

// parsePropertyValue parses one property value expression: a hash or
// array literal routed through the structural parser, a quoted string, a
// scalar, or (for anything with embedded spaces or brackets) the raw text
// preserved as a string.
func parsePropertyValue(raw string) StructuredValue {
	text := strings.TrimSpace(raw)
	text = stripOuterParens(text)

	if text == "" {
		return LiteralNode(StringLiteral(""))
	}

	switch text[0] {
	case '{':
		m, _ := parseNestedHash(text, 0)

		return MappingNode(m)
	case '[':
		items, _ := parseArray(text, 0)

		return SequenceNode(items)
	case '\'', '"':
		s, end := scanQuoted(text, 0)
		if strings.TrimSpace(text[end:]) == "" {
			return LiteralNode(StringLiteral(s))
		}

		// String interpolation or concatenation tail; keep verbatim.
		return LiteralNode(StringLiteral(text))
	}

	if !strings.ContainsAny(text, " \t{}[]") {
		return LiteralNode(classifyToken(text))
	}

	return LiteralNode(StringLiteral(text))
}

// parseActions parses the argument of an action line: a single symbol or
// an array literal of symbols.
func parseActions(arg string) []string {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil
	}

	if arg[0] == '[' {
		items, _ := parseArray(arg, 0)

		actions := make([]string, 0, len(items))

		for _, item := range items {
			if item.Kind == ValueLiteral {
				actions = append(actions, symbolName(item.Literal))
			}
		}

		return actions
	}

	lit, _ := ParseLiteral(arg, 0)

	return []string{symbolName(lit)}
}

// symbolName extracts an action name from a symbol or string literal.
func symbolName(v LiteralValue) string {
	if v.Kind == LiteralSymbol || v.Kind == LiteralString {
		return v.Str
	}

	return v.GoString()
}

// matchResourceStart recognizes "<identifier> <name-expr> do" lines.
func matchResourceStart(line string) (string, string, bool) {
	if !strings.HasSuffix(line, " do") {
		return "", "", false
	}

	body := strings.TrimSpace(line[:len(line)-len(" do")])

	space := strings.IndexAny(body, " \t")
	if space < 0 {
		return "", "", false
	}

	rtype := body[:space]
	if !isIdentifier(rtype) || lineOpensKeywordBlock(rtype) {
		return "", "", false
	}

	nameExpr := strings.TrimSpace(body[space:])
	if nameExpr == "" {
		return "", "", false
	}

	return rtype, nameExpr, true
}

// resourceName evaluates a resource name expression: quoted strings
// become their contents, anything else (node attribute references,
// variables) is preserved verbatim.
func resourceName(expr string) string {
	if expr == "" {
		return ""
	}

	if expr[0] == '\'' || expr[0] == '"' {
		name, end := scanQuoted(expr, 0)
		if strings.TrimSpace(expr[end:]) == "" {
			return name
		}
	}

	return expr
}

// matchIncludeRecipe recognizes include_recipe directives.
func matchIncludeRecipe(line string) (string, bool) {
	key, rest := splitKeyword(line)
	if key != "include_recipe" {
		return "", false
	}

	rest = stripOuterParens(strings.TrimSpace(rest))
	if rest == "" {
		return "", false
	}

	if rest[0] == '\'' || rest[0] == '"' {
		name, _ := scanQuoted(rest, 0)

		return name, true
	}

	return rest, true
}

// splitKeyword splits a line into its leading word and the remainder.
func splitKeyword(line string) (string, string) {
	space := strings.IndexAny(line, " \t")
	if space < 0 {
		return line, ""
	}

	return line[:space], strings.TrimSpace(line[space:])
}

// lineOpensKeywordBlock reports whether the word is a block-opening
// Ruby keyword.
func lineOpensKeywordBlock(word string) bool {
	_, ok := blockKeywords[word]

	return ok
}

// opensNestedBlock reports whether a line inside a captured block opens a
// further nested scope that will consume its own "end".
func opensNestedBlock(line string) bool {
	key, _ := splitKeyword(line)
	if lineOpensKeywordBlock(key) {
		return true
	}

	return line == "do" || strings.HasSuffix(line, " do")
}

// stripComment removes a trailing # comment, honoring quote state so
// fragments inside strings survive.
func stripComment(line string) string {
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]

		if quote != 0 {
			if c == '\\' {
				i++

				continue
			}

			if c == quote {
				quote = 0
			}

			continue
		}

		switch c {
		case '\'', '"':
			quote = c
		case '#':
			// "#{" starts Ruby interpolation only inside strings, so a
			// bare # out here is always a comment.
			return line[:i]
		}
	}

	return line
}

// stripOuterParens removes one balanced pair of wrapping parentheses.
func stripOuterParens(s string) string {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}

	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--

			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}

	return strings.TrimSpace(s[1 : len(s)-1])
}

// bracketDelta returns opens minus closes for braces, brackets and
// parens outside quoted strings.
func bracketDelta(line string) int {
	var (
		quote byte
		delta int
	)

	for i := 0; i < len(line); i++ {
		c := line[i]

		if quote != 0 {
			if c == '\\' {
				i++

				continue
			}

			if c == quote {
				quote = 0
			}

			continue
		}

		switch c {
		case '\'', '"':
			quote = c
		case '{', '[', '(':
			delta++
		case '}', ']', ')':
			delta--
		}
	}

	return delta
}

// isIdentifier reports whether s is a bare Ruby identifier.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	if s[0] >= '0' && s[0] <= '9' {
		return false
	}

	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}

	return true
}
