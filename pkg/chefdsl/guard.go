package chefdsl

import (
	"strings"
)

// GuardKind distinguishes only_if from not_if.
type GuardKind int

// Guard kinds.
const (
	GuardOnlyIf GuardKind = iota
	GuardNotIf
)

// String returns the Chef keyword for the kind.
func (k GuardKind) String() string {
	if k == GuardNotIf {
		return "not_if"
	}

	return "only_if"
}

// SurfaceForm records which of the Chef guard syntaxes carried the
// condition. Translation rules differ by form: string and array guards
// are shell commands, block and lambda guards are Ruby expressions.
type SurfaceForm int

// Guard surface forms.
const (
	FormString SurfaceForm = iota
	FormArray
	FormBlock
	FormLambda
)

// String returns the form name used in JSON output.
func (f SurfaceForm) String() string {
	switch f {
	case FormString:
		return "string"
	case FormArray:
		return "array"
	case FormBlock:
		return "block"
	case FormLambda:
		return "lambda"
	default:
		return "unknown"
	}
}

// GuardCondition is one extracted and translated guard clause.
type GuardCondition struct {
	Kind       GuardKind   `json:"kind"`
	Form       SurfaceForm `json:"surface_form"`
	Raw        string      `json:"raw"`
	Expression string      `json:"expression"`
}

// todoGuardPrefix tags guard expressions the rule table does not cover,
// so a human migrator sees them instead of the guard silently vanishing.
const todoGuardPrefix = "TODO(chef-guard): "

// translateGuardExpr maps one recognized Ruby guard idiom to an Ansible
// boolean expression. The rule table is a fixed, manually curated list;
// anything else passes through as a TODO-tagged string. The second return
// reports whether negation applies: a literal boolean guard collapses to
// the always-satisfied condition either way, because a falsy not_if never
// blocks the resource in Chef.
func translateGuardExpr(raw string) (string, bool) {
	expr := strings.TrimSpace(raw)

	if path, ok := matchFileCheck(expr, "exist?"); ok {
		return quotePath(path) + " is file", true
	}

	if path, ok := matchFileCheck(expr, "directory?"); ok {
		return quotePath(path) + " is directory", true
	}

	if pkg, ok := matchWhichCommand(expr); ok {
		return "'" + pkg + "' in ansible_facts.packages", true
	}

	if expr == "true" || expr == "false" {
		return "true", false
	}

	return todoGuardPrefix + expr, true
}

// matchFileCheck recognizes File.<method>('<path>') and the
// ::File-qualified spelling. Returns the extracted path.
func matchFileCheck(expr, method string) (string, bool) {
	trimmed := strings.TrimPrefix(expr, "::")
	if !strings.HasPrefix(trimmed, "File.") {
		return "", false
	}

	rest := trimmed[len("File."):]
	if !strings.HasPrefix(rest, method) {
		return "", false
	}

	return extractCallArg(rest[len(method):])
}

// matchWhichCommand recognizes system('which <pkg>') probes.
func matchWhichCommand(expr string) (string, bool) {
	if !strings.HasPrefix(expr, "system") {
		return "", false
	}

	arg, ok := extractCallArg(expr[len("system"):])
	if !ok {
		return "", false
	}

	cmd := strings.TrimSpace(arg)
	if !strings.HasPrefix(cmd, "which ") {
		return "", false
	}

	pkg := strings.TrimSpace(cmd[len("which "):])
	if pkg == "" || strings.ContainsAny(pkg, " \t") {
		return "", false
	}

	return pkg, true
}

// extractCallArg pulls the single quoted argument out of "('<arg>')" or
// " '<arg>'" (parens optional, Ruby style).
func extractCallArg(rest string) (string, bool) {
	rest = strings.TrimSpace(rest)

	parens := false
	if strings.HasPrefix(rest, "(") {
		parens = true
		rest = strings.TrimSpace(rest[1:])
	}

	if rest == "" || (rest[0] != '\'' && rest[0] != '"') {
		return "", false
	}

	arg, end := scanQuoted(rest, 0)

	tail := strings.TrimSpace(rest[end:])
	if parens {
		if !strings.HasPrefix(tail, ")") {
			return "", false
		}

		tail = strings.TrimSpace(tail[1:])
	}

	if tail != "" {
		return "", false
	}

	return arg, true
}

// quotePath wraps a path for use in a Jinja test expression.
func quotePath(path string) string {
	return "'" + path + "'"
}

// negateExpr inverts a translated expression without re-deriving the
// original match.
func negateExpr(expr string) string {
	return "not (" + expr + ")"
}

// newGuard builds a GuardCondition from a raw guard expression, applying
// the translation table and, for not_if, the negation step.
func newGuard(kind GuardKind, form SurfaceForm, raw string) GuardCondition {
	expr, negatable := translateGuardExpr(raw)
	if kind == GuardNotIf && negatable {
		expr = negateExpr(expr)
	}

	return GuardCondition{
		Kind:       kind,
		Form:       form,
		Raw:        strings.TrimSpace(raw),
		Expression: expr,
	}
}

// guardsFromArgument expands one guard argument into conditions. An array
// argument yields one condition per element because Chef requires every
// entry of an array guard to pass.
func guardsFromArgument(kind GuardKind, arg string) []GuardCondition {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil
	}

	if arg[0] == '[' {
		items, _ := parseArray(arg, 0)

		guards := make([]GuardCondition, 0, len(items))

		for _, item := range items {
			if item.Kind == ValueLiteral {
				guards = append(guards, newGuard(kind, FormArray, literalText(item.Literal)))
			}
		}

		return guards
	}

	if arg[0] == '\'' || arg[0] == '"' {
		cmd, _ := scanQuoted(arg, 0)

		return []GuardCondition{newGuard(kind, FormString, cmd)}
	}

	if arg[0] == '{' {
		return []GuardCondition{newGuard(kind, FormBlock, stripBraces(arg))}
	}

	if lambdaBody, ok := stripLambda(arg); ok {
		return []GuardCondition{newGuard(kind, FormLambda, lambdaBody)}
	}

	// Bare expression with no recognized wrapper; treat it as a block
	// body so it still reaches the translation table.
	return []GuardCondition{newGuard(kind, FormBlock, arg)}
}

// stripBraces removes one level of surrounding braces.
func stripBraces(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "{") {
		s = s[1:]
	}

	if strings.HasSuffix(s, "}") {
		s = s[:len(s)-1]
	}

	return strings.TrimSpace(s)
}

// stripLambda unwraps "-> { body }" and "lambda { body }" guard values.
func stripLambda(s string) (string, bool) {
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "->"):
		s = strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, "lambda"):
		s = strings.TrimSpace(s[len("lambda"):])
	default:
		return "", false
	}

	// Optional parameter list: ->() { ... }
	if strings.HasPrefix(s, "(") {
		if close := strings.IndexByte(s, ')'); close >= 0 {
			s = strings.TrimSpace(s[close+1:])
		}
	}

	if !strings.HasPrefix(s, "{") {
		return "", false
	}

	return stripBraces(s), true
}

// literalText renders a literal guard entry back to its source text form
// for translation (string entries are commands, others pass through).
func literalText(v LiteralValue) string {
	if v.Kind == LiteralString {
		return v.Str
	}

	return v.GoString()
}

// CombineGuards AND-joins every guard on a resource into the final
// condition list: all only_if expressions must hold and all not_if
// expressions must fail, mirroring Chef's execution rule. not_if guards
// are already negated at construction, so the result is a plain
// conjunction in source order.
func CombineGuards(guards []GuardCondition) []string {
	if len(guards) == 0 {
		return nil
	}

	exprs := make([]string, 0, len(guards))
	for _, g := range guards {
		exprs = append(exprs, g.Expression)
	}

	return exprs
}
