package chefdsl

import (
	"strings"
)

// PropertyDescriptor describes one declared property of a custom
// resource, from either the modern property DSL or the legacy LWRP
// attribute form.
type PropertyDescriptor struct {
	Name       string          `json:"name"`
	Type       string          `json:"type,omitempty"`
	Required   bool            `json:"required,omitempty"`
	HasDefault bool            `json:"has_default,omitempty"`
	Default    StructuredValue `json:"default,omitempty"`
}

// ResourceInterface is the extracted surface of a custom resource file:
// its declared properties, actions, and default action.
type ResourceInterface struct {
	ResourceType  string                        `json:"resource_type"`
	Properties    map[string]PropertyDescriptor `json:"properties"`
	PropertyOrder []string                      `json:"property_order"`
	Actions       []string                      `json:"actions"`
	DefaultAction string                        `json:"default_action,omitempty"`
	Warnings      []string                      `json:"warnings,omitempty"`
}

// ParseCustomResource extracts the interface from custom resource source,
// covering both the modern DSL (resource_name/provides, property, action
// blocks) and legacy LWRP declarations (attribute ... kind_of:, actions,
// default_action). Repeated declarations accumulate additively, so
// re-parsing identical text is idempotent. Resources declaring no actions
// get the single action "default".
func ParseCustomResource(text string) *ResourceInterface {
	iface := &ResourceInterface{
		Properties:    map[string]PropertyDescriptor{},
		PropertyOrder: []string{},
		Actions:       []string{},
	}

	if strings.TrimSpace(text) == "" {
		iface.Warnings = append(iface.Warnings, "no declarations found: input is empty")
		iface.Actions = []string{"default"}

		return iface
	}

	// Depth of nested blocks (action bodies, helper methods). Interface
	// declarations are only recognized at the top level; an action body
	// is ordinary recipe code and must not contribute declarations.
	depth := 0

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(stripComment(rawLine))
		if line == "" {
			continue
		}

		if depth > 0 {
			switch {
			case line == "end":
				depth--
			case opensNestedBlock(line):
				depth++
			}

			continue
		}

		key, rest := splitKeyword(line)

		switch key {
		case "resource_name", "provides":
			if iface.ResourceType == "" || key == "resource_name" {
				iface.ResourceType = symbolArg(rest)
			}
		case "property":
			iface.addProperty(parsePropertyDecl(rest, false))
		case "attribute":
			iface.addProperty(parsePropertyDecl(rest, true))
		case "action":
			name, opensBody := parseActionDecl(rest)
			if name != "" {
				iface.addAction(name)
			}

			if opensBody {
				depth = 1
			}
		case "actions":
			for _, arg := range splitTopLevelArgs(rest) {
				iface.addAction(symbolArg(arg))
			}
		case "default_action":
			iface.DefaultAction = symbolArg(rest)
		default:
			if opensNestedBlock(line) {
				depth = 1
			}
		}
	}

	if len(iface.Actions) == 0 {
		iface.Actions = []string{"default"}
	}

	return iface
}

// addProperty merges a descriptor into the interface. A redeclared
// property keeps its position and overlays the newer non-zero fields.
func (i *ResourceInterface) addProperty(desc PropertyDescriptor) {
	if desc.Name == "" {
		return
	}

	existing, ok := i.Properties[desc.Name]
	if !ok {
		i.PropertyOrder = append(i.PropertyOrder, desc.Name)
		i.Properties[desc.Name] = desc

		return
	}

	if desc.Type != "" {
		existing.Type = desc.Type
	}

	existing.Required = existing.Required || desc.Required

	if desc.HasDefault {
		existing.HasDefault = true
		existing.Default = desc.Default
	}

	i.Properties[desc.Name] = existing
}

// addAction appends an action name if not already present.
func (i *ResourceInterface) addAction(name string) {
	if name == "" {
		return
	}

	for _, a := range i.Actions {
		if a == name {
			return
		}
	}

	i.Actions = append(i.Actions, name)
}

// parsePropertyDecl parses the argument list of a property or (legacy)
// attribute declaration: a symbol name, an optional positional type, and
// keyword options (required:, default:, kind_of:).
func parsePropertyDecl(rest string, legacy bool) PropertyDescriptor {
	args := splitTopLevelArgs(rest)
	if len(args) == 0 {
		return PropertyDescriptor{}
	}

	desc := PropertyDescriptor{Name: symbolArg(args[0])}

	for _, arg := range args[1:] {
		kw, value, isKeyword := splitKeywordArg(arg)
		if !isKeyword {
			desc.Type = strings.TrimSpace(arg)

			continue
		}

		switch kw {
		case "required":
			lit, _ := ParseLiteral(value, 0)
			desc.Required = lit.Kind == LiteralBoolean && lit.Bool
		case "default":
			desc.HasDefault = true
			desc.Default = parsePropertyValue(value)
		case "kind_of":
			if legacy || desc.Type == "" {
				desc.Type = strings.TrimSpace(value)
			}
		}
	}

	return desc
}

// parseActionDecl parses "action :name do" declarations. The second
// return reports whether a body block follows.
func parseActionDecl(rest string) (string, bool) {
	opensBody := false

	if strings.HasSuffix(rest, " do") {
		opensBody = true
		rest = strings.TrimSpace(rest[:len(rest)-len(" do")])
	}

	return symbolArg(rest), opensBody
}

// symbolArg extracts an action or resource name from ":name" or "'name'".
func symbolArg(arg string) string {
	lit, _ := ParseLiteral(strings.TrimSpace(arg), 0)

	if lit.Kind == LiteralSymbol || lit.Kind == LiteralString {
		return lit.Str
	}

	return ""
}

// splitKeywordArg splits "key: value"; Ruby keyword arguments in a
// declaration list.
func splitKeywordArg(arg string) (string, string, bool) {
	arg = strings.TrimSpace(arg)

	colon := strings.IndexByte(arg, ':')
	if colon <= 0 {
		return "", "", false
	}

	key := arg[:colon]
	if !isIdentifier(key) {
		return "", "", false
	}

	return key, strings.TrimSpace(arg[colon+1:]), true
}

// splitTopLevelArgs splits a comma-separated argument list, tracking
// quotes and container nesting so commas inside nested literals do not
// split.
func splitTopLevelArgs(rest string) []string {
	rest = stripOuterParens(strings.TrimSpace(rest))
	if rest == "" {
		return nil
	}

	var (
		args  []string
		quote byte
		depth int
		start int
	)

	for i := 0; i < len(rest); i++ {
		c := rest[i]

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
			depth++
		case '}', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(rest[start:i]))
				start = i + 1
			}
		}
	}

	if tail := strings.TrimSpace(rest[start:]); tail != "" {
		args = append(args, tail)
	}

	return args
}
