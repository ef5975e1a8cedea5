package cookbook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/souschef-dev/souschef/pkg/chefdsl"
)

// Metadata is the cookbook identity declared in metadata.rb or
// metadata.json.
type Metadata struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description,omitempty"`
	Maintainer  string            `json:"maintainer,omitempty"`
	License     string            `json:"license,omitempty"`
	Depends     map[string]string `json:"depends,omitempty"`
}

// metadataJSONSchema validates the subset of the Chef metadata.json
// format this tool consumes. Extra fields are allowed; name is the only
// hard requirement.
const metadataJSONSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "string"},
    "description": {"type": "string"},
    "maintainer": {"type": "string"},
    "license": {"type": "string"},
    "dependencies": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

// ParseMetadataRB extracts cookbook metadata from metadata.rb source.
// Like the DSL parsers it never fails; unrecognized lines are skipped.
func ParseMetadataRB(text string) *Metadata {
	meta := &Metadata{Depends: map[string]string{}}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, rest := splitWord(line)

		switch key {
		case "name":
			meta.Name = literalString(rest)
		case "version":
			meta.Version = literalString(rest)
		case "description":
			meta.Description = literalString(rest)
		case "maintainer":
			meta.Maintainer = literalString(rest)
		case "license":
			meta.License = literalString(rest)
		case "depends":
			name, constraint := parseDepends(rest)
			if name != "" {
				meta.Depends[name] = constraint
			}
		}
	}

	return meta
}

// ParseMetadataJSON decodes metadata.json, validating it against the
// embedded schema first so malformed generated files are reported with
// field-level detail.
func ParseMetadataJSON(data []byte) (*Metadata, error) {
	schemaLoader := gojsonschema.NewStringLoader(metadataJSONSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("validate metadata.json: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return nil, fmt.Errorf("invalid metadata.json: %s", strings.Join(details, "; "))
	}

	var raw struct {
		Name         string            `json:"name"`
		Version      string            `json:"version"`
		Description  string            `json:"description"`
		Maintainer   string            `json:"maintainer"`
		License      string            `json:"license"`
		Dependencies map[string]string `json:"dependencies"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode metadata.json: %w", err)
	}

	meta := &Metadata{
		Name:        raw.Name,
		Version:     raw.Version,
		Description: raw.Description,
		Maintainer:  raw.Maintainer,
		License:     raw.License,
		Depends:     raw.Dependencies,
	}

	if meta.Depends == nil {
		meta.Depends = map[string]string{}
	}

	return meta, nil
}

// parseDepends parses "depends 'name'[, 'constraint']" arguments.
func parseDepends(rest string) (string, string) {
	name, after := firstQuoted(rest)
	if name == "" {
		return "", ""
	}

	constraint, _ := firstQuoted(after)
	if constraint == "" {
		constraint = ">= 0.0.0"
	}

	return name, constraint
}

// literalString evaluates a metadata argument via the DSL literal parser.
func literalString(arg string) string {
	lit, _ := chefdsl.ParseLiteral(strings.TrimSpace(arg), 0)
	if lit.Kind == chefdsl.LiteralString || lit.Kind == chefdsl.LiteralSymbol {
		return lit.Str
	}

	return lit.GoString()
}

// firstQuoted returns the first quoted string in s and the remainder
// after it.
func firstQuoted(s string) (string, string) {
	start := strings.IndexAny(s, `'"`)
	if start < 0 {
		return "", ""
	}

	lit, next := chefdsl.ParseLiteral(s[start:], 0)
	if lit.Kind != chefdsl.LiteralString {
		return "", ""
	}

	return lit.Str, s[start+next:]
}

// splitWord splits a line into its first word and the remainder.
func splitWord(line string) (string, string) {
	space := strings.IndexAny(line, " \t")
	if space < 0 {
		return line, ""
	}

	return line[:space], strings.TrimSpace(line[space:])
}
