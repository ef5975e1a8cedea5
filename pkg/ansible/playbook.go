package ansible

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/souschef-dev/souschef/pkg/chefdsl"
)

// defaultHosts is used when the caller does not target a host pattern.
const defaultHosts = "all"

// Playbook assembles tasks into a single-play playbook document node.
// The become flag sets play-level privilege escalation.
func Playbook(name, hosts string, become bool, tasks []*yaml.Node, vars *yaml.Node) *yaml.Node {
	if hosts == "" {
		hosts = defaultHosts
	}

	play := newMappingNode()
	appendScalar(play, "name", name)
	appendScalar(play, "hosts", hosts)
	appendNode(play, "become", boolNode(become))

	if vars != nil && len(vars.Content) > 0 {
		appendNode(play, "vars", vars)
	}

	taskSeq := &yaml.Node{Kind: yaml.SequenceNode, Content: tasks}
	appendNode(play, "tasks", taskSeq)

	return &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{play}}
}

// VarsFile converts resolved attributes into a vars mapping. Keys are
// emitted in sorted path order for stable output; attribute paths are
// flattened with underscores, matching common role-variable style.
// Conflicted attributes carry a line comment naming the winning tier so
// a migrator can audit the choice.
func VarsFile(resolved map[string]chefdsl.ResolvedAttribute) *yaml.Node {
	vars := newMappingNode()

	keys := make([]string, 0, len(resolved))
	for key := range resolved {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		attr := resolved[key]

		keyNode := scalarNode(varName(attr.Path))
		if attr.HasConflict {
			keyNode.LineComment = fmt.Sprintf("conflict: %s tier won", attr.Precedence)
		}

		vars.Content = append(vars.Content, keyNode, valueNode(attr.Value))
	}

	return vars
}

// varName flattens an attribute path into a variable identifier.
func varName(path []string) string {
	name := ""

	for i, part := range path {
		if i > 0 {
			name += "_"
		}

		name += part
	}

	return name
}

// Marshal renders a document node as YAML.
func Marshal(node *yaml.Node) ([]byte, error) {
	data, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	return data, nil
}
