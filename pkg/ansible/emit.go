// Package ansible converts parsed Chef resource records into Ansible
// task structures. Emission goes through yaml.v3 document nodes rather
// than Go maps so key order in the generated YAML matches the source
// cookbook, which keeps diffs reviewable during a migration.
package ansible

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/souschef-dev/souschef/pkg/chefdsl"
)

// todoTaskPrefix tags generated tasks that need human attention.
const todoTaskPrefix = "TODO(chef-migrate): "

// moduleRule describes how one Chef resource type maps onto an Ansible
// module: the module name, where the Chef resource name lands, and how
// properties rename. Properties absent from the table pass through under
// their Chef name with a warning.
type moduleRule struct {
	module    string
	nameParam string
	params    map[string]string
	stateFor  map[string]string // chef action -> value of the "state" param
	flags     map[string]string // chef action -> extra boolean param to set true
}

// moduleTable is the curated Chef-to-Ansible resource mapping. Like the
// guard translation table it is deliberately incomplete: unknown types
// produce a TODO task instead of a guessed conversion.
var moduleTable = map[string]moduleRule{
	"package": {
		module:    "ansible.builtin.package",
		nameParam: "name",
		params:    map[string]string{"version": "version"},
		stateFor:  map[string]string{"install": "present", "upgrade": "latest", "remove": "absent", "purge": "absent", "default": "present"},
	},
	"service": {
		module:    "ansible.builtin.service",
		nameParam: "name",
		stateFor:  map[string]string{"start": "started", "stop": "stopped", "restart": "restarted", "reload": "reloaded"},
		flags:     map[string]string{"enable": "enabled"},
	},
	"template": {
		module:    "ansible.builtin.template",
		nameParam: "dest",
		params:    map[string]string{"source": "src", "owner": "owner", "group": "group", "mode": "mode"},
	},
	"cookbook_file": {
		module:    "ansible.builtin.copy",
		nameParam: "dest",
		params:    map[string]string{"source": "src", "owner": "owner", "group": "group", "mode": "mode"},
	},
	"remote_file": {
		module:    "ansible.builtin.get_url",
		nameParam: "dest",
		params:    map[string]string{"source": "url", "mode": "mode", "checksum": "checksum"},
	},
	"file": {
		module:    "ansible.builtin.file",
		nameParam: "path",
		params:    map[string]string{"owner": "owner", "group": "group", "mode": "mode"},
		stateFor:  map[string]string{"create": "touch", "delete": "absent", "touch": "touch"},
	},
	"directory": {
		module:    "ansible.builtin.file",
		nameParam: "path",
		params:    map[string]string{"owner": "owner", "group": "group", "mode": "mode", "recursive": "recurse"},
		stateFor:  map[string]string{"create": "directory", "delete": "absent", "default": "directory"},
	},
	"execute": {
		module:    "ansible.builtin.command",
		nameParam: "",
		params:    map[string]string{"command": "cmd", "cwd": "chdir", "creates": "creates"},
	},
	"user": {
		module:    "ansible.builtin.user",
		nameParam: "name",
		params:    map[string]string{"uid": "uid", "gid": "group", "home": "home", "shell": "shell", "comment": "comment"},
		stateFor:  map[string]string{"create": "present", "remove": "absent", "default": "present"},
	},
	"group": {
		module:    "ansible.builtin.group",
		nameParam: "name",
		params:    map[string]string{"gid": "gid"},
		stateFor:  map[string]string{"create": "present", "remove": "absent", "default": "present"},
	},
	"link": {
		module:    "ansible.builtin.file",
		nameParam: "dest",
		params:    map[string]string{"to": "src"},
		stateFor:  map[string]string{"create": "link", "delete": "absent", "default": "link"},
	},
	"git": {
		module:    "ansible.builtin.git",
		nameParam: "dest",
		params:    map[string]string{"repository": "repo", "revision": "version", "depth": "depth"},
	},
	"cron": {
		module:    "ansible.builtin.cron",
		nameParam: "name",
		params:    map[string]string{"minute": "minute", "hour": "hour", "day": "day", "month": "month", "weekday": "weekday", "command": "job", "user": "user"},
	},
}

// ConvertResult holds the emission outcome for one recipe.
type ConvertResult struct {
	Tasks     []*yaml.Node
	Warnings  []string
	TodoCount int
}

// Tasks converts resource records into Ansible task nodes in source
// order. Untranslatable resources and guards become TODO-tagged tasks
// plus warnings; conversion never fails.
func Tasks(resources []chefdsl.ResourceRecord) *ConvertResult {
	result := &ConvertResult{Tasks: []*yaml.Node{}, Warnings: []string{}}

	for i := range resources {
		result.Tasks = append(result.Tasks, convertResource(&resources[i], result))
	}

	return result
}

// convertResource builds one task node.
func convertResource(rec *chefdsl.ResourceRecord, result *ConvertResult) *yaml.Node {
	rule, known := moduleTable[rec.Type]
	if !known {
		result.TodoCount++
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"no ansible module mapping for %s[%s]; emitted TODO task", rec.Type, rec.Name))

		return todoTask(rec)
	}

	task := newMappingNode()
	appendScalar(task, "name", fmt.Sprintf("%s %s", rec.Type, rec.Name))

	params := newMappingNode()

	if rule.nameParam != "" {
		appendScalar(params, rule.nameParam, rec.Name)
	}

	if rec.Type == "execute" {
		// The resource name is the command unless an explicit command
		// property overrides it.
		if _, ok := rec.Properties.Get("command"); !ok {
			appendScalar(params, "cmd", rec.Name)
		}
	}

	for _, key := range rec.Properties.Keys() {
		value, _ := rec.Properties.Get(key)

		target, mapped := rule.params[key]
		if !mapped {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s[%s]: property %q has no mapping; passed through verbatim", rec.Type, rec.Name, key))

			target = key
		}

		appendNode(params, target, valueNode(value))
	}

	applyActionParams(params, rule, rec.Actions)

	appendNode(task, rule.module, params)

	if when := rec.WhenList(); len(when) > 0 {
		appendWhen(task, when)

		for _, g := range rec.Guards {
			if strings.Contains(g.Expression, "TODO") {
				result.TodoCount++
			}
		}
	}

	if len(rec.Notifications) > 0 {
		result.TodoCount++
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%s[%s]: notifications require a handler; wire manually: %s",
			rec.Type, rec.Name, strings.Join(rec.Notifications, "; ")))
	}

	return task
}

// applyActionParams translates Chef actions into state/flag params.
func applyActionParams(params *yaml.Node, rule moduleRule, actions []string) {
	for _, action := range actions {
		if state, ok := rule.stateFor[action]; ok {
			appendScalar(params, "state", state)

			continue
		}

		if flag, ok := rule.flags[action]; ok {
			appendNode(params, flag, boolNode(true))
		}
	}
}

// todoTask emits a placeholder task for an unmapped resource type so the
// resource is visible in the generated playbook instead of vanishing.
func todoTask(rec *chefdsl.ResourceRecord) *yaml.Node {
	task := newMappingNode()
	appendScalar(task, "name", fmt.Sprintf("%sunsupported resource %s[%s]", todoTaskPrefix, rec.Type, rec.Name))

	debug := newMappingNode()
	appendScalar(debug, "msg", fmt.Sprintf("convert %s[%s] by hand; actions=%s",
		rec.Type, rec.Name, strings.Join(rec.Actions, ",")))
	appendNode(task, "ansible.builtin.debug", debug)

	if when := rec.WhenList(); len(when) > 0 {
		appendWhen(task, when)
	}

	return task
}

// appendWhen attaches the AND-combined condition list.
func appendWhen(task *yaml.Node, when []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, expr := range when {
		seq.Content = append(seq.Content, scalarNode(expr))
	}

	appendNode(task, "when", seq)
}

// valueNode converts a structured value into a YAML node, preserving
// mapping key order.
func valueNode(v chefdsl.StructuredValue) *yaml.Node {
	switch v.Kind {
	case chefdsl.ValueMapping:
		m := newMappingNode()
		for _, key := range v.Mapping.Keys() {
			item, _ := v.Mapping.Get(key)
			appendNode(m, key, valueNode(item))
		}

		return m
	case chefdsl.ValueSequence:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v.Sequence {
			seq.Content = append(seq.Content, valueNode(item))
		}

		return seq
	default:
		return literalNode(v.Literal)
	}
}

// literalNode converts a scalar literal into a YAML scalar node.
func literalNode(v chefdsl.LiteralValue) *yaml.Node {
	node := &yaml.Node{}

	var err error

	switch v.Kind {
	case chefdsl.LiteralInteger:
		err = node.Encode(v.Int)
	case chefdsl.LiteralFloat:
		err = node.Encode(v.Float)
	case chefdsl.LiteralBoolean:
		err = node.Encode(v.Bool)
	case chefdsl.LiteralNil:
		err = node.Encode(nil)
	default:
		err = node.Encode(v.Str)
	}

	if err != nil {
		// Encode on scalars cannot fail; keep the value visible anyway.
		return scalarNode(v.GoString())
	}

	return node
}

// Node construction helpers.

func newMappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func scalarNode(s string) *yaml.Node {
	node := &yaml.Node{}
	if err := node.Encode(s); err != nil {
		node = &yaml.Node{Kind: yaml.ScalarNode, Value: s}
	}

	return node
}

func boolNode(b bool) *yaml.Node {
	node := &yaml.Node{}
	_ = node.Encode(b)

	return node
}

func appendScalar(m *yaml.Node, key, value string) {
	appendNode(m, key, scalarNode(value))
}

func appendNode(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalarNode(key), value)
}
