// Package chefdsl parses Chef cookbook DSL source (recipes, attribute
// files, custom resources) into structured in-memory models. It is a
// best-effort structural analyzer over a de facto grammar, not a Ruby
// interpreter: malformed input degrades to partial results plus warnings
// instead of failing.
//
// All entry points are pure functions over an in-memory string. They keep
// no caches and retain no reference into the input, so concurrent calls on
// independent inputs need no synchronization.
package chefdsl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// LiteralKind discriminates the variants of a LiteralValue.
type LiteralKind int

// Literal kinds, in the order the literal parser tries them.
const (
	LiteralString LiteralKind = iota
	LiteralInteger
	LiteralFloat
	LiteralBoolean
	LiteralNil
	LiteralSymbol
)

// String returns the kind name used in JSON output and diagnostics.
func (k LiteralKind) String() string {
	switch k {
	case LiteralString:
		return "string"
	case LiteralInteger:
		return "integer"
	case LiteralFloat:
		return "float"
	case LiteralBoolean:
		return "boolean"
	case LiteralNil:
		return "nil"
	case LiteralSymbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// LiteralValue is a single Ruby scalar literal: a tagged union over
// string, integer, float, boolean, nil and symbol. Values are immutable.
type LiteralValue struct {
	Kind  LiteralKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

// StringLiteral builds a string-kind literal.
func StringLiteral(s string) LiteralValue {
	return LiteralValue{Kind: LiteralString, Str: s}
}

// IntegerLiteral builds an integer-kind literal.
func IntegerLiteral(n int64) LiteralValue {
	return LiteralValue{Kind: LiteralInteger, Int: n}
}

// FloatLiteral builds a float-kind literal.
func FloatLiteral(f float64) LiteralValue {
	return LiteralValue{Kind: LiteralFloat, Float: f}
}

// BooleanLiteral builds a boolean-kind literal.
func BooleanLiteral(b bool) LiteralValue {
	return LiteralValue{Kind: LiteralBoolean, Bool: b}
}

// NilLiteral builds the nil literal.
func NilLiteral() LiteralValue {
	return LiteralValue{Kind: LiteralNil}
}

// SymbolLiteral builds a symbol-kind literal. The name excludes the
// leading colon.
func SymbolLiteral(name string) LiteralValue {
	return LiteralValue{Kind: LiteralSymbol, Str: name}
}

// GoString renders the literal for debugging and TODO annotations.
func (v LiteralValue) GoString() string {
	switch v.Kind {
	case LiteralString:
		return strconv.Quote(v.Str)
	case LiteralInteger:
		return strconv.FormatInt(v.Int, 10)
	case LiteralFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case LiteralBoolean:
		return strconv.FormatBool(v.Bool)
	case LiteralNil:
		return "nil"
	case LiteralSymbol:
		return ":" + v.Str
	default:
		return fmt.Sprintf("literal(%d)", int(v.Kind))
	}
}

// MarshalJSON emits the bare scalar, matching how downstream generators
// consume values (strings stay strings, numbers stay numbers).
func (v LiteralValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case LiteralString:
		return json.Marshal(v.Str)
	case LiteralInteger:
		return json.Marshal(v.Int)
	case LiteralFloat:
		return json.Marshal(v.Float)
	case LiteralBoolean:
		return json.Marshal(v.Bool)
	case LiteralNil:
		return []byte("null"), nil
	case LiteralSymbol:
		return json.Marshal(v.Str)
	default:
		return []byte("null"), nil
	}
}

// ValueKind discriminates the variants of a StructuredValue.
type ValueKind int

// Structured value kinds.
const (
	ValueLiteral ValueKind = iota
	ValueMapping
	ValueSequence
)

// StructuredValue is a recursive value tree: a literal, a key-ordered
// mapping, or a sequence. Trees are built bottom-up and contain no cycles.
type StructuredValue struct {
	Kind     ValueKind
	Literal  LiteralValue
	Mapping  *Mapping
	Sequence []StructuredValue
}

// LiteralNode wraps a LiteralValue as a StructuredValue leaf.
func LiteralNode(v LiteralValue) StructuredValue {
	return StructuredValue{Kind: ValueLiteral, Literal: v}
}

// MappingNode wraps a Mapping as a StructuredValue.
func MappingNode(m *Mapping) StructuredValue {
	return StructuredValue{Kind: ValueMapping, Mapping: m}
}

// SequenceNode wraps a slice as a StructuredValue.
func SequenceNode(items []StructuredValue) StructuredValue {
	return StructuredValue{Kind: ValueSequence, Sequence: items}
}

// MarshalJSON dispatches to the active variant.
func (v StructuredValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueLiteral:
		return v.Literal.MarshalJSON()
	case ValueMapping:
		return v.Mapping.MarshalJSON()
	case ValueSequence:
		if v.Sequence == nil {
			return []byte("[]"), nil
		}

		return json.Marshal(v.Sequence)
	default:
		return []byte("null"), nil
	}
}

// Equal reports deep structural equality.
func (v StructuredValue) Equal(other StructuredValue) bool {
	if v.Kind != other.Kind {
		return false
	}

	switch v.Kind {
	case ValueLiteral:
		return v.Literal == other.Literal
	case ValueMapping:
		return v.Mapping.Equal(other.Mapping)
	case ValueSequence:
		if len(v.Sequence) != len(other.Sequence) {
			return false
		}

		for i := range v.Sequence {
			if !v.Sequence[i].Equal(other.Sequence[i]) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// Mapping is a string-keyed map that preserves key insertion order,
// matching Ruby hash-literal semantics. Duplicate Set calls keep the
// original position and overwrite the value (last-write-wins).
type Mapping struct {
	keys   []string
	values map[string]StructuredValue
}

// NewMapping returns an empty ordered mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]StructuredValue)}
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}

	out := make([]string, len(m.keys))
	copy(out, m.keys)

	return out
}

// Get looks up a key.
func (m *Mapping) Get(key string) (StructuredValue, bool) {
	if m == nil {
		return StructuredValue{}, false
	}

	v, ok := m.values[key]

	return v, ok
}

// Set inserts or overwrites a key. A re-set key keeps its original
// insertion position.
func (m *Mapping) Set(key string, value StructuredValue) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value
}

// Equal reports deep equality including key order.
func (m *Mapping) Equal(other *Mapping) bool {
	if m.Len() != other.Len() {
		return false
	}

	for i, key := range m.keys {
		if other.keys[i] != key {
			return false
		}

		ov, ok := other.values[key]
		if !ok || !m.values[key].Equal(ov) {
			return false
		}
	}

	return true
}

// MarshalJSON emits a JSON object in insertion order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	if m.Len() == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("marshal mapping key: %w", err)
		}

		buf.Write(keyJSON)
		buf.WriteByte(':')

		valJSON, err := m.values[key].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal mapping value %q: %w", key, err)
		}

		buf.Write(valJSON)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
