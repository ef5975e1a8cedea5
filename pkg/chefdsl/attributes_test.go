package chefdsl

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributes_SingleStatement(t *testing.T) {
	t.Parallel()

	result := ParseAttributes("default['nginx']['port'] = 80\n", false)
	require.Len(t, result.Records, 1)

	rec := result.Records[0]
	assert.Equal(t, PrecedenceDefault, rec.Precedence)
	assert.Equal(t, []string{"nginx", "port"}, rec.Path)
	assert.Equal(t, LiteralNode(IntegerLiteral(80)), rec.Value)
}

func TestParseAttributes_AllPrecedenceTiers(t *testing.T) {
	t.Parallel()

	src := `default['a'] = 1
force_default['a'] = 2
normal['a'] = 3
override['a'] = 4
force_override['a'] = 5
automatic['a'] = 6
`

	result := ParseAttributes(src, false)
	require.Len(t, result.Records, 6)

	tiers := make([]Precedence, 0, len(result.Records))
	for _, rec := range result.Records {
		tiers = append(tiers, rec.Precedence)
	}

	assert.Equal(t, []Precedence{
		PrecedenceDefault, PrecedenceForceDefault, PrecedenceNormal,
		PrecedenceOverride, PrecedenceForceOverride, PrecedenceAutomatic,
	}, tiers)
}

func TestParseAttributes_NodeReceiverForm(t *testing.T) {
	t.Parallel()

	result := ParseAttributes("node.default['app']['name'] = 'web'\n", false)
	require.Len(t, result.Records, 1)
	assert.Equal(t, []string{"app", "name"}, result.Records[0].Path)
}

func TestParseAttributes_HashValue(t *testing.T) {
	t.Parallel()

	result := ParseAttributes("default['app'] = { 'port' => 8080, 'debug' => false }\n", false)
	require.Len(t, result.Records, 1)

	value := result.Records[0].Value
	require.Equal(t, ValueMapping, value.Kind)

	port, ok := value.Mapping.Get("port")
	require.True(t, ok)
	assert.Equal(t, LiteralNode(IntegerLiteral(8080)), port)
}

func TestParseAttributes_MultiLineValue(t *testing.T) {
	t.Parallel()

	src := `default['app']['settings'] = {
  'port' => 8080,
  'hosts' => ['a', 'b'],
}
`

	result := ParseAttributes(src, false)
	require.Len(t, result.Records, 1)

	value := result.Records[0].Value
	require.Equal(t, ValueMapping, value.Kind)
	assert.Equal(t, []string{"port", "hosts"}, value.Mapping.Keys())
}

func TestParseAttributes_SymbolPathKeys(t *testing.T) {
	t.Parallel()

	result := ParseAttributes("default[:nginx][:port] = 80\n", false)
	require.Len(t, result.Records, 1)
	assert.Equal(t, []string{"nginx", "port"}, result.Records[0].Path)
}

func TestParseAttributes_IgnoresNonAttributeLines(t *testing.T) {
	t.Parallel()

	src := `# tuning
require 'json'
default['a'] = 1
puts 'hello'
if default['a'] == 1
end
`

	result := ParseAttributes(src, false)
	require.Len(t, result.Records, 1)
	assert.Equal(t, []string{"a"}, result.Records[0].Path)
}

func TestParseAttributes_EmptyInput(t *testing.T) {
	t.Parallel()

	result := ParseAttributes("", true)
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Resolved)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no attribute statements found")
}

func TestResolveAttributes_HigherTierWins(t *testing.T) {
	t.Parallel()

	src := `default['port'] = 80
override['port'] = 8080
`

	result := ParseAttributes(src, true)

	resolved, ok := result.Resolved["port"]
	require.True(t, ok)
	assert.Equal(t, LiteralNode(IntegerLiteral(8080)), resolved.Value)
	assert.Equal(t, PrecedenceOverride, resolved.Precedence)
	assert.True(t, resolved.HasConflict, "two tiers contributed")
}

func TestResolveAttributes_DeclarationOrderIrrelevantAcrossTiers(t *testing.T) {
	t.Parallel()

	forward := ParseAttributes("default['x'] = 1\noverride['x'] = 2\n", true)
	backward := ParseAttributes("override['x'] = 2\ndefault['x'] = 1\n", true)

	assert.Equal(t, forward.Resolved["x"].Value, backward.Resolved["x"].Value)
	assert.Equal(t, PrecedenceOverride, backward.Resolved["x"].Precedence)
}

func TestResolveAttributes_SameTierLastDeclaredWins(t *testing.T) {
	t.Parallel()

	result := ParseAttributes("default['x'] = 1\ndefault['x'] = 2\n", true)

	resolved := result.Resolved["x"]
	assert.Equal(t, LiteralNode(IntegerLiteral(2)), resolved.Value)
	assert.False(t, resolved.HasConflict, "one tier only, no conflict")
}

func TestResolveAttributes_PrecedenceLawRandomized(t *testing.T) {
	t.Parallel()

	// Property: whatever the declaration order, the resolved value is
	// the last-declared value at the maximum tier present.
	rng := rand.New(rand.NewSource(0x5eed))

	allTiers := []Precedence{
		PrecedenceDefault, PrecedenceForceDefault, PrecedenceNormal,
		PrecedenceOverride, PrecedenceForceOverride, PrecedenceAutomatic,
	}

	for trial := 0; trial < 200; trial++ {
		count := 1 + rng.Intn(10)
		records := make([]AttributeRecord, 0, count)

		maxTier := PrecedenceDefault
		var want StructuredValue

		for i := 0; i < count; i++ {
			tier := allTiers[rng.Intn(len(allTiers))]
			value := LiteralNode(IntegerLiteral(int64(rng.Intn(1000))))

			records = append(records, AttributeRecord{
				Precedence: tier,
				Path:       []string{"k"},
				Value:      value,
			})

			if tier >= maxTier {
				maxTier = tier
				want = value
			}
		}

		resolved := ResolveAttributes(records)

		got, ok := resolved["k"]
		require.True(t, ok, "trial %d", trial)
		assert.Equal(t, want, got.Value, "trial %d: want last value at tier %s", trial, maxTier)
		assert.Equal(t, maxTier, got.Precedence, "trial %d", trial)
	}
}

func TestResolveAttributes_DottedSegmentDistinctFromNestedPath(t *testing.T) {
	t.Parallel()

	// A single segment containing a dot must not collide with the
	// two-segment path it would spell when dot-joined.
	src := `default['a.b'] = 1
override['a']['b'] = 2
`

	result := ParseAttributes(src, true)
	require.Len(t, result.Resolved, 2)

	for _, resolved := range result.Resolved {
		assert.False(t, resolved.HasConflict, "path %v: distinct paths must not conflict", resolved.Path)
	}

	flat := result.Resolved[`a\.b`]
	assert.Equal(t, []string{"a.b"}, flat.Path)
	assert.Equal(t, LiteralNode(IntegerLiteral(1)), flat.Value)

	nested := result.Resolved["a.b"]
	assert.Equal(t, []string{"a", "b"}, nested.Path)
	assert.Equal(t, LiteralNode(IntegerLiteral(2)), nested.Value)
}

func TestResolveAttributes_DistinctPathsDoNotInteract(t *testing.T) {
	t.Parallel()

	records := make([]AttributeRecord, 0, 20)
	for i := 0; i < 20; i++ {
		records = append(records, AttributeRecord{
			Precedence: PrecedenceDefault,
			Path:       []string{"k" + strconv.Itoa(i)},
			Value:      LiteralNode(IntegerLiteral(int64(i))),
		})
	}

	resolved := ResolveAttributes(records)
	require.Len(t, resolved, 20)

	for i := 0; i < 20; i++ {
		got := resolved["k"+strconv.Itoa(i)]
		assert.Equal(t, LiteralNode(IntegerLiteral(int64(i))), got.Value)
		assert.False(t, got.HasConflict)
	}
}
