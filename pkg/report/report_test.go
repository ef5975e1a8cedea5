package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souschef-dev/souschef/pkg/ansible"
	"github.com/souschef-dev/souschef/pkg/chefdsl"
	"github.com/souschef-dev/souschef/pkg/cookbook"
)

func TestBuildAggregatesCounts(t *testing.T) {
	t.Parallel()

	inv := &cookbook.Inventory{
		Metadata: &cookbook.Metadata{Name: "nginx"},
		Files: []cookbook.File{
			{Rel: "recipes/default.rb", Kind: cookbook.KindRecipe, Size: 120},
			{Rel: "attributes/default.rb", Kind: cookbook.KindAttributes, Size: 80},
		},
	}

	recipe := chefdsl.ParseRecipe(`package 'nginx' do
  action :install
end

service 'nginx' do
  action [:enable, :start]
end

include_recipe 'nginx::ssl'
`)

	attrs := chefdsl.ParseAttributes(`default['nginx']['port'] = 80
override['nginx']['port'] = 8080
`, true)

	conv := ansible.Tasks(recipe.Resources)

	summary := Build(inv, []*chefdsl.RecipeResult{recipe}, []*chefdsl.AttributeResult{attrs}, []*ansible.ConvertResult{conv})

	assert.Equal(t, "nginx", summary.Cookbook)
	assert.Equal(t, 2, summary.FileCount)
	assert.Equal(t, int64(200), summary.TotalBytes)
	assert.Equal(t, 2, summary.ResourceTotal)
	assert.Equal(t, 1, summary.ResourceCounts["package"])
	assert.Equal(t, 1, summary.ResourceCounts["service"])
	assert.Equal(t, 1, summary.IncludeCount)
	assert.Equal(t, 2, summary.AttributeCount)
	assert.Equal(t, 1, summary.ConflictCount)
}

func TestBuildNilInventory(t *testing.T) {
	t.Parallel()

	summary := Build(nil, nil, nil, nil)

	assert.Empty(t, summary.Cookbook)
	assert.Zero(t, summary.FileCount)
	assert.Zero(t, summary.ResourceTotal)
	assert.Empty(t, summary.Warnings)
}

func TestBuildCollectsWarnings(t *testing.T) {
	t.Parallel()

	recipe := chefdsl.ParseRecipe("")
	require.NotEmpty(t, recipe.Warnings)

	summary := Build(nil, []*chefdsl.RecipeResult{recipe}, nil, nil)

	assert.Equal(t, recipe.Warnings, summary.Warnings)
}

func TestRenderPlainOutput(t *testing.T) {
	t.Parallel()

	summary := Summary{
		Cookbook:       "nginx",
		FileCount:      3,
		TotalBytes:     2048,
		ResourceCounts: map[string]int{"package": 2, "service": 1},
		ResourceTotal:  3,
		AttributeCount: 4,
		ConflictCount:  1,
		TodoCount:      2,
		Warnings:       []string{"line 12: unmatched do"},
	}

	var buf bytes.Buffer
	summary.Render(&buf, false)

	out := buf.String()
	assert.Contains(t, out, "Conversion summary for nginx (3 files, 2.0 kB)")
	assert.Contains(t, out, "package")
	assert.Contains(t, out, "service")
	assert.Contains(t, out, "1 precedence conflicts")
	assert.Contains(t, out, "2 items need manual conversion")
	assert.Contains(t, out, "Warnings (1):")
	assert.Contains(t, out, "line 12: unmatched do")
	assert.NotContains(t, out, "\x1b[", "color escapes must be suppressed")
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	summary := Summary{
		Cookbook:       "nginx",
		FileCount:      3,
		TotalBytes:     2048,
		ResourceCounts: map[string]int{"package": 2},
		ResourceTotal:  2,
		ConflictCount:  1,
		Warnings:       []string{"line 12: unmatched do"},
	}

	var buf bytes.Buffer
	require.NoError(t, summary.RenderJSON(&buf))

	var decoded Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, summary, decoded)
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestRenderEmptySummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Summary{ResourceCounts: map[string]int{}}.Render(&buf, false)

	out := buf.String()
	assert.Contains(t, out, "(unnamed cookbook)")
	assert.Contains(t, out, "no precedence conflicts")
	assert.Contains(t, out, "none")
	assert.NotContains(t, out, "Warnings")
}
