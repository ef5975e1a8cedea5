// Package report summarizes a cookbook conversion run for the operator:
// what was parsed, what converted cleanly, and what needs human follow-up.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/souschef-dev/souschef/pkg/ansible"
	"github.com/souschef-dev/souschef/pkg/chefdsl"
	"github.com/souschef-dev/souschef/pkg/cookbook"
)

// Summary aggregates the outcome of one cookbook conversion.
type Summary struct {
	Cookbook       string         `json:"cookbook"`
	FileCount      int            `json:"file_count"`
	TotalBytes     int64          `json:"total_bytes"`
	ResourceCounts map[string]int `json:"resource_counts"`
	ResourceTotal  int            `json:"resource_total"`
	IncludeCount   int            `json:"include_count"`
	AttributeCount int            `json:"attribute_count"`
	ConflictCount  int            `json:"conflict_count"`
	TodoCount      int            `json:"todo_count"`
	Warnings       []string       `json:"warnings"`
}

// Build assembles a summary from the scan and parse artifacts of one run.
func Build(
	inv *cookbook.Inventory,
	recipes []*chefdsl.RecipeResult,
	attrs []*chefdsl.AttributeResult,
	conversions []*ansible.ConvertResult,
) Summary {
	s := Summary{
		ResourceCounts: map[string]int{},
		Warnings:       []string{},
	}

	if inv != nil {
		if inv.Metadata != nil {
			s.Cookbook = inv.Metadata.Name
		}

		s.FileCount = len(inv.Files)
		s.TotalBytes = inv.TotalSize()
		s.Warnings = append(s.Warnings, inv.Warnings...)
	}

	for _, recipe := range recipes {
		for i := range recipe.Resources {
			s.ResourceCounts[recipe.Resources[i].Type]++
			s.ResourceTotal++
		}

		s.IncludeCount += len(recipe.Includes)
		s.Warnings = append(s.Warnings, recipe.Warnings...)
	}

	for _, attr := range attrs {
		s.AttributeCount += len(attr.Records)

		for _, resolved := range attr.Resolved {
			if resolved.HasConflict {
				s.ConflictCount++
			}
		}

		s.Warnings = append(s.Warnings, attr.Warnings...)
	}

	for _, conv := range conversions {
		s.TodoCount += conv.TodoCount
		s.Warnings = append(s.Warnings, conv.Warnings...)
	}

	return s
}

// Render writes a human-readable summary table. Severity coloring is
// suppressed when colorize is false (non-TTY output).
func (s Summary) Render(w io.Writer, colorize bool) {
	term := newTerminalConfig()

	restore := color.NoColor
	if !colorize || term.NoColor {
		color.NoColor = true
	}

	defer func() { color.NoColor = restore }()

	name := s.Cookbook
	if name == "" {
		name = "(unnamed cookbook)"
	}

	fmt.Fprintf(w, "Conversion summary for %s (%d files, %s)\n\n",
		name, s.FileCount, humanize.Bytes(uint64(s.TotalBytes)))

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetAllowedRowLength(term.Width)
	tbl.AppendHeader(table.Row{"Resource Type", "Count"})

	for _, rtype := range sortedKeys(s.ResourceCounts) {
		tbl.AppendRow(table.Row{rtype, s.ResourceCounts[rtype]})
	}

	tbl.AppendFooter(table.Row{"total", s.ResourceTotal})
	tbl.Render()

	fmt.Fprintf(w, "\nAttributes: %d parsed, %s\n",
		s.AttributeCount, conflictLabel(s.ConflictCount))
	fmt.Fprintf(w, "Includes:   %d recipes referenced\n", s.IncludeCount)
	fmt.Fprintf(w, "Follow-ups: %s\n", todoLabel(s.TodoCount))

	if len(s.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", color.YellowString("Warnings (%d):", len(s.Warnings)))

		for _, warning := range s.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}

// RenderJSON writes the summary as indented JSON for machine consumers.
func (s Summary) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	return nil
}

// conflictLabel renders the conflict count, red when nonzero.
func conflictLabel(count int) string {
	if count == 0 {
		return "no precedence conflicts"
	}

	return color.RedString("%d precedence conflicts", count)
}

// todoLabel renders the TODO count, yellow when nonzero.
func todoLabel(count int) string {
	if count == 0 {
		return color.GreenString("none")
	}

	return color.YellowString("%d items need manual conversion", count)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
