// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report produces the conversion's closing artifacts: the
// human-readable conversion-report.md, the machine-readable
// .completion.json, and the optional diagnostics bundle.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

const (
	ReportFileName     = "conversion-report.md"
	CompletionFileName = ".completion.json"
	BundleFileName     = "diagnostic-bundle.zip"
)

// DocStats summarizes the structure of the final Markdown document.
type DocStats struct {
	// Headings counts headings per level (1-6).
	Headings map[int]int `json:"headings,omitempty"`

	// Blockquotes counts blockquote blocks (resolved callouts).
	Blockquotes int `json:"blockquotes"`

	// Lists and ListItems count list blocks and their items.
	Lists     int `json:"lists"`
	ListItems int `json:"list_items"`

	// Words is the whitespace-delimited word count of the source.
	Words int `json:"words"`
}

// ComputeStats parses the Markdown and walks its AST for structure counts.
func ComputeStats(source []byte) DocStats {
	stats := DocStats{Headings: map[int]int{}}

	doc := goldmark.New().Parser().Parse(gmtext.NewReader(source))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			stats.Headings[node.Level]++
		case *ast.Blockquote:
			stats.Blockquotes++
		case *ast.List:
			stats.Lists++
		case *ast.ListItem:
			stats.ListItems++
		}
		return ast.WalkContinue, nil
	})

	stats.Words = len(strings.Fields(string(source)))
	return stats
}

// Completion is the machine-readable summary written as .completion.json.
type Completion struct {
	Status      types.ConversionStatus `json:"status"`
	SourcePDF   string                 `json:"source_pdf"`
	OutputFile  string                 `json:"output_file"`
	CompletedAt time.Time              `json:"completed_at"`
	Phases      int                    `json:"phases_completed"`
	Warnings    []string               `json:"warnings,omitempty"`
	Lint        string                 `json:"lint,omitempty"`
	Stats       DocStats               `json:"stats"`
}

// Render builds the conversion-report.md content from the state record,
// document stats, and the lint summary line.
func Render(st *types.ConversionState, stats DocStats, lintSummary string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Conversion Report\n\n")
	fmt.Fprintf(&b, "- source: `%s`\n", st.SourcePDF)
	fmt.Fprintf(&b, "- output: `%s`\n", st.OutputDir)
	fmt.Fprintf(&b, "- status: %s\n", st.Status)
	fmt.Fprintf(&b, "- completed phases: %d\n\n", len(st.CompletedPhases))

	b.WriteString("## Phases\n\n")
	b.WriteString("| Phase | Name | Status | Duration |\n")
	b.WriteString("|------:|------|--------|---------:|\n")
	for _, pr := range st.PhaseResults {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			pr.Phase, pr.Name, pr.Status, pr.Duration.Round(time.Millisecond))
	}
	b.WriteString("\n")

	var warnings []string
	for _, pr := range st.PhaseResults {
		for _, w := range pr.Warnings {
			warnings = append(warnings, fmt.Sprintf("phase %d: %s", pr.Phase, w))
		}
	}
	if len(warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Document\n\n")
	for _, level := range sortedLevels(stats.Headings) {
		fmt.Fprintf(&b, "- h%d headings: %d\n", level, stats.Headings[level])
	}
	fmt.Fprintf(&b, "- blockquotes: %d\n", stats.Blockquotes)
	fmt.Fprintf(&b, "- lists: %d (%d items)\n", stats.Lists, stats.ListItems)
	fmt.Fprintf(&b, "- words: %d\n", stats.Words)

	if lintSummary != "" {
		fmt.Fprintf(&b, "\n## Lint\n\n%s\n", lintSummary)
	}
	return b.String()
}

// CollectWarnings flattens per-phase warnings for the completion record.
func CollectWarnings(st *types.ConversionState) []string {
	var warnings []string
	for _, pr := range st.PhaseResults {
		for _, w := range pr.Warnings {
			warnings = append(warnings, fmt.Sprintf("phase %d: %s", pr.Phase, w))
		}
	}
	return warnings
}

func sortedLevels(m map[int]int) []int {
	levels := make([]int, 0, len(m))
	for l := range m {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}
