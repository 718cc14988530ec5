// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

func TestComputeStats(t *testing.T) {
	source := strings.Join([]string{
		"# Rulebook",
		"",
		"## Combat",
		"",
		"Some body text here.",
		"",
		"> GM Note: a secret.",
		"> More secret.",
		"",
		"- sword",
		"- shield",
	}, "\n")

	stats := ComputeStats([]byte(source))
	if stats.Headings[1] != 1 || stats.Headings[2] != 1 {
		t.Errorf("headings = %v", stats.Headings)
	}
	if stats.Blockquotes != 1 {
		t.Errorf("blockquotes = %d, want 1", stats.Blockquotes)
	}
	if stats.Lists != 1 || stats.ListItems != 2 {
		t.Errorf("lists = %d items = %d", stats.Lists, stats.ListItems)
	}
	if stats.Words == 0 {
		t.Error("word count is zero")
	}
}

func testState() *types.ConversionState {
	st := types.NewConversionState("/books/core.pdf", "/books/core")
	pr := types.NewPhaseResult(4, "marker extraction")
	pr.Duration = 1500 * time.Millisecond
	pr.Warn("page 12 unreadable")
	st.PhaseResults = append(st.PhaseResults, pr)
	st.CompletedPhases = []int{0, 1, 2, 3, 4}
	return st
}

func TestRender(t *testing.T) {
	stats := DocStats{Headings: map[int]int{1: 1, 2: 7}, Blockquotes: 3, Words: 900}
	got := Render(testState(), stats, "lint passed")

	for _, want := range []string{
		"# Conversion Report",
		"| 4 | marker extraction |",
		"phase 4: page 12 unreadable",
		"h2 headings: 7",
		"lint passed",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestCollectWarnings(t *testing.T) {
	warnings := CollectWarnings(testState())
	if len(warnings) != 1 || !strings.Contains(warnings[0], "phase 4") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestWriteBundle(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{".state.json", "metadata.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	bundled, err := WriteBundle(dir, []string{"pdf-convert", "core.pdf", "--diagnostics"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bundled) != 3 {
		t.Fatalf("bundled = %v, want state, metadata, args", bundled)
	}

	zr, err := zip.OpenReader(filepath.Join(dir, BundleFileName))
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{".state.json", "metadata.json", "args.txt"} {
		if !names[want] {
			t.Errorf("bundle missing %s (has %v)", want, names)
		}
	}
}
