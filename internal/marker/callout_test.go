// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package marker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

var gmDef = types.CalloutDef{StartText: "GM Note:", EndText: "End Note", Label: "gm"}

func TestDetectBoundaries(t *testing.T) {
	text := strings.Join([]string{
		"Intro text.",
		Format(2, "GM Note: the idol is cursed."),
		Format(2, "Touching it drains strength."),
		Format(2, "End Note"),
		"Aftermath.",
		Format(2, "GM Note: second secret."),
		Format(2, "End Note"),
	}, "\n")

	occs := DetectBoundaries(text, []types.CalloutDef{gmDef})
	if len(occs) != 2 {
		t.Fatalf("got %d occurrences: %+v", len(occs), occs)
	}
	first := occs[0]
	if first.StartLine != 1 || first.EndLine != 3 || first.Label != "gm" {
		t.Errorf("first occurrence = %+v", first)
	}
	if !strings.Contains(first.Text, "drains strength") {
		t.Errorf("occurrence text = %q", first.Text)
	}
	if occs[1].StartLine != 5 || occs[1].EndLine != 6 {
		t.Errorf("second occurrence = %+v", occs[1])
	}
}

func TestDetectBoundaries_UnterminatedClosesAtEOF(t *testing.T) {
	text := "GM Note: runs off the page.\nstill going"
	occs := DetectBoundaries(text, []types.CalloutDef{gmDef})
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences", len(occs))
	}
	if occs[0].EndLine != 1 {
		t.Errorf("end line = %d, want 1", occs[0].EndLine)
	}
}

func TestDetectBoundaries_NoDefsNoOccurrences(t *testing.T) {
	if occs := DetectBoundaries("GM Note: text", nil); len(occs) != 0 {
		t.Errorf("unexpected occurrences: %+v", occs)
	}
}

func TestLoadCalloutDefs_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "callouts.yaml")
	doc := "definitions:\n  - start_text: \"GM Note:\"\n    end_text: End Note\n    label: gm\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	defs, err := LoadCalloutDefs(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 || defs[0] != gmDef {
		t.Errorf("defs = %+v", defs)
	}
}

func TestLoadCalloutDefs_RejectsIncomplete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "callouts.json")
	doc := `{"definitions":[{"end_text":"End","label":"gm"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCalloutDefs(path); err == nil {
		t.Fatal("expected error for definition missing start_text")
	} else if types.CategoryOf(err) != types.ErrFile {
		t.Errorf("category = %q, want file", types.CategoryOf(err))
	}
}

func TestCalloutConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := types.CalloutConfig{
		Source:      "/tmp/callouts.yaml",
		Definitions: []types.CalloutDef{gmDef},
		Occurrences: []types.CalloutOccurrence{{Label: "gm", StartLine: 4, EndLine: 9, Text: "x"}},
	}
	if err := SaveCalloutConfig(dir, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := LoadCalloutConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != cfg.Source || len(got.Definitions) != 1 || len(got.Occurrences) != 1 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestLoadCalloutConfig_AbsentIsEmpty(t *testing.T) {
	got, err := LoadCalloutConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Definitions) != 0 || len(got.Occurrences) != 0 {
		t.Errorf("absent config = %+v", got)
	}
}
