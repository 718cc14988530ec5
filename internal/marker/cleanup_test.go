// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package marker

import (
	"strings"
	"testing"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

func TestEscapeMarkdown(t *testing.T) {
	in := Format(1, "roll 2d6*2") + " and [note]"
	got := EscapeMarkdown(in)

	segments := ParseLine(got)
	if segments[0].Marker.Text != `roll 2d6\*2` {
		t.Errorf("marker text = %q", segments[0].Marker.Text)
	}
	if segments[1].Text != ` and \[note\]` {
		t.Errorf("plain text = %q", segments[1].Text)
	}
}

func TestEscapeMarkdown_SkipsPageBreaks(t *testing.T) {
	in := "<!-- page 2 -->"
	if got := EscapeMarkdown(in); got != in {
		t.Errorf("page break transformed: %q", got)
	}
}

func TestDropMarkers(t *testing.T) {
	m := types.NewSignatureMap()
	body := m.Observe(10, "Body", false, false, "text")
	footer := m.Observe(7, "Footer", false, false, "Page 3")
	footer.Label = types.LabelDrop

	in := strings.Join([]string{
		"<!-- page 3 -->",
		Format(body.ID, "Real content."),
		Format(footer.ID, "Page 3"),
		Format(body.ID, "More content. ") + Format(footer.ID, "Page 3"),
	}, "\n")

	got := DropMarkers(m)(in)
	want := strings.Join([]string{
		"<!-- page 3 -->",
		Format(body.ID, "Real content."),
		Format(body.ID, "More content. "),
	}, "\n")
	if got != want {
		t.Errorf("DropMarkers:\ngot  %q\nwant %q", got, want)
	}
}

func TestDehyphenate_SameSignature(t *testing.T) {
	in := Format(1, "The adven-") + "\n" + Format(1, "ture begins here.")
	got := Dehyphenate(in)
	want := Format(1, "The adventure") + "\n" + Format(1, "begins here.")
	if got != want {
		t.Errorf("Dehyphenate:\ngot  %q\nwant %q", got, want)
	}
}

func TestDehyphenate_NeverCrossesSignatures(t *testing.T) {
	in := Format(1, "The adven-") + "\n" + Format(2, "ture begins.")
	if got := Dehyphenate(in); got != in {
		t.Errorf("joined across distinct markers: %q", got)
	}
}

func TestDehyphenate_PlainText(t *testing.T) {
	in := "mighty drag-\non appears"
	got := Dehyphenate(in)
	if got != "mighty dragon\nappears" {
		t.Errorf("Dehyphenate = %q", got)
	}
}

func TestDehyphenate_CapitalizedNextLineKept(t *testing.T) {
	// A capitalized continuation is likely a real hyphenated name split.
	in := "the well-\nKnown"
	if got := Dehyphenate(in); got != in {
		t.Errorf("joined before capital: %q", got)
	}
}

func TestMergeParagraphs(t *testing.T) {
	in := strings.Join([]string{
		Format(1, "First sentence."),
		Format(1, "Second sentence."),
		"",
		Format(1, "New paragraph."),
	}, "\n")

	got := MergeParagraphs(in)
	want := strings.Join([]string{
		Format(1, "First sentence. Second sentence."),
		"",
		Format(1, "New paragraph."),
	}, "\n")
	if got != want {
		t.Errorf("MergeParagraphs:\ngot  %q\nwant %q", got, want)
	}
}

func TestMergeParagraphs_NeverFusesDistinctMarkers(t *testing.T) {
	in := Format(1, "Heading text") + "\n" + Format(2, "Body text")
	if got := MergeParagraphs(in); got != in {
		t.Errorf("distinct markers fused: %q", got)
	}
}

func TestMergeParagraphs_KeepsBulletsSeparate(t *testing.T) {
	in := Format(1, "- sword") + "\n" + Format(1, "- shield")
	if got := MergeParagraphs(in); got != in {
		t.Errorf("bullet lines merged: %q", got)
	}
}

func TestNormalizeBullets(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{Format(1, "• sword"), Format(1, "- sword")},
		{Format(1, "– shield"), Format(1, "- shield")},
		{"◦ plain glyph", "- plain glyph"},
		{Format(1, "no bullet here"), Format(1, "no bullet here")},
	}
	for _, tt := range tests {
		if got := NormalizeBullets(tt.in); got != tt.want {
			t.Errorf("NormalizeBullets(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyOrdersPasses(t *testing.T) {
	m := types.NewSignatureMap()
	footer := m.Observe(7, "Footer", false, false, "3")
	footer.Label = types.LabelDrop
	body := m.Observe(10, "Body", false, false, "x")

	in := strings.Join([]string{
		Format(body.ID, "The mon-"),
		Format(body.ID, "ster attacks."),
		Format(footer.ID, "3"),
	}, "\n")

	got := Apply(in, DropMarkers(m), Dehyphenate, MergeParagraphs)
	want := Format(body.ID, "The monster attacks.")
	if got != want {
		t.Errorf("Apply:\ngot  %q\nwant %q", got, want)
	}
}
