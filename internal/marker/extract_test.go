// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package marker

import (
	"strings"
	"testing"

	"github.com/pdiddy/rulebook-engine/internal/pdfio"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

type fakePages struct {
	pages [][]pdfio.Span
}

func (f *fakePages) PageCount() int { return len(f.pages) }

func (f *fakePages) PageSpans(page int) ([]pdfio.Span, error) {
	return f.pages[page-1], nil
}

func TestExtract_MergesSameSignatureRuns(t *testing.T) {
	m := types.NewSignatureMap()
	body := m.Observe(10, "Body", false, false, "The")

	src := &fakePages{pages: [][]pdfio.Span{{
		{Text: "The", Font: "Body", Size: 10, X: 72, Y: 700, W: 20},
		{Text: "dragon", Font: "Body", Size: 10, X: 94, Y: 700, W: 40},
	}}}

	got, err := Extract(src, m)
	if err != nil {
		t.Fatal(err)
	}
	want := PageBreak(1) + "\n" + Format(body.ID, "The dragon") + "\n"
	if got != want {
		t.Errorf("Extract:\ngot  %q\nwant %q", got, want)
	}
}

func TestExtract_SignatureChangeStartsNewMarker(t *testing.T) {
	m := types.NewSignatureMap()
	head := m.Observe(20, "Head", false, false, "Combat")
	body := m.Observe(10, "Body", false, false, "rules")

	src := &fakePages{pages: [][]pdfio.Span{{
		{Text: "Combat", Font: "Head", Size: 20, X: 72, Y: 700, W: 60},
		{Text: "rules", Font: "Body", Size: 10, X: 140, Y: 700, W: 30},
	}}}

	got, err := Extract(src, m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, Format(head.ID, "Combat")) ||
		!strings.Contains(got, Format(body.ID, "rules")) {
		t.Errorf("Extract = %q", got)
	}
}

func TestExtract_SeparatesLinesByY(t *testing.T) {
	m := types.NewSignatureMap()
	body := m.Observe(10, "Body", false, false, "x")

	src := &fakePages{pages: [][]pdfio.Span{{
		{Text: "Second line", Font: "Body", Size: 10, X: 72, Y: 680, W: 60},
		{Text: "First line", Font: "Body", Size: 10, X: 72, Y: 700, W: 60},
	}}}

	got, err := Extract(src, m)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(got, "\n")
	if lines[1] != Format(body.ID, "First line") || lines[2] != Format(body.ID, "Second line") {
		t.Errorf("line order wrong: %q", lines)
	}
}

func TestExtract_RegistersUnknownSignatures(t *testing.T) {
	m := types.NewSignatureMap()

	src := &fakePages{pages: [][]pdfio.Span{{
		{Text: "Surprise", Font: "NewFont", Size: 9, X: 72, Y: 700, W: 50},
	}}}

	if _, err := Extract(src, m); err != nil {
		t.Fatal(err)
	}
	if m.Signatures[types.SignatureKey(9, "NewFont", false, false)] == nil {
		t.Error("unseen signature not registered")
	}
}

func TestExtract_PageBreaksBetweenPages(t *testing.T) {
	m := types.NewSignatureMap()
	src := &fakePages{pages: [][]pdfio.Span{
		{{Text: "one", Font: "Body", Size: 10, X: 72, Y: 700, W: 20}},
		{{Text: "two", Font: "Body", Size: 10, X: 72, Y: 700, W: 20}},
	}}

	got, err := Extract(src, m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, PageBreak(1)) || !strings.Contains(got, PageBreak(2)) {
		t.Errorf("missing page breaks: %q", got)
	}
	if strings.Index(got, PageBreak(1)) > strings.Index(got, "one") {
		t.Error("page break must precede page content")
	}
}
