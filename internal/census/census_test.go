// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package census

import (
	"testing"

	"github.com/pdiddy/rulebook-engine/internal/pdfio"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// fakeSource serves canned spans per page. All pages are 612x792.
type fakeSource struct {
	pages [][]pdfio.Span
}

func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) PageSpans(page int) ([]pdfio.Span, error) {
	return f.pages[page-1], nil
}

func (f *fakeSource) PageSize(page int) (float64, float64, error) {
	return 612, 792, nil
}

// span builds a body-position span.
func span(text string, size float64, font string) pdfio.Span {
	return pdfio.Span{Text: text, Font: font, Size: size, X: 72, Y: 400}
}

// footerSpan builds a bottom-band span.
func footerSpan(text string, size float64, font string) pdfio.Span {
	return pdfio.Span{Text: text, Font: font, Size: size, X: 72, Y: 30}
}

func defaultCfg() types.CensusConfig {
	return types.DefaultConvertConfig().Census
}

func TestRun_BuildsFrequencies(t *testing.T) {
	src := &fakeSource{pages: [][]pdfio.Span{
		{span("Chapter One", 20, "Head"), span("Body text.", 10, "Body")},
		{span("More body.", 10, "Body"), span("And more.", 10, "Body")},
	}}

	res, err := Run(src, defaultCfg())
	if err != nil {
		t.Fatal(err)
	}

	body := res.Map.Signatures[types.SignatureKey(10, "Body", false, false)]
	if body == nil {
		t.Fatal("body signature missing")
	}
	if body.Count != 3 {
		t.Errorf("body count = %d, want 3", body.Count)
	}
	head := res.Map.Signatures[types.SignatureKey(20, "Head", false, false)]
	if head == nil || head.Count != 1 {
		t.Fatalf("head signature = %+v, want count 1", head)
	}
}

func TestRun_HeadingCandidates(t *testing.T) {
	src := &fakeSource{pages: [][]pdfio.Span{{
		span("TITLE", 24, "Head"),
		span("Section", 16, "Head"),
		span("Body one.", 10, "Body"),
		span("Body two.", 10, "Body"),
		span("Body three.", 10, "Body"),
	}}}

	res, err := Run(src, defaultCfg())
	if err != nil {
		t.Fatal(err)
	}

	h1 := res.Map.Signatures[types.SignatureKey(24, "Head", false, false)]
	if !h1.HeadingCandidate || h1.SuggestedLevel != 1 {
		t.Errorf("24pt: candidate=%v level=%d, want candidate level 1", h1.HeadingCandidate, h1.SuggestedLevel)
	}
	h2 := res.Map.Signatures[types.SignatureKey(16, "Head", false, false)]
	if !h2.HeadingCandidate || h2.SuggestedLevel != 2 {
		t.Errorf("16pt: candidate=%v level=%d, want candidate level 2", h2.HeadingCandidate, h2.SuggestedLevel)
	}
	body := res.Map.Signatures[types.SignatureKey(10, "Body", false, false)]
	if body.HeadingCandidate {
		t.Error("body text flagged as heading candidate")
	}
}

func TestBodyBaseline(t *testing.T) {
	m := types.NewSignatureMap()
	for i := 0; i < 50; i++ {
		m.Observe(10, "Body", false, false, "x")
	}
	for i := 0; i < 10; i++ {
		m.Observe(12, "Caption", false, false, "y")
	}
	m.Observe(24, "Head", false, false, "z")

	got := BodyBaseline(m, defaultCfg())
	if got != 10 {
		t.Errorf("baseline = %v, want 10", got)
	}
}

func TestBodyBaseline_DefaultWhenEmpty(t *testing.T) {
	m := types.NewSignatureMap()
	m.Observe(24, "Head", false, false, "z")

	got := BodyBaseline(m, defaultCfg())
	if got != 10.0 {
		t.Errorf("baseline = %v, want default 10.0", got)
	}
}

func TestFurniture_Watermark(t *testing.T) {
	// Identical bottom-band text on every page.
	var pages [][]pdfio.Span
	for i := 0; i < 5; i++ {
		pages = append(pages, []pdfio.Span{
			span("Body text here.", 10, "Body"),
			footerSpan("SAMPLE COPY", 7, "Footer"),
		})
	}
	res, err := Run(&fakeSource{pages: pages}, defaultCfg())
	if err != nil {
		t.Fatal(err)
	}

	entry := findKind(res.Furniture(), KindWatermark)
	if entry == nil {
		t.Fatalf("no watermark entry in %+v", res.Furniture())
	}
	sig := res.Map.Signatures[entry.Key]
	if sig.Label != types.LabelDrop {
		t.Errorf("watermark label = %q, want drop", sig.Label)
	}
}

func TestFurniture_PageNumbers(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
	}{
		{"integers", []string{"1", "2", "3", "4", "5"}},
		{"roman", []string{"i", "ii", "iii", "iv", "v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pages [][]pdfio.Span
			for _, txt := range tt.texts {
				pages = append(pages, []pdfio.Span{
					span("Body text on the page.", 10, "Body"),
					footerSpan(txt, 8, "Folio"),
				})
			}
			res, err := Run(&fakeSource{pages: pages}, defaultCfg())
			if err != nil {
				t.Fatal(err)
			}
			if findKind(res.Furniture(), KindPageNumber) == nil {
				t.Errorf("no page-number entry in %+v", res.Furniture())
			}
		})
	}
}

func TestFurniture_IconFontByName(t *testing.T) {
	src := &fakeSource{pages: [][]pdfio.Span{{
		span("Body.", 10, "Body"),
		span("\ue001", 6, "GameWingdings"),
	}}}
	res, err := Run(src, defaultCfg())
	if err != nil {
		t.Fatal(err)
	}
	if findKind(res.Furniture(), KindIconFont) == nil {
		t.Errorf("no icon-font entry in %+v", res.Furniture())
	}
}

func TestFurniture_BodyTextNotClassified(t *testing.T) {
	var pages [][]pdfio.Span
	for i := 0; i < 5; i++ {
		pages = append(pages, []pdfio.Span{span("Different body text each page.", 10, "Body")})
	}
	res, err := Run(&fakeSource{pages: pages}, defaultCfg())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Furniture()) != 0 {
		t.Errorf("body text classified as furniture: %+v", res.Furniture())
	}
}

func TestParseRoman(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"i", 1, true},
		{"iv", 4, true},
		{"IX", 9, true},
		{"xiv", 14, true},
		{"mcmxciv", 1994, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseRoman(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseRoman(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func findKind(entries []FurnitureEntry, kind FurnitureKind) *FurnitureEntry {
	for i := range entries {
		if entries[i].Kind == kind {
			return &entries[i]
		}
	}
	return nil
}
