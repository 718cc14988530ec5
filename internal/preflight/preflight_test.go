// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preflight

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/rulebook-engine/internal/fsutil"
	"github.com/pdiddy/rulebook-engine/internal/pdfio"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

type fakeDoc struct {
	meta   pdfio.Metadata
	pages  [][]pdfio.Span
	images []pdfio.ImageInfo
}

func (f *fakeDoc) PageCount() int { return len(f.pages) }

func (f *fakeDoc) Metadata() pdfio.Metadata { return f.meta }

func (f *fakeDoc) Images() ([]pdfio.ImageInfo, error) { return f.images, nil }

func (f *fakeDoc) PageSpans(page int) ([]pdfio.Span, error) {
	return f.pages[page-1], nil
}

func textPage(text string) []pdfio.Span {
	return []pdfio.Span{{Text: text, Font: "Body", Size: 10}}
}

func testCfg() types.PreflightConfig {
	return types.PreflightConfig{MinCharsPerPage: 100, SamplePages: 10}
}

func TestAnalyze(t *testing.T) {
	long := strings.Repeat("text ", 40) // 200 chars
	doc := &fakeDoc{
		meta:   pdfio.Metadata{Title: "Rulebook", PageCount: 2, HasOutline: true},
		pages:  [][]pdfio.Span{textPage(long), textPage(long)},
		images: []pdfio.ImageInfo{{Page: 1}, {Page: 2}},
	}

	rep, err := Analyze(doc, testCfg())
	if err != nil {
		t.Fatal(err)
	}
	if rep.PagesSampled != 2 {
		t.Errorf("pages sampled = %d", rep.PagesSampled)
	}
	if rep.CharsPerPage < 100 {
		t.Errorf("chars per page = %d, want >= 100", rep.CharsPerPage)
	}
	if rep.LikelyScanned {
		t.Error("text-rich document flagged as scanned")
	}
	if rep.ImageCount != 2 {
		t.Errorf("image count = %d", rep.ImageCount)
	}
}

func TestAnalyze_FlagsScannedDocument(t *testing.T) {
	doc := &fakeDoc{
		pages: [][]pdfio.Span{textPage("x"), textPage(""), textPage("y")},
	}

	rep, err := Analyze(doc, testCfg())
	if err != nil {
		t.Fatal(err)
	}
	if !rep.LikelyScanned {
		t.Error("near-empty document not flagged as scanned")
	}

	err = Gate(rep, testCfg())
	if err == nil {
		t.Fatal("Gate passed a likely-scanned document")
	}
	if types.CategoryOf(err) != types.ErrPDF {
		t.Errorf("category = %q, want pdf", types.CategoryOf(err))
	}
}

func TestGate_PassesTextRichDocument(t *testing.T) {
	rep := &Report{CharsPerPage: 500}
	if err := Gate(rep, testCfg()); err != nil {
		t.Errorf("Gate failed: %v", err)
	}
}

func TestSaveWritesMetadataFile(t *testing.T) {
	dir := t.TempDir()
	rep := &Report{CharsPerPage: 250, ImageCount: 4}
	if err := Save(dir, rep); err != nil {
		t.Fatal(err)
	}

	var got Report
	if err := fsutil.ReadJSON(filepath.Join(dir, MetadataFileName), &got); err != nil {
		t.Fatal(err)
	}
	if got.CharsPerPage != 250 || got.ImageCount != 4 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, &Report{
		Metadata:      pdfio.Metadata{Title: "Rulebook", PageCount: 42},
		CharsPerPage:  12,
		LikelyScanned: true,
	})
	out := buf.String()
	if !strings.Contains(out, "Rulebook") || !strings.Contains(out, "may be scanned") {
		t.Errorf("report output = %q", out)
	}
}
