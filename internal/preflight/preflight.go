// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preflight analyzes a document before conversion starts: metadata,
// sampled extractable-text density, and image count. Its report gates the
// pipeline — a document with almost no extractable text is likely scanned
// and needs OCR, which the converter does not do.
package preflight

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pdiddy/rulebook-engine/internal/fsutil"
	"github.com/pdiddy/rulebook-engine/internal/pdfio"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// MetadataFileName is the pre-flight analysis artifact.
const MetadataFileName = "metadata.json"

// Source is the slice of the PDF access contract pre-flight reads.
type Source interface {
	PageCount() int
	Metadata() pdfio.Metadata
	PageSpans(page int) ([]pdfio.Span, error)
	Images() ([]pdfio.ImageInfo, error)
}

// Report is the persisted pre-flight analysis.
type Report struct {
	Metadata pdfio.Metadata `json:"metadata"`

	// PagesSampled is how many pages contributed character counts.
	PagesSampled int `json:"pages_sampled"`

	// CharsPerPage is the average extractable characters per sampled page.
	CharsPerPage int `json:"chars_per_page"`

	// ImageCount is the number of placed images across the document.
	ImageCount int `json:"image_count"`

	// LikelyScanned is set when the character density falls below the
	// configured minimum.
	LikelyScanned bool `json:"likely_scanned"`
}

// Analyze samples the document and builds the report.
func Analyze(src Source, cfg types.PreflightConfig) (*Report, error) {
	meta := src.Metadata()
	rep := &Report{Metadata: meta}

	sample := cfg.SamplePages
	if sample <= 0 {
		sample = 10
	}
	pages := src.PageCount()
	if pages < sample {
		sample = pages
	}

	totalChars := 0
	for page := 1; page <= sample; page++ {
		spans, err := src.PageSpans(page)
		if err != nil {
			continue
		}
		rep.PagesSampled++
		for _, s := range spans {
			totalChars += len(strings.TrimSpace(s.Text))
		}
	}
	if rep.PagesSampled > 0 {
		rep.CharsPerPage = totalChars / rep.PagesSampled
	}
	rep.LikelyScanned = rep.CharsPerPage < cfg.MinCharsPerPage

	if images, err := src.Images(); err == nil {
		rep.ImageCount = len(images)
	}
	return rep, nil
}

// Save writes the report atomically as metadata.json.
func Save(dir string, rep *Report) error {
	return fsutil.AtomicWriteJSON(filepath.Join(dir, MetadataFileName), rep)
}

// Gate returns a PDF error when the document fails the extractable-text
// threshold. The caller may still proceed on explicit user confirmation.
func Gate(rep *Report, cfg types.PreflightConfig) error {
	if !rep.LikelyScanned {
		return nil
	}
	return types.NewError(types.ErrPDF, nil,
		"document averages %d extractable characters per page (minimum %d); it is likely scanned",
		rep.CharsPerPage, cfg.MinCharsPerPage).
		WithRemediation("run OCR on the PDF first, or re-run with --yes to convert anyway")
}

// Print renders the report table for the confirmation prompt.
func Print(w io.Writer, rep *Report) {
	fmt.Fprintf(w, "Pre-flight analysis\n")
	fmt.Fprintf(w, "  title:           %s\n", orDash(rep.Metadata.Title))
	fmt.Fprintf(w, "  author:          %s\n", orDash(rep.Metadata.Author))
	fmt.Fprintf(w, "  pages:           %d\n", rep.Metadata.PageCount)
	fmt.Fprintf(w, "  outline:         %s\n", yesNo(rep.Metadata.HasOutline))
	fmt.Fprintf(w, "  images:          %d\n", rep.ImageCount)
	fmt.Fprintf(w, "  chars per page:  %d (sampled %d pages)\n", rep.CharsPerPage, rep.PagesSampled)
	if rep.LikelyScanned {
		fmt.Fprintf(w, "  warning:         low text density, document may be scanned\n")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
