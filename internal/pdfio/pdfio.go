// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfio is the PDF access layer. It exposes the narrow collaborator
// contract the pipeline needs — text spans with font metadata, the document
// outline, page images, and opaque-rectangle overdraw for image removal —
// and keeps the two backing libraries (ledongthuc/pdf for span-level text,
// pdfcpu for document structure and rewriting) behind one interface.
package pdfio

import (
	"strings"
)

// Span is one text run with its font metadata and position, in PDF user
// space (origin bottom-left).
type Span struct {
	// Text is the run's decoded text.
	Text string

	// Font is the normalized family name, subset prefix stripped.
	Font string

	// RawFont is the font name exactly as the PDF records it.
	RawFont string

	// Size is the font size in points.
	Size float64

	// Bold and Italic are inferred from the font name.
	Bold   bool
	Italic bool

	// X, Y position the run; W is its advance width.
	X, Y, W float64
}

// OutlineEntry is one document outline (bookmark) item.
type OutlineEntry struct {
	// Level is the nesting depth, 1 for top-level entries.
	Level int

	// Title is the entry text.
	Title string

	// Page is the 1-based target page, 0 when unresolvable.
	Page int
}

// Rect is an axis-aligned rectangle in PDF user space.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// ImageInfo describes one placed image.
type ImageInfo struct {
	// Page is the 1-based page number.
	Page int `json:"page"`

	// ObjNr is the PDF object number of the image XObject.
	ObjNr int `json:"object"`

	// Name is the resource name the page content refers to, e.g. "Im1".
	Name string `json:"name,omitempty"`

	// Width and Height are the pixel dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Rect is the placement rectangle on the page, nil when the content
	// stream did not yield one.
	Rect *Rect `json:"rect,omitempty"`
}

// Metadata is the document-level information pre-flight reports on.
type Metadata struct {
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Creator   string `json:"creator,omitempty"`
	Producer  string `json:"producer,omitempty"`
	PageCount int    `json:"page_count"`
	Encrypted bool   `json:"encrypted"`
	HasOutline bool  `json:"has_outline"`
}

// Document is the read/rewrite contract against one open PDF.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// Metadata returns document-level information.
	Metadata() Metadata

	// Outline returns the flattened outline in document order, empty when
	// the PDF carries none.
	Outline() ([]OutlineEntry, error)

	// PageSpans returns the text spans of the 1-based page in the reading
	// order the PDF provides.
	PageSpans(page int) ([]Span, error)

	// PageSize returns the media box dimensions of the 1-based page.
	PageSize(page int) (width, height float64, err error)

	// Images lists every placed image across the document.
	Images() ([]ImageInfo, error)

	// ExtractImages writes the document's images into outDir.
	ExtractImages(outDir string) error

	// WriteWithoutImages writes a copy of the PDF to outPath with an
	// opaque rectangle drawn over every image placement.
	WriteWithoutImages(outPath string) error

	// Close releases the underlying file handles.
	Close() error
}

// NormalizeFontName strips the six-letter subset prefix ("ABCDEF+") and
// returns the base family plus bold/italic flags inferred from the name.
func NormalizeFontName(raw string) (family string, bold, italic bool) {
	family = raw
	if i := strings.IndexByte(family, '+'); i == 6 {
		family = family[i+1:]
	}
	lower := strings.ToLower(family)
	bold = strings.Contains(lower, "bold") || strings.Contains(lower, "black") ||
		strings.Contains(lower, "heavy")
	italic = strings.Contains(lower, "italic") || strings.Contains(lower, "oblique")

	// Drop style suffixes after the first separator, keeping the family
	// itself comparable across weights.
	for _, sep := range []string{",", "-"} {
		if i := strings.Index(family, sep); i > 0 {
			family = family[:i]
			break
		}
	}
	return family, bold, italic
}
