// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfio

import (
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// fileDocument implements Document over one PDF file. Span-level reads go
// through ledongthuc/pdf; structural reads and rewriting go through pdfcpu
// (see pdfcpu.go) against the same path.
type fileDocument struct {
	path   string
	file   *os.File
	reader *pdf.Reader
	meta   Metadata
}

// Open opens the PDF at path, classifying failures into the error
// taxonomy: missing or unreadable files are file errors, encrypted or
// unparseable documents are PDF errors.
func Open(path string) (Document, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.ErrFile, err, "PDF not found: %s", path)
		}
		if os.IsPermission(err) {
			return nil, types.NewError(types.ErrFile, err, "PDF not readable: %s", path)
		}
		return nil, types.NewError(types.ErrFile, err, "cannot access PDF: %s", path)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return nil, types.NewError(types.ErrPDF, err, "PDF is encrypted: %s", path)
		}
		return nil, types.NewError(types.ErrPDF, err, "cannot parse PDF: %s", path)
	}

	d := &fileDocument{path: path, file: f, reader: r}
	d.meta = d.readMetadata()
	return d, nil
}

// Close releases the file handle.
func (d *fileDocument) Close() error {
	return d.file.Close()
}

// PageCount returns the number of pages.
func (d *fileDocument) PageCount() int {
	return d.reader.NumPage()
}

// Metadata returns document-level information captured at open time.
func (d *fileDocument) Metadata() Metadata {
	return d.meta
}

// readMetadata pulls the Info dictionary and outline presence.
func (d *fileDocument) readMetadata() Metadata {
	m := Metadata{PageCount: d.reader.NumPage()}

	info := d.reader.Trailer().Key("Info")
	if !info.IsNull() {
		m.Title = infoString(info, "Title")
		m.Author = infoString(info, "Author")
		m.Creator = infoString(info, "Creator")
		m.Producer = infoString(info, "Producer")
	}
	m.Encrypted = !d.reader.Trailer().Key("Encrypt").IsNull()

	outline := d.reader.Trailer().Key("Root").Key("Outlines")
	m.HasOutline = !outline.IsNull() && !outline.Key("First").IsNull()

	return m
}

// infoString reads a string entry from the Info dictionary.
func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.RawString())
}

// outlineTitles reads the raw outline tree through the span-level reader
// when pdfcpu cannot resolve bookmark destinations. Entries carry page 0.
func (d *fileDocument) outlineTitles() []OutlineEntry {
	var entries []OutlineEntry
	var walk func(children []pdf.Outline, level int)
	walk = func(children []pdf.Outline, level int) {
		for _, c := range children {
			title := strings.TrimSpace(c.Title)
			if title != "" {
				entries = append(entries, OutlineEntry{Level: level, Title: title})
			}
			walk(c.Child, level+1)
		}
	}
	walk(d.reader.Outline().Child, 1)
	return entries
}

// PageSpans returns the text spans of the 1-based page.
func (d *fileDocument) PageSpans(page int) ([]Span, error) {
	if page < 1 || page > d.reader.NumPage() {
		return nil, types.NewError(types.ErrPDF, nil, "page %d out of range (1-%d)", page, d.reader.NumPage())
	}

	p := d.reader.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}

	var spans []Span
	// Content() may panic on malformed content streams; degrade to an
	// empty page rather than killing the whole phase.
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = types.NewError(types.ErrPDF, nil, "page %d content unreadable: %v", page, r)
			}
		}()
		content := p.Content()
		spans = make([]Span, 0, len(content.Text))
		for _, t := range content.Text {
			if t.S == "" {
				continue
			}
			family, bold, italic := NormalizeFontName(t.Font)
			spans = append(spans, Span{
				Text:    t.S,
				Font:    family,
				RawFont: t.Font,
				Size:    t.FontSize,
				Bold:    bold,
				Italic:  italic,
				X:       t.X,
				Y:       t.Y,
				W:       t.W,
			})
		}
		return nil
	}()
	if err != nil {
		return nil, err
	}
	return spans, nil
}

// PageSize returns the media box dimensions, walking up to the page tree
// root for inherited boxes. Falls back to US Letter when absent.
func (d *fileDocument) PageSize(page int) (float64, float64, error) {
	if page < 1 || page > d.reader.NumPage() {
		return 0, 0, types.NewError(types.ErrPDF, nil, "page %d out of range", page)
	}

	v := d.reader.Page(page).V
	for !v.IsNull() {
		mb := v.Key("MediaBox")
		if !mb.IsNull() && mb.Len() == 4 {
			w := mb.Index(2).Float64() - mb.Index(0).Float64()
			h := mb.Index(3).Float64() - mb.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h, nil
			}
		}
		v = v.Key("Parent")
	}
	return 612, 792, nil
}
