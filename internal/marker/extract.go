// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package marker

import (
	"sort"
	"strings"

	"github.com/pdiddy/rulebook-engine/internal/pdfio"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// PageSource is the slice of the PDF access contract extraction reads.
type PageSource interface {
	PageCount() int
	PageSpans(page int) ([]pdfio.Span, error)
}

const (
	// lineTolerance is the vertical distance within which spans share a line.
	lineTolerance = 2.0

	// spaceGap is the horizontal gap that implies a missing inter-word space.
	spaceGap = 1.0
)

// Extract produces the marker-annotated text for the whole document: pages
// joined with page-break comments, one marker per run of same-signature
// spans on a line. Unreadable pages contribute only their page break.
func Extract(src PageSource, m *types.SignatureMap) (string, error) {
	var out []string
	for page := 1; page <= src.PageCount(); page++ {
		out = append(out, PageBreak(page))
		spans, err := src.PageSpans(page)
		if err != nil {
			continue
		}
		for _, line := range groupLines(spans) {
			if rendered := renderLine(line, m); rendered != "" {
				out = append(out, rendered)
			}
		}
		out = append(out, "")
	}
	return strings.Join(out, "\n"), nil
}

// groupLines buckets spans into visual lines by Y proximity, top of page
// first, left to right within a line.
func groupLines(spans []pdfio.Span) [][]pdfio.Span {
	sorted := make([]pdfio.Span, 0, len(spans))
	for _, s := range spans {
		if strings.TrimSpace(s.Text) != "" {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if diff := sorted[i].Y - sorted[j].Y; diff > lineTolerance || diff < -lineTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines [][]pdfio.Span
	for _, s := range sorted {
		if n := len(lines); n > 0 {
			last := lines[n-1][0]
			if last.Y-s.Y <= lineTolerance && s.Y-last.Y <= lineTolerance {
				lines[n-1] = append(lines[n-1], s)
				continue
			}
		}
		lines = append(lines, []pdfio.Span{s})
	}
	return lines
}

// renderLine merges consecutive same-signature spans into single markers,
// inferring a space when a horizontal gap separates them.
func renderLine(line []pdfio.Span, m *types.SignatureMap) string {
	var b strings.Builder
	var runID int
	var runText strings.Builder
	var runEnd float64

	flush := func() {
		if runText.Len() > 0 {
			b.WriteString(Format(runID, strings.TrimSpace(runText.String())))
			runText.Reset()
		}
	}

	for _, span := range line {
		sig := lookup(m, span)
		if runText.Len() > 0 && sig.ID != runID {
			flush()
		}
		if runText.Len() > 0 {
			if span.X-runEnd >= spaceGap && !strings.HasSuffix(runText.String(), " ") {
				runText.WriteByte(' ')
			}
		}
		runID = sig.ID
		runText.WriteString(span.Text)
		runEnd = span.X + span.W
	}
	flush()
	return b.String()
}

// lookup finds the span's signature, registering it when the census never
// sampled its page.
func lookup(m *types.SignatureMap, span pdfio.Span) *types.FontSignature {
	key := types.SignatureKey(span.Size, span.Font, span.Bold, span.Italic)
	if sig, ok := m.Signatures[key]; ok {
		return sig
	}
	return m.Observe(span.Size, span.Font, span.Bold, span.Italic, span.Text)
}
