// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package census surveys font usage across a document and builds the font
// signature registry: every visually distinct (size, family, weight, style)
// combination, its frequency, sample text, heading candidacy, and the page
// furniture (footers, watermarks, page numbers, icon glyphs) that later
// phases drop.
package census

import (
	"sort"
	"strings"

	"github.com/pdiddy/rulebook-engine/internal/pdfio"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// PageSource is the slice of the PDF access contract the census reads.
type PageSource interface {
	PageCount() int
	PageSpans(page int) ([]pdfio.Span, error)
	PageSize(page int) (width, height float64, err error)
}

// verticalBand buckets a span's page position.
type verticalBand int

const (
	bandMiddle verticalBand = iota
	bandTop
	bandBottom
)

// observation accumulates per-signature survey data beyond what the
// signature itself records.
type observation struct {
	pages      map[int]bool
	texts      map[string]int
	bands      map[verticalBand]int
	pageTexts  []pageText
	shortGlyph int
	total      int
}

// pageText is one occurrence in page order, for sequence detection.
type pageText struct {
	page int
	text string
}

// Result is the census output: the signature registry plus the survey data
// furniture classification runs on.
type Result struct {
	Map          *types.SignatureMap
	PagesSampled int
	observations map[string]*observation
	furniture    []FurnitureEntry
}

// Run surveys up to cfg.SamplePages pages (0 = all) and returns the built
// registry with heading candidates flagged and page furniture classified.
func Run(src PageSource, cfg types.CensusConfig) (*Result, error) {
	sigMap := types.NewSignatureMap()
	res := &Result{
		Map:          sigMap,
		observations: map[string]*observation{},
	}

	pages := src.PageCount()
	if cfg.SamplePages > 0 && cfg.SamplePages < pages {
		pages = cfg.SamplePages
	}
	res.PagesSampled = pages

	for page := 1; page <= pages; page++ {
		spans, err := src.PageSpans(page)
		if err != nil {
			// A single unreadable page does not abort the census.
			continue
		}
		_, height, err := src.PageSize(page)
		if err != nil || height <= 0 {
			height = 792
		}

		for _, span := range spans {
			text := strings.TrimSpace(span.Text)
			if text == "" {
				continue
			}
			sig := sigMap.Observe(span.Size, span.Font, span.Bold, span.Italic, text)
			obs := res.observations[sig.Key()]
			if obs == nil {
				obs = &observation{
					pages: map[int]bool{},
					texts: map[string]int{},
					bands: map[verticalBand]int{},
				}
				res.observations[sig.Key()] = obs
			}
			obs.pages[page] = true
			obs.texts[text]++
			obs.bands[bandOf(span.Y, height, cfg.EdgeBand)]++
			obs.pageTexts = append(obs.pageTexts, pageText{page: page, text: text})
			obs.total++
			if isGlyphLike(text) {
				obs.shortGlyph++
			}
		}
	}

	flagHeadingCandidates(sigMap, cfg)
	classifyFurniture(res, cfg)
	return res, nil
}

// bandOf buckets a y position (PDF user space, origin bottom-left) into
// top, bottom, or middle using the configured edge band.
func bandOf(y, pageHeight, edgeBand float64) verticalBand {
	if edgeBand <= 0 {
		edgeBand = 0.1
	}
	switch {
	case y >= pageHeight*(1-edgeBand):
		return bandTop
	case y <= pageHeight*edgeBand:
		return bandBottom
	default:
		return bandMiddle
	}
}

// BodyBaseline returns the statistical mode of signature sizes inside the
// plausible body band, weighted by span count, or the configured default
// when nothing falls in the band.
func BodyBaseline(m *types.SignatureMap, cfg types.CensusConfig) float64 {
	weights := map[float64]int{}
	for _, sig := range m.Signatures {
		if sig.Size >= cfg.BodyBandMin && sig.Size <= cfg.BodyBandMax {
			weights[sig.Size] += sig.Count
		}
	}
	if len(weights) == 0 {
		return cfg.DefaultBodySize
	}
	best, bestWeight := 0.0, -1
	for size, w := range weights {
		if w > bestWeight || (w == bestWeight && size < best) {
			best, bestWeight = size, w
		}
	}
	return best
}

// flagHeadingCandidates marks signatures above the body baseline as
// heading candidates, suggesting levels by descending size rank.
func flagHeadingCandidates(m *types.SignatureMap, cfg types.CensusConfig) {
	baseline := BodyBaseline(m, cfg)

	sizes := map[float64]bool{}
	for _, sig := range m.Signatures {
		if sig.Size > baseline {
			sizes[sig.Size] = true
		}
	}
	ranked := make([]float64, 0, len(sizes))
	for s := range sizes {
		ranked = append(ranked, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ranked)))

	levels := cfg.HeadingLevels
	if levels <= 0 {
		levels = 4
	}
	rankOf := map[float64]int{}
	for i, s := range ranked {
		level := i + 1
		if level > levels {
			level = levels
		}
		rankOf[s] = level
	}

	for _, sig := range m.Signatures {
		if level, ok := rankOf[sig.Size]; ok {
			sig.HeadingCandidate = true
			sig.SuggestedLevel = level
		}
	}
}
