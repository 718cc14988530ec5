// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package census

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// FurnitureKind says why a signature was classified as page furniture.
type FurnitureKind string

const (
	KindFooter     FurnitureKind = "footer"
	KindWatermark  FurnitureKind = "watermark"
	KindPageNumber FurnitureKind = "page_number"
	KindIconFont   FurnitureKind = "icon_font"
)

// FurnitureEntry is one classified signature in footer_config.json or
// icon_config.json.
type FurnitureEntry struct {
	SignatureID int           `json:"signature_id"`
	Key         string        `json:"key"`
	Kind        FurnitureKind `json:"kind"`
	Sample      string        `json:"sample,omitempty"`
}

// iconFontNames are substrings of known icon/symbol font families.
var iconFontNames = []string{
	"webdings", "wingdings", "dingbat", "fontawesome", "symbol",
	"zapf", "icomoon", "icons",
}

// Furniture returns the classified entries, ordered by signature ID.
// Classification also assigns the drop label to each furniture signature
// (respecting the never-overwrite rule for labels set earlier).
func (r *Result) Furniture() []FurnitureEntry {
	return r.furniture
}

// classifyFurniture runs the furniture heuristics over the survey data:
//   - repeating signatures (page frequency above the footer threshold,
//     position-gated to the top or bottom band) are footers;
//   - among them, always-identical text is a watermark and a strictly
//     increasing integer or roman-numeral sequence is a page number;
//   - icon fonts match by family name, private-use-area codepoints, or
//     short glyph-like content below the icon size cutoff.
func classifyFurniture(res *Result, cfg types.CensusConfig) {
	var entries []FurnitureEntry

	for key, sig := range res.Map.Signatures {
		obs := res.observations[key]
		if obs == nil || obs.total == 0 {
			continue
		}

		var kind FurnitureKind

		switch {
		case isIconFont(sig.Family, obs, sig.Size, cfg.IconMaxSize):
			kind = KindIconFont
		case res.pageFrequency(obs) >= cfg.FooterFrequency && edgeDominant(obs):
			switch {
			case len(obs.texts) == 1:
				kind = KindWatermark
			case isIncreasingSequence(obs.pageTexts):
				kind = KindPageNumber
			default:
				kind = KindFooter
			}
		default:
			continue
		}

		if sig.Label == "" {
			sig.Label = types.LabelDrop
		}
		sample := ""
		if len(sig.Samples) > 0 {
			sample = sig.Samples[0]
		}
		entries = append(entries, FurnitureEntry{
			SignatureID: sig.ID,
			Key:         key,
			Kind:        kind,
			Sample:      sample,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SignatureID < entries[j].SignatureID
	})
	res.furniture = entries
}

// pageFrequency is the fraction of sampled pages the signature appears on.
func (r *Result) pageFrequency(obs *observation) float64 {
	if r.PagesSampled == 0 {
		return 0
	}
	return float64(len(obs.pages)) / float64(r.PagesSampled)
}

// edgeDominant reports whether most occurrences sit in the top or bottom
// band.
func edgeDominant(obs *observation) bool {
	edge := obs.bands[bandTop] + obs.bands[bandBottom]
	return edge*2 > obs.total
}

// isIconFont applies the icon-font heuristics.
func isIconFont(family string, obs *observation, size, iconMaxSize float64) bool {
	lower := strings.ToLower(family)
	for _, name := range iconFontNames {
		if strings.Contains(lower, name) {
			return true
		}
	}
	if obs.total > 0 && obs.shortGlyph == obs.total && size < iconMaxSize {
		return true
	}
	return false
}

// isGlyphLike reports private-use-area codepoints or one-to-two character
// non-alphanumeric content.
func isGlyphLike(text string) bool {
	runes := []rune(text)
	for _, r := range runes {
		if r >= 0xE000 && r <= 0xF8FF {
			return true
		}
	}
	if len(runes) > 2 {
		return false
	}
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isIncreasingSequence reports whether the occurrences form a strictly
// increasing integer or roman-numeral sequence across at least two pages.
func isIncreasingSequence(occurrences []pageText) bool {
	if len(occurrences) < 2 {
		return false
	}
	sorted := make([]pageText, len(occurrences))
	copy(sorted, occurrences)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].page < sorted[j].page })

	prev := -1
	for _, occ := range sorted {
		n, ok := parseCounter(occ.text)
		if !ok {
			return false
		}
		if n <= prev {
			return false
		}
		prev = n
	}
	return true
}

// parseCounter parses an integer or roman-numeral page counter.
func parseCounter(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil && n >= 0 {
		return n, true
	}
	return parseRoman(text)
}

// romanValues maps roman-numeral runes to values.
var romanValues = map[rune]int{
	'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000,
}

// parseRoman parses a roman numeral, case-insensitive.
func parseRoman(text string) (int, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0, false
	}
	total, prev := 0, 0
	for i := len(text) - 1; i >= 0; i-- {
		v, ok := romanValues[rune(text[i])]
		if !ok {
			return 0, false
		}
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}
	return total, true
}
