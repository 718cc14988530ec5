// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// StructuralLabel classifies what a font signature renders as in Markdown.
type StructuralLabel string

const (
	LabelH1   StructuralLabel = "h1"
	LabelH2   StructuralLabel = "h2"
	LabelH3   StructuralLabel = "h3"
	LabelH4   StructuralLabel = "h4"
	LabelBody StructuralLabel = "body"

	// LabelDrop marks page furniture (footers, page numbers, watermarks,
	// icon glyphs) removed during cleanup.
	LabelDrop StructuralLabel = "drop"

	// calloutPrefix prefixes callout labels, e.g. "callout_gm",
	// "callout_readaloud". The suffix is the callout kind.
	calloutPrefix = "callout_"
)

// CalloutLabel builds the structural label for a callout kind.
func CalloutLabel(kind string) StructuralLabel {
	return StructuralLabel(calloutPrefix + kind)
}

// IsCallout reports whether the label marks a callout, returning its kind.
func (l StructuralLabel) IsCallout() (string, bool) {
	s := string(l)
	if strings.HasPrefix(s, calloutPrefix) {
		return strings.TrimPrefix(s, calloutPrefix), true
	}
	return "", false
}

// HeadingLevel returns the Markdown heading level for h1-h4 labels, or 0.
func (l StructuralLabel) HeadingLevel() int {
	switch l {
	case LabelH1:
		return 1
	case LabelH2:
		return 2
	case LabelH3:
		return 3
	case LabelH4:
		return 4
	}
	return 0
}

// HeadingLabel returns the label for heading level 1-4. Levels beyond 4
// clamp to h4.
func HeadingLabel(level int) StructuralLabel {
	switch {
	case level <= 1:
		return LabelH1
	case level == 2:
		return LabelH2
	case level == 3:
		return LabelH3
	default:
		return LabelH4
	}
}

// maxSignatureSamples bounds the sample text retained per signature.
const maxSignatureSamples = 5

// FontSignature identifies one visually distinct text style: a (rounded
// size, family, weight, style) key plus everything the census and detection
// phases learned about it. Created by the document-wide census; refined,
// never destroyed, by later phases.
type FontSignature struct {
	// ID is the stable marker identifier assigned at census time.
	ID int `json:"id"`

	// Size is the font size rounded to 0.1 pt.
	Size float64 `json:"size"`

	// Family is the font family with subset prefixes stripped.
	Family string `json:"family"`

	// Bold and Italic are style flags inferred from the font name.
	Bold   bool `json:"bold,omitempty"`
	Italic bool `json:"italic,omitempty"`

	// Count is the number of text spans observed with this signature.
	Count int `json:"count"`

	// Samples holds up to five observed source-text snippets.
	Samples []string `json:"samples,omitempty"`

	// HeadingCandidate flags signatures whose size and frequency suggest a
	// heading; SuggestedLevel is the census's guess (1-4).
	HeadingCandidate bool `json:"heading_candidate,omitempty"`
	SuggestedLevel   int  `json:"suggested_level,omitempty"`

	// Label is the assigned structural label, empty until assignment.
	// Once set it is never overwritten back to empty.
	Label StructuralLabel `json:"label,omitempty"`
}

// RoundSize rounds a font size to the 0.1 pt grid used by signature keys.
func RoundSize(size float64) float64 {
	return math.Round(size*10) / 10
}

// SignatureKey builds the canonical map key for a signature.
func SignatureKey(size float64, family string, bold, italic bool) string {
	key := fmt.Sprintf("%.1f|%s", RoundSize(size), family)
	if bold {
		key += "|bold"
	}
	if italic {
		key += "|italic"
	}
	return key
}

// Key returns the canonical key of the signature.
func (s *FontSignature) Key() string {
	return SignatureKey(s.Size, s.Family, s.Bold, s.Italic)
}

// AddSample appends text to the bounded sample list.
func (s *FontSignature) AddSample(text string) {
	if len(s.Samples) < maxSignatureSamples && strings.TrimSpace(text) != "" {
		s.Samples = append(s.Samples, text)
	}
}

// SignatureMap is the per-document font signature registry, persisted as
// font-family-mapping.json and shared between the census, outline, detection,
// and resolution phases. Each mutator rewrites the file in full.
type SignatureMap struct {
	// Version is the file schema version.
	Version string `json:"version"`

	// Signatures maps canonical keys to signatures.
	Signatures map[string]*FontSignature `json:"signatures"`

	// NextID is the next marker identifier to assign.
	NextID int `json:"next_id"`
}

// NewSignatureMap creates an empty registry.
func NewSignatureMap() *SignatureMap {
	return &SignatureMap{
		Version:    SchemaVersion,
		Signatures: map[string]*FontSignature{},
		NextID:     1,
	}
}

// Observe records one span occurrence, creating the signature on first
// sight and assigning it the next marker ID.
func (m *SignatureMap) Observe(size float64, family string, bold, italic bool, sample string) *FontSignature {
	key := SignatureKey(size, family, bold, italic)
	sig, ok := m.Signatures[key]
	if !ok {
		sig = &FontSignature{
			ID:     m.NextID,
			Size:   RoundSize(size),
			Family: family,
			Bold:   bold,
			Italic: italic,
		}
		m.NextID++
		m.Signatures[key] = sig
	}
	sig.Count++
	sig.AddSample(sample)
	return sig
}

// ByID returns the signature with the given marker ID, or nil.
func (m *SignatureMap) ByID(id int) *FontSignature {
	for _, sig := range m.Signatures {
		if sig.ID == id {
			return sig
		}
	}
	return nil
}

// Sorted returns the signatures ordered by descending count, then by
// descending size for deterministic iteration.
func (m *SignatureMap) Sorted() []*FontSignature {
	sigs := make([]*FontSignature, 0, len(m.Signatures))
	for _, s := range m.Signatures {
		sigs = append(sigs, s)
	}
	sort.Slice(sigs, func(i, j int) bool {
		if sigs[i].Count != sigs[j].Count {
			return sigs[i].Count > sigs[j].Count
		}
		if sigs[i].Size != sigs[j].Size {
			return sigs[i].Size > sigs[j].Size
		}
		return sigs[i].ID < sigs[j].ID
	})
	return sigs
}

// BySizeDesc returns the signatures ordered by descending size.
func (m *SignatureMap) BySizeDesc() []*FontSignature {
	sigs := m.Sorted()
	sort.SliceStable(sigs, func(i, j int) bool {
		return sigs[i].Size > sigs[j].Size
	})
	return sigs
}
