// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detect refines the structural labels of font signatures using
// content-driven signals: capitalization patterns above the body-size
// baseline, configured callout keywords, and exact matches against
// boundary-detected callout blocks. Labels assigned earlier (outline
// seeds, census furniture) are never overwritten.
package detect

import (
	"strings"
	"unicode"

	"github.com/pdiddy/rulebook-engine/internal/census"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// Assignment records one label written during refinement, for reporting.
type Assignment struct {
	Key    string                `json:"key"`
	Label  types.StructuralLabel `json:"label"`
	Reason string                `json:"reason"`
}

// minorWords are ignored when judging Title Case phrasing.
var minorWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "and": true,
	"or": true, "to": true, "in": true, "on": true, "for": true,
	"with": true, "at": true, "by": true, "from": true,
}

// Refine walks every unlabeled signature and assigns labels from content
// signals, then enforces the single-H1 guarantee. Returns the assignments
// made, in registry iteration order normalized by signature ID.
func Refine(m *types.SignatureMap, censusCfg types.CensusConfig, detectCfg types.DetectConfig, callouts []types.CalloutOccurrence) []Assignment {
	baseline := census.BodyBaseline(m, censusCfg)

	var assignments []Assignment
	assign := func(sig *types.FontSignature, label types.StructuralLabel, reason string) {
		// Seeded labels win; never overwrite.
		if sig.Label != "" {
			return
		}
		sig.Label = label
		assignments = append(assignments, Assignment{Key: sig.Key(), Label: label, Reason: reason})
	}

	for _, sig := range m.Sorted() {
		if sig.Label != "" {
			continue
		}

		switch {
		case matchesKeywords(sig.Samples, detectCfg.GMKeywords):
			assign(sig, types.CalloutLabel("gm"), "gm keyword")
		case matchesKeywords(sig.Samples, detectCfg.ReadAloudKeywords):
			assign(sig, types.CalloutLabel("readaloud"), "read-aloud keyword")
		case matchesCalloutBlock(sig.Samples, callouts) != "":
			assign(sig, types.CalloutLabel(matchesCalloutBlock(sig.Samples, callouts)), "callout block match")
		case sig.Size > baseline && majority(sig.Samples, isAllCaps):
			assign(sig, headingLabelFor(sig), "all-caps above baseline")
		case sig.Size > baseline && majority(sig.Samples, isTitleCase):
			assign(sig, headingLabelFor(sig), "title case above baseline")
		case sig.Size <= baseline && sig.Size >= censusCfg.BodyBandMin:
			assign(sig, types.LabelBody, "body size band")
		}
	}

	assignments = append(assignments, EnsureSingleH1(m)...)
	return assignments
}

// headingLabelFor picks the heading level from the census suggestion,
// defaulting to h2 so the single-H1 pass decides the top level.
func headingLabelFor(sig *types.FontSignature) types.StructuralLabel {
	if sig.HeadingCandidate && sig.SuggestedLevel > 0 {
		return types.HeadingLabel(sig.SuggestedLevel)
	}
	return types.LabelH2
}

// EnsureSingleH1 guarantees at most one H1: when none exists, the largest
// heading-labeled signature is promoted and any signature that previously
// shared its label moves to the next level down; when several exist, all
// but the largest demote to H2.
func EnsureSingleH1(m *types.SignatureMap) []Assignment {
	var h1s, headings []*types.FontSignature
	for _, sig := range m.BySizeDesc() {
		if sig.Label.HeadingLevel() > 0 {
			headings = append(headings, sig)
			if sig.Label == types.LabelH1 {
				h1s = append(h1s, sig)
			}
		}
	}
	if len(headings) == 0 {
		return nil
	}

	var assignments []Assignment
	record := func(sig *types.FontSignature, label types.StructuralLabel, reason string) {
		sig.Label = label
		assignments = append(assignments, Assignment{Key: sig.Key(), Label: label, Reason: reason})
	}

	switch {
	case len(h1s) == 0:
		// Promote the largest heading; demote its former label peers.
		promoted := headings[0]
		shared := promoted.Label
		record(promoted, types.LabelH1, "promoted to sole h1")
		if shared != types.LabelH1 {
			next := types.HeadingLabel(shared.HeadingLevel() + 1)
			for _, sig := range headings[1:] {
				if sig.Label == shared {
					record(sig, next, "demoted below promoted h1")
				}
			}
		}
	case len(h1s) > 1:
		for _, sig := range h1s[1:] {
			record(sig, types.LabelH2, "demoted: single h1 already present")
		}
	}
	return assignments
}

// majority reports whether more than half of the samples satisfy pred.
func majority(samples []string, pred func(string) bool) bool {
	if len(samples) == 0 {
		return false
	}
	hits := 0
	for _, s := range samples {
		if pred(s) {
			hits++
		}
	}
	return hits*2 > len(samples)
}

// isAllCaps reports letters present and none lowercase.
func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// isTitleCase reports that most non-minor words start uppercase.
func isTitleCase(s string) bool {
	words := strings.Fields(s)
	capped, counted := 0, 0
	for _, w := range words {
		bare := strings.ToLower(strings.Trim(w, ".,:;!?'\""))
		if minorWords[bare] {
			continue
		}
		runes := []rune(w)
		if len(runes) == 0 || !unicode.IsLetter(runes[0]) {
			continue
		}
		counted++
		if unicode.IsUpper(runes[0]) {
			capped++
		}
	}
	return counted > 0 && capped*2 > counted
}

// matchesKeywords reports whether any sample contains any keyword,
// case-insensitive.
func matchesKeywords(samples, keywords []string) bool {
	for _, sample := range samples {
		lower := strings.ToLower(sample)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// matchesCalloutBlock returns the label of a boundary-detected block whose
// text contains a sample exactly, or "".
func matchesCalloutBlock(samples []string, callouts []types.CalloutOccurrence) string {
	for _, occ := range callouts {
		for _, sample := range samples {
			if sample != "" && strings.Contains(occ.Text, sample) {
				return occ.Label
			}
		}
	}
	return ""
}
