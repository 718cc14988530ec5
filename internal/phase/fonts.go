// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package phase

import (
	"fmt"
	"strings"

	"github.com/pdiddy/rulebook-engine/internal/census"
	"github.com/pdiddy/rulebook-engine/internal/fsutil"
	"github.com/pdiddy/rulebook-engine/internal/pdfio"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// TOCFileName is the extracted outline artifact.
const TOCFileName = "toc-extracted.txt"

// censusPhase surveys font usage and builds the signature registry.
type censusPhase struct{}

func (p *censusPhase) Number() int            { return 2 }
func (p *censusPhase) Name() string           { return "font census" }
func (p *censusPhase) Artifact(string) string { return census.MappingFileName }

func (p *censusPhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(2, p.Name())

	var res *census.Result
	if !runStep(&pr, "2.1", "survey font signatures", func() (string, error) {
		var err error
		res, err = census.Run(pc.Doc, pc.Config.Census)
		return "", err
	}) {
		return pr
	}
	pc.Progress("census: %d signatures across %d pages",
		len(res.Map.Signatures), res.PagesSampled)

	if !runStep(&pr, "2.2", "write signature map", func() (string, error) {
		return census.MappingFileName, census.SaveMap(pc.OutputDir(), res.Map)
	}) {
		return pr
	}

	runStep(&pr, "2.3", "classify page furniture", func() (string, error) {
		if err := census.SaveFurnitureConfigs(pc.OutputDir(), res.Furniture()); err != nil {
			return "", err
		}
		return census.FooterConfigFileName, nil
	})
	return pr
}

// outlinePhase extracts the document outline and seeds heading labels from
// its entries.
type outlinePhase struct{}

func (p *outlinePhase) Number() int            { return 3 }
func (p *outlinePhase) Name() string           { return "outline extraction" }
func (p *outlinePhase) Artifact(string) string { return TOCFileName }

func (p *outlinePhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(3, p.Name())

	entries, err := pc.Doc.Outline()
	if err != nil || len(entries) == 0 {
		// Rulebooks without bookmarks rely entirely on detection.
		if err != nil {
			pr.Warn("outline unavailable: %v", err)
		} else {
			pr.Warn("document carries no outline")
		}
		runStep(&pr, "3.1", "write table of contents", func() (string, error) {
			return TOCFileName, fsutil.AtomicWriteFile(pc.Path(TOCFileName), []byte(""), 0o644)
		})
		return pr
	}

	if !runStep(&pr, "3.1", "write table of contents", func() (string, error) {
		var b strings.Builder
		for _, e := range entries {
			indent := strings.Repeat("  ", e.Level-1)
			if e.Page > 0 {
				fmt.Fprintf(&b, "%s%s (p.%d)\n", indent, e.Title, e.Page)
			} else {
				fmt.Fprintf(&b, "%s%s\n", indent, e.Title)
			}
		}
		return TOCFileName, fsutil.AtomicWriteFile(pc.Path(TOCFileName), []byte(b.String()), 0o644)
	}) {
		return pr
	}

	runStep(&pr, "3.2", "seed heading labels", func() (string, error) {
		m, err := census.LoadMap(pc.OutputDir())
		if err != nil {
			return "", err
		}
		seeded := seedHeadingLabels(pc, m, entries)
		pc.Progress("outline: seeded %d heading labels", seeded)
		return census.MappingFileName, census.SaveMap(pc.OutputDir(), m)
	})
	return pr
}

// seedHeadingLabels labels the signature of each outline entry's title text
// with the heading level of its nesting depth. Labels set earlier win.
func seedHeadingLabels(pc *Context, m *types.SignatureMap, entries []pdfio.OutlineEntry) int {
	seeded := 0
	for _, e := range entries {
		if e.Page <= 0 {
			continue
		}
		spans, err := pc.Doc.PageSpans(e.Page)
		if err != nil {
			continue
		}
		title := normalizeTitle(e.Title)
		for _, span := range spans {
			text := normalizeTitle(span.Text)
			if len(text) < 3 || !strings.Contains(title, text) {
				continue
			}
			key := types.SignatureKey(span.Size, span.Font, span.Bold, span.Italic)
			sig := m.Signatures[key]
			if sig == nil || sig.Label != "" {
				continue
			}
			sig.Label = types.HeadingLabel(e.Level)
			seeded++
			break
		}
	}
	return seeded
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
