// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package phase

import (
	"fmt"
	"os"

	"github.com/pdiddy/rulebook-engine/internal/census"
	"github.com/pdiddy/rulebook-engine/internal/fsutil"
	"github.com/pdiddy/rulebook-engine/internal/marker"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

const (
	ExtractedFileName  = "04-extracted.md"
	CleanedFileName    = "05-cleaned.md"
	StructuredFileName = "08-structured.md"
)

// extractPhase produces the marker-annotated text.
type extractPhase struct{}

func (p *extractPhase) Number() int            { return 4 }
func (p *extractPhase) Name() string           { return "marker extraction" }
func (p *extractPhase) Artifact(string) string { return ExtractedFileName }

func (p *extractPhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(4, p.Name())

	var m *types.SignatureMap
	if !runStep(&pr, "4.1", "load signature map", func() (string, error) {
		var err error
		m, err = census.LoadMap(pc.OutputDir())
		return "", err
	}) {
		return pr
	}

	if !runStep(&pr, "4.2", "extract marker-annotated text", func() (string, error) {
		text, err := marker.Extract(pc.Doc, m)
		if err != nil {
			return "", err
		}
		return ExtractedFileName, fsutil.AtomicWriteFile(pc.Path(ExtractedFileName), []byte(text), 0o644)
	}) {
		return pr
	}

	// Extraction may register signatures the census sample missed.
	runStep(&pr, "4.3", "update signature map", func() (string, error) {
		return census.MappingFileName, census.SaveMap(pc.OutputDir(), m)
	})
	return pr
}

// cleanupPhase escapes, strips furniture, and dehyphenates the annotated
// text.
type cleanupPhase struct{}

func (p *cleanupPhase) Number() int            { return 5 }
func (p *cleanupPhase) Name() string           { return "text cleanup" }
func (p *cleanupPhase) Artifact(string) string { return CleanedFileName }

func (p *cleanupPhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(5, p.Name())

	runStep(&pr, "5.1", "clean annotated text", func() (string, error) {
		raw, err := os.ReadFile(pc.Path(ExtractedFileName))
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", ExtractedFileName, err)
		}
		m, err := census.LoadMap(pc.OutputDir())
		if err != nil {
			return "", err
		}
		cleaned := marker.Apply(string(raw),
			marker.EscapeMarkdown,
			marker.DropMarkers(m),
			marker.Dehyphenate,
		)
		return CleanedFileName, fsutil.AtomicWriteFile(pc.Path(CleanedFileName), []byte(cleaned), 0o644)
	})
	return pr
}

// structurePhase merges paragraphs and normalizes bullets.
type structurePhase struct{}

func (p *structurePhase) Number() int            { return 8 }
func (p *structurePhase) Name() string           { return "structure cleanup" }
func (p *structurePhase) Artifact(string) string { return StructuredFileName }

func (p *structurePhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(8, p.Name())

	runStep(&pr, "8.1", "merge paragraphs and normalize bullets", func() (string, error) {
		raw, err := os.ReadFile(pc.Path(CleanedFileName))
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", CleanedFileName, err)
		}
		structured := marker.Apply(string(raw),
			marker.NormalizeBullets,
			marker.MergeParagraphs,
		)
		return StructuredFileName, fsutil.AtomicWriteFile(pc.Path(StructuredFileName), []byte(structured), 0o644)
	})
	return pr
}
