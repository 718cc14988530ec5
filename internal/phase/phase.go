// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package phase implements the eleven conversion phases and the registry
// the orchestrator drives them through. Each phase is independently
// re-runnable: it consumes named artifact files from the output directory,
// produces its own declared artifact, and reports per-step results.
package phase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/rulebook-engine/internal/pdfio"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// Context carries everything a phase execution needs.
type Context struct {
	// Ctx bounds external calls made by the phase.
	Ctx context.Context

	// Doc is the open source document.
	Doc pdfio.Document

	// State is the current conversion state. Phases read it; only the
	// orchestrator mutates and persists it.
	State *types.ConversionState

	// Config holds the tunable thresholds and keyword lists.
	Config types.ConvertConfig

	// Out receives progress lines.
	Out io.Writer

	// In is the interactive input stream for confirmation gates.
	In io.Reader

	// Args echoes the CLI invocation for the diagnostics bundle.
	Args []string

	// CalloutDefsPath is the user-supplied callout definition file, if any.
	CalloutDefsPath string

	// AutoProceed suppresses confirmation gates (--yes).
	AutoProceed bool

	// Diagnostics requests the diagnostic bundle in the report phase.
	Diagnostics bool
}

// OutputDir returns the conversion's output directory.
func (pc *Context) OutputDir() string { return pc.State.OutputDir }

// Path joins name onto the output directory.
func (pc *Context) Path(name string) string {
	return filepath.Join(pc.State.OutputDir, name)
}

// Progress writes one progress line.
func (pc *Context) Progress(format string, args ...any) {
	if pc.Out != nil {
		fmt.Fprintf(pc.Out, format+"\n", args...)
	}
}

// Confirm asks a yes/no question on the interactive streams. Without an
// input stream the answer is no.
func (pc *Context) Confirm(prompt string) bool {
	if pc.In == nil {
		return false
	}
	if pc.Out != nil {
		fmt.Fprintf(pc.Out, "%s [y/N]: ", prompt)
	}
	line, err := bufio.NewReader(pc.In).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// Phase is one re-runnable pipeline unit.
type Phase interface {
	// Number is the phase's position in the pipeline (0-10).
	Number() int

	// Name is the short human-readable phase name.
	Name() string

	// Artifact is the declared output file relative to the output
	// directory, or "" when the phase declares none. book is the source
	// document's base name, for phases whose artifact derives from it.
	Artifact(book string) string

	// Execute runs the phase. Failures are reported through the result's
	// step statuses, not through a returned error.
	Execute(pc *Context) types.PhaseResult
}

// BookName derives the output document name from the source PDF path.
func BookName(sourcePDF string) string {
	base := filepath.Base(sourcePDF)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Registry holds the ordered phase set. It is constructed explicitly and
// passed to the orchestrator; there is no ambient global registry.
type Registry struct {
	phases map[int]Phase
	max    int
}

// NewRegistry builds a registry from the given phases.
func NewRegistry(phases ...Phase) *Registry {
	r := &Registry{phases: map[int]Phase{}}
	for _, p := range phases {
		r.phases[p.Number()] = p
		if p.Number() > r.max {
			r.max = p.Number()
		}
	}
	return r
}

// DefaultRegistry builds the full eleven-phase pipeline.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&preflightPhase{},
		&imagesPhase{},
		&censusPhase{},
		&outlinePhase{},
		&extractPhase{},
		&cleanupPhase{},
		&calloutPhase{},
		&detectPhase{},
		&structurePhase{},
		&resolvePhase{},
		&reportPhase{},
	)
}

// Get returns phase n, or nil when the registry has none.
func (r *Registry) Get(n int) Phase { return r.phases[n] }

// Max returns the highest phase number.
func (r *Registry) Max() int { return r.max }

// ArtifactFunc adapts the registry to the state store's resume validation.
func (r *Registry) ArtifactFunc(sourcePDF string) func(int) string {
	book := BookName(sourcePDF)
	return func(n int) string {
		if p := r.Get(n); p != nil {
			return p.Artifact(book)
		}
		return ""
	}
}

// runStep times fn and records its outcome as step id on pr. fn returns
// the produced artifact (if any); an error marks the step failed and stops
// the caller from running later steps.
func runStep(pr *types.PhaseResult, id, desc string, fn func() (string, error)) bool {
	start := time.Now()
	output, err := fn()
	step := types.StepResult{
		ID:          id,
		Description: desc,
		Kind:        types.StepAuto,
		Status:      types.StepSuccess,
		Duration:    time.Since(start),
		OutputFile:  output,
	}
	if err != nil {
		step.Status = types.StepError
		step.Message = err.Error()
		var ce *types.ConvertError
		if errors.As(err, &ce) {
			step.Category = ce.Category
		}
	}
	pr.AddStep(step)
	return err == nil
}

// warnStep records a step that degraded to a warning.
func warnStep(pr *types.PhaseResult, id, desc, message string) {
	pr.AddStep(types.StepResult{
		ID:          id,
		Description: desc,
		Kind:        types.StepAuto,
		Status:      types.StepWarning,
		Message:     message,
	})
}

// stubStep records an inert agent or user placeholder so step numbering
// stays stable across the pipeline.
func stubStep(pr *types.PhaseResult, id, desc string, kind types.StepKind) {
	pr.AddStep(types.StepResult{
		ID:          id,
		Description: desc,
		Kind:        kind,
		Status:      types.StepSkipped,
	})
}
