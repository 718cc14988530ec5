// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// SchemaVersion is the current on-disk version of the state record.
// Loading rejects files whose major version differs.
const SchemaVersion = "2.0"

// ConversionStatus is the overall status of a conversion run.
type ConversionStatus string

const (
	StatusInProgress ConversionStatus = "in_progress"
	StatusCompleted  ConversionStatus = "completed"
	StatusFailed     ConversionStatus = "failed"
	StatusCancelled  ConversionStatus = "cancelled"
)

// stepIDRe matches a "phase.step" identifier such as "4.2".
var stepIDRe = regexp.MustCompile(`^(\d|10)\.\d+$`)

// ValidStepID reports whether s is a well-formed "phase.step" identifier
// for a phase in [0,10].
func ValidStepID(s string) bool {
	return stepIDRe.MatchString(s)
}

// ConversionState is the durable record of one conversion, persisted as
// .state.json in the output directory. Paths are always absolute. The
// completed-phase set is strictly sorted and every member is strictly less
// than CurrentPhase. The record is mutated only by phase-completion and
// phase-failure transitions, and replaced wholesale only when the user
// explicitly starts fresh over an existing output directory.
type ConversionState struct {
	// Version is the state schema version (SchemaVersion at write time).
	Version string `json:"version"`

	// SourcePDF is the absolute path of the input PDF.
	SourcePDF string `json:"source_pdf"`

	// OutputDir is the absolute path of the output directory.
	OutputDir string `json:"output_dir"`

	// StartedAt is when the conversion was first created.
	StartedAt time.Time `json:"started_at"`

	// UpdatedAt is when the record was last persisted.
	UpdatedAt time.Time `json:"updated_at"`

	// CurrentPhase is the phase the pipeline is in or about to enter (0-10).
	CurrentPhase int `json:"current_phase"`

	// CurrentStep is the "phase.step" identifier of the most recent step.
	CurrentStep string `json:"current_step"`

	// CompletedPhases lists finished phase numbers, sorted ascending,
	// deduplicated, all strictly below CurrentPhase.
	CompletedPhases []int `json:"completed_phases"`

	// PhaseResults holds raw per-phase result snapshots in execution order.
	PhaseResults []PhaseResult `json:"phase_results,omitempty"`

	// Status is the overall conversion status.
	Status ConversionStatus `json:"status"`

	// Error carries detail of the most recent phase failure, if any.
	Error *ErrorInfo `json:"error,omitempty"`

	// Diagnostics requests a diagnostic bundle at the end of the run.
	Diagnostics bool `json:"diagnostics,omitempty"`

	// Config echoes CLI arguments and resolved option paths: custom GM
	// keywords, the resolved callout-config path, and similar free-form
	// settings a resume must reproduce.
	Config map[string]any `json:"config,omitempty"`
}

// ErrorInfo describes a phase failure embedded in the state record.
// Created only on failure transitions.
type ErrorInfo struct {
	// Phase is the failing phase number.
	Phase int `json:"phase"`

	// Step is the "phase.step" identifier of the failing step, if known.
	Step string `json:"step,omitempty"`

	// Code is the error category of the failure.
	Code ErrorCategory `json:"code"`

	// Message is the human-readable failure description.
	Message string `json:"message"`

	// Recoverable reports whether a targeted re-run can succeed without
	// starting over.
	Recoverable bool `json:"recoverable"`

	// Remediation is a suggested command addressing the failure, typically
	// a single-phase re-run.
	Remediation string `json:"remediation,omitempty"`
}

// NewConversionState creates an in-progress state for a fresh conversion.
// Both paths must already be absolute.
func NewConversionState(sourcePDF, outputDir string) *ConversionState {
	now := time.Now().UTC()
	return &ConversionState{
		Version:      SchemaVersion,
		SourcePDF:    sourcePDF,
		OutputDir:    outputDir,
		StartedAt:    now,
		UpdatedAt:    now,
		CurrentPhase: 0,
		CurrentStep:  "0.0",
		Status:       StatusInProgress,
		Config:       map[string]any{},
	}
}

// PhaseCompleted reports whether phase n is in the completed set.
func (s *ConversionState) PhaseCompleted(n int) bool {
	for _, p := range s.CompletedPhases {
		if p == n {
			return true
		}
	}
	return false
}

// MarkPhaseComplete records phase n as completed, keeping the set sorted
// and deduplicated, appends the result snapshot, and advances CurrentPhase
// past n if it lagged behind.
func (s *ConversionState) MarkPhaseComplete(n int, result PhaseResult) {
	if !s.PhaseCompleted(n) {
		s.CompletedPhases = append(s.CompletedPhases, n)
		sort.Ints(s.CompletedPhases)
	}
	s.PhaseResults = append(s.PhaseResults, result)
	if s.CurrentPhase <= n {
		s.CurrentPhase = n + 1
	}
	s.Error = nil
	s.UpdatedAt = time.Now().UTC()
}

// MarkPhaseFailed records a failure in phase n and halts the pipeline at it.
func (s *ConversionState) MarkPhaseFailed(n int, info ErrorInfo) {
	s.CurrentPhase = n
	s.Status = StatusFailed
	s.Error = &info
	s.UpdatedAt = time.Now().UTC()
}

// EnterPhase records that the pipeline is about to execute phase n, so a
// crash mid-phase resumes at n rather than skipping it.
func (s *ConversionState) EnterPhase(n int) {
	s.CurrentPhase = n
	s.CurrentStep = fmt.Sprintf("%d.0", n)
	s.Status = StatusInProgress
	s.UpdatedAt = time.Now().UTC()
}

// NextPhase returns the phase a resume should execute: max(completed)+1,
// or 0 when nothing has completed.
func (s *ConversionState) NextPhase() int {
	if len(s.CompletedPhases) == 0 {
		return 0
	}
	return s.CompletedPhases[len(s.CompletedPhases)-1] + 1
}
