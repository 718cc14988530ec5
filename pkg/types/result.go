// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// StepStatus is the outcome of one pipeline step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepSuccess StepStatus = "success"
	StepWarning StepStatus = "warning"
	StepError   StepStatus = "error"
	StepSkipped StepStatus = "skipped"
)

// StepKind distinguishes automated steps from the inert placeholders kept
// for step-numbering continuity.
type StepKind string

const (
	// StepAuto is a normal automated step.
	StepAuto StepKind = "auto"

	// StepAgent is a placeholder for an external agent interaction. The
	// interaction protocol is out of scope; the step exists so step numbers
	// stay stable.
	StepAgent StepKind = "agent"

	// StepUser is a placeholder for a manual review step.
	StepUser StepKind = "user"
)

// StepResult records the outcome of one step within a phase. Results are
// ephemeral: rebuilt on every execution, never loaded back for decisions.
type StepResult struct {
	// ID is the stable "phase.index" identifier, e.g. "4.2".
	ID string `json:"id"`

	// Description says what the step does.
	Description string `json:"description"`

	// Kind is auto, agent, or user.
	Kind StepKind `json:"kind,omitempty"`

	// Status is the step outcome.
	Status StepStatus `json:"status"`

	// Category classifies a failed step's error when known; empty for
	// successful steps and for failures with no categorized cause.
	Category ErrorCategory `json:"category,omitempty"`

	// Duration is the wall-clock execution time.
	Duration time.Duration `json:"duration_ms"`

	// OutputFile is the artifact the step produced, if any.
	OutputFile string `json:"output_file,omitempty"`

	// Message carries step-specific detail, including warning text.
	Message string `json:"message,omitempty"`
}

// PhaseResult aggregates the step results of one phase execution.
type PhaseResult struct {
	// Phase is the phase number (0-10).
	Phase int `json:"phase"`

	// Name is the phase's short name.
	Name string `json:"name"`

	// Status is the aggregate outcome: the worst step status observed,
	// escalating monotonically (error > warning > success).
	Status StepStatus `json:"status"`

	// Steps lists per-step results in execution order.
	Steps []StepResult `json:"steps"`

	// Warnings accumulates warning messages raised during the phase.
	Warnings []string `json:"warnings,omitempty"`

	// Errors accumulates error messages raised during the phase.
	Errors []string `json:"errors,omitempty"`

	// Duration is the total phase execution time.
	Duration time.Duration `json:"duration_ms"`
}

// severity orders statuses for monotonic escalation.
func severity(s StepStatus) int {
	switch s {
	case StepError:
		return 3
	case StepWarning:
		return 2
	case StepSuccess, StepSkipped:
		return 1
	default:
		return 0
	}
}

// NewPhaseResult creates an empty result for phase n.
func NewPhaseResult(n int, name string) PhaseResult {
	return PhaseResult{Phase: n, Name: name, Status: StepSuccess}
}

// AddStep appends a step result and escalates the aggregate status. Warning
// and error messages are folded into the phase-level lists.
func (r *PhaseResult) AddStep(step StepResult) {
	r.Steps = append(r.Steps, step)
	r.Duration += step.Duration
	if severity(step.Status) > severity(r.Status) {
		r.Status = step.Status
	}
	switch step.Status {
	case StepWarning:
		if step.Message != "" {
			r.Warnings = append(r.Warnings, step.Message)
		}
	case StepError:
		if step.Message != "" {
			r.Errors = append(r.Errors, step.Message)
		}
	}
}

// Warn records a phase-level warning without a dedicated step.
func (r *PhaseResult) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
	if severity(StepWarning) > severity(r.Status) {
		r.Status = StepWarning
	}
}

// Failed reports whether the aggregate status is an error.
func (r *PhaseResult) Failed() bool { return r.Status == StepError }

// FailingStep returns the ID of the first errored step, or "" when none.
func (r *PhaseResult) FailingStep() string {
	for _, s := range r.Steps {
		if s.Status == StepError {
			return s.ID
		}
	}
	return ""
}

// FailingCategory returns the error category of the first errored step
// that carries one, or "" when no failed step was categorized.
func (r *PhaseResult) FailingCategory() ErrorCategory {
	for _, s := range r.Steps {
		if s.Status == StepError && s.Category != "" {
			return s.Category
		}
	}
	return ""
}
