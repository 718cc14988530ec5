// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lint runs the external markdownlint tool over the final Markdown
// and reduces its output to pass/fail plus a per-rule summary. The linter
// is advisory: a missing binary or an expired timeout degrades the lint
// step to a warning, never a failure.
package lint

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// Status is the reduced outcome of a lint run.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusIssues  Status = "issues"
	StatusSkipped Status = "skipped"
)

// Result summarizes one lint run.
type Result struct {
	Status Status `json:"status"`

	// Issues is the total finding count.
	Issues int `json:"issues"`

	// RuleCounts maps rule ids (e.g. "MD022") to finding counts.
	RuleCounts map[string]int `json:"rule_counts,omitempty"`

	// Message explains a skipped status.
	Message string `json:"message,omitempty"`
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunOutput(ctx context.Context, name string, args ...string) (output []byte, exitCode int, err error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunOutput(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, exitErr.ExitCode(), nil
	}
	if err != nil {
		return out, 0, err
	}
	return out, 0, nil
}

// Linter invokes markdownlint on Markdown files.
type Linter struct {
	cfg  types.LintConfig
	exec executor
}

// New builds a linter with the production executor.
func New(cfg types.LintConfig) *Linter {
	return &Linter{cfg: cfg, exec: &osExecutor{}}
}

// ruleRe matches markdownlint finding lines, e.g.
// "book.md:12 MD022/blanks-around-headings Headings should be ...".
var ruleRe = regexp.MustCompile(`\bMD\d{3}\b`)

// Run lints path. The subprocess is bounded by the configured timeout;
// on timeout or missing binary the result is skipped with an explanation.
func (l *Linter) Run(ctx context.Context, path string) Result {
	if _, err := l.exec.LookPath(l.cfg.Binary); err != nil {
		return Result{
			Status:  StatusSkipped,
			Message: fmt.Sprintf("%s not found on PATH", l.cfg.Binary),
		}
	}

	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	out, exitCode, err := l.exec.RunOutput(ctx, l.cfg.Binary, path)
	if ctx.Err() != nil {
		return Result{
			Status:  StatusSkipped,
			Message: fmt.Sprintf("%s timed out after %s", l.cfg.Binary, l.cfg.Timeout),
		}
	}
	if err != nil {
		return Result{
			Status:  StatusSkipped,
			Message: fmt.Sprintf("running %s: %v", l.cfg.Binary, err),
		}
	}
	if exitCode == 0 {
		return Result{Status: StatusPassed}
	}

	counts := map[string]int{}
	total := 0
	for _, line := range strings.Split(string(out), "\n") {
		if rule := ruleRe.FindString(line); rule != "" {
			counts[rule]++
			total++
		}
	}
	return Result{Status: StatusIssues, Issues: total, RuleCounts: counts}
}

// Summary renders the result as a one-line report entry.
func (r Result) Summary() string {
	switch r.Status {
	case StatusPassed:
		return "lint passed"
	case StatusSkipped:
		return "lint skipped: " + r.Message
	}
	rules := make([]string, 0, len(r.RuleCounts))
	for rule, n := range r.RuleCounts {
		rules = append(rules, fmt.Sprintf("%s x%d", rule, n))
	}
	sort.Strings(rules)
	return fmt.Sprintf("lint found %d issues (%s)", r.Issues, strings.Join(rules, ", "))
}
