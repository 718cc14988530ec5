// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package phase

import (
	"fmt"
	"os"
	"time"

	"github.com/pdiddy/rulebook-engine/internal/census"
	"github.com/pdiddy/rulebook-engine/internal/fsutil"
	"github.com/pdiddy/rulebook-engine/internal/lint"
	"github.com/pdiddy/rulebook-engine/internal/marker"
	"github.com/pdiddy/rulebook-engine/internal/report"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// resolvePhase converts the annotated text into the final Markdown.
type resolvePhase struct{}

func (p *resolvePhase) Number() int  { return 9 }
func (p *resolvePhase) Name() string { return "marker resolution" }

func (p *resolvePhase) Artifact(book string) string { return book + ".md" }

func (p *resolvePhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(9, p.Name())

	final := p.Artifact(BookName(pc.State.SourcePDF))
	runStep(&pr, "9.1", "resolve markers into Markdown", func() (string, error) {
		raw, err := os.ReadFile(pc.Path(StructuredFileName))
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", StructuredFileName, err)
		}
		m, err := census.LoadMap(pc.OutputDir())
		if err != nil {
			return "", err
		}
		cfg, err := marker.LoadCalloutConfig(pc.OutputDir())
		if err != nil {
			return "", err
		}
		markdown, warnings := marker.Resolve(string(raw), m, cfg.Definitions)
		for _, w := range warnings {
			pr.Warn("%s", w)
		}
		return final, fsutil.AtomicWriteFile(pc.Path(final), []byte(markdown), 0o644)
	})
	return pr
}

// reportPhase lints the result and writes the closing artifacts.
type reportPhase struct{}

func (p *reportPhase) Number() int            { return 10 }
func (p *reportPhase) Name() string           { return "report" }
func (p *reportPhase) Artifact(string) string { return report.ReportFileName }

func (p *reportPhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(10, p.Name())

	final := pc.Path(BookName(pc.State.SourcePDF) + ".md")
	source, err := os.ReadFile(final)
	if err != nil {
		pr.AddStep(types.StepResult{
			ID: "10.1", Description: "read final document",
			Kind: types.StepAuto, Status: types.StepError,
			Message: fmt.Sprintf("reading %s: %v", final, err),
		})
		return pr
	}

	linter := lint.New(pc.Config.Lint)
	res := linter.Run(pc.Ctx, final)
	switch res.Status {
	case lint.StatusPassed:
		runStep(&pr, "10.1", "lint final document", func() (string, error) { return "", nil })
	default:
		// Lint findings and a missing linter are advisory.
		warnStep(&pr, "10.1", "lint final document", res.Summary())
	}

	stats := report.ComputeStats(source)
	if !runStep(&pr, "10.2", "write conversion report", func() (string, error) {
		content := report.Render(pc.State, stats, res.Summary())
		return report.ReportFileName,
			fsutil.AtomicWriteFile(pc.Path(report.ReportFileName), []byte(content), 0o644)
	}) {
		return pr
	}

	if !runStep(&pr, "10.3", "write completion record", func() (string, error) {
		completion := report.Completion{
			Status:      types.StatusCompleted,
			SourcePDF:   pc.State.SourcePDF,
			OutputFile:  final,
			CompletedAt: time.Now().UTC(),
			Phases:      len(pc.State.CompletedPhases) + 1,
			Warnings:    report.CollectWarnings(pc.State),
			Lint:        res.Summary(),
			Stats:       stats,
		}
		return report.CompletionFileName,
			fsutil.AtomicWriteJSON(pc.Path(report.CompletionFileName), completion)
	}) {
		return pr
	}

	if pc.Diagnostics {
		runStep(&pr, "10.4", "write diagnostics bundle", func() (string, error) {
			bundled, err := report.WriteBundle(pc.OutputDir(), pc.Args)
			if err != nil {
				return "", err
			}
			pc.Progress("diagnostics: bundled %d files", len(bundled))
			return report.BundleFileName, nil
		})
	}
	return pr
}
