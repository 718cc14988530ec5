// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package phase

import (
	"fmt"
	"os"

	"github.com/pdiddy/rulebook-engine/internal/census"
	"github.com/pdiddy/rulebook-engine/internal/detect"
	"github.com/pdiddy/rulebook-engine/internal/marker"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// calloutPhase finds callout boundaries and persists the resolved config.
type calloutPhase struct{}

func (p *calloutPhase) Number() int            { return 6 }
func (p *calloutPhase) Name() string           { return "callout detection" }
func (p *calloutPhase) Artifact(string) string { return marker.CalloutConfigFileName }

func (p *calloutPhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(6, p.Name())

	if !runStep(&pr, "6.1", "detect callout boundaries", func() (string, error) {
		defs, err := marker.LoadCalloutDefs(pc.CalloutDefsPath)
		if err != nil {
			return "", err
		}
		raw, err := os.ReadFile(pc.Path(CleanedFileName))
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", CleanedFileName, err)
		}
		occurrences := marker.DetectBoundaries(string(raw), defs)
		pc.Progress("callouts: %d definitions, %d occurrences", len(defs), len(occurrences))
		return marker.CalloutConfigFileName, marker.SaveCalloutConfig(pc.OutputDir(), types.CalloutConfig{
			Source:      pc.CalloutDefsPath,
			Definitions: defs,
			Occurrences: occurrences,
		})
	}) {
		return pr
	}

	stubStep(&pr, "6.2", "review callout configuration", types.StepUser)
	return pr
}

// detectPhase refines structural labels from content signals.
type detectPhase struct{}

func (p *detectPhase) Number() int            { return 7 }
func (p *detectPhase) Name() string           { return "label detection" }
func (p *detectPhase) Artifact(string) string { return census.MappingFileName }

func (p *detectPhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(7, p.Name())

	if !runStep(&pr, "7.1", "refine structural labels", func() (string, error) {
		m, err := census.LoadMap(pc.OutputDir())
		if err != nil {
			return "", err
		}
		cfg, err := marker.LoadCalloutConfig(pc.OutputDir())
		if err != nil {
			return "", err
		}
		assignments := detect.Refine(m, pc.Config.Census, pc.Config.Detect, cfg.Occurrences)
		pc.Progress("detection: %d labels assigned", len(assignments))
		return census.MappingFileName, census.SaveMap(pc.OutputDir(), m)
	}) {
		return pr
	}

	stubStep(&pr, "7.2", "confirm ambiguous labels", types.StepAgent)
	return pr
}
