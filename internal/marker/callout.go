// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package marker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/pdiddy/rulebook-engine/internal/fsutil"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// CalloutConfigFileName is the resolved callout configuration written by
// the boundary-detection phase.
const CalloutConfigFileName = "callout_config.json"

// DetectBoundaries finds every occurrence of each definition's
// (start, end) pair across the annotated text, in document order.
// A region whose end text never appears closes at end of document.
func DetectBoundaries(text string, defs []types.CalloutDef) []types.CalloutOccurrence {
	lines := strings.Split(text, "\n")
	var occurrences []types.CalloutOccurrence

	for i := 0; i < len(lines); i++ {
		plain := PlainText(lines[i])
		def := matchStart(plain, defs)
		if def == nil {
			continue
		}

		end := len(lines) - 1
		for j := i; j < len(lines); j++ {
			candidate := PlainText(lines[j])
			if j > i && matchStart(candidate, defs) != nil {
				end = j - 1
				break
			}
			if def.EndText != "" && strings.Contains(candidate, def.EndText) {
				end = j
				break
			}
		}

		var block []string
		for j := i; j <= end; j++ {
			block = append(block, PlainText(lines[j]))
		}
		occurrences = append(occurrences, types.CalloutOccurrence{
			Label:     def.Label,
			StartLine: i,
			EndLine:   end,
			Text:      strings.TrimSpace(strings.Join(block, "\n")),
		})
		i = end
	}
	return occurrences
}

// matchStart returns the definition whose start text the line contains.
func matchStart(plain string, defs []types.CalloutDef) *types.CalloutDef {
	for i := range defs {
		if defs[i].StartText != "" && strings.Contains(plain, defs[i].StartText) {
			return &defs[i]
		}
	}
	return nil
}

// LoadCalloutDefs reads callout definitions from a user-supplied JSON or
// YAML file. An empty path returns the default empty set.
func LoadCalloutDefs(path string) ([]types.CalloutDef, error) {
	if path == "" {
		return nil, nil
	}
	var cfg types.CalloutConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, types.NewError(types.ErrFile, err, "reading callout config %s", path)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, types.NewError(types.ErrFile, err, "parsing callout config %s", path)
		}
	default:
		if err := fsutil.ReadJSON(path, &cfg); err != nil {
			return nil, types.NewError(types.ErrFile, err, "reading callout config %s", path)
		}
	}
	for i, def := range cfg.Definitions {
		if def.StartText == "" || def.Label == "" {
			return nil, types.NewError(types.ErrFile, nil,
				"callout definition %d in %s needs start_text and label", i, path)
		}
	}
	return cfg.Definitions, nil
}

// SaveCalloutConfig writes the resolved configuration atomically into the
// output directory.
func SaveCalloutConfig(dir string, cfg types.CalloutConfig) error {
	if cfg.Definitions == nil {
		cfg.Definitions = []types.CalloutDef{}
	}
	path := filepath.Join(dir, CalloutConfigFileName)
	if err := fsutil.AtomicWriteJSON(path, cfg); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadCalloutConfig reads the resolved configuration; absent means the
// detection phase has not run, which later phases treat as no callouts.
func LoadCalloutConfig(dir string) (types.CalloutConfig, error) {
	var cfg types.CalloutConfig
	err := fsutil.ReadJSON(filepath.Join(dir, CalloutConfigFileName), &cfg)
	if os.IsNotExist(err) {
		return types.CalloutConfig{}, nil
	}
	return cfg, err
}
