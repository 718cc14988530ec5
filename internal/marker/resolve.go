// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package marker

import (
	"fmt"
	"strings"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// activeCallout is the single callout region open during resolution.
type activeCallout struct {
	label   string
	endText string
}

// Resolve converts marker-annotated text into final Markdown in one linear
// pass. Headings take their level from the signature label; callout-labeled
// regions and boundary-defined regions become blockquotes. At most one
// callout is active at a time: unmarked continuation lines and blank lines
// inherit its prefix, and it ends on a heading, a differently labeled
// callout, a body-labeled marker, or its registered end-boundary text.
// Returns the Markdown and any warnings.
func Resolve(text string, m *types.SignatureMap, defs []types.CalloutDef) (string, []string) {
	byID := map[int]*types.FontSignature{}
	for _, sig := range m.Signatures {
		byID[sig.ID] = sig
	}
	endTexts := map[string]string{}
	for _, def := range defs {
		endTexts[def.Label] = def.EndText
	}

	var out []string
	var warnings []string
	var active *activeCallout

	for _, line := range strings.Split(text, "\n") {
		if IsPageBreak(line) {
			out = append(out, line)
			continue
		}

		plain := strings.TrimSpace(PlainText(line))
		if plain == "" {
			if active != nil {
				out = append(out, ">")
			} else {
				out = append(out, "")
			}
			continue
		}

		first := FirstMarker(line)
		var label types.StructuralLabel
		if first != nil {
			if sig := byID[first.ID]; sig != nil {
				label = sig.Label
			}
		}

		switch {
		case label.HeadingLevel() > 0:
			active = nil
			out = append(out, strings.Repeat("#", label.HeadingLevel())+" "+plain)

		case isCalloutLabel(label):
			kind, _ := label.IsCallout()
			if active == nil || active.label != kind {
				active = &activeCallout{label: kind, endText: endTexts[kind]}
			}
			out = append(out, "> "+plain)
			active = closeOnEndText(active, plain)

		case first != nil && label == types.LabelBody:
			// A body-labeled marker is ordinary prose; it ends any callout
			// unless it carries the region's start or sits before its end.
			if active != nil && active.endText != "" && strings.Contains(plain, active.endText) {
				out = append(out, "> "+plain)
				active = nil
				break
			}
			if def := matchStart(plain, defs); def != nil {
				active = &activeCallout{label: def.Label, endText: def.EndText}
				out = append(out, "> "+plain)
				active = closeOnEndText(active, plain)
				break
			}
			active = nil
			out = append(out, plain)

		default:
			// Unmarked or unlabeled content: a start boundary opens a
			// callout, otherwise continuation inherits the active prefix.
			if active == nil {
				if def := matchStart(plain, defs); def != nil {
					active = &activeCallout{label: def.Label, endText: def.EndText}
					out = append(out, "> "+plain)
					active = closeOnEndText(active, plain)
					break
				}
				out = append(out, plain)
				break
			}
			out = append(out, "> "+plain)
			active = closeOnEndText(active, plain)
		}
	}

	if active != nil {
		warnings = append(warnings,
			fmt.Sprintf("callout %q still open at end of document", active.label))
	}
	return strings.Join(out, "\n"), warnings
}

// closeOnEndText closes the callout when the line carries its registered
// end-boundary text.
func closeOnEndText(active *activeCallout, plain string) *activeCallout {
	if active != nil && active.endText != "" && strings.Contains(plain, active.endText) {
		return nil
	}
	return active
}

func isCalloutLabel(label types.StructuralLabel) bool {
	_, ok := label.IsCallout()
	return ok
}
