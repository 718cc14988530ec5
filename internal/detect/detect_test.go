// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

func defaultCfg() (types.CensusConfig, types.DetectConfig) {
	cfg := types.DefaultConvertConfig()
	return cfg.Census, cfg.Detect
}

// observeN records n occurrences of the same span.
func observeN(m *types.SignatureMap, n int, size float64, family, sample string) *types.FontSignature {
	var sig *types.FontSignature
	for i := 0; i < n; i++ {
		sig = m.Observe(size, family, false, false, sample)
	}
	return sig
}

func TestRefine_PromotesAllCapsHeadingToH1(t *testing.T) {
	m := types.NewSignatureMap()
	body := observeN(m, 50, 12, "BookBody", "Ordinary running text.")
	body.Label = types.LabelBody
	head := observeN(m, 3, 20, "BookHead", "CHAPTER ONE")

	censusCfg, detectCfg := defaultCfg()
	Refine(m, censusCfg, detectCfg, nil)

	assert.Equal(t, types.LabelH1, head.Label)
	assert.Equal(t, types.LabelBody, body.Label)
}

func TestRefine_TitleCaseAboveBaseline(t *testing.T) {
	m := types.NewSignatureMap()
	body := observeN(m, 50, 10, "BookBody", "Ordinary running text.")
	body.Label = types.LabelBody
	head := observeN(m, 3, 16, "BookHead", "Combat and Initiative Order")

	censusCfg, detectCfg := defaultCfg()
	Refine(m, censusCfg, detectCfg, nil)

	require.Greater(t, head.Label.HeadingLevel(), 0)
}

func TestRefine_NeverOverwritesSeededLabels(t *testing.T) {
	m := types.NewSignatureMap()
	seeded := observeN(m, 3, 20, "BookHead", "CHAPTER ONE")
	seeded.Label = types.LabelH3
	observeN(m, 50, 10, "BookBody", "Ordinary running text.").Label = types.LabelBody

	censusCfg, detectCfg := defaultCfg()
	Refine(m, censusCfg, detectCfg, nil)

	// The seeded H3 is the only heading, so the single-H1 pass promotes it;
	// the content heuristics themselves must not have touched it first.
	assert.Equal(t, types.LabelH1, seeded.Label)
}

func TestRefine_GMKeyword(t *testing.T) {
	m := types.NewSignatureMap()
	sig := observeN(m, 5, 10, "BookItalic", "GM Note: the door is trapped.")

	censusCfg, detectCfg := defaultCfg()
	Refine(m, censusCfg, detectCfg, nil)

	assert.Equal(t, types.CalloutLabel("gm"), sig.Label)
}

func TestRefine_ReadAloudKeyword(t *testing.T) {
	m := types.NewSignatureMap()
	sig := observeN(m, 5, 10, "BookItalic", "Read Aloud: the cavern opens before you.")

	censusCfg, detectCfg := defaultCfg()
	Refine(m, censusCfg, detectCfg, nil)

	assert.Equal(t, types.CalloutLabel("readaloud"), sig.Label)
}

func TestRefine_CalloutBlockMatch(t *testing.T) {
	m := types.NewSignatureMap()
	sig := observeN(m, 5, 10, "BookBox", "the walls drip with moisture")

	callouts := []types.CalloutOccurrence{{
		Label:     "readaloud",
		StartLine: 10,
		EndLine:   14,
		Text:      "As you enter, the walls drip with moisture and the air grows cold.",
	}}

	censusCfg, detectCfg := defaultCfg()
	Refine(m, censusCfg, detectCfg, callouts)

	assert.Equal(t, types.CalloutLabel("readaloud"), sig.Label)
}

func TestRefine_BodyBandAssignment(t *testing.T) {
	m := types.NewSignatureMap()
	sig := observeN(m, 50, 10, "BookBody", "Ordinary running text.")

	censusCfg, detectCfg := defaultCfg()
	Refine(m, censusCfg, detectCfg, nil)

	assert.Equal(t, types.LabelBody, sig.Label)
}

func TestEnsureSingleH1_DemotesExtraH1s(t *testing.T) {
	m := types.NewSignatureMap()
	big := observeN(m, 2, 24, "HeadA", "TITLE")
	big.Label = types.LabelH1
	small := observeN(m, 4, 18, "HeadB", "SUBTITLE")
	small.Label = types.LabelH1

	EnsureSingleH1(m)

	assert.Equal(t, types.LabelH1, big.Label)
	assert.Equal(t, types.LabelH2, small.Label)
}

func TestEnsureSingleH1_PromotesAndDemotesPeers(t *testing.T) {
	m := types.NewSignatureMap()
	big := observeN(m, 2, 24, "HeadA", "PART ONE")
	big.Label = types.LabelH2
	peer := observeN(m, 4, 18, "HeadB", "Overview")
	peer.Label = types.LabelH2
	deeper := observeN(m, 6, 14, "HeadC", "Details")
	deeper.Label = types.LabelH3

	EnsureSingleH1(m)

	assert.Equal(t, types.LabelH1, big.Label)
	assert.Equal(t, types.LabelH3, peer.Label)
	assert.Equal(t, types.LabelH3, deeper.Label)
}

func TestEnsureSingleH1_NoHeadingsIsNoOp(t *testing.T) {
	m := types.NewSignatureMap()
	body := observeN(m, 50, 10, "BookBody", "text")
	body.Label = types.LabelBody

	assert.Empty(t, EnsureSingleH1(m))
	assert.Equal(t, types.LabelBody, body.Label)
}

func TestIsAllCaps(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"CHAPTER ONE", true},
		{"CHAPTER 1: THE BEGINNING", true},
		{"Chapter One", false},
		{"123", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isAllCaps(tt.in); got != tt.want {
			t.Errorf("isAllCaps(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"The Lay of the Land", true},
		{"Combat and Initiative", true},
		{"ordinary running text", false},
		{"Mostly lowercase words here", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isTitleCase(tt.in); got != tt.want {
			t.Errorf("isTitleCase(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
