// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CensusConfig holds the tunable thresholds of the font census. The
// defaults are empirically chosen; they are configuration, not constants,
// so unusual documents can adjust them without a rebuild.
type CensusConfig struct {
	// SamplePages caps how many pages the census surveys (0 = all).
	SamplePages int `json:"sample_pages" yaml:"sample_pages" mapstructure:"sample_pages"`

	// FooterFrequency is the fraction of pages a signature must appear on
	// to qualify as repeating page furniture (default 0.8).
	FooterFrequency float64 `json:"footer_frequency" yaml:"footer_frequency" mapstructure:"footer_frequency"`

	// EdgeBand is the fraction of page height treated as the top or bottom
	// band for position-gated classification (default 0.1).
	EdgeBand float64 `json:"edge_band" yaml:"edge_band" mapstructure:"edge_band"`

	// IconMaxSize is the font size below which short glyph-like content is
	// classified as an icon font (default 8.0 pt).
	IconMaxSize float64 `json:"icon_max_size" yaml:"icon_max_size" mapstructure:"icon_max_size"`

	// BodyBandMin and BodyBandMax bound the plausible body-text size band
	// used to derive the body baseline (defaults 9.0 and 13.0).
	BodyBandMin float64 `json:"body_band_min" yaml:"body_band_min" mapstructure:"body_band_min"`
	BodyBandMax float64 `json:"body_band_max" yaml:"body_band_max" mapstructure:"body_band_max"`

	// DefaultBodySize applies when no signature falls inside the body band
	// (default 10.0).
	DefaultBodySize float64 `json:"default_body_size" yaml:"default_body_size" mapstructure:"default_body_size"`

	// HeadingLevels caps how many distinct heading sizes become candidates
	// (default 4).
	HeadingLevels int `json:"heading_levels" yaml:"heading_levels" mapstructure:"heading_levels"`
}

// DetectConfig holds the content-driven signals of the detection phase.
type DetectConfig struct {
	// GMKeywords label a signature callout_gm when its samples contain any
	// of them. Extended by the --gm-keyword flag.
	GMKeywords []string `json:"gm_keywords" yaml:"gm_keywords" mapstructure:"gm_keywords"`

	// ReadAloudKeywords label a signature callout_readaloud.
	ReadAloudKeywords []string `json:"read_aloud_keywords" yaml:"read_aloud_keywords" mapstructure:"read_aloud_keywords"`
}

// PreflightConfig gates conversion on extractable text.
type PreflightConfig struct {
	// MinCharsPerPage is the minimum average extractable characters per
	// sampled page; below it the document is likely scanned and conversion
	// aborts unless confirmed (default 100).
	MinCharsPerPage int `json:"min_chars_per_page" yaml:"min_chars_per_page" mapstructure:"min_chars_per_page"`

	// SamplePages caps how many pages pre-flight samples (default 10).
	SamplePages int `json:"sample_pages" yaml:"sample_pages" mapstructure:"sample_pages"`
}

// LintConfig controls the markdownlint collaborator.
type LintConfig struct {
	// Binary is the linter executable name (default "markdownlint").
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// Timeout is the wall-clock limit for the subprocess; on expiry the
	// lint step degrades to a warning (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ConvertConfig groups all tunable settings of the conversion pipeline,
// bound through viper from pdf-convert.yaml and PDF_CONVERT_* variables.
type ConvertConfig struct {
	Census    CensusConfig    `json:"census" yaml:"census" mapstructure:"census"`
	Detect    DetectConfig    `json:"detect" yaml:"detect" mapstructure:"detect"`
	Preflight PreflightConfig `json:"preflight" yaml:"preflight" mapstructure:"preflight"`
	Lint      LintConfig      `json:"lint" yaml:"lint" mapstructure:"lint"`
}

// DefaultConvertConfig returns the configuration with every threshold at
// its documented default.
func DefaultConvertConfig() ConvertConfig {
	return ConvertConfig{
		Census: CensusConfig{
			SamplePages:     0,
			FooterFrequency: 0.8,
			EdgeBand:        0.1,
			IconMaxSize:     8.0,
			BodyBandMin:     9.0,
			BodyBandMax:     13.0,
			DefaultBodySize: 10.0,
			HeadingLevels:   4,
		},
		Detect: DetectConfig{
			GMKeywords:        []string{"GM Note", "Gamemaster", "Game Master", "DM Note"},
			ReadAloudKeywords: []string{"Read Aloud", "read the following", "boxed text"},
		},
		Preflight: PreflightConfig{
			MinCharsPerPage: 100,
			SamplePages:     10,
		},
		Lint: LintConfig{
			Binary:  "markdownlint",
			Timeout: 60 * time.Second,
		},
	}
}
