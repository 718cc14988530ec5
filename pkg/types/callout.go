// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CalloutDef bounds one kind of special region: every block starting with
// StartText and ending with EndText renders as a blockquote labeled Label.
// User-supplied through the callout config file; the default set is empty.
type CalloutDef struct {
	// StartText opens the region, e.g. "GM Note:".
	StartText string `json:"start_text" yaml:"start_text"`

	// EndText closes the region, e.g. "End Note". A region missing its end
	// boundary is closed by structural breaks during resolution.
	EndText string `json:"end_text" yaml:"end_text"`

	// Label is the callout kind, e.g. "gm" or "readaloud".
	Label string `json:"label" yaml:"label"`
}

// CalloutOccurrence is one boundary-detected region in the extracted text,
// identified by line offsets into the marker-annotated document.
type CalloutOccurrence struct {
	// Label is the callout kind of the matched definition.
	Label string `json:"label"`

	// StartLine and EndLine are inclusive zero-based line offsets.
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`

	// Text is the plain text of the bounded block, used by detection to
	// match signatures against exact callout content.
	Text string `json:"text"`
}

// CalloutConfig is the resolved callout configuration persisted as
// callout_config.json: the definitions in effect plus every occurrence the
// boundary detector found.
type CalloutConfig struct {
	// Source is the path the definitions were loaded from, or "" when the
	// default empty set applied.
	Source string `json:"source,omitempty"`

	// Definitions lists the callout boundaries in effect.
	Definitions []CalloutDef `json:"definitions"`

	// Occurrences lists detected regions in document order.
	Occurrences []CalloutOccurrence `json:"occurrences,omitempty"`
}
