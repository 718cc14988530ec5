// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package marker

import (
	"strings"
	"unicode"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// A Pass is one pure text-to-text transform over marker-annotated text.
// Passes never touch page-break comments.
type Pass func(text string) string

// Apply runs the passes in order.
func Apply(text string, passes ...Pass) string {
	for _, p := range passes {
		text = p(text)
	}
	return text
}

// markdownUnsafe are characters with Markdown meaning that extracted prose
// must carry literally.
const markdownUnsafe = "*_`[]"

// EscapeMarkdown backslash-escapes Markdown-significant characters inside
// and outside markers so extracted glyphs survive rendering verbatim.
func EscapeMarkdown(text string) string {
	return mapLines(text, func(line string) string {
		segments := ParseLine(line)
		for i := range segments {
			if segments[i].Marker != nil {
				segments[i].Marker.Text = escapeUnsafe(segments[i].Marker.Text)
			} else {
				segments[i].Text = escapeUnsafe(segments[i].Text)
			}
		}
		return RenderSegments(segments)
	})
}

func escapeUnsafe(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(markdownUnsafe, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DropMarkers removes markers whose signature carries the drop label
// (footers, watermarks, page numbers, icon glyphs). Lines left empty
// disappear entirely.
func DropMarkers(m *types.SignatureMap) Pass {
	dropped := map[int]bool{}
	for _, sig := range m.Signatures {
		if sig.Label == types.LabelDrop {
			dropped[sig.ID] = true
		}
	}
	return func(text string) string {
		var out []string
		for _, line := range strings.Split(text, "\n") {
			if IsPageBreak(line) {
				out = append(out, line)
				continue
			}
			segments := ParseLine(line)
			kept := segments[:0]
			removed := false
			for _, seg := range segments {
				if seg.Marker != nil && dropped[seg.Marker.ID] {
					removed = true
					continue
				}
				kept = append(kept, seg)
			}
			rendered := RenderSegments(kept)
			if removed && strings.TrimSpace(PlainText(rendered)) == "" {
				continue
			}
			out = append(out, rendered)
		}
		return strings.Join(out, "\n")
	}
}

// Dehyphenate joins words split by a line-break hyphen. The fragment moves
// only between plain text, or between markers sharing one signature, so
// distinct markers are never fused.
func Dehyphenate(text string) string {
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines)-1; i++ {
		if IsPageBreak(lines[i]) || IsPageBreak(lines[i+1]) {
			continue
		}
		joined, rest, ok := joinHyphenated(lines[i], lines[i+1])
		if !ok {
			continue
		}
		lines[i] = joined
		if strings.TrimSpace(PlainText(rest)) == "" {
			lines = append(lines[:i+1], lines[i+2:]...)
		} else {
			lines[i+1] = rest
		}
	}
	return strings.Join(lines, "\n")
}

// joinHyphenated moves the leading word fragment of next onto a hyphenated
// cur, when both sides live in compatible segments.
func joinHyphenated(cur, next string) (joined, rest string, ok bool) {
	curSegs, nextSegs := ParseLine(cur), ParseLine(next)
	if len(curSegs) == 0 || len(nextSegs) == 0 {
		return "", "", false
	}
	last, first := &curSegs[len(curSegs)-1], &nextSegs[0]

	lastText := segText(last)
	if !strings.HasSuffix(lastText, "-") || len(lastText) < 2 ||
		!unicode.IsLetter(rune(lastText[len(lastText)-2])) {
		return "", "", false
	}
	firstText := segText(first)
	fragment, remainder := splitFirstWord(firstText)
	if fragment == "" || !unicode.IsLower(rune(fragment[0])) {
		return "", "", false
	}
	if (last.Marker == nil) != (first.Marker == nil) {
		return "", "", false
	}
	if last.Marker != nil && last.Marker.ID != first.Marker.ID {
		return "", "", false
	}

	setSegText(last, strings.TrimSuffix(lastText, "-")+fragment)
	setSegText(first, remainder)
	if segText(first) == "" && first.Marker != nil {
		nextSegs = nextSegs[1:]
	}
	return RenderSegments(curSegs), RenderSegments(nextSegs), true
}

func segText(s *Segment) string {
	if s.Marker != nil {
		return s.Marker.Text
	}
	return s.Text
}

func setSegText(s *Segment, text string) {
	if s.Marker != nil {
		s.Marker.Text = text
	} else {
		s.Text = text
	}
}

// splitFirstWord splits off the leading word and the trimmed remainder.
func splitFirstWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " ")
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		return s[:idx], strings.TrimLeft(s[idx:], " ")
	}
	return s, ""
}

// MergeParagraphs joins consecutive content lines into single paragraph
// lines. Two distinct markers are never fused into one: a line joins its
// predecessor only when both sides are plain text or both are markers with
// one signature, in which case the marker texts merge with a space.
func MergeParagraphs(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || IsPageBreak(line) || isBulletLine(line) {
			out = append(out, line)
			continue
		}
		if len(out) > 0 {
			prev := out[len(out)-1]
			if merged, ok := mergeLines(prev, line); ok {
				out[len(out)-1] = merged
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// mergeLines joins next onto prev when the join cannot fuse two distinct
// markers.
func mergeLines(prev, next string) (string, bool) {
	if strings.TrimSpace(prev) == "" || IsPageBreak(prev) || isBulletLine(prev) {
		return "", false
	}
	prevSegs, nextSegs := ParseLine(prev), ParseLine(next)
	if len(prevSegs) == 0 || len(nextSegs) == 0 {
		return "", false
	}
	last, first := &prevSegs[len(prevSegs)-1], &nextSegs[0]

	switch {
	case last.Marker == nil && first.Marker == nil:
		return prev + " " + next, true
	case last.Marker != nil && first.Marker != nil && last.Marker.ID == first.Marker.ID:
		last.Marker.Text = strings.TrimRight(last.Marker.Text, " ") + " " +
			strings.TrimLeft(first.Marker.Text, " ")
		rest := nextSegs[1:]
		merged := RenderSegments(prevSegs) + RenderSegments(rest)
		return merged, true
	}
	return "", false
}

// bulletGlyphs are the list glyphs normalized to "- ".
var bulletGlyphs = []string{"•", "●", "▪", "◦", "‣", "–", "\\*", "*"}

// NormalizeBullets rewrites leading bullet glyphs to Markdown list syntax.
func NormalizeBullets(text string) string {
	return mapLines(text, func(line string) string {
		segments := ParseLine(line)
		if len(segments) == 0 {
			return line
		}
		first := &segments[0]
		t := segText(first)
		trimmed := strings.TrimLeft(t, " ")
		for _, glyph := range bulletGlyphs {
			if strings.HasPrefix(trimmed, glyph+" ") || trimmed == glyph {
				setSegText(first, "- "+strings.TrimLeft(strings.TrimPrefix(trimmed, glyph), " "))
				return RenderSegments(segments)
			}
		}
		return line
	})
}

// isBulletLine reports a line already carrying list syntax.
func isBulletLine(line string) bool {
	t := strings.TrimLeft(PlainText(line), " ")
	return strings.HasPrefix(t, "- ")
}

// mapLines applies fn per line, leaving page-break comments untouched.
func mapLines(text string, fn func(string) string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if IsPageBreak(line) {
			continue
		}
		lines[i] = fn(line)
	}
	return strings.Join(lines, "\n")
}
