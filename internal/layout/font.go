package layout

import (
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Font is a face resolved at a specific size together with its provenance.
type Font struct {
	Face font.Face
	// Source names the provider that produced Face (a file path or "builtin").
	Source string
	// Builtin marks the fixed-size bitmap fallback. It cannot be scaled to
	// the requested size and is drawn without an outline.
	Builtin bool
	covers  func(rune) bool
}

// Covers reports whether the face has a glyph for r.
func (f Font) Covers(r rune) bool {
	if f.covers == nil {
		return true
	}
	return f.covers(r)
}

// CoversAll reports whether every non-space rune of s has a glyph.
func (f Font) CoversAll(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if !f.Covers(r) {
			return false
		}
	}
	return true
}

// Measure returns the advance width of s. When the face lacks glyphs for some
// runes the width of the ASCII-stripped text is returned instead.
func (f Font) Measure(s string) float64 {
	if !f.CoversAll(s) {
		s = StripNonASCII(s)
	}
	return fixedToFloat(font.MeasureString(f.Face, s))
}

// LineHeight returns the face's recommended line height in pixels.
func (f Font) LineHeight() float64 {
	return fixedToFloat(f.Face.Metrics().Height)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	norm.NFC,
)

// StripNonASCII decomposes s and drops every rune outside ASCII, so accented
// letters keep their base letter.
func StripNonASCII(s string) string {
	out, _, err := transform.String(asciiFold, s)
	if err != nil {
		return ""
	}
	return out
}
