// Package layout measures and wraps caption text for banner rendering and
// resolves fonts through an ordered provider chain that always ends in a
// built-in bitmap face.
package layout

import "strings"

// Measurer reports the rendered width of a string in pixels.
type Measurer interface {
	Measure(s string) float64
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(string) float64

func (f MeasurerFunc) Measure(s string) float64 { return f(s) }

// Wrap greedily packs whitespace-separated words into lines no wider than
// maxWidth. A word that is wider than maxWidth on its own is emitted as its
// own line rather than split.
func Wrap(text string, m Measurer, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var (
		lines   []string
		current string
	)
	for _, word := range words {
		trial := word
		if current != "" {
			trial = current + " " + word
		}
		if m.Measure(trial) <= maxWidth {
			current = trial
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// Widest returns the largest measured width among lines.
func Widest(lines []string, m Measurer) float64 {
	var widest float64
	for _, line := range lines {
		widest = max(widest, m.Measure(line))
	}
	return widest
}
