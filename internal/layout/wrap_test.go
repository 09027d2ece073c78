package layout

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// tenPerRune measures every rune as ten pixels wide.
var tenPerRune = MeasurerFunc(func(s string) float64 { return float64(utf8.RuneCountInString(s) * 10) })

func TestWrapGreedy(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"fits on one line", "hello world", 200, []string{"hello world"}},
		{"breaks between words", "the quick brown fox", 100, []string{"the quick", "brown fox"}},
		{"exact fit", "abcd efgh", 90, []string{"abcd efgh"}},
		{"collapses whitespace", "  a \n b\t c ", 1000, []string{"a b c"}},
		{"long word alone", "a incomprehensibilities b", 50, []string{"a", "incomprehensibilities", "b"}},
		{"long first word", "incomprehensibilities is long", 80, []string{"incomprehensibilities", "is long"}},
		{"empty", "   ", 100, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Wrap(tc.text, tenPerRune, tc.width)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
				t.Fatalf("Wrap = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWrapLinesFitOrAreSingleWords(t *testing.T) {
	text := "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua"
	for _, width := range []float64{10, 45, 80, 120, 333, 5000} {
		lines := Wrap(text, tenPerRune, width)
		if strings.Join(lines, " ") != strings.Join(strings.Fields(text), " ") {
			t.Fatalf("width %v: words lost or reordered: %q", width, lines)
		}
		for _, line := range lines {
			if tenPerRune.Measure(line) > width && strings.Contains(line, " ") {
				t.Fatalf("width %v: line %q overflows", width, line)
			}
		}
	}
}

func TestWidest(t *testing.T) {
	if got := Widest([]string{"ab", "abcd", "a"}, tenPerRune); got != 40 {
		t.Fatalf("Widest = %v, want 40", got)
	}
}
