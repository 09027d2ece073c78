package banner

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	"\u2013", "-",
	"\u2014", "-",
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2026", "...",
	"\u00a0", " ",
	"\u200b", "",
)

// Sanitize composes s to NFC and replaces typographic punctuation with plain
// ASCII equivalents so common fonts can draw it.
func Sanitize(s string) string {
	return punctuation.Replace(norm.NFC.String(s))
}
