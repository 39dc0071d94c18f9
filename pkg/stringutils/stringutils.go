package stringutils

import (
	"strings"
	"unicode/utf8"
)

// LeftJust pads text on the right with filler until it is width runes long.
func LeftJust(text string, filler string, width int) string {
	n := width - utf8.RuneCountInString(text)
	if n <= 0 || filler == "" {
		return text
	}

	return text + strings.Repeat(filler, n)
}

// Truncate shortens text to at most width runes, marking the cut with "…".
func Truncate(text string, width int) string {
	if width <= 0 || utf8.RuneCountInString(text) <= width {
		return text
	}

	r := []rune(text)
	return string(r[:width-1]) + "…"
}
