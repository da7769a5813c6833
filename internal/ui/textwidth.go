package ui

import (
	"github.com/mattn/go-runewidth"
)

// ellipsis marks text cut off at the right edge of a field.
const ellipsis = "…"

// RuneWidth returns the number of cells r takes. Control characters and
// combining marks take none.
func RuneWidth(r rune) int {
	return max(runewidth.RuneWidth(r), 0)
}

// StringWidth returns the number of cells s takes.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// TruncateToWidth cuts s to at most maxWidth cells without splitting a
// wide character.
func TruncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, "")
}

// TruncateToWidthWithEllipsis cuts s to maxWidth cells, ending in an
// ellipsis when anything was cut.
func TruncateToWidthWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, ellipsis)
}
