package shared

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText trims s and brings it to Unicode NFC, so composed and decomposed
// spellings of the same name store and compare identically.
func CleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
