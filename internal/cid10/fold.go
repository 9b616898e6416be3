// Package cid10 generates and searches the static CID-10 reference data
// the clinic application ships: codes extracted from the DATASUS XML into
// a JSON artifact, plus the accent-folded lookup helper over it.
package cid10

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes to NFD, strips combining marks, and
// recomposes. "Cárie" and "carie" fold to the same string (after
// lowercasing).
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold normalizes a string for matching: diacritics removed, lowercased,
// surrounding space trimmed. Portuguese disease names are full of accents
// nobody types into a search box.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the
		// raw string rather than dropping the entry.
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
