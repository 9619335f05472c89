// Package norm folds French labels and headers so that "Année", "ANNEE" and
// "annee " compare equal, and transcodes legacy encodings to UTF-8.
package norm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases, strips accents and trims s (e.g. " Année" -> "annee").
func Fold(s string) string {
	result, _, _ := transform.String(stripAccents, strings.ToLower(strings.TrimSpace(s)))
	return result
}

// Upper is Fold upper-cased, used for enum-like labels ("Tertiaire" -> "TERTIAIRE").
func Upper(s string) string {
	return strings.ToUpper(Fold(s))
}

// Header folds a CSV/XLSX column name: BOM removed, accents stripped,
// typographic apostrophes unified and inner whitespace collapsed.
func Header(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.NewReplacer("\u2019", "'", "\u00a0", " ").Replace(s)
	return strings.Join(strings.Fields(Fold(s)), " ")
}
