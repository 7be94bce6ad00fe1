package facematch

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName folds a student name for comparison: no diacritics, lowercase,
// dashes and underscores as spaces, runs of whitespace collapsed.
func NormalizeName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// NameFromFilename returns the normalized name encoded in an enrollment photo
// filename, e.g. "5A-01_rohan-kumar.jpg" -> "rohan kumar". A leading token
// containing a digit is taken as a roll number and returned separately.
func NameFromFilename(path string) (name, rollNumber string) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if prefix, rest, ok := strings.Cut(base, "_"); ok && strings.ContainsAny(prefix, "0123456789") {
		return NormalizeName(rest), strings.ToUpper(prefix)
	}
	return NormalizeName(base), ""
}
