package repository

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Dotless and dotted i do not decompose to a base letter plus a mark.
var turkishFold = strings.NewReplacer("ı", "i", "İ", "I")

// FileName returns the ASCII document name for a province, e.g.
// "Şanlıurfa" becomes "Sanliurfa.json".
func FileName(code int, name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, turkishFold.Replace(name))
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte('-')
		case r < unicode.MaxASCII && unicode.IsPrint(r):
			b.WriteRune(r)
		}
	}
	base := strings.TrimSpace(b.String())
	if base == "" || base == "." || base == ".." {
		base = "province-" + strconv.Itoa(code)
	}
	return base + ".json"
}
