package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	lower      = cases.Lower(language.Und)
	genderRepl = strings.NewReplacer("♀", "-f", "♂", "-m")
)

// Slug converts an entity name to a URL path segment:
// "Mr. Mime" -> "mr-mime", "Nidoran♀" -> "nidoran-f", "Flabébé" -> "flabebe".
func Slug(name string) string {
	s := lower.String(strings.TrimSpace(name))
	s = genderRepl.Replace(s)

	// Drop combining marks after canonical decomposition.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r) || r == '-':
			pendingHyphen = true
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
