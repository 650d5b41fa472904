package slug

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile("[^a-z0-9]+")

// Make turns a title into a URL slug: diacritics are folded, everything
// outside [a-z0-9] collapses to a single hyphen.
func Make(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}

	folded = strings.ToLower(folded)
	folded = nonAlnum.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}

// WithTimestamp appends the unix timestamp of now to base. Used when the
// plain slug is already taken.
func WithTimestamp(base string, now time.Time) string {
	if base == "" {
		return fmt.Sprintf("%d", now.Unix())
	}
	return fmt.Sprintf("%s-%d", base, now.Unix())
}
