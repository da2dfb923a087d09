package rename

import (
	"regexp"
	"strings"
)

// Characters rejected by at least one of the filesystems a scanner share
// commonly crosses (NTFS is the strictest).
const illegalChars = `\/:*?"<>|`

var (
	reWhitespace   = regexp.MustCompile(`\s+`)
	reSepCollapse  = regexp.MustCompile(`(\s*-\s*){2,}`)
)

// sanitizeField strips filesystem-illegal and control characters from a
// single template field and collapses runs of whitespace.
func sanitizeField(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(illegalChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	out := reWhitespace.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(out)
}

// sanitizeStem cleans an assembled stem: collapses repeated separators
// (left behind by empty fields) and trims the leading/trailing dots,
// spaces, and hyphens that Windows refuses.
func sanitizeStem(s string) string {
	out := sanitizeField(s)
	out = reSepCollapse.ReplaceAllString(out, " - ")
	return strings.Trim(out, " .-")
}
