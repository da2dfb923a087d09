package constants

import (
	"regexp"
	"strings"
)

// AllowedExtensions holds the default file extensions accepted for processing.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// ImageExtensions holds extensions the photo naming template may keep.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// UnprocessedPrefix marks files whose model reply could not be parsed.
// They are renamed into a human-review bucket instead of failing.
const UnprocessedPrefix = "Unprocessed - "

var (
	reDocumentName = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} - `)
	rePhotoName    = regexp.MustCompile(`^\d{4} - `)
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsProcessedName reports whether a base filename already matches one of
// the produced naming templates. Used to skip already-renamed files during
// the startup scan and to keep our own renames from re-entering the queue.
func IsProcessedName(base string) bool {
	if strings.HasPrefix(base, UnprocessedPrefix) {
		return true
	}
	return reDocumentName.MatchString(base) || rePhotoName.MatchString(base)
}
