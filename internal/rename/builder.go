package rename

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rfields/scanwatch/constants"
	"github.com/rfields/scanwatch/internal/llm"
)

// UnknownField substitutes for a sender/subject/summary/location the
// model left empty.
const UnknownField = "Unknown"

// TargetFilename is a sanitized stem plus extension. Invariant: the
// rendered name contains no path separators or reserved characters and
// stays within the builder's length cap.
type TargetFilename struct {
	Stem string
	Ext  string // with leading dot
}

func (t TargetFilename) String() string { return t.Stem + t.Ext }

// Builder maps a classification onto the naming convention. Build is a
// pure function of its arguments; modTime stands in for the file's
// creation date when the model reports none.
type Builder struct {
	maxLen int
}

func NewBuilder(maxLen int) *Builder {
	if maxLen <= 0 {
		maxLen = 200
	}
	return &Builder{maxLen: maxLen}
}

func (b *Builder) Build(originalPath string, modTime time.Time, c llm.Classification) TargetFilename {
	ext := filepath.Ext(originalPath)

	var stem string
	switch c.Kind {
	case llm.KindDocument:
		date := c.Document.Date
		if date == "" {
			date = modTime.Format("2006-01-02")
		}
		stem = date + " - " + fieldOr(c.Document.Sender) + " - " + fieldOr(c.Document.Summary)

	case llm.KindPhoto:
		year := c.Photo.Year
		if year == 0 {
			year = modTime.Year()
		}
		stem = fmt.Sprintf("%04d", year) + " - " + fieldOr(c.Photo.Subject) + " - " + fieldOr(c.Photo.Location)
		// Photos always land on an image extension.
		if _, ok := constants.ImageExtensions[constants.NormalizeExt(ext)]; !ok {
			ext = ".jpg"
		}

	default:
		base := filepath.Base(originalPath)
		stem = constants.UnprocessedPrefix + strings.TrimSuffix(base, ext)
	}

	stem = sanitizeStem(stem)
	return TargetFilename{Stem: truncateStem(stem, b.maxLen-len(ext)), Ext: ext}
}

func fieldOr(s string) string {
	if clean := sanitizeField(s); clean != "" {
		return clean
	}
	return UnknownField
}

// truncateStem drops runes from the descriptive tail so the date/year
// prefix survives intact, then re-trims any separator left dangling.
func truncateStem(stem string, max int) string {
	if max < 0 {
		max = 0
	}
	runes := []rune(stem)
	if len(runes) <= max {
		return stem
	}
	return strings.Trim(string(runes[:max]), " .-")
}
