package rename

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rfields/scanwatch/internal/common"
)

// Outcome reports a completed rename. Suffix is 0 when the first-choice
// name was free, otherwise the numeric disambiguator that was appended.
type Outcome struct {
	NewPath string
	Suffix  int
}

// Executor performs the atomic rename within the file's own directory.
// The original file is never deleted or truncated; on any failure it
// keeps its original name.
type Executor struct {
	maxAttempts int
	log         *slog.Logger
}

func NewExecutor(maxAttempts int, logger *slog.Logger) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{maxAttempts: maxAttempts, log: logger}
}

// Apply renames originalPath to target in the same directory, resolving
// collisions with " (2)", " (3)", ... suffixes up to the attempt cap.
func (e *Executor) Apply(originalPath string, target TargetFilename) (Outcome, error) {
	dir := filepath.Dir(originalPath)

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		name := target.String()
		suffix := 0
		if attempt > 0 {
			suffix = attempt + 1
			name = fmt.Sprintf("%s (%d)%s", target.Stem, suffix, target.Ext)
		}
		newPath := filepath.Join(dir, name)

		if newPath == originalPath {
			// Already carries the computed name; nothing to do.
			return Outcome{NewPath: newPath, Suffix: suffix}, nil
		}
		if _, err := os.Lstat(newPath); err == nil {
			continue // taken, try the next suffix
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Outcome{}, fmt.Errorf("stat %s: %w", newPath, err)
		}

		if err := os.Rename(originalPath, newPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Outcome{}, common.Wrap(common.ErrTransientFile, "source vanished before rename", err)
			}
			return Outcome{}, fmt.Errorf("rename %s: %w", originalPath, err)
		}
		if suffix > 0 {
			e.log.Info("rename.collision_resolved", "path", originalPath, "new_path", newPath, "suffix", suffix)
		}
		return Outcome{NewPath: newPath, Suffix: suffix}, nil
	}

	return Outcome{}, common.Wrap(common.ErrCollisionExhausted,
		fmt.Sprintf("no free name for %q after %d attempts", target.String(), e.maxAttempts), nil)
}
