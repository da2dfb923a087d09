package common

import (
	"errors"
	"fmt"
)

// Error kinds for the processing pipeline. Stage code wraps concrete
// causes with one of these so the watch loop can decide retry vs terminal
// with errors.Is.
var (
	// ErrTransientFile marks a file that vanished or could not be opened
	// mid-check. The path is dropped; a future notification retries it.
	ErrTransientFile = errors.New("transient file error")

	// ErrExtraction marks an unsupported or corrupt file. Terminal; the
	// file is left in place for a human.
	ErrExtraction = errors.New("extraction error")

	// ErrModelUnavailable marks a transport failure or timeout talking to
	// the inference endpoint. Retryable with backoff, bounded attempts.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrCollisionExhausted marks a rename that ran out of disambiguator
	// suffixes. Terminal; the file keeps its original name.
	ErrCollisionExhausted = errors.New("collision attempts exhausted")
)

// Wrap annotates cause with a pipeline error kind and a message.
func Wrap(kind error, msg string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", msg, kind)
	}
	return fmt.Errorf("%s: %w: %w", msg, kind, cause)
}

// IsRetryable reports whether the error should be retried in place
// rather than ending the file's processing attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}
