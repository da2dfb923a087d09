package watch

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rfields/scanwatch/internal/common"
)

// stabilityRecord tracks one path across polls.
type stabilityRecord struct {
	size        int64
	mtime       time.Time
	stableCount int
	firstSeen   time.Time
}

// StabilityDetector decides when a file has stopped changing and is safe
// to open. Scanners and sync clients write incrementally, and a size that
// plateaus for a single poll can still be mid-write, so stability
// requires threshold consecutive unchanged (size, mtime) observations
// plus a successful open-and-read probe.
type StabilityDetector struct {
	threshold int
	timeout   time.Duration
	now       func() time.Time

	mu      sync.Mutex
	records map[string]*stabilityRecord
}

func NewStabilityDetector(threshold int, timeout time.Duration) *StabilityDetector {
	if threshold < 1 {
		threshold = 1
	}
	return &StabilityDetector{
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
		records:   make(map[string]*stabilityRecord),
	}
}

// Observe polls path once. It returns true only after threshold
// consecutive polls saw an unchanged non-empty (size, mtime) pair and the
// file could be opened and read. Any observed change resets the counter.
// A vanished path or an exceeded stability timeout discards the record
// and reports common.ErrTransientFile so the caller drops the path.
func (d *StabilityDetector) Observe(path string) (bool, error) {
	st, err := os.Stat(path)
	if err != nil {
		d.Forget(path)
		if errors.Is(err, fs.ErrNotExist) {
			return false, common.Wrap(common.ErrTransientFile, "file vanished", err)
		}
		return false, common.Wrap(common.ErrTransientFile, "stat failed", err)
	}

	d.mu.Lock()
	rec, ok := d.records[path]
	if !ok {
		rec = &stabilityRecord{size: st.Size(), mtime: st.ModTime(), firstSeen: d.now()}
		d.records[path] = rec
		d.mu.Unlock()
		return false, nil
	}

	if d.timeout > 0 && d.now().Sub(rec.firstSeen) > d.timeout {
		delete(d.records, path)
		d.mu.Unlock()
		return false, common.Wrap(common.ErrTransientFile, "file still changing after stability timeout", nil)
	}

	if st.Size() != rec.size || !st.ModTime().Equal(rec.mtime) {
		rec.size = st.Size()
		rec.mtime = st.ModTime()
		rec.stableCount = 0
		d.mu.Unlock()
		return false, nil
	}

	rec.stableCount++
	reached := rec.stableCount >= d.threshold && rec.size > 0
	d.mu.Unlock()

	if !reached {
		return false, nil
	}

	if err := probeReadable(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.Forget(path)
			return false, common.Wrap(common.ErrTransientFile, "file vanished", err)
		}
		// Still locked by the writer; keep polling.
		return false, nil
	}

	d.Forget(path)
	return true, nil
}

// Forget drops the record for path.
func (d *StabilityDetector) Forget(path string) {
	d.mu.Lock()
	delete(d.records, path)
	d.mu.Unlock()
}

// probeReadable verifies the file opens for reading and yields its first
// kilobyte, catching sharing violations a bare stat cannot see.
func probeReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, 1024)
	if _, err := f.Read(buf); err != nil && err != io.EOF {
		return err
	}
	return nil
}
