package watch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rfields/scanwatch/internal/common"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestObserveRequiresThresholdConsecutivePolls(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.pdf")
	writeFile(t, path, "content")

	d := NewStabilityDetector(3, time.Minute)

	// Baseline plus threshold unchanged polls before reporting stable.
	for i := 0; i < 3; i++ {
		stable, err := d.Observe(path)
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if stable {
			t.Fatalf("stable after %d polls, want 4", i+1)
		}
	}
	stable, err := d.Observe(path)
	if err != nil {
		t.Fatal(err)
	}
	if !stable {
		t.Error("not stable after threshold polls")
	}
}

func TestObserveResetsOnSizeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.pdf")
	writeFile(t, path, "aa")

	d := NewStabilityDetector(2, time.Minute)
	if _, err := d.Observe(path); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Observe(path); err != nil {
		t.Fatal(err)
	}

	// A growing file restarts the count.
	writeFile(t, path, "aaaa")
	for i := 0; i < 2; i++ {
		stable, err := d.Observe(path)
		if err != nil {
			t.Fatal(err)
		}
		if stable {
			t.Fatalf("stable on poll %d after reset", i+1)
		}
	}
	stable, err := d.Observe(path)
	if err != nil {
		t.Fatal(err)
	}
	if !stable {
		t.Error("not stable after counter rebuilt")
	}
}

func TestObserveVanishedFileIsTransient(t *testing.T) {
	d := NewStabilityDetector(2, time.Minute)
	_, err := d.Observe(filepath.Join(t.TempDir(), "never-existed.pdf"))
	if !errors.Is(err, common.ErrTransientFile) {
		t.Fatalf("expected ErrTransientFile, got %v", err)
	}
}

func TestObserveTimesOutOnEndlessChurn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.pdf")
	writeFile(t, path, "x")

	d := NewStabilityDetector(3, 30*time.Second)
	clock := time.Now()
	d.now = func() time.Time { return clock }

	if _, err := d.Observe(path); err != nil {
		t.Fatal(err)
	}

	clock = clock.Add(31 * time.Second)
	_, err := d.Observe(path)
	if !errors.Is(err, common.ErrTransientFile) {
		t.Fatalf("expected ErrTransientFile after timeout, got %v", err)
	}

	// The record was discarded; a later notification starts fresh.
	stable, err := d.Observe(path)
	if err != nil {
		t.Fatal(err)
	}
	if stable {
		t.Error("stable immediately after restart")
	}
}

func TestObserveEmptyFileNeverStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pdf")
	writeFile(t, path, "")

	d := NewStabilityDetector(1, time.Minute)
	for i := 0; i < 5; i++ {
		stable, err := d.Observe(path)
		if err != nil {
			t.Fatal(err)
		}
		if stable {
			t.Fatal("zero-byte file reported stable")
		}
	}
}
