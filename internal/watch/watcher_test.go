package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collect(t *testing.T, ch <-chan string, want int, timeout time.Duration) []string {
	t.Helper()
	var got []string
	deadline := time.After(timeout)
	for len(got) < want {
		select {
		case p, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, p)
		case <-deadline:
			return got
		}
	}
	return got
}

func TestWatcherEmitsAllowedFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatcherConfig{Root: dir, Debounce: 20 * time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "scan_0042.pdf")
	if err := os.WriteFile(path, []byte("bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := collect(t, events, 1, 3*time.Second)
	if len(got) != 1 || got[0] != path {
		t.Fatalf("events = %v, want [%s]", got, path)
	}
}

func TestWatcherFiltersExtensionsAndProcessedNames(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatcherConfig{Root: dir, Debounce: 20 * time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// None of these should come through: wrong extension, and names that
	// already match the output templates.
	for _, name := range []string{
		"notes.txt",
		"archive.zip",
		"2025-12-23 - FloridaPower - Electric Bill.pdf",
		"2003 - Family - Beach Vacation.jpg",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	wanted := filepath.Join(dir, "IMG_1234.jpeg")
	if err := os.WriteFile(wanted, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := collect(t, events, 1, 3*time.Second)
	if len(got) != 1 || got[0] != wanted {
		t.Fatalf("events = %v, want only %s", got, wanted)
	}

	// Give any stragglers a beat to show up.
	select {
	case p := <-events:
		t.Errorf("unexpected extra event %q", p)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherSurvivesEventBurstAndShutdown(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatcherConfig{Root: dir, Debounce: time.Microsecond}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Rapid creates land faster than the debounce window so flushes
	// interleave with fresh events.
	const n = 200
	want := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("scan_%04d.pdf", i))
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		want[path] = struct{}{}
	}

	got := collect(t, events, n, 5*time.Second)
	for _, p := range got {
		delete(want, p)
	}
	if len(want) != 0 {
		t.Errorf("%d paths never emitted, e.g. %v", len(want), first(want))
	}

	// Cancel right after a burst; the watcher must close its channel
	// without panicking mid-flush.
	if err := os.WriteFile(filepath.Join(dir, "late.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cancel()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel not closed after cancel")
		}
	}
}

func first(m map[string]struct{}) string {
	for k := range m {
		return k
	}
	return ""
}

func TestWatcherRejectsMissingRoot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, _, err := StartWatcher(ctx, WatcherConfig{Root: ""}, nil); err == nil {
		t.Error("expected error for empty root")
	}
	if _, _, err := StartWatcher(ctx, WatcherConfig{Root: filepath.Join(t.TempDir(), "nope")}, nil); err == nil {
		t.Error("expected error for nonexistent root")
	}
}
