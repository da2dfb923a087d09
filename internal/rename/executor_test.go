package rename

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rfields/scanwatch/internal/common"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestApplyRenamesInSameDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan_0042.pdf")
	writeFile(t, src, "original bytes")

	e := NewExecutor(100, nil)
	out, err := e.Apply(src, TargetFilename{Stem: "2025-12-23 - FloridaPower - Electric Bill", Ext: ".pdf"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := filepath.Join(dir, "2025-12-23 - FloridaPower - Electric Bill.pdf")
	if out.NewPath != want || out.Suffix != 0 {
		t.Errorf("outcome = %+v", out)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("renamed file unreadable: %v", err)
	}
	if string(data) != "original bytes" {
		t.Error("content changed across rename")
	}
	if _, err := os.Lstat(src); !errors.Is(err, os.ErrNotExist) {
		t.Error("source still exists after rename")
	}
}

func TestApplyResolvesCollisionWithSuffix(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "2025-12-23 - FloridaPower - Electric Bill.pdf")
	writeFile(t, existing, "first bill")
	src := filepath.Join(dir, "scan_0043.pdf")
	writeFile(t, src, "second bill")

	e := NewExecutor(100, nil)
	out, err := e.Apply(src, TargetFilename{Stem: "2025-12-23 - FloridaPower - Electric Bill", Ext: ".pdf"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := filepath.Join(dir, "2025-12-23 - FloridaPower - Electric Bill (2).pdf")
	if out.NewPath != want || out.Suffix != 2 {
		t.Errorf("outcome = %+v, want new path %q suffix 2", out, want)
	}

	// The colliding file is untouched.
	data, _ := os.ReadFile(existing)
	if string(data) != "first bill" {
		t.Error("existing file was overwritten")
	}
}

func TestApplyWalksSuffixesUntilFree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "name.pdf"), "1")
	writeFile(t, filepath.Join(dir, "name (2).pdf"), "2")
	writeFile(t, filepath.Join(dir, "name (3).pdf"), "3")
	src := filepath.Join(dir, "scan.pdf")
	writeFile(t, src, "4")

	e := NewExecutor(100, nil)
	out, err := e.Apply(src, TargetFilename{Stem: "name", Ext: ".pdf"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Suffix != 4 {
		t.Errorf("suffix = %d, want 4", out.Suffix)
	}
}

func TestApplyCollisionExhausted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "name.pdf"), "1")
	writeFile(t, filepath.Join(dir, "name (2).pdf"), "2")
	src := filepath.Join(dir, "scan.pdf")
	writeFile(t, src, "original")

	e := NewExecutor(2, nil)
	_, err := e.Apply(src, TargetFilename{Stem: "name", Ext: ".pdf"})
	if !errors.Is(err, common.ErrCollisionExhausted) {
		t.Fatalf("expected ErrCollisionExhausted, got %v", err)
	}

	// Original keeps its name and bytes.
	data, readErr := os.ReadFile(src)
	if readErr != nil || string(data) != "original" {
		t.Errorf("original file disturbed: %v %q", readErr, data)
	}
}

func TestApplySourceVanished(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "gone.pdf")

	e := NewExecutor(100, nil)
	_, err := e.Apply(src, TargetFilename{Stem: "name", Ext: ".pdf"})
	if !errors.Is(err, common.ErrTransientFile) {
		t.Fatalf("expected ErrTransientFile, got %v", err)
	}
}

func TestApplyNoOpWhenAlreadyNamed(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "name.pdf")
	writeFile(t, src, "bytes")

	e := NewExecutor(100, nil)
	out, err := e.Apply(src, TargetFilename{Stem: "name", Ext: ".pdf"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.NewPath != src {
		t.Errorf("new path = %q, want unchanged %q", out.NewPath, src)
	}
}
