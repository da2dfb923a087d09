package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadExpandsEnvAndValidates(t *testing.T) {
	t.Setenv("SCANWATCH_TEST_DIR", "/srv/scans")

	path := writeConfig(t, `
watch:
  path: ${SCANWATCH_TEST_DIR}
  poll_interval: 500ms
  stability_threshold: 2
model:
  name: llava:13b
`)

	cfg := NewDefaultConfig()
	if err := Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Watch.Path != "/srv/scans" {
		t.Errorf("watch.path = %q, want /srv/scans", cfg.Watch.Path)
	}
	if cfg.Watch.PollInterval.Std() != 500*time.Millisecond {
		t.Errorf("poll_interval = %s, want 500ms", cfg.Watch.PollInterval.Std())
	}
	if cfg.Watch.StabilityThreshold != 2 {
		t.Errorf("stability_threshold = %d, want 2", cfg.Watch.StabilityThreshold)
	}
	if cfg.Model.Name != "llava:13b" {
		t.Errorf("model.name = %q, want llava:13b", cfg.Model.Name)
	}
	// Untouched sections keep their defaults.
	if cfg.Extract.DPI != 200 {
		t.Errorf("extract.dpi = %d, want default 200", cfg.Extract.DPI)
	}
}

func TestLoadRejectsMissingWatchPath(t *testing.T) {
	path := writeConfig(t, `
model:
  name: llava:13b
`)
	cfg := NewDefaultConfig()
	if err := Load(path, cfg); err == nil {
		t.Fatal("expected validation error for missing watch.path")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
watch:
  path: /srv/scans
  poll_interval: soon
`)
	cfg := NewDefaultConfig()
	if err := Load(path, cfg); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestValidateRejectsTinyPollInterval(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Watch.Path = "/srv/scans"
	cfg.Watch.PollInterval = Duration(10 * time.Millisecond)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sub-100ms poll interval")
	}
}

func TestDefaultsValidateOnceWatchPathSet(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Watch.Path = "/srv/scans"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
