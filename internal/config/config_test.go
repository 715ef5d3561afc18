package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Out != DefaultOut || cfg.Format != DefaultFormat || cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if cfg.Debounce() != 500*time.Millisecond {
		t.Fatalf("expected 500ms debounce, got %s", cfg.Debounce())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
out = "reports"
format = "jsonl"
overwrite = true
sqlite = true
workers = 4
ignore = ["archive/"]

[watch]
debounce_ms = 250
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Out != "reports" || cfg.Format != "jsonl" || !cfg.Overwrite || !cfg.SQLite || cfg.Workers != 4 {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if len(cfg.Ignore) != 1 || cfg.Ignore[0] != "archive/" {
		t.Fatalf("unexpected ignore patterns %#v", cfg.Ignore)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected unset log level to keep its default, got %q", cfg.LogLevel)
	}
	if cfg.Debounce() != 250*time.Millisecond {
		t.Fatalf("expected 250ms debounce, got %s", cfg.Debounce())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"format":  `format = "xml"`,
		"level":   `log_level = "LOUD"`,
		"workers": `workers = -1`,
		"unknown": `colour = "blue"`,
		"syntax":  `out = `,
	}
	for name, content := range cases {
		dir := t.TempDir()
		writeConfig(t, dir, content)
		if _, err := Load(dir); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestTemplateLoadsCleanly(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, Template)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("template failed to load: %v", err)
	}
	if cfg.Out != DefaultOut || cfg.Watch.DebounceMS != DefaultDebounceMS {
		t.Fatalf("template drifted from defaults: %#v", cfg)
	}
	if !strings.Contains(Template, "[watch]") {
		t.Fatalf("expected watch table in template")
	}
}
