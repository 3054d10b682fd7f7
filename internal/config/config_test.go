package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: podium, Property 10: Config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.:-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasBackendURL") {
			cfg.BackendURL = nonEmptyString.Draw(t, "backendURL")
		}
		if rapid.Bool().Draw(t, "hasOutputDir") {
			cfg.OutputDir = nonEmptyString.Draw(t, "outputDir")
		}
		if rapid.Bool().Draw(t, "hasReportFormat") {
			cfg.ReportFormat = nonEmptyString.Draw(t, "reportFormat")
		}
		if rapid.Bool().Draw(t, "hasSpoolDir") {
			cfg.SpoolDir = nonEmptyString.Draw(t, "spoolDir")
		}
		cfg.UserID = rapid.IntRange(0, 5).Draw(t, "userID")
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "BackendURL", global.BackendURL, project.BackendURL, defaults.BackendURL, merged.BackendURL)
		checkStringField(t, "OutputDir", global.OutputDir, project.OutputDir, defaults.OutputDir, merged.OutputDir)
		checkStringField(t, "ReportFormat", global.ReportFormat, project.ReportFormat, defaults.ReportFormat, merged.ReportFormat)
		checkStringField(t, "SpoolDir", global.SpoolDir, project.SpoolDir, defaults.SpoolDir, merged.SpoolDir)

		want := defaults.UserID
		switch {
		case project.UserID > 0:
			want = project.UserID
		case global.UserID > 0:
			want = global.UserID
		}
		if merged.UserID != want {
			t.Fatalf("UserID: got %d, want %d", merged.UserID, want)
		}
	})
}

// checkStringField asserts project over global over default for one field.
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set, expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set, expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set, expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.ReportFormat != "markdown" || d.OutputDir != "." || d.UserID != 1 {
		t.Errorf("unexpected defaults: %+v", d)
	}
	if d.RequestTimeout != 60*time.Second {
		t.Errorf("RequestTimeout: got %v", d.RequestTimeout)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil || *cfg != Defaults() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadGlobalYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "podium")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := "backend_url: http://coach:9000\nuser_id: 7\nrequest_timeout: 5s\nbeep: \"off\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.BackendURL != "http://coach:9000" || cfg.UserID != 7 || cfg.Beep != "off" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout: got %v", cfg.RequestTimeout)
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadProjectAcceptsJSON(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile(".podiumconfig", []byte(`{"report_format": "json", "spool_dir": "/tmp/cap"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if cfg.ReportFormat != "json" || cfg.SpoolDir != "/tmp/cap" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "podium")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PODIUM_BACKEND_URL", "http://env:1")
	t.Setenv("PODIUM_USER_ID", "42")
	t.Setenv("PODIUM_REQUEST_TIMEOUT", "3s")

	cfg := Defaults()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.BackendURL != "http://env:1" || cfg.UserID != 42 || cfg.RequestTimeout != 3*time.Second {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.OutputDir != "." {
		t.Errorf("unset key changed: OutputDir=%q", cfg.OutputDir)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.ReportFormat = "pdf"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown report format")
	}
	cfg = Defaults()
	cfg.Beep = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown beep mode")
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}
