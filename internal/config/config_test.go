package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/liftlog/internal/config"
	"github.com/derickschaefer/liftlog/internal/units"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// writeConfig writes a config.json into dir and changes the working directory
// to dir for the duration of the test.
func writeConfig(t *testing.T, dir string, f config.File) {
	t.Helper()
	if err := config.WriteFile(filepath.Join(dir, "config.json"), f); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// clearEnv unsets every LIFTLOG_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvUser, config.EnvDBPath, config.EnvInsightKey,
		config.EnvInsightURL, config.EnvUnit, config.EnvTimezone,
	} {
		t.Setenv(k, "")
	}
}

// ─── Defaults ─────────────────────────────────────────────────────────────────

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.User != config.DefaultUser || cfg.Unit != units.Pounds {
		t.Errorf("user/unit: %q/%q", cfg.User, cfg.Unit)
	}
	if cfg.Format != config.DefaultFormat || cfg.Window != config.DefaultWindow {
		t.Errorf("format/window: %q/%q", cfg.Format, cfg.Window)
	}
	if cfg.Timeout != config.DefaultTimeout || cfg.Rate != config.DefaultRate {
		t.Errorf("timeout/rate: %v/%g", cfg.Timeout, cfg.Rate)
	}
	if cfg.CacheMB != config.DefaultCacheMB || cfg.CacheTTL != config.DefaultCacheTTL || cfg.Listen != config.DefaultListen {
		t.Errorf("cache/listen: %d %v %q", cfg.CacheMB, cfg.CacheTTL, cfg.Listen)
	}
	if !strings.HasSuffix(cfg.DBPath, filepath.Join(".liftlog", "liftlog.db")) {
		t.Errorf("DBPath should default under the home dir, got %q", cfg.DBPath)
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath should be empty when no file found, got %q", cfg.ConfigPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// ─── Config file loading ──────────────────────────────────────────────────────

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{
		User:          "sam",
		Unit:          "kgs",
		Timezone:      "Europe/Berlin",
		DefaultFormat: "json",
		DefaultWindow: "90d",
		Narrow:        true,
		InsightURL:    "https://insight.example.com/analyze",
		Timeout:       "60s",
		Rate:          0.5,
		DBPath:        "/tmp/test.db",
		CacheMB:       64,
		CacheTTL:      "1h",
	})

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.User != "sam" || cfg.Unit != units.Kilograms || cfg.Timezone != "Europe/Berlin" {
		t.Errorf("user/unit/tz: %q %q %q", cfg.User, cfg.Unit, cfg.Timezone)
	}
	if cfg.Format != "json" || cfg.Window != "90d" || !cfg.Narrow {
		t.Errorf("format/window/narrow: %q %q %v", cfg.Format, cfg.Window, cfg.Narrow)
	}
	if cfg.Timeout != time.Minute || cfg.Rate != 0.5 || cfg.CacheMB != 64 || cfg.CacheTTL != time.Hour {
		t.Errorf("timeout/rate/cache: %v %g %d %v", cfg.Timeout, cfg.Rate, cfg.CacheMB, cfg.CacheTTL)
	}
	if cfg.DBPath != "/tmp/test.db" || cfg.InsightURL == "" {
		t.Errorf("db/insight: %q %q", cfg.DBPath, cfg.InsightURL)
	}
	if !strings.Contains(cfg.ConfigPath, "config.json") {
		t.Errorf("ConfigPath should contain config.json, got %q", cfg.ConfigPath)
	}
}

func TestLoadInvalidDurationsIgnored(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{Timeout: "not-a-duration", CacheTTL: "-5m"})

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != config.DefaultTimeout || cfg.CacheTTL != config.DefaultCacheTTL {
		t.Errorf("invalid durations should use defaults, got %v / %v", cfg.Timeout, cfg.CacheTTL)
	}
}

// ─── Priority ─────────────────────────────────────────────────────────────────

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{User: "file", InsightKey: "filekey", Unit: "lbs"})
	t.Setenv(config.EnvUser, "env")
	t.Setenv(config.EnvInsightKey, "envkey")
	t.Setenv(config.EnvUnit, "kg")
	t.Setenv(config.EnvDBPath, "/custom/liftlog.db")

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.User != "env" || cfg.InsightKey != "envkey" || cfg.Unit != units.Kilograms || cfg.DBPath != "/custom/liftlog.db" {
		t.Errorf("env should override file: %+v", cfg)
	}
}

func TestLoadFlagsOverrideEnvAndFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{User: "file", InsightKey: "filekey"})
	t.Setenv(config.EnvUser, "env")
	t.Setenv(config.EnvInsightKey, "envkey")

	cfg, err := config.Load(config.Overrides{User: "flag", InsightKey: "flagkey", Unit: "pounds", DBPath: "/flag.db"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.User != "flag" || cfg.InsightKey != "flagkey" || cfg.Unit != units.Pounds || cfg.DBPath != "/flag.db" {
		t.Errorf("flags should win: %+v", cfg)
	}
}

func TestLoadEmptyFlagsDoNotOverride(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{User: "file"})

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.User != "file" {
		t.Errorf("empty flag should not override file value, got %q", cfg.User)
	}
}

// ─── Validate ─────────────────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	base := config.Config{User: "sam", Unit: units.Pounds, Window: "30d"}
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"ok", func(*config.Config) {}, ""},
		{"blank user", func(c *config.Config) { c.User = " " }, "invalid user"},
		{"pipe in user", func(c *config.Config) { c.User = "a|b" }, "invalid user"},
		{"bad unit", func(c *config.Config) { c.Unit = "stone" }, "unsupported unit"},
		{"bad timezone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }, "invalid timezone"},
		{"bad window", func(c *config.Config) { c.Window = "2w" }, "2w"},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		err := cfg.Validate()
		if tc.want == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestValidateInsight(t *testing.T) {
	if err := (&config.Config{}).ValidateInsight(); err == nil || !strings.Contains(err.Error(), "LIFTLOG_INSIGHT_URL") {
		t.Errorf("expected guidance mentioning LIFTLOG_INSIGHT_URL, got %v", err)
	}
	if err := (&config.Config{InsightURL: "http://x"}).ValidateInsight(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLocation(t *testing.T) {
	loc, err := (&config.Config{}).Location()
	if err != nil || loc != time.Local {
		t.Errorf("empty timezone should be Local, got %v %v", loc, err)
	}
	loc, err = (&config.Config{Timezone: "UTC"}).Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("UTC: got %v %v", loc, err)
	}
}

// ─── Redaction ────────────────────────────────────────────────────────────────

func TestRedactedInsightKey(t *testing.T) {
	cfg := &config.Config{InsightKey: "abcdefghij"}
	if got := cfg.RedactedInsightKey(); got != "ab****ij" {
		t.Errorf("got %q", got)
	}
	for _, key := range []string{"", "a", "abcd"} {
		cfg := &config.Config{InsightKey: key}
		if cfg.RedactedInsightKey() != "****" {
			t.Errorf("short key %q should redact to '****', got %q", key, cfg.RedactedInsightKey())
		}
	}
}

// ─── WriteFile / Template ─────────────────────────────────────────────────────

func TestWriteFileRoundTripAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	f := config.File{User: "sam", Unit: "kg", Timeout: "45s", Rate: 3, DBPath: "/data/liftlog.db"}
	if err := config.WriteFile(path, f); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got config.File
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if got != f {
		t.Errorf("round trip: got %+v want %+v", got, f)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file permissions: expected 0600, got %04o", info.Mode().Perm())
	}
}

func TestTemplateDefaults(t *testing.T) {
	tmpl := config.Template()
	if tmpl.DefaultFormat != "table" || tmpl.DefaultWindow != "30d" || tmpl.Unit != "lbs" {
		t.Errorf("template: %+v", tmpl)
	}
	if tmpl.InsightKey != "" || tmpl.InsightURL != "" {
		t.Error("template should leave the insight backend for the user to fill in")
	}
}
