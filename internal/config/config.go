// Package config handles loading and resolving liftlog configuration.
// Resolution order (last layer wins):
//  1. config.json in the current working directory
//  2. Environment variables (LIFTLOG_*)
//  3. CLI flags
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/units"
)

const (
	DefaultConfigFile = "config.json"
	DefaultUser       = "default"
	DefaultFormat     = "table"
	DefaultWindow     = "30d"
	DefaultTimeout    = 30 * time.Second
	DefaultRate       = 2.0
	DefaultListen     = ":8080"
	DefaultCacheMB    = 16
	DefaultCacheTTL   = 10 * time.Minute

	EnvUser       = "LIFTLOG_USER"
	EnvDBPath     = "LIFTLOG_DB_PATH"
	EnvInsightKey = "LIFTLOG_INSIGHT_KEY"
	EnvInsightURL = "LIFTLOG_INSIGHT_URL"
	EnvUnit       = "LIFTLOG_UNIT"
	EnvTimezone   = "LIFTLOG_TZ"
)

// File is the on-disk representation of config.json.
type File struct {
	User          string  `json:"user"`
	Unit          string  `json:"unit"`
	Timezone      string  `json:"timezone"`
	DefaultFormat string  `json:"default_format"`
	DefaultWindow string  `json:"default_window"`
	Narrow        bool    `json:"narrow"`
	InsightURL    string  `json:"insight_url"`
	InsightKey    string  `json:"insight_key"`
	Timeout       string  `json:"timeout"`
	Rate          float64 `json:"rate"`
	DBPath        string  `json:"db_path"`
	Listen        string  `json:"listen"`
	CacheMB       int     `json:"cache_mb"`
	CacheTTL      string  `json:"cache_ttl"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	User       string
	Unit       units.Unit
	Timezone   string
	Format     string
	Window     string
	Narrow     bool
	InsightURL string
	InsightKey string
	Timeout    time.Duration
	Rate       float64
	DBPath     string
	Listen     string
	CacheMB    int
	CacheTTL   time.Duration
	ConfigPath string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Overrides are the flag values that take part in resolution. Empty
// strings mean the flag was not set.
type Overrides struct {
	User       string
	Unit       string
	DBPath     string
	InsightKey string
}

// Load resolves configuration from all sources.
func Load(o Overrides) (*Config, error) {
	cfg := &Config{
		User:     DefaultUser,
		Unit:     units.Pounds,
		Format:   DefaultFormat,
		Window:   DefaultWindow,
		Timeout:  DefaultTimeout,
		Rate:     DefaultRate,
		Listen:   DefaultListen,
		CacheMB:  DefaultCacheMB,
		CacheTTL: DefaultCacheTTL,
	}

	// Layer 1: config.json (lowest priority)
	if f, path, err := loadFile(); err == nil {
		applyFile(cfg, f, path)
	}

	// Layer 2: environment variables
	if v := os.Getenv(EnvUser); v != "" {
		cfg.User = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvInsightKey); v != "" {
		cfg.InsightKey = v
	}
	if v := os.Getenv(EnvInsightURL); v != "" {
		cfg.InsightURL = v
	}
	if v := os.Getenv(EnvUnit); v != "" {
		cfg.Unit = units.Unit(v)
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		cfg.Timezone = v
	}

	// Layer 3: CLI flags (highest priority)
	if o.User != "" {
		cfg.User = o.User
	}
	if o.Unit != "" {
		cfg.Unit = units.Unit(o.Unit)
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	if o.InsightKey != "" {
		cfg.InsightKey = o.InsightKey
	}

	// Set default DB path if still unset
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".liftlog", "liftlog.db")
		}
	}

	// Normalise unit aliases ("kgs", "pounds"); Validate reports bad ones.
	if u, err := units.ParseUnit(string(cfg.Unit)); err == nil {
		cfg.Unit = u
	}

	return cfg, nil
}

// Validate checks the values every command depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.User) == "" || strings.Contains(c.User, "|") {
		return fmt.Errorf("invalid user %q: must be non-empty and must not contain '|'", c.User)
	}
	if _, err := units.ParseUnit(string(c.Unit)); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Window != "" {
		if _, err := series.ParseWindow(c.Window); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInsight returns an error if the analysis backend is not configured.
func (c *Config) ValidateInsight() error {
	if c.InsightURL == "" {
		return errors.New(
			"insight backend URL not found.\n\n" +
				"Set it one of these ways:\n" +
				"  1. Environment:     export LIFTLOG_INSIGHT_URL=https://...\n" +
				"  2. config.json:     {\"insight_url\": \"https://...\"}\n\n" +
				"Without a backend, use `liftlog analyze insight --local`.",
		)
	}
	return nil
}

// Location resolves the configured timezone. Empty means the host's local
// zone; "today" for range selection is computed in this zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RedactedInsightKey returns the insight key with most characters replaced
// by asterisks. Safe for logging and display.
func (c *Config) RedactedInsightKey() string {
	if len(c.InsightKey) <= 4 {
		return "****"
	}
	return c.InsightKey[:2] + "****" + c.InsightKey[len(c.InsightKey)-2:]
}

// loadFile attempts to read config.json from the current working directory.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s", path)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, path, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	setString(&cfg.User, f.User)
	setString(&cfg.Timezone, f.Timezone)
	setString(&cfg.Format, f.DefaultFormat)
	setString(&cfg.Window, f.DefaultWindow)
	setString(&cfg.InsightURL, f.InsightURL)
	setString(&cfg.InsightKey, f.InsightKey)
	setString(&cfg.DBPath, f.DBPath)
	setString(&cfg.Listen, f.Listen)
	if f.Unit != "" {
		cfg.Unit = units.Unit(f.Unit)
	}
	if f.Narrow {
		cfg.Narrow = true
	}
	if d, err := time.ParseDuration(f.Timeout); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if d, err := time.ParseDuration(f.CacheTTL); err == nil && d > 0 {
		cfg.CacheTTL = d
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.CacheMB > 0 {
		cfg.CacheMB = f.CacheMB
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `liftlog config init`.
func Template() File {
	return File{
		User:          DefaultUser,
		Unit:          string(units.Pounds),
		DefaultFormat: DefaultFormat,
		DefaultWindow: DefaultWindow,
		Timeout:       "30s",
		Rate:          DefaultRate,
		Listen:        DefaultListen,
		CacheMB:       DefaultCacheMB,
		CacheTTL:      "10m",
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
