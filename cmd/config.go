package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/config"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/render"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/units"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage liftlog configuration",
	Long:  `Read and write liftlog configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		say(cmd, "✓ Created %s", path)
		say(cmd, "  Set user and unit, and insight_url if you have an analysis backend.")
		return nil
	},
}

var configGetShowSecrets bool

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Overrides{
			User:       globalFlags.User,
			Unit:       globalFlags.Unit,
			DBPath:     globalFlags.DBPath,
			InsightKey: globalFlags.InsightKey,
		})
		if err != nil {
			return err
		}

		key := cfg.RedactedInsightKey()
		if configGetShowSecrets {
			key = cfg.InsightKey
		}
		if cfg.InsightKey == "" {
			key = "(not set)"
		}
		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}
		tz := cfg.Timezone
		if tz == "" {
			tz = "(local)"
		}

		rows := [][]string{
			{"user", cfg.User},
			{"unit", string(cfg.Unit)},
			{"timezone", tz},
			{"default_format", cfg.Format},
			{"default_window", cfg.Window},
			{"narrow", strconv.FormatBool(cfg.Narrow)},
			{"insight_url", orUnset(cfg.InsightURL)},
			{"insight_key", key},
			{"timeout", cfg.Timeout.String()},
			{"rate", fmt.Sprintf("%.1f req/s", cfg.Rate)},
			{"db_path", cfg.DBPath},
			{"listen", cfg.Listen},
			{"cache_mb", strconv.Itoa(cfg.CacheMB)},
			{"cache_ttl", cfg.CacheTTL.String()},
			{"config_file", src},
		}

		format := resolveFormat(cfg.Format)
		if format == render.FormatTable {
			printKVTable(cmd.OutOrStdout(), rows)
			return nil
		}
		result := &model.Result{
			Kind:        model.KindTable,
			GeneratedAt: time.Now(),
			Command:     "config get",
			Data:        model.Table{Columns: []string{"key", "value"}, Rows: rows},
			Stats:       model.ResultStats{Items: len(rows)},
		}
		return render.Render(cmd.OutOrStdout(), result, format)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Args:  cobra.ExactArgs(2),
	Example: `  liftlog config set unit kg
  liftlog config set timezone Europe/Berlin
  liftlog config set default_window 90d`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		f, path, err := loadConfigFile()
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			path = config.DefaultConfigFile
		}
		if err := setConfigKey(&f, key, args[1]); err != nil {
			return err
		}
		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		say(cmd, "✓ Set %s in %s", key, path)
		return nil
	},
}

// configKeys lists every key accepted by config set.
var configKeys = []string{
	"user", "unit", "timezone", "default_format", "default_window", "narrow",
	"insight_url", "insight_key", "timeout", "rate", "db_path", "listen",
	"cache_mb", "cache_ttl",
}

// setConfigKey validates val and stores it under key in f.
func setConfigKey(f *config.File, key, val string) error {
	switch key {
	case "user":
		if strings.TrimSpace(val) == "" || strings.Contains(val, "|") {
			return fmt.Errorf("user must be non-empty and must not contain '|'")
		}
		f.User = val
	case "unit":
		u, err := units.ParseUnit(val)
		if err != nil {
			return err
		}
		f.Unit = string(u)
	case "timezone", "tz":
		if _, err := time.LoadLocation(val); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", val, err)
		}
		f.Timezone = val
	case "default_format", "format":
		if !render.ValidFormat(val) {
			return fmt.Errorf("unknown format %q", val)
		}
		f.DefaultFormat = val
	case "default_window", "window":
		if _, err := series.ParseWindow(val); err != nil {
			return err
		}
		f.DefaultWindow = val
	case "narrow":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("narrow must be true or false")
		}
		f.Narrow = b
	case "insight_url":
		f.InsightURL = val
	case "insight_key":
		f.InsightKey = val
	case "timeout", "cache_ttl":
		if d, err := time.ParseDuration(val); err != nil || d <= 0 {
			return fmt.Errorf("%s must be a positive duration like 30s", key)
		}
		if key == "timeout" {
			f.Timeout = val
		} else {
			f.CacheTTL = val
		}
	case "rate":
		r, err := strconv.ParseFloat(val, 64)
		if err != nil || r <= 0 {
			return fmt.Errorf("rate must be a positive number")
		}
		f.Rate = r
	case "db_path":
		f.DBPath = val
	case "listen":
		f.Listen = val
	case "cache_mb":
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return fmt.Errorf("cache_mb must be a positive integer")
		}
		f.CacheMB = n
	default:
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s", key, strings.Join(configKeys, ", "))
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// loadConfigFile reads config.json from cwd, or returns the template when
// none exists yet.
func loadConfigFile() (config.File, string, error) {
	path := config.DefaultConfigFile
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Template(), "", err
	}
	var f config.File
	if err := json.Unmarshal(data, &f); err != nil {
		return f, "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, path, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configGetCmd.Flags().BoolVar(&configGetShowSecrets, "show-secrets", false, "show the insight key in plain text")
}
