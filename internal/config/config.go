// Package config loads podium settings from the global config file, the
// per-directory .podiumconfig and PODIUM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configurable podium settings.
type Config struct {
	BackendURL     string        `json:"backend_url" mapstructure:"backend_url"`
	UserID         int           `json:"user_id" mapstructure:"user_id"`
	SpoolDir       string        `json:"spool_dir" mapstructure:"spool_dir"`         // directory the capturer writes into
	OutputDir      string        `json:"output_dir" mapstructure:"output_dir"`       // where reports are written
	ReportFormat   string        `json:"report_format" mapstructure:"report_format"` // "markdown" | "json" | "yaml"
	HistoryPath    string        `json:"history_path" mapstructure:"history_path"`   // sqlite file; "" uses the data dir
	FeedAddr       string        `json:"feed_addr" mapstructure:"feed_addr"`         // "" disables the live feed
	ScriptPath     string        `json:"script_path" mapstructure:"script_path"`
	LogLevel       string        `json:"log_level" mapstructure:"log_level"`
	LogFile        string        `json:"log_file" mapstructure:"log_file"`
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout"`
	Beep           string        `json:"beep" mapstructure:"beep"` // "bell" | "off"
}

// Keys lists every settable key, as used in files and (upper-cased, with a
// PODIUM_ prefix) in the environment.
var Keys = []string{
	"backend_url", "user_id", "spool_dir", "output_dir", "report_format",
	"history_path", "feed_addr", "script_path", "log_level", "log_file",
	"request_timeout", "beep",
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		BackendURL:     "http://localhost:8000",
		UserID:         1,
		SpoolDir:       "capture",
		OutputDir:      ".",
		ReportFormat:   "markdown",
		LogLevel:       "info",
		RequestTimeout: 60 * time.Second,
		Beep:           "bell",
	}
}

// Dir returns the podium config directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "podium"), nil
}

// LoadGlobal reads ~/.config/podium/config.{json,yaml,yml,toml}, whichever
// exists first. Returns defaults if none is present.
func LoadGlobal() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml", "config.toml"} {
		cfg, err := loadFile(filepath.Join(dir, name), "")
		if err != nil || cfg != nil {
			return cfg, err
		}
	}
	d := Defaults()
	return &d, nil
}

// LoadProject reads .podiumconfig in the current working directory. The file
// is YAML, which also accepts plain JSON. Returns nil (no error) if absent.
func LoadProject() (*Config, error) {
	return loadFile(".podiumconfig", "yaml")
}

// loadFile parses the config file at path, or returns nil when it does not
// exist. An empty kind lets viper pick the format from the extension.
func loadFile(path, kind string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	if kind != "" {
		v.SetConfigType(kind)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// ApplyEnv overrides cfg with any PODIUM_* variables that are set.
func ApplyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix("podium")
	for _, k := range Keys {
		if err := v.BindEnv(k); err != nil {
			return err
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("reading PODIUM_* environment: %w", err)
	}
	return nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer != nil {
			overlay(&result, layer)
		}
	}
	return result
}

func overlay(dst, src *Config) {
	setString := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	setString(&dst.BackendURL, src.BackendURL)
	setString(&dst.SpoolDir, src.SpoolDir)
	setString(&dst.OutputDir, src.OutputDir)
	setString(&dst.ReportFormat, src.ReportFormat)
	setString(&dst.HistoryPath, src.HistoryPath)
	setString(&dst.FeedAddr, src.FeedAddr)
	setString(&dst.ScriptPath, src.ScriptPath)
	setString(&dst.LogLevel, src.LogLevel)
	setString(&dst.LogFile, src.LogFile)
	setString(&dst.Beep, src.Beep)
	if src.UserID > 0 {
		dst.UserID = src.UserID
	}
	if src.RequestTimeout > 0 {
		dst.RequestTimeout = src.RequestTimeout
	}
}

// Validate rejects values no command can act on.
func (c Config) Validate() error {
	switch c.ReportFormat {
	case "markdown", "json", "yaml":
	default:
		return fmt.Errorf("report_format %q: want markdown, json or yaml", c.ReportFormat)
	}
	switch c.Beep {
	case "bell", "off":
	default:
		return fmt.Errorf("beep %q: want bell or off", c.Beep)
	}
	if c.BackendURL == "" {
		return errors.New("backend_url must be set")
	}
	return nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
