package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/podium/internal/config"
	"github.com/fakeyudi/podium/internal/profile"
	"github.com/fakeyudi/podium/internal/runstate"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

// logger is configured from cfg in PersistentPreRunE.
var logger = logrus.New()

var logLevelFlag string

var rootCmd = &cobra.Command{
	Use:           "podium",
	Short:         "Live presentation coaching: scores, transcript, filler words and pause alerts",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "setup" {
			return nil
		}

		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to podium! Looks like this is your first time.")
			if err := runSetup(cmd, true); err != nil {
				return err
			}
		}

		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		} else {
			activeProfile = nil
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		applyProfile(&cfg, activeProfile, global, project)

		if err := config.ApplyEnv(&cfg); err != nil {
			return err
		}
		if logLevelFlag != "" {
			cfg.LogLevel = logLevelFlag
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return setupLogging(cmd.ErrOrStderr())
	},
}

// applyProfile lets profile values fill keys no config file set.
func applyProfile(c *config.Config, p *profile.Profile, layers ...*config.Config) {
	if p == nil {
		return
	}
	set := func(pick func(*config.Config) bool) bool {
		for _, l := range layers {
			if l != nil && pick(l) {
				return true
			}
		}
		return false
	}
	def := config.Defaults()
	if p.BackendURL != "" && !set(func(l *config.Config) bool { return l.BackendURL != "" && l.BackendURL != def.BackendURL }) {
		c.BackendURL = p.BackendURL
	}
	if p.UserID > 0 && !set(func(l *config.Config) bool { return l.UserID > 0 && l.UserID != def.UserID }) {
		c.UserID = p.UserID
	}
	if p.ReportFormat != "" && !set(func(l *config.Config) bool { return l.ReportFormat != "" && l.ReportFormat != def.ReportFormat }) {
		c.ReportFormat = p.ReportFormat
	}
	if p.OutputDir != "" && !set(func(l *config.Config) bool { return l.OutputDir != "" && l.OutputDir != def.OutputDir }) {
		c.OutputDir = p.OutputDir
	}
	if !p.Beep && !set(func(l *config.Config) bool { return l.Beep != "" && l.Beep != def.Beep }) {
		c.Beep = "off"
	}
}

// setupLogging points logger at cfg.LogFile, or stderr when none is set.
func setupLogging(stderr io.Writer) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(stderr)
	if cfg.LogFile != "" {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return err
		}
		logger.SetOutput(f)
	}
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// defaultLogFile is where logs go while the dashboard owns the terminal.
func defaultLogFile() string {
	dir, err := runstate.DataDir()
	if err != nil {
		return "podium.log"
	}
	return filepath.Join(dir, "podium.log")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
}
