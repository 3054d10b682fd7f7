package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/podium/internal/audio"
	"github.com/fakeyudi/podium/internal/backend"
	"github.com/fakeyudi/podium/internal/capture"
	"github.com/fakeyudi/podium/internal/config"
	"github.com/fakeyudi/podium/internal/feed"
	"github.com/fakeyudi/podium/internal/history"
	"github.com/fakeyudi/podium/internal/recorder"
	"github.com/fakeyudi/podium/internal/report"
	"github.com/fakeyudi/podium/internal/runstate"
	"github.com/fakeyudi/podium/internal/session"
	"github.com/fakeyudi/podium/internal/tui"
)

var (
	startScript   string
	startFormat   string
	startDuration time.Duration
	startPlain    bool
	startFeedAddr string
)

// stopTimeout bounds the backend stop call plus the recording upload.
const stopTimeout = 2 * time.Minute

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Begin a coaching session and write a report when it ends",
	Long: `Start a session against the analysis backend and coach live until
interrupted (q in the dashboard, Ctrl+C, or 'podium stop' from another
terminal). Frames and audio are read from the capture spool directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := runstate.NewStore()
		if err != nil {
			return err
		}
		existing, err := store.Load()
		if err != nil && !errors.Is(err, runstate.ErrNoRun) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("session already in progress (started at %s)", existing.StartTime.Format(time.RFC3339))
		}

		c := GetConfig()
		if startFeedAddr != "" {
			c.FeedAddr = startFeedAddr
		}
		if startFormat != "" {
			c.ReportFormat = startFormat
		}
		if _, err := report.RendererFor(c.ReportFormat); err != nil {
			return err
		}

		script, err := readScript(startScript, c.ScriptPath)
		if err != nil {
			return err
		}

		interactive := !startPlain && term.IsTerminal(os.Stdout.Fd())
		if interactive && c.LogFile == "" {
			// The dashboard owns the terminal.
			f, err := openLogFile(defaultLogFile())
			if err != nil {
				return err
			}
			defer f.Close()
			logger.SetOutput(f)
		}

		return runSession(cmd, c, script, interactive, store)
	},
}

func readScript(flag, configured string) (string, error) {
	path := flag
	if path == "" {
		path = configured
	}
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}

func newBeeper(c config.Config, out io.Writer) audio.Beeper {
	if c.Beep == "bell" {
		return audio.NewBellBeeper(out)
	}
	return audio.NopBeeper{}
}

func runSession(cmd *cobra.Command, c config.Config, script string, interactive bool, store runstate.Store) error {
	log := logger.WithField("component", "start")
	out := cmd.OutOrStdout()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	spool, err := capture.OpenSpool(ctx, c.SpoolDir, capture.SpoolOptions{
		Formats: []string{recorder.PrimaryFormat, recorder.FallbackFormat},
		Log:     logger,
	})
	if err != nil {
		return err
	}
	defer spool.Close()

	ctrl := session.New(session.Options{
		Backend: backend.New(c.BackendURL, c.RequestTimeout),
		UserID:  c.UserID,
		Script:  script,
		Beeper:  newBeeper(c, cmd.ErrOrStderr()),
		Log:     logger,
	})
	defer ctrl.Close()

	run := &runstate.Run{
		ID:         uuid.New().String(),
		PID:        os.Getpid(),
		StartTime:  time.Now(),
		BackendURL: c.BackendURL,
		SpoolDir:   spool.Dir(),
		Executable: selfExecutable(),
	}
	if err := store.Save(run); err != nil {
		return err
	}
	defer func() {
		if err := store.Delete(); err != nil {
			log.WithError(err).Warn("removing run marker")
		}
	}()

	id, err := ctrl.Start(ctx, spool)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	run.SessionID = id
	if err := store.Save(run); err != nil {
		log.WithError(err).Warn("updating run marker")
	}
	log.WithFields(logrus.Fields{"session_id": id, "run": run.ID}).Info("session started")

	if startDuration > 0 {
		var stopAfter context.CancelFunc
		ctx, stopAfter = context.WithTimeout(ctx, startDuration)
		defer stopAfter()
	}

	if c.FeedAddr != "" {
		srv := feed.New(ctrl, 0, logger)
		go func() {
			if err := srv.ListenAndServe(ctx, c.FeedAddr); err != nil {
				log.WithError(err).Error("live feed stopped")
			}
		}()
	}

	if interactive {
		updates, unsubscribe := ctrl.Subscribe()
		go func() {
			<-ctx.Done()
			unsubscribe()
		}()
		if _, err := tui.RunLive(ctrl, updates); err != nil {
			log.WithError(err).Error("dashboard")
		}
	} else {
		fmt.Fprintf(out, "Session %d started. Press Ctrl+C to stop.\n", id)
		printStatus(ctx, out, ctrl)
	}

	return finishSession(out, c, ctrl, run)
}

// printStatus writes a status line every few seconds until ctx is done.
func printStatus(ctx context.Context, out io.Writer, ctrl *session.Controller) {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fmt.Fprintln(out, tui.StatusLine(ctrl.Snapshot()))
		}
	}
}

func finishSession(out io.Writer, c config.Config, ctrl *session.Controller, run *runstate.Run) error {
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	ctrl.Stop(stopCtx)
	final := ctrl.Final()

	now := time.Now()
	speaker := ""
	if p := GetProfile(); p != nil {
		speaker = p.Name
	}
	r := report.New(final, report.Meta{
		ID:        run.ID,
		Speaker:   speaker,
		StartTime: run.StartTime,
		StopTime:  now,
		Backend:   c.BackendURL,
	})

	path, err := writeReport(r, c, now)
	if err != nil {
		return err
	}
	if err := recordHistory(stopCtx, c, r, path); err != nil {
		logger.WithError(err).Warn("recording session history")
	}

	fmt.Fprintf(out, "Session stopped. Report: %s\n", path)
	if r.RecordingURL != "" {
		fmt.Fprintf(out, "Recording: %s\n", r.RecordingURL)
	}
	return nil
}

func writeReport(r *report.Report, c config.Config, now time.Time) (string, error) {
	renderer, err := report.RendererFor(c.ReportFormat)
	if err != nil {
		return "", err
	}
	data, err := renderer.Render(r)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	dir := c.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, report.FileName(now, c.ReportFormat))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func historyPath(c config.Config) (string, error) {
	if c.HistoryPath != "" {
		return c.HistoryPath, nil
	}
	dir, err := runstate.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

func recordHistory(ctx context.Context, c config.Config, r *report.Report, reportPath string) error {
	path, err := historyPath(c)
	if err != nil {
		return err
	}
	db, err := history.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Insert(ctx, history.FromReport(r, reportPath))
}

func init() {
	startCmd.Flags().StringVar(&startScript, "script", "", "Script file sent to the backend before the session starts")
	startCmd.Flags().StringVar(&startFormat, "format", "", "Report format: markdown, json or yaml (overrides config)")
	startCmd.Flags().DurationVar(&startDuration, "duration", 0, "Stop automatically after this long (0 runs until interrupted)")
	startCmd.Flags().BoolVar(&startPlain, "plain", false, "Print status lines instead of the live dashboard")
	startCmd.Flags().StringVar(&startFeedAddr, "feed", "", "Serve the live feed on this address, e.g. :8090 (overrides config)")
	rootCmd.AddCommand(startCmd)
}
