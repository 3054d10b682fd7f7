package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/podium/internal/runstate"
)

var stopWait time.Duration

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "End the session running in another terminal",
	Long: `Send SIGINT to the podium process recorded in the run marker and wait
for it to write its report. On Linux the process binary is checked first so
a reused PID is never signalled; elsewhere the marker is trusted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := runstate.NewStore()
		if err != nil {
			return err
		}

		run, err := store.Load()
		if err != nil {
			if errors.Is(err, runstate.ErrNoRun) {
				return fmt.Errorf("no session in progress")
			}
			return err
		}

		if !ownedBy(run) {
			if err := store.Delete(); err != nil {
				return err
			}
			return fmt.Errorf("process %d is no longer podium; cleared stale marker", run.PID)
		}
		proc, err := os.FindProcess(run.PID)
		if err == nil {
			err = proc.Signal(os.Interrupt)
		}
		if err != nil {
			// The owning process is gone; the marker is stale.
			if derr := store.Delete(); derr != nil {
				return derr
			}
			return fmt.Errorf("session process %d not running; cleared stale marker", run.PID)
		}

		if stopWait <= 0 {
			cmd.Println("Stop requested.")
			return nil
		}
		deadline := time.Now().Add(stopWait)
		for time.Now().Before(deadline) {
			if _, err := store.Load(); errors.Is(err, runstate.ErrNoRun) {
				cmd.Println("Session stopped.")
				return nil
			}
			time.Sleep(200 * time.Millisecond)
		}
		return fmt.Errorf("session %d still finalizing after %s", run.SessionID, stopWait)
	},
}

func selfExecutable() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		return resolved
	}
	return exe
}

// ownedBy reports whether run.PID still runs the binary that wrote the
// marker. Without /proc, or for markers that predate the field, it trusts
// the marker.
func ownedBy(run *runstate.Run) bool {
	if run.Executable == "" {
		return true
	}
	exe, err := os.Readlink(filepath.Join("/proc", strconv.Itoa(run.PID), "exe"))
	if err != nil {
		if _, serr := os.Stat("/proc/self/exe"); serr != nil {
			return true
		}
		// /proc works but the pid is gone or not ours to inspect.
		return errors.Is(err, os.ErrPermission)
	}
	return exe == run.Executable
}

func init() {
	stopCmd.Flags().DurationVar(&stopWait, "wait", 30*time.Second, "How long to wait for the session to finish writing its report (0 returns immediately)")
	rootCmd.AddCommand(stopCmd)
}
