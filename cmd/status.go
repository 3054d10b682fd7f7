package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/podium/internal/runstate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session currently in progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := runstate.NewStore()
		if err != nil {
			return err
		}

		run, err := store.Load()
		if err != nil {
			if errors.Is(err, runstate.ErrNoRun) {
				cmd.Println("no session in progress")
				return nil
			}
			return err
		}

		if run.SessionID != 0 {
			cmd.Printf("Session: %d\n", run.SessionID)
		} else {
			cmd.Println("Session: starting")
		}
		cmd.Printf("Started: %s\n", run.StartTime.Format(time.RFC3339))
		cmd.Printf("Elapsed: %s\n", run.Elapsed(time.Now()).Round(time.Second).String())
		cmd.Printf("Backend: %s\n", run.BackendURL)
		cmd.Printf("Spool: %s\n", run.SpoolDir)
		cmd.Printf("PID: %d\n", run.PID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
