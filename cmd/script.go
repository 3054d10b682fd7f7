package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/podium/internal/backend"
)

var errEmptyScript = errors.New("script file is empty")

var scriptCmd = &cobra.Command{
	Use:   "script <file>",
	Short: "Send the reference script the backend compares speech against",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readScript(args[0], "")
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return errEmptyScript
		}
		c := GetConfig()
		ctx, cancel := context.WithTimeout(cmd.Context(), c.RequestTimeout)
		defer cancel()
		if err := backend.New(c.BackendURL, c.RequestTimeout).Script(ctx, text); err != nil {
			return err
		}
		cmd.Printf("Script sent (%d words).\n", len(strings.Fields(text)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}
