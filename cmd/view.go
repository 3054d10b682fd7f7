package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/podium/internal/report"
	"github.com/fakeyudi/podium/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "View a session report (.md, .json or .yaml)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		parser, err := report.ParserFor(path)
		if err != nil {
			return err
		}
		r, err := parser.Parse(data)
		if err != nil {
			return err
		}

		if plainOutput {
			printReport(cmd.OutOrStdout(), r)
			return nil
		}
		return tui.RunViewer(r, path)
	},
}

// printReport writes a plain-text summary of r.
func printReport(out io.Writer, r *report.Report) {
	fmt.Fprintln(out, "## Summary")
	if r.Session.Speaker != "" {
		fmt.Fprintf(out, "  Speaker:   %s\n", r.Session.Speaker)
	}
	fmt.Fprintf(out, "  Session:   %d\n", r.Session.SessionID)
	fmt.Fprintf(out, "  Started:   %s\n", r.Session.StartTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "  Stopped:   %s\n", r.Session.StopTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "  Duration:  %s\n", r.Session.Duration)
	fmt.Fprintf(out, "  Alerts:    %d long pause(s)\n", r.PauseAlerts)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Scores")
	fmt.Fprintf(out, "  Posture:   %d%%  %s\n", r.Scores.Posture, r.Status.Posture)
	fmt.Fprintf(out, "  Eye:       %d%%  %s\n", r.Scores.Eye, r.Status.Eye)
	fmt.Fprintf(out, "  Gesture:   %d%%  %s\n", r.Scores.Gesture, r.Status.Gesture)
	fmt.Fprintf(out, "  Samples:   %d\n", r.Samples)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Filler Words")
	if len(r.Tally) == 0 {
		fmt.Fprintln(out, "  (none)")
	} else {
		words := make([]string, 0, len(r.Tally))
		for w := range r.Tally {
			words = append(words, w)
		}
		sort.Strings(words)
		for _, w := range words {
			fmt.Fprintf(out, "  %-12s %d\n", w, r.Tally[w])
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Transcript")
	if len(r.Transcript) == 0 {
		fmt.Fprintln(out, "  (none)")
	} else {
		for _, e := range r.Transcript {
			fmt.Fprintf(out, "  [%6.1fs] %s\n", e.Time, e.Text)
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Recording")
	if r.RecordingURL == "" {
		fmt.Fprintln(out, "  (not uploaded)")
	} else {
		fmt.Fprintf(out, "  %s\n", r.RecordingURL)
	}
	fmt.Fprintln(out)
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
