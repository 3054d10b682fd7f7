package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/podium/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := historyPath(GetConfig())
		if err != nil {
			return err
		}
		db, err := history.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		recs, err := db.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			cmd.Println("no sessions recorded")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSESSION\tDURATION\tPOSTURE\tEYE\tGESTURE\tFILLERS\tPAUSES\tREPORT")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
				r.StartTime.Local().Format("2006-01-02 15:04"),
				r.SessionID,
				(time.Duration(r.Elapsed) * time.Second).String(),
				r.Posture, r.Eye, r.Gesture,
				r.Fillers, r.PauseAlerts,
				r.ReportPath,
			)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of sessions to list (0 lists all)")
	rootCmd.AddCommand(historyCmd)
}
