package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fakeyudi/podium/internal/history"
)

func TestHistoryEmpty(t *testing.T) {
	tmp := isolate(t)
	t.Setenv("PODIUM_HISTORY_PATH", filepath.Join(tmp, "h.db"))

	out, err := executeCommand(rootCmd, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "no sessions recorded") {
		t.Errorf("got %q", out)
	}
}

func TestHistoryListsNewestFirst(t *testing.T) {
	tmp := isolate(t)
	dbPath := filepath.Join(tmp, "h.db")
	t.Setenv("PODIUM_HISTORY_PATH", dbPath)

	db, err := history.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []int64{11, 12, 13} {
		rec := history.Record{
			ID:         "run-" + string(rune('a'+i)),
			SessionID:  id,
			StartTime:  base.Add(time.Duration(i) * time.Hour),
			StopTime:   base.Add(time.Duration(i)*time.Hour + time.Minute),
			Elapsed:    60,
			ReportPath: "report.md",
		}
		if err := db.Insert(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	out, err := executeCommand(rootCmd, "history", "--limit", "2")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var ids []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n")[1:] {
		// date and time take the first two columns
		ids = append(ids, strings.Fields(line)[2])
	}
	if strings.Join(ids, ",") != "13,12" {
		t.Errorf("sessions listed = %v, want [13 12]:\n%s", ids, out)
	}
}
