package cmd

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/podium/internal/runstate"
)

func TestStatusNoSession(t *testing.T) {
	isolate(t)
	out, err := executeCommand(rootCmd, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "no session in progress") {
		t.Errorf("got %q", out)
	}
}

// Feature: podium, Property 8: Status reports the run marker
func TestStatusReportsRunMarker(t *testing.T) {
	isolate(t)
	store, err := runstate.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.Int64Range(0, 1_000_000).Draw(rt, "session_id")
		ago := rapid.IntRange(0, 3600).Draw(rt, "seconds_ago")
		port := rapid.IntRange(1024, 65535).Draw(rt, "port")

		run := &runstate.Run{
			ID:         "test-id",
			PID:        os.Getpid(),
			StartTime:  time.Now().Add(-time.Duration(ago) * time.Second),
			SessionID:  id,
			BackendURL: fmt.Sprintf("http://localhost:%d", port),
			SpoolDir:   "capture",
		}
		if err := store.Save(run); err != nil {
			rt.Fatalf("Save: %v", err)
		}

		out, err := executeCommand(rootCmd, "status")
		if err != nil {
			rt.Fatalf("status command error: %v", err)
		}

		wantSession := "Session: starting"
		if id != 0 {
			wantSession = fmt.Sprintf("Session: %d", id)
		}
		for _, want := range []string{wantSession, "Backend: " + run.BackendURL, "Started: " + run.StartTime.Format(time.RFC3339)} {
			if !strings.Contains(out, want) {
				rt.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})
}
