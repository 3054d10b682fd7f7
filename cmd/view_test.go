package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/podium/internal/filler"
	"github.com/fakeyudi/podium/internal/report"
	"github.com/fakeyudi/podium/internal/session"
)

// generateViewReport produces a populated report for testing the plain view.
func generateViewReport(t *rapid.T) *report.Report {
	sec := rapid.Int64Range(1_000_000_000, 1_700_000_000).Draw(t, "unix_sec")
	ts := time.Unix(sec, 0).UTC()

	words := []string{"um", "uh", "like", "basically"}
	numEntries := rapid.IntRange(0, 5).Draw(t, "num_entries")
	entries := make([]filler.Entry, numEntries)
	for i := range entries {
		entries[i] = filler.Entry{
			Text: rapid.StringN(1, 40, -1).Draw(t, "text"),
			Time: float64(i),
		}
		if rapid.Bool().Draw(t, "has_filler") {
			w := rapid.SampledFrom(words).Draw(t, "word")
			entries[i].Fillers = []filler.Occurrence{{Word: w, Time: float64(i)}}
		}
	}
	occ, tally := filler.Recompute(entries)

	return &report.Report{
		Session: report.Meta{
			ID:        rapid.StringN(1, 36, -1).Draw(t, "id"),
			SessionID: rapid.Int64Range(1, 1000).Draw(t, "session_id"),
			StartTime: ts,
			StopTime:  ts.Add(time.Minute),
			Duration:  "1m0s",
		},
		Scores: session.Scores{
			Posture: rapid.IntRange(0, 100).Draw(t, "posture"),
			Eye:     rapid.IntRange(0, 100).Draw(t, "eye"),
			Gesture: rapid.IntRange(0, 100).Draw(t, "gesture"),
		},
		Transcript:   entries,
		Fillers:      occ,
		Tally:        tally,
		PauseAlerts:  rapid.IntRange(0, 5).Draw(t, "pauses"),
		RecordingURL: rapid.SampledFrom([]string{"", "https://cdn.example/rec.webm"}).Draw(t, "url"),
	}
}

// TestViewNonExistentFile verifies that viewing a missing file returns
// "file not found: <path>".
func TestViewNonExistentFile(t *testing.T) {
	tmp := isolate(t)

	missingPath := filepath.Join(tmp, "does-not-exist.md")

	out, err := executeCommand(rootCmd, "view", missingPath)
	if err == nil {
		t.Fatal("expected an error for non-existent file, got nil")
	}
	combined := out + err.Error()
	expected := "file not found: " + missingPath
	if !strings.Contains(combined, expected) {
		t.Errorf("expected error to contain %q, got: %q", expected, combined)
	}
}

// TestViewInvalidReport verifies that viewing a file without the podium
// sentinel returns "not a valid podium report".
func TestViewInvalidReport(t *testing.T) {
	tmp := isolate(t)

	plainMD := filepath.Join(tmp, "plain.md")
	if err := os.WriteFile(plainMD, []byte("# Just a regular markdown file\n\nNo sentinel here.\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := executeCommand(rootCmd, "view", plainMD)
	if err == nil {
		t.Fatal("expected an error for invalid report, got nil")
	}
	combined := out + err.Error()
	if !strings.Contains(combined, "not a valid podium report") {
		t.Errorf("expected error to contain %q, got: %q", "not a valid podium report", combined)
	}
}

func TestViewPlainRendersSavedReport(t *testing.T) {
	tmp := isolate(t)
	r := &report.Report{
		Session:      report.Meta{SessionID: 7, Duration: "2m0s"},
		Scores:       session.Scores{Posture: 81, Eye: 64, Gesture: 50},
		Tally:        filler.Tally{"um": 3},
		RecordingURL: "https://cdn.example/rec.webm",
	}
	data, err := (&report.YAMLRenderer{}).Render(r)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(tmp, "talk.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(rootCmd, "view", "--plain", path)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	for _, want := range []string{"Session:   7", "Posture:   81%", "um", "https://cdn.example/rec.webm"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// Feature: podium, Property 13: Plain view section order
func TestViewSectionOrder(t *testing.T) {
	sectionHeaders := []string{
		"## Summary",
		"## Scores",
		"## Filler Words",
		"## Transcript",
		"## Recording",
	}

	rapid.Check(t, func(rt *rapid.T) {
		r := generateViewReport(rt)

		var buf bytes.Buffer
		printReport(&buf, r)
		output := buf.String()

		positions := make([]int, len(sectionHeaders))
		for i, header := range sectionHeaders {
			pos := strings.Index(output, header)
			if pos == -1 {
				rt.Fatalf("section header %q not found in output:\n%s", header, output)
			}
			positions[i] = pos
		}

		for i := 0; i < len(positions)-1; i++ {
			if positions[i] >= positions[i+1] {
				rt.Errorf("section %q (pos %d) does not appear before %q (pos %d)",
					sectionHeaders[i], positions[i], sectionHeaders[i+1], positions[i+1])
			}
		}
	})
}
