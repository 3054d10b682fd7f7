package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/podium/internal/capture"
	"github.com/fakeyudi/podium/internal/history"
	"github.com/fakeyudi/podium/internal/report"
	"github.com/fakeyudi/podium/internal/runstate"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// isolate points every on-disk location at temp dirs and resets flag state
// left over from earlier commands.
func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("PODIUM_BEEP", "off")
	t.Setenv("PODIUM_LOG_LEVEL", "error")

	logLevelFlag = ""
	startScript, startFormat, startFeedAddr = "", "", ""
	startDuration = 0
	startPlain = false
	stopWait = 30 * time.Second
	plainOutput = false
	historyLimit = 20
	return tmp
}

// TestDoubleStartError verifies that running "start" when a session is already
// active returns an error containing "session already in progress".
func TestDoubleStartError(t *testing.T) {
	isolate(t)

	store, err := runstate.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Save(&runstate.Run{ID: "test-id", PID: os.Getpid(), StartTime: time.Now()}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := executeCommand(rootCmd, "start", "--plain")
	if err == nil {
		t.Fatal("expected an error from double-start, got nil")
	}
	combined := out + err.Error()
	if !strings.Contains(combined, "session already in progress") {
		t.Errorf("expected error to contain %q, got: %q", "session already in progress", combined)
	}
}

func writeFrame(t *testing.T, dir string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 120, G: 120, B: 120, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, capture.FrameFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

type fakeService struct {
	frames  atomic.Int32
	stopped atomic.Int32
	script  atomic.Value
}

func (s *fakeService) handler(t *testing.T) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/script", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Script string `json:"script"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Errorf("decode script: %v", err)
		}
		s.script.Store(body.Script)
		w.Write([]byte(`{}`))
	})
	r.Post("/api/start", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"session_id": 42, "status": "started"}`))
	})
	r.Post("/api/frame", func(w http.ResponseWriter, req *http.Request) {
		s.frames.Add(1)
		w.Write([]byte(`{"posture_score": 80, "eye_score": 60, "gesture_score": 40,
			"posture_status": "Upright", "eye_status": "Centered", "gesture_status": "Open"}`))
	})
	r.Get("/api/transcripts", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"transcripts": [{"text": "um so welcome", "time": 1.5, "fillers": [{"word": "um", "time": 1.5}]}]}`))
	})
	r.Get("/api/pause-events", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"count": 0, "speaking_active": true}`))
	})
	r.Post("/api/stop", func(w http.ResponseWriter, req *http.Request) {
		s.stopped.Add(1)
		w.Write([]byte(`{}`))
	})
	return r
}

func TestStartRunsSessionAndWritesReport(t *testing.T) {
	tmp := isolate(t)
	svc := &fakeService{}
	srv := httptest.NewServer(svc.handler(t))
	defer srv.Close()

	spoolDir := filepath.Join(tmp, "spool")
	outDir := filepath.Join(tmp, "reports")
	dbPath := filepath.Join(tmp, "history.db")
	if err := os.MkdirAll(spoolDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFrame(t, spoolDir)
	scriptPath := filepath.Join(tmp, "talk.txt")
	if err := os.WriteFile(scriptPath, []byte("welcome everyone"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PODIUM_BACKEND_URL", srv.URL)
	t.Setenv("PODIUM_SPOOL_DIR", spoolDir)
	t.Setenv("PODIUM_OUTPUT_DIR", outDir)
	t.Setenv("PODIUM_HISTORY_PATH", dbPath)

	out, err := executeCommand(rootCmd, "start", "--plain", "--format", "json",
		"--duration", "2500ms", "--script", scriptPath)
	if err != nil {
		t.Fatalf("start: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Session 42 started") || !strings.Contains(out, "Session stopped. Report:") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if got := svc.stopped.Load(); got != 1 {
		t.Errorf("backend stop called %d times, want 1", got)
	}
	if svc.frames.Load() == 0 {
		t.Error("no frames were submitted")
	}
	if got, _ := svc.script.Load().(string); got != "welcome everyone" {
		t.Errorf("script = %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(outDir, "podium-*.json"))
	if len(matches) != 1 {
		t.Fatalf("expected one report, found %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	r, err := (&report.JSONParser{}).Parse(data)
	if err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if r.Session.SessionID != 42 {
		t.Errorf("session id = %d, want 42", r.Session.SessionID)
	}
	if r.Scores.Posture != 80 || r.Status.Eye != "Centered" {
		t.Errorf("scores = %+v status = %+v", r.Scores, r.Status)
	}
	if r.Tally["um"] != 1 {
		t.Errorf("tally = %v, want um:1", r.Tally)
	}

	store, _ := runstate.NewStore()
	if _, err := store.Load(); err != runstate.ErrNoRun {
		t.Errorf("run marker left behind: %v", err)
	}

	db, err := history.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	recs, err := db.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].SessionID != 42 || recs[0].ReportPath != matches[0] {
		t.Errorf("history = %+v", recs)
	}
}

func TestStartBackendRefusalLeavesNoMarker(t *testing.T) {
	tmp := isolate(t)
	r := chi.NewRouter()
	r.Post("/api/start", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	t.Setenv("PODIUM_BACKEND_URL", srv.URL)
	t.Setenv("PODIUM_SPOOL_DIR", filepath.Join(tmp, "spool"))

	_, err := executeCommand(rootCmd, "start", "--plain", "--duration", "1s")
	if err == nil || !strings.Contains(err.Error(), "starting session") {
		t.Fatalf("expected start failure, got %v", err)
	}
	store, _ := runstate.NewStore()
	if _, err := store.Load(); err != runstate.ErrNoRun {
		t.Errorf("run marker left behind: %v", err)
	}
}
