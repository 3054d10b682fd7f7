package runstate_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/podium/internal/runstate"
)

func generateRun(t *rapid.T) *runstate.Run {
	sec := rapid.Int64Range(0, 1_700_000_000).Draw(t, "unix_sec")
	return &runstate.Run{
		ID:         rapid.StringN(1, 36, -1).Draw(t, "id"),
		PID:        rapid.IntRange(1, 1<<22).Draw(t, "pid"),
		StartTime:  time.Unix(sec, 0).UTC(),
		SessionID:  rapid.Int64Range(0, 1<<40).Draw(t, "session_id"),
		BackendURL: rapid.StringN(0, 80, -1).Draw(t, "backend_url"),
		SpoolDir:   rapid.StringN(0, 80, -1).Draw(t, "spool_dir"),
	}
}

// Feature: podium, Property 9: Run marker persistence round-trip
func TestRunPersistenceRoundTrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := runstate.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	rapid.Check(t, func(t *rapid.T) {
		original := generateRun(t)
		if err := store.Save(original); err != nil {
			t.Fatalf("Save: %v", err)
		}
		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if loaded.ID != original.ID || loaded.PID != original.PID || loaded.SessionID != original.SessionID {
			t.Errorf("identity mismatch: got %+v, want %+v", loaded, original)
		}
		if !loaded.StartTime.Equal(original.StartTime) {
			t.Errorf("StartTime mismatch: got %v, want %v", loaded.StartTime, original.StartTime)
		}
		if loaded.BackendURL != original.BackendURL || loaded.SpoolDir != original.SpoolDir {
			t.Errorf("paths mismatch: got %+v, want %+v", loaded, original)
		}
	})
}

func TestLoadReturnsErrNoRun(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := runstate.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, runstate.ErrNoRun) {
		t.Errorf("expected ErrNoRun, got: %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := runstate.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Save(&runstate.Run{ID: "x", PID: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.Delete(); err != nil {
			t.Fatalf("Delete %d: %v", i, err)
		}
	}
	if _, err := store.Load(); !errors.Is(err, runstate.ErrNoRun) {
		t.Errorf("expected ErrNoRun after delete, got: %v", err)
	}
}

func TestNewStoreFailsInUnwritableDir(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root; permission checks are ineffective")
	}
	tmp := t.TempDir()
	if err := os.Chmod(tmp, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(tmp, 0o755) })
	t.Setenv("XDG_DATA_HOME", tmp)

	if _, err := runstate.NewStore(); err == nil {
		t.Fatal("expected error creating store in unwritable directory, got nil")
	}
}

func TestElapsed(t *testing.T) {
	start := time.Unix(1000, 0)
	r := &runstate.Run{StartTime: start}
	if got := r.Elapsed(start.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("Elapsed: got %v", got)
	}
	if got := r.Elapsed(start.Add(-time.Second)); got != 0 {
		t.Errorf("Elapsed before start: got %v", got)
	}
}
