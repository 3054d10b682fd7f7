package runstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoRun is returned by Load when no run marker exists on disk.
var ErrNoRun = errors.New("no session in progress")

// Store persists the current Run marker.
type Store interface {
	Save(r *Run) error
	Load() (*Run, error) // returns ErrNoRun if none exists
	Delete() error
}

type diskStore struct {
	path string // full path to run.json
}

// NewStore returns a Store backed by the XDG data directory.
// Path: $XDG_DATA_HOME/podium/run.json or ~/.local/share/podium/run.json
func NewStore() (Store, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskStore{path: filepath.Join(dir, "run.json")}, nil
}

// DataDir returns the podium-specific XDG data directory.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "podium"), nil
}

// Save writes r atomically via a temp file and os.Rename.
func (d *diskStore) Save(r *Run) (err error) {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to persist run marker: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), "run-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist run marker: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist run marker: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist run marker: %w", err)
	}
	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to persist run marker: %w", err)
	}
	return nil
}

// Load reads the run marker. Returns ErrNoRun if the file does not exist.
func (d *diskStore) Load() (*Run, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoRun
		}
		return nil, fmt.Errorf("failed to read run marker: %w", err)
	}

	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse run marker: %w", err)
	}
	return &r, nil
}

// Delete removes the run marker.
func (d *diskStore) Delete() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete run marker: %w", err)
	}
	return nil
}
