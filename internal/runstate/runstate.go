package runstate

import "time"

// Run is the on-disk marker for a session owned by a running podium process.
type Run struct {
	ID         string    `json:"id"`
	PID        int       `json:"pid"`
	StartTime  time.Time `json:"start_time"`
	SessionID  int64     `json:"session_id,omitempty"` // assigned by the backend once start succeeds
	BackendURL string    `json:"backend_url"`
	SpoolDir   string    `json:"spool_dir"`
	Executable string    `json:"executable,omitempty"` // binary of the owning process
}

// Elapsed reports how long the run has been going as of now.
func (r *Run) Elapsed(now time.Time) time.Duration {
	if r.StartTime.IsZero() || now.Before(r.StartTime) {
		return 0
	}
	return now.Sub(r.StartTime)
}
