package session

import (
	"time"

	"github.com/fakeyudi/podium/internal/backend"
	"github.com/fakeyudi/podium/internal/filler"
	"github.com/fakeyudi/podium/internal/score"
)

// Scores holds one integer value per metric.
type Scores struct {
	Posture int `json:"posture" yaml:"posture"`
	Eye     int `json:"eye" yaml:"eye"`
	Gesture int `json:"gesture" yaml:"gesture"`
}

// Labels holds the latest qualitative status per metric.
type Labels struct {
	Posture string `json:"posture" yaml:"posture"`
	Eye     string `json:"eye" yaml:"eye"`
	Gesture string `json:"gesture" yaml:"gesture"`
}

// Snapshot is a point-in-time copy of everything a session exposes. It
// shares no memory with the controller.
type Snapshot struct {
	SessionID      int64                 `json:"session_id"`
	Running        bool                  `json:"running"`
	StartedAt      time.Time             `json:"started_at"`
	ElapsedSeconds int                   `json:"elapsed_seconds"`
	Scores         Scores                `json:"scores"`
	Status         Labels                `json:"status"`
	Samples        int                   `json:"samples"`
	History        []backend.FrameScores `json:"history"`
	Transcripts    []filler.Entry        `json:"transcripts"`
	Fillers        []filler.Occurrence   `json:"fillers"`
	Tally          filler.Tally          `json:"filler_tally"`
	PauseAlert     bool                  `json:"pause_alert"`
	AlertsRaised   int                   `json:"alerts_raised"`
	Recording      bool                  `json:"recording"`
	RecordingURL   string                `json:"video_url,omitempty"`
}

// Snapshot returns the live session state. While idle the accumulated
// metrics of the last session remain readable but SessionID is 0.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Final returns the state captured when the last session stopped, including
// its session id and recording locator.
func (c *Controller) Final() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.final
	s.History = append([]backend.FrameScores(nil), s.History...)
	s.Transcripts = append([]filler.Entry(nil), s.Transcripts...)
	s.Fillers = append([]filler.Occurrence(nil), s.Fillers...)
	s.Tally = s.Tally.Clone()
	return s
}

func (c *Controller) snapshotLocked() Snapshot {
	entries := make([]filler.Entry, len(c.transcripts))
	for i, e := range c.transcripts {
		e.Fillers = append([]filler.Occurrence(nil), e.Fillers...)
		entries[i] = e
	}
	return Snapshot{
		SessionID:      c.sessionID,
		Running:        c.running,
		StartedAt:      c.startedAt,
		ElapsedSeconds: c.elapsed,
		Scores: Scores{
			Posture: c.agg.Average(score.Posture),
			Eye:     c.agg.Average(score.Eye),
			Gesture: c.agg.Average(score.Gesture),
		},
		Status: Labels{
			Posture: c.labels[score.Posture],
			Eye:     c.labels[score.Eye],
			Gesture: c.labels[score.Gesture],
		},
		Samples:      c.agg.Window(score.Posture).Len(),
		History:      c.history.Items(),
		Transcripts:  entries,
		Fillers:      append([]filler.Occurrence{}, c.fillers...),
		Tally:        c.tally.Clone(),
		PauseAlert:   c.alarm.Active(),
		AlertsRaised: c.alarm.Raised(),
		Recording:    c.running && c.recording,
		RecordingURL: c.locator,
	}
}
