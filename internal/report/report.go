// Package report renders a finished session as Markdown, JSON or YAML and
// parses those files back for the viewer.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fakeyudi/podium/internal/filler"
	"github.com/fakeyudi/podium/internal/session"
)

// Report is the complete, renderable summary of one session.
type Report struct {
	Session      Meta                `json:"session" yaml:"session"`
	Scores       session.Scores      `json:"scores" yaml:"scores"`
	Status       session.Labels      `json:"status" yaml:"status"`
	Samples      int                 `json:"samples" yaml:"samples"`
	Transcript   []filler.Entry      `json:"transcript" yaml:"transcript"`
	Fillers      []filler.Occurrence `json:"fillers" yaml:"fillers"`
	Tally        filler.Tally        `json:"filler_tally" yaml:"filler_tally"`
	PauseAlerts  int                 `json:"pause_alerts" yaml:"pause_alerts"`
	RecordingURL string              `json:"video_url,omitempty" yaml:"video_url,omitempty"`
}

// Meta holds summary metadata about the session.
type Meta struct {
	ID             string    `json:"id" yaml:"id"` // local run id
	SessionID      int64     `json:"session_id" yaml:"session_id"`
	Speaker        string    `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	StartTime      time.Time `json:"start_time" yaml:"start_time"`
	StopTime       time.Time `json:"stop_time" yaml:"stop_time"`
	Duration       string    `json:"duration" yaml:"duration"` // human-readable, e.g. "4m12s"
	ElapsedSeconds int       `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Backend        string    `json:"backend,omitempty" yaml:"backend,omitempty"`
}

// New builds a report from the final session snapshot. meta.Duration is
// filled from the start and stop times when empty.
func New(snap session.Snapshot, meta Meta) *Report {
	if meta.SessionID == 0 {
		meta.SessionID = snap.SessionID
	}
	if meta.StartTime.IsZero() {
		meta.StartTime = snap.StartedAt
	}
	meta.ElapsedSeconds = snap.ElapsedSeconds
	if meta.Duration == "" && !meta.StopTime.IsZero() {
		meta.Duration = meta.StopTime.Sub(meta.StartTime).Round(time.Second).String()
	}

	tally := snap.Tally
	if tally == nil {
		tally = filler.Tally{}
	}
	transcript := snap.Transcripts
	if transcript == nil {
		transcript = []filler.Entry{}
	}
	fillers := snap.Fillers
	if fillers == nil {
		fillers = []filler.Occurrence{}
	}
	return &Report{
		Session:      meta,
		Scores:       snap.Scores,
		Status:       snap.Status,
		Samples:      snap.Samples,
		Transcript:   transcript,
		Fillers:      fillers,
		Tally:        tally,
		PauseAlerts:  snap.AlertsRaised,
		RecordingURL: snap.RecordingURL,
	}
}

// Formats lists the supported output formats with their file extensions.
var Formats = map[string]string{
	"markdown": ".md",
	"json":     ".json",
	"yaml":     ".yaml",
}

// RendererFor returns the renderer for a format name.
func RendererFor(format string) (Renderer, error) {
	switch format {
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "yaml", "yml":
		return &YAMLRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// ParserFor picks a parser from the file extension.
func ParserFor(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".json":
		return &JSONParser{}, nil
	case ".yaml", ".yml":
		return &YAMLParser{}, nil
	}
	return nil, fmt.Errorf("unsupported report file %q: want .md, .json or .yaml", path)
}

// FileName returns the report file name for a session stopped at t.
func FileName(t time.Time, format string) string {
	ext, ok := Formats[format]
	if !ok {
		ext = ".md"
	}
	return "podium-" + t.Format("20060102-150405") + ext
}
