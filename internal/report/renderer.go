package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(r *Report) ([]byte, error)
}

// JSONRenderer renders a Report as indented JSON.
type JSONRenderer struct{}

func (*JSONRenderer) Render(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// YAMLRenderer renders a Report as YAML.
type YAMLRenderer struct{}

func (*YAMLRenderer) Render(r *Report) ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return out, nil
}

const (
	versionSentinel = "<!-- podium-report-version: 1 -->"
	dataPrefix      = "<!-- podium-data: "
	dataSuffix      = " -->"
)

// MarkdownRenderer renders a Report as human-readable Markdown with an
// embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct{}

func (*MarkdownRenderer) Render(r *Report) ([]byte, error) {
	jsonBytes, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder
	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	fmt.Fprintf(&sb, "# Podium session %d · %s\n\n", r.Session.SessionID,
		r.Session.StopTime.Format("2006-01-02 15:04:05 MST"))

	// ## Summary
	sb.WriteString("## Summary\n\n")
	if r.Session.Speaker != "" {
		fmt.Fprintf(&sb, "- Speaker: %s\n", r.Session.Speaker)
	}
	fmt.Fprintf(&sb, "- Duration: %s\n", r.Session.Duration)
	fmt.Fprintf(&sb, "- Recorded: %s\n", clock(r.Session.ElapsedSeconds))
	fmt.Fprintf(&sb, "- Frames scored: %d\n", r.Samples)
	fmt.Fprintf(&sb, "- Long pauses: %d\n", r.PauseAlerts)
	sb.WriteString("\n")

	// ## Scores
	sb.WriteString("## Scores\n\n")
	sb.WriteString("| Metric | Score | Status |\n")
	sb.WriteString("|--------|-------|--------|\n")
	fmt.Fprintf(&sb, "| Posture | %d | %s |\n", r.Scores.Posture, orDash(r.Status.Posture))
	fmt.Fprintf(&sb, "| Eye contact | %d | %s |\n", r.Scores.Eye, orDash(r.Status.Eye))
	fmt.Fprintf(&sb, "| Gestures | %d | %s |\n", r.Scores.Gesture, orDash(r.Status.Gesture))
	sb.WriteString("\n")

	// ## Filler Words
	sb.WriteString("## Filler Words\n\n")
	if len(r.Tally) == 0 {
		sb.WriteString("_No filler words detected._\n")
	} else {
		for _, w := range r.Tally.Ranked() {
			fmt.Fprintf(&sb, "- %s: %d\n", w, r.Tally[w])
		}
	}
	sb.WriteString("\n")

	// ## Transcript
	sb.WriteString("## Transcript\n\n")
	if len(r.Transcript) == 0 {
		sb.WriteString("_No transcript recorded._\n")
	} else {
		for _, e := range r.Transcript {
			fmt.Fprintf(&sb, "- [%s] %s\n", clock(int(e.Time)), e.Text)
		}
	}
	sb.WriteString("\n")

	// ## Recording
	sb.WriteString("## Recording\n\n")
	if r.RecordingURL == "" {
		sb.WriteString("_No recording was stored._\n")
	} else {
		fmt.Fprintf(&sb, "%s\n", r.RecordingURL)
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// clock formats seconds as m:ss.
func clock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
