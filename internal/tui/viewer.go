package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/podium/internal/report"
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabScores
	tabFillers
	tabTranscript
	tabTimeline
	tabCount
)

var tabNames = [tabCount]string{
	"Summary", "Scores", "Fillers", "Transcript", "Timeline",
}

type eventKind string

const (
	kindSpeech eventKind = "SPEECH"
	kindFiller eventKind = "FILLER"
)

// timelineEvent is one transcript line or filler at an offset into the session.
type timelineEvent struct {
	at   float64
	kind eventKind
	text string
}

// Viewer is the Bubble Tea model for browsing a saved report.
type Viewer struct {
	report    *report.Report
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	sortAsc   bool
	timeline  []timelineEvent
}

// NewViewer creates a viewer for r loaded from filename.
func NewViewer(r *report.Report, filename string) Viewer {
	return Viewer{
		report:   r,
		filename: filepath.Base(filename),
		sortAsc:  true,
		timeline: buildTimeline(r),
	}
}

func (m Viewer) Init() tea.Cmd { return nil }

func (m Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4", "5":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "s":
			if m.activeTab == tabTimeline && m.ready {
				m.sortAsc = !m.sortAsc
				m.viewports[tabTimeline].SetContent(m.renderTab(tabTimeline))
				m.viewports[tabTimeline].GotoTop()
			}
		}
		if !m.ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Viewer) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  podium  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-5 jump  q quit"
	if m.activeTab == tabTimeline {
		dir := "oldest first"
		if !m.sortAsc {
			dir = "newest first"
		}
		hint += "  s sort (" + dir + ")"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar(m.width, hint, pct))
}

func (m *Viewer) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Viewer) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabScores:
		return m.renderScores()
	case tabFillers:
		return m.renderFillers()
	case tabTranscript:
		return m.renderTranscript()
	case tabTimeline:
		return m.renderTimeline()
	}
	return ""
}

func (m *Viewer) row(sb *strings.Builder, label, value string) {
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-16s", label)) + "  " + value + "\n")
}

func (m *Viewer) renderSummary() string {
	r := m.report
	s := r.Session
	var sb strings.Builder
	sb.WriteString(heading("Session Summary"))
	m.row(&sb, "Session:", fmt.Sprintf("%d", s.SessionID))
	if s.Speaker != "" {
		m.row(&sb, "Speaker:", s.Speaker)
	}
	m.row(&sb, "Started:", s.StartTime.Format("2006-01-02 15:04:05 MST"))
	m.row(&sb, "Stopped:", s.StopTime.Format("2006-01-02 15:04:05 MST"))
	m.row(&sb, "Duration:", s.Duration)
	m.row(&sb, "Recorded:", clock(s.ElapsedSeconds))
	if r.RecordingURL != "" {
		m.row(&sb, "Recording:", r.RecordingURL)
	} else {
		m.row(&sb, "Recording:", dimStyle.Render("(none stored)"))
	}

	sb.WriteString(heading("Counts"))
	m.row(&sb, "Frames scored:", fmt.Sprintf("%d", r.Samples))
	m.row(&sb, "Transcript lines:", fmt.Sprintf("%d", len(r.Transcript)))
	m.row(&sb, "Filler words:", fmt.Sprintf("%d", r.Tally.Total()))
	m.row(&sb, "Long pauses:", fmt.Sprintf("%d", r.PauseAlerts))
	return sb.String()
}

func (m *Viewer) renderScores() string {
	r := m.report
	var sb strings.Builder
	sb.WriteString(heading("Rolling Scores"))
	m.row(&sb, "Posture:", fmt.Sprintf("%3d  %s", r.Scores.Posture, orDash(r.Status.Posture)))
	m.row(&sb, "Eye contact:", fmt.Sprintf("%3d  %s", r.Scores.Eye, orDash(r.Status.Eye)))
	m.row(&sb, "Gestures:", fmt.Sprintf("%3d  %s", r.Scores.Gesture, orDash(r.Status.Gesture)))
	return sb.String()
}

func (m *Viewer) renderFillers() string {
	r := m.report
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Filler Words (%d)", r.Tally.Total())))
	if len(r.Tally) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, w := range r.Tally.Ranked() {
		sb.WriteString(bullet(fmt.Sprintf("%-12s %d", w, r.Tally[w])))
	}
	return sb.String()
}

func (m *Viewer) renderTranscript() string {
	r := m.report
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Transcript (%d)", len(r.Transcript))))
	if len(r.Transcript) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, e := range r.Transcript {
		ts := timeStyle.Render(clock(int(e.Time)))
		sb.WriteString(fmt.Sprintf("  %s  %s\n\n", ts, e.Text))
	}
	return sb.String()
}

func (m *Viewer) renderTimeline() string {
	var sb strings.Builder
	dir := "oldest first"
	if !m.sortAsc {
		dir = "newest first"
	}
	sb.WriteString(heading(fmt.Sprintf("Timeline (%s)", dir)))

	events := make([]timelineEvent, len(m.timeline))
	copy(events, m.timeline)
	sort.SliceStable(events, func(i, j int) bool {
		if m.sortAsc {
			return events[i].at < events[j].at
		}
		return events[i].at > events[j].at
	})

	if len(events) == 0 {
		sb.WriteString(dimStyle.Render("  (no timed events in this session)") + "\n")
		return sb.String()
	}
	for _, ev := range events {
		ts := timeStyle.Render(fmt.Sprintf("%6s", clock(int(ev.at))))
		var badge string
		switch ev.kind {
		case kindFiller:
			badge = kindFillerStyle.Render(fmt.Sprintf("  %-7s", string(ev.kind)))
		default:
			badge = kindSpeechStyle.Render(fmt.Sprintf("  %-7s", string(ev.kind)))
		}
		sb.WriteString(ts + badge + "  " + ev.text + "\n\n")
	}
	return sb.String()
}

func buildTimeline(r *report.Report) []timelineEvent {
	var events []timelineEvent
	for _, e := range r.Transcript {
		events = append(events, timelineEvent{at: e.Time, kind: kindSpeech, text: e.Text})
	}
	for _, f := range r.Fillers {
		events = append(events, timelineEvent{at: f.Time, kind: kindFiller, text: f.Word})
	}
	return events
}

// RunViewer starts the viewer for r.
func RunViewer(r *report.Report, filename string) error {
	p := tea.NewProgram(NewViewer(r, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
