package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/podium/internal/session"
)

// Source supplies live snapshots. *session.Controller implements it.
type Source interface {
	Snapshot() session.Snapshot
}

type updateMsg struct{}

type feedClosedMsg struct{}

// Live is the dashboard shown while a session runs. Quitting it asks the
// caller to stop the session; Live itself never stops anything.
type Live struct {
	src     Source
	updates <-chan struct{}
	snap    session.Snapshot

	bars       [3]progress.Model
	transcript viewport.Model
	width      int
	height     int
	ready      bool
	quit       bool
}

// NewLive returns a dashboard that refreshes from src whenever updates fires.
func NewLive(src Source, updates <-chan struct{}) Live {
	m := Live{src: src, updates: updates, snap: src.Snapshot()}
	for i := range m.bars {
		m.bars[i] = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	}
	return m
}

func (m Live) waitForUpdate() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return feedClosedMsg{}
		}
		return updateMsg{}
	}
}

func (m Live) Init() tea.Cmd { return m.waitForUpdate() }

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		}
		if m.ready {
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}
		return m, nil

	case updateMsg:
		m.snap = m.src.Snapshot()
		m.refreshTranscript()
		return m, m.waitForUpdate()

	case feedClosedMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		barWidth := msg.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
		for i := range m.bars {
			m.bars[i].Width = barWidth
		}
		// title, alert line, blank, 3 score rows, blank, fillers, heading, status
		vpHeight := m.height - 11
		if vpHeight < 1 {
			vpHeight = 1
		}
		m.transcript = viewport.New(m.width, vpHeight)
		m.ready = true
		m.refreshTranscript()
		return m, nil
	}
	return m, nil
}

func (m *Live) refreshTranscript() {
	if !m.ready {
		return
	}
	atBottom := m.transcript.AtBottom()
	var sb strings.Builder
	if len(m.snap.Transcripts) == 0 {
		sb.WriteString(dimStyle.Render("  (waiting for speech)"))
	}
	for _, e := range m.snap.Transcripts {
		sb.WriteString("  " + timeStyle.Render(clock(int(e.Time))) + "  " + e.Text + "\n")
	}
	m.transcript.SetContent(sb.String())
	if atBottom {
		m.transcript.GotoBottom()
	}
}

// Quit reports whether the user asked to end the session.
func (m Live) Quit() bool { return m.quit }

func (m Live) View() string {
	if !m.ready {
		return "Connecting…"
	}
	s := m.snap

	rec := dimStyle.Render("○ idle")
	if s.Running {
		rec = recStyle.Render("● REC")
	}
	title := titleStyle.Width(m.width).Render(fmt.Sprintf("  podium  session %d  %s", s.SessionID, clock(s.ElapsedSeconds)))

	alert := ""
	if s.PauseAlert {
		alert = alertStyle.Render("  LONG PAUSE: keep talking  ")
	}

	scoreRow := func(i int, label string, value int, status string) string {
		return labelStyle.Render(fmt.Sprintf("  %-12s", label)) +
			m.bars[i].ViewAs(float64(value)/100) +
			fmt.Sprintf(" %3d ", value) + dimStyle.Render(orDash(status))
	}

	var fillers string
	if len(s.Tally) == 0 {
		fillers = dimStyle.Render("none yet")
	} else {
		parts := make([]string, 0, len(s.Tally))
		for _, w := range s.Tally.Ranked() {
			parts = append(parts, fmt.Sprintf("%s ×%d", w, s.Tally[w]))
		}
		fillers = strings.Join(parts, "  ")
	}

	right := fmt.Sprintf("%s  pauses %d", rec, s.AlertsRaised)
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		alert,
		"",
		scoreRow(0, "Posture", s.Scores.Posture, s.Status.Posture),
		scoreRow(1, "Eye contact", s.Scores.Eye, s.Status.Eye),
		scoreRow(2, "Gestures", s.Scores.Gesture, s.Status.Gesture),
		"",
		labelStyle.Render("  Fillers     ")+fillers,
		sectionHeader.Render("  Transcript"),
		m.transcript.View(),
		statusBar(m.width, "  ↑/↓ scroll  q stop session", right),
	)
}

// StatusLine is a one-line summary for non-interactive output.
func StatusLine(s session.Snapshot) string {
	alert := ""
	if s.PauseAlert {
		alert = "  [LONG PAUSE]"
	}
	return fmt.Sprintf("[%s] posture %d (%s)  eye %d (%s)  gesture %d (%s)  fillers %d%s",
		clock(s.ElapsedSeconds),
		s.Scores.Posture, orDash(s.Status.Posture),
		s.Scores.Eye, orDash(s.Status.Eye),
		s.Scores.Gesture, orDash(s.Status.Gesture),
		s.Tally.Total(), alert)
}

// RunLive shows the dashboard until the user quits or updates closes. It
// reports whether the user quit.
func RunLive(src Source, updates <-chan struct{}) (bool, error) {
	p := tea.NewProgram(NewLive(src, updates), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	if m, ok := final.(Live); ok {
		return m.Quit(), nil
	}
	return false, nil
}
