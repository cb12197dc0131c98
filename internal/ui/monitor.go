package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wavecap/internal/capture"
)

// historyLines is how many recent outcomes the activity log keeps on screen.
const historyLines = 8

// Model represents the capture monitor state.
type Model struct {
	events <-chan capture.Event
	bar    progress.Model

	channel   string
	track     string
	remaining float64
	total     float64
	capturing bool
	closed    bool
	history   []string
	width     int
	keys      keyMap
}

// keyMap defines the key bindings for the monitor.
type keyMap struct {
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// NewModel creates a monitor consuming scheduler events.
func NewModel(events <-chan capture.Event) Model {
	return Model{
		events: events,
		bar:    progress.New(progress.WithDefaultGradient()),
		width:  80,
		keys:   newKeyMap(),
	}
}

// Init subscribes to the event channel.
func (m Model) Init() tea.Cmd {
	return m.listen()
}

// listen waits for the next capture event.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return eventsClosedMsg()
		}
		return captureEventMsg(ev)
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		return m, nil

	case Msg:
		switch msg.kind {
		case MsgCaptureEvent:
			m.apply(msg.data.(capture.Event))
			return m, m.listen()
		case MsgEventsClosed:
			m.closed = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// apply folds one capture event into the display state.
func (m *Model) apply(ev capture.Event) {
	switch ev.Kind {
	case capture.EventPolling:
		m.channel = ev.Channel

	case capture.EventWaiting:
		m.capturing = false
		m.channel = ev.Channel
		m.track = ev.Track

	case capture.EventCaptureStarted:
		m.channel = ev.Channel
		m.track = ev.Track
		m.total = ev.Remaining
		m.remaining = ev.Remaining
		m.capturing = true

	case capture.EventCaptureProgress:
		if ev.Track == m.track {
			m.remaining = ev.Remaining
		}

	case capture.EventPublished:
		m.capturing = false
		m.remaining = 0
		m.push(styles.ok.Render("✓ " + ev.Track))

	case capture.EventFailed:
		m.capturing = false
		m.push(styles.err.Render("✗ " + ev.Track + ": " + ev.Message))

	case capture.EventSkipped:
		m.push(styles.help.Render("- " + ev.Track + " (" + ev.Message + ")"))

	case capture.EventBackoff:
		m.push(styles.warn.Render("! " + ev.Message))
	}
}

// push appends a line to the bounded activity log.
func (m *Model) push(line string) {
	m.history = append(m.history, line)
	if len(m.history) > historyLines {
		m.history = m.history[len(m.history)-historyLines:]
	}
}

// View renders the monitor.
func (m Model) View() string {
	s := styles.title.Render("wavecap · "+m.channel) + "\n"

	if m.capturing && m.total > 0 {
		pct := 1 - m.remaining/m.total
		if pct < 0 {
			pct = 0
		}
		if pct > 1 {
			pct = 1
		}
		s += fmt.Sprintf("Recording: %s (%.0fs left)\n", m.track, m.remaining)
		s += m.bar.ViewAs(pct) + "\n"
	} else if m.closed {
		s += styles.warn.Render("capture run ended") + "\n"
	} else if m.track != "" {
		s += styles.help.Render("waiting: "+m.track) + "\n"
	} else {
		s += styles.help.Render("waiting for the next track...") + "\n"
	}

	if len(m.history) > 0 {
		s += "\n"
		for _, line := range m.history {
			s += line + "\n"
		}
	}

	s += "\n" + styles.help.Render("q to quit")
	return s
}
