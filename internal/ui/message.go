package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wavecap/internal/capture"
)

// MsgKind enumerates all message types in the monitor.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCaptureEvent MsgKind = iota
	MsgEventsClosed
)

// captureEventMsg is the constructor for [MsgCaptureEvent]
func captureEventMsg(ev capture.Event) Msg {
	return Msg{kind: MsgCaptureEvent, data: ev}
}

// eventsClosedMsg is the constructor for [MsgEventsClosed]; the capture run
// has ended and no further events will arrive.
func eventsClosedMsg() Msg {
	return Msg{kind: MsgEventsClosed}
}
