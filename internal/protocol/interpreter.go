// Package protocol interprets the single-byte command stream that loads row
// data into the panels.
//
// Every byte is row data for the active display, except the control byte '.'
// which makes the next byte a directive. A doubled control byte pushes a
// literal '.' row. The stream is not framed: grouping rows into images is up
// to the sender.
package protocol

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// ControlByte switches the interpreter into command mode.
const ControlByte = '.'

// Display is what the interpreter needs from a panel.
type Display interface {
	PushRow(row byte)
	Show()
	Clear()
}

// DisplayId selects the panel receiving literal bytes.
type DisplayId int

const (
	Display0 DisplayId = iota
	Display1
)

// State is the mutable interpreter state. It is never persisted.
type State struct {
	CommandMode   bool      `json:"command_mode"`
	Active        DisplayId `json:"active_display"`
	InstantStrobe bool      `json:"instant_strobe"`
	Quiet         bool      `json:"quiet"`
}

// Interpreter dispatches incoming bytes to the displays.
//
// It is not safe for concurrent use: one control loop feeds it.
type Interpreter struct {
	state    State
	displays [2]Display
}

// NewInterpreter returns an interpreter in literal mode driving the given
// displays. A nil second display means only one panel is connected.
func NewInterpreter(state State, display0, display1 Display) *Interpreter {
	state.CommandMode = false
	if display1 == nil {
		state.Active = Display0
	}
	return &Interpreter{
		state:    state,
		displays: [2]Display{display0, display1},
	}
}

// State returns a snapshot of the interpreter state.
func (it *Interpreter) State() State {
	return it.state
}

// Feed dispatches a batch of bytes in arrival order. Replies go to out.
func (it *Interpreter) Feed(data []byte, out io.Writer) {
	for _, b := range data {
		it.Dispatch(b, out)
	}
}

// Inject runs a complete sequence from literal mode and then restores the
// command mode of the stream it interrupts. A control byte left pending by the
// stream stays pending, a trailing one in data is dropped.
func (it *Interpreter) Inject(data []byte, out io.Writer) {
	pending := it.state.CommandMode
	it.state.CommandMode = false
	it.Feed(data, out)
	it.state.CommandMode = pending
}

// Dispatch handles one byte. The rules are checked in priority order.
func (it *Interpreter) Dispatch(b byte, out io.Writer) {
	st := &it.state
	switch {
	case st.CommandMode && b == ControlByte:
		// escaped control byte
		st.CommandMode = false
		it.pushRow(b)
	case st.CommandMode:
		st.CommandMode = false
		it.directive(b, out)
	case b == ControlByte:
		st.CommandMode = true
	default:
		it.pushRow(b)
	}
}

func (it *Interpreter) active() Display {
	return it.displays[it.state.Active]
}

func (it *Interpreter) pushRow(b byte) {
	d := it.active()
	d.PushRow(b)
	if it.state.InstantStrobe {
		d.Show()
	}
}

func (it *Interpreter) directive(b byte, out io.Writer) {
	for _, dir := range directives {
		if dir.key == b && dir.run != nil {
			logrus.Debugf("Directive %q: %s", b, dir.usage)
			dir.run(it, out)
			return
		}
	}
	logrus.Debugf("Invalid directive %q", b)
	it.reply(out, "Invalid command character")
}

// reply writes one CRLF terminated line. Write errors are dropped.
func (it *Interpreter) reply(out io.Writer, format string, args ...interface{}) {
	if it.state.Quiet || out == nil {
		return
	}
	if _, err := fmt.Fprintf(out, format+"\r\n", args...); err != nil {
		logrus.Debugf("Reply dropped: %v", err)
	}
}
