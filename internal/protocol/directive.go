package protocol

import (
	"io"
)

type directive struct {
	key   byte
	usage string
	run   func(it *Interpreter, out io.Writer)
}

// directives is ordered as printed by the help text. The escape entry has no
// handler: the interpreter deals with it before looking up directives.
var directives []directive

func init() {
	directives = []directive{
		{'h', "print this help", help},
		{'0', "send rows to display 0", selectDisplay(Display0)},
		{'1', "send rows to display 1", selectDisplay(Display1)},
		{'s', "strobe: show shifted rows on the active display", showDisplay},
		{'c', "clear the active display (shown on next strobe)", clearDisplay},
		{'i', "toggle instant strobe after every row", toggleInstantStrobe},
		{'q', "quiet: stop sending replies", quiet},
		{ControlByte, "send a literal '.' row", nil},
	}
}

func help(it *Interpreter, out io.Writer) {
	it.reply(out, "Every byte is shifted into the active display as one 8-bit row.")
	it.reply(out, "Commands start with '%c':", ControlByte)
	for _, dir := range directives {
		it.reply(out, "  %c%c  %s", ControlByte, dir.key, dir.usage)
	}
}

func selectDisplay(id DisplayId) func(it *Interpreter, out io.Writer) {
	return func(it *Interpreter, out io.Writer) {
		if it.displays[id] == nil {
			it.reply(out, "Row %d is not connected", id)
			return
		}
		it.state.Active = id
		it.reply(out, "Switching to row %d", id)
	}
}

func showDisplay(it *Interpreter, out io.Writer) {
	it.active().Show()
	it.reply(out, "Strobing")
}

func clearDisplay(it *Interpreter, out io.Writer) {
	it.active().Clear()
	it.reply(out, "Clearing")
}

func toggleInstantStrobe(it *Interpreter, out io.Writer) {
	it.state.InstantStrobe = !it.state.InstantStrobe
	if it.state.InstantStrobe {
		it.reply(out, "Instant strobe on")
	} else {
		it.reply(out, "Instant strobe off")
	}
}

func quiet(it *Interpreter, _ io.Writer) {
	it.state.Quiet = true
}
