// Package matrix drives monochrome LED panels built from chained shift
// registers with a latch.
//
// A panel is wired to three digital outputs: clock, data and strobe. Each
// clock pulse shifts the level currently held on the data line into the
// register chain; a strobe pulse copies the whole chain onto the LEDs at once.
// The driver keeps no pixel buffer, every call immediately toggles the lines.
//
// Exactly height*width bits must be shifted between two strobes, otherwise the
// visible image is misaligned until the next full Clear.
package matrix

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// Pin is a write-only digital output. Any periph gpio.PinOut satisfies it.
type Pin interface {
	Out(l gpio.Level) error
}

// LedMatrix is the handle of one independently addressable panel.
type LedMatrix struct {
	clock  Pin
	data   Pin
	strobe Pin

	height int
	width  int

	// bits shifted since the last strobe
	pending int
}

// New returns a driver owning the three lines of a panel.
//
// The lines must be distinct: two drivers, or two roles of the same driver,
// never share a line.
func New(clock, data, strobe Pin, height, width int) (*LedMatrix, error) {
	if clock == nil || data == nil || strobe == nil {
		return nil, errors.New("matrix: clock, data and strobe lines are required")
	}
	if clock == data || clock == strobe || data == strobe {
		return nil, errors.New("matrix: clock, data and strobe must be distinct lines")
	}
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("matrix: invalid dimensions %dx%d", width, height)
	}
	if height > MaxPixels/width {
		return nil, fmt.Errorf("matrix: %dx%d exceeds %d pixels", width, height, MaxPixels)
	}
	return &LedMatrix{
		clock:  clock,
		data:   data,
		strobe: strobe,
		height: height,
		width:  width,
	}, nil
}

// MaxPixels bounds height*width.
const MaxPixels = 1 << 16

// Height returns the number of pixel rows of the panel.
func (m *LedMatrix) Height() int {
	return m.height
}

// Width returns the number of pixel columns of the panel.
func (m *LedMatrix) Width() int {
	return m.width
}

// Pending returns the number of bits shifted since the last Show.
func (m *LedMatrix) Pending() int {
	return m.pending
}

func (m *LedMatrix) String() string {
	return fmt.Sprintf("matrix.LedMatrix{%dx%d}", m.width, m.height)
}

// PulseClock drives the clock line high then low, shifting the level held on
// the data line into the chain.
func (m *LedMatrix) PulseClock() {
	m.out(m.clock, "clock", gpio.High)
	m.out(m.clock, "clock", gpio.Low)
	m.pending++
}

// Show pulses the strobe line, latching the shifted bits onto the LEDs.
func (m *LedMatrix) Show() {
	if m.pending != m.height*m.width {
		logrus.Debugf("%s: strobing after %d shifted bits", m, m.pending)
	}
	m.out(m.strobe, "strobe", gpio.High)
	m.out(m.strobe, "strobe", gpio.Low)
	m.pending = 0
}

// Clear loads "off" into every cell of the chain. The LEDs change only on the
// next Show.
func (m *LedMatrix) Clear() {
	m.out(m.data, "data", gpio.Low)
	m.pending = 0
	for i := 0; i < m.height*m.width; i++ {
		m.PulseClock()
	}
}

// PixelOn shifts one lit pixel into the chain.
func (m *LedMatrix) PixelOn() {
	m.out(m.data, "data", gpio.High)
	m.PulseClock()
}

// PixelOff shifts one dark pixel into the chain.
func (m *LedMatrix) PixelOff() {
	m.out(m.data, "data", gpio.Low)
	m.PulseClock()
}

// PushRow shifts 8 pixels into the chain, most significant bit first.
func (m *LedMatrix) PushRow(row byte) {
	for i := 7; i >= 0; i-- {
		if row&(1<<uint(i)) != 0 {
			m.PixelOn()
		} else {
			m.PixelOff()
		}
	}
}

// out writes a level on a line. A failing line means the signal path can no
// longer be trusted, so it is fatal.
func (m *LedMatrix) out(p Pin, name string, l gpio.Level) {
	if err := p.Out(l); err != nil {
		logrus.Panicf("%s: unable to drive %s line %s: %v", m, name, l, err)
	}
}
