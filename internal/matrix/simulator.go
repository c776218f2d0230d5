package matrix

import (
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// Simulator models a panel in memory: a chain of height*width register cells
// and the latched frame visible on the LEDs.
//
// Chain index 0 holds the most recently shifted bit. Index i is displayed at
// column i/height, row i%height.
type Simulator struct {
	lock sync.RWMutex

	height int
	width  int

	chain []bool
	frame []bool

	data      gpio.Level
	clockHigh bool
	strobeHi  bool

	clock  simLine
	dataL  simLine
	strobe simLine
}

type simLine struct {
	out func(l gpio.Level)
}

func (s *simLine) Out(l gpio.Level) error {
	s.out(l)
	return nil
}

// NewSimulator returns an all-off panel model.
func NewSimulator(height, width int) *Simulator {
	s := &Simulator{
		height: height,
		width:  width,
		chain:  make([]bool, height*width),
		frame:  make([]bool, height*width),
	}
	s.clock.out = s.onClock
	s.dataL.out = s.onData
	s.strobe.out = s.onStrobe
	return s
}

// Clock returns the clock input of the panel.
func (s *Simulator) Clock() Pin { return &s.clock }

// Data returns the data input of the panel.
func (s *Simulator) Data() Pin { return &s.dataL }

// Strobe returns the strobe input of the panel.
func (s *Simulator) Strobe() Pin { return &s.strobe }

func (s *Simulator) onData(l gpio.Level) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.data = l
}

func (s *Simulator) onClock(l gpio.Level) {
	s.lock.Lock()
	defer s.lock.Unlock()
	rising := l == gpio.High && !s.clockHigh
	s.clockHigh = l == gpio.High
	if !rising || len(s.chain) == 0 {
		return
	}
	copy(s.chain[1:], s.chain[:len(s.chain)-1])
	s.chain[0] = bool(s.data)
}

func (s *Simulator) onStrobe(l gpio.Level) {
	s.lock.Lock()
	defer s.lock.Unlock()
	rising := l == gpio.High && !s.strobeHi
	s.strobeHi = l == gpio.High
	if rising {
		copy(s.frame, s.chain)
	}
}

// Frame returns a copy of the latched bits in chain order.
func (s *Simulator) Frame() []bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	frame := make([]bool, len(s.frame))
	copy(frame, s.frame)
	return frame
}

// Lit reports whether the LED at column x, row y is on.
func (s *Simulator) Lit(x, y int) bool {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return false
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.frame[x*s.height+y]
}

// Render draws the latched frame, one text line per pixel row.
func (s *Simulator) Render() string {
	var sb strings.Builder
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			if s.Lit(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
