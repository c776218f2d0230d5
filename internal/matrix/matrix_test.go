package matrix

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type transition struct {
	line  string
	level gpio.Level
}

// recPin is a fake periph output recording every write in a log shared by
// the three lines of a panel.
type recPin struct {
	gpiotest.Pin
	log *[]transition
}

var _ gpio.PinOut = &recPin{}

func (p *recPin) Out(l gpio.Level) error {
	*p.log = append(*p.log, transition{p.N, l})
	return nil
}

type failPin struct{}

func (failPin) Out(gpio.Level) error { return errors.New("line gone") }

func newRecorded(t *testing.T, height, width int) (*LedMatrix, *[]transition) {
	t.Helper()
	log := &[]transition{}
	m, err := New(
		&recPin{Pin: gpiotest.Pin{N: "CLK"}, log: log},
		&recPin{Pin: gpiotest.Pin{N: "DAT"}, log: log},
		&recPin{Pin: gpiotest.Pin{N: "STB"}, log: log},
		height, width)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m, log
}

// shifted decodes the recorded transitions into the data level sampled on each
// rising clock edge.
func shifted(log []transition) []bool {
	var data gpio.Level
	var bits []bool
	for _, tr := range log {
		switch tr.line {
		case "DAT":
			data = tr.level
		case "CLK":
			if tr.level == gpio.High {
				bits = append(bits, bool(data))
			}
		}
	}
	return bits
}

func count(log []transition, line string, level gpio.Level) int {
	n := 0
	for _, tr := range log {
		if tr.line == line && tr.level == level {
			n++
		}
	}
	return n
}

func TestNewValidation(t *testing.T) {
	a, b, c := &recPin{}, &recPin{}, &recPin{}
	tests := []struct {
		name          string
		clock, d, stb Pin
		h, w          int
		wantErr       bool
	}{
		{"valid 8x72", a, b, c, 8, 72, false},
		{"missing strobe", a, b, nil, 8, 72, true},
		{"shared clock and data", a, a, c, 8, 72, true},
		{"shared data and strobe", a, b, b, 8, 72, true},
		{"zero height", a, b, c, 0, 72, true},
		{"negative width", a, b, c, 8, -1, true},
		{"too many pixels", a, b, c, 1 << 9, 1 << 9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.clock, tt.d, tt.stb, tt.h, tt.w)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStringAndSize(t *testing.T) {
	m, _ := newRecorded(t, 8, 72)
	if got, want := m.String(), "matrix.LedMatrix{72x8}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if m.Height() != 8 || m.Width() != 72 {
		t.Errorf("size = %dx%d, want 72x8", m.Width(), m.Height())
	}
}

func TestPulseClock(t *testing.T) {
	m, log := newRecorded(t, 8, 72)
	m.PulseClock()
	want := []transition{{"CLK", gpio.High}, {"CLK", gpio.Low}}
	if len(*log) != len(want) {
		t.Fatalf("got %d transitions, want %d", len(*log), len(want))
	}
	for i := range want {
		if (*log)[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, (*log)[i], want[i])
		}
	}
}

func TestPushRowMSBFirst(t *testing.T) {
	for v := 0; v < 256; v++ {
		m, log := newRecorded(t, 8, 72)
		m.PushRow(byte(v))

		bits := shifted(*log)
		if len(bits) != 8 {
			t.Fatalf("PushRow(%#02x) shifted %d bits, want 8", v, len(bits))
		}
		for i, bit := range bits {
			want := v&(1<<uint(7-i)) != 0
			if bit != want {
				t.Errorf("PushRow(%#02x) bit %d = %v, want %v", v, i, bit, want)
			}
		}
		if got := count(*log, "DAT", gpio.High) + count(*log, "DAT", gpio.Low); got != 8 {
			t.Errorf("PushRow(%#02x) wrote data %d times, want 8", v, got)
		}
		if m.Pending() != 8 {
			t.Errorf("Pending() = %d, want 8", m.Pending())
		}
	}
}

func TestDataStableBeforeClock(t *testing.T) {
	m, log := newRecorded(t, 8, 72)
	m.PushRow(0xA5)
	// Every data write is followed by exactly one clock pulse.
	for i, tr := range *log {
		if tr.line != "DAT" {
			continue
		}
		if i+2 >= len(*log) || (*log)[i+1] != (transition{"CLK", gpio.High}) || (*log)[i+2] != (transition{"CLK", gpio.Low}) {
			t.Fatalf("data write %d not followed by a clock pulse", i)
		}
	}
}

func TestClear(t *testing.T) {
	tests := []struct {
		h, w int
	}{
		{8, 72},
		{1, 1},
		{16, 32},
		{7, 3},
	}
	for _, tt := range tests {
		m, log := newRecorded(t, tt.h, tt.w)
		m.Clear()
		if got := count(*log, "CLK", gpio.High); got != tt.h*tt.w {
			t.Errorf("%dx%d: Clear() pulsed clock %d times, want %d", tt.w, tt.h, got, tt.h*tt.w)
		}
		if got := count(*log, "DAT", gpio.High); got != 0 {
			t.Errorf("%dx%d: Clear() raised data %d times", tt.w, tt.h, got)
		}
		if (*log)[0] != (transition{"DAT", gpio.Low}) {
			t.Errorf("%dx%d: Clear() started with %v, want data low", tt.w, tt.h, (*log)[0])
		}
		if count(*log, "STB", gpio.High) != 0 {
			t.Errorf("%dx%d: Clear() must not strobe", tt.w, tt.h)
		}
	}
}

func TestShow(t *testing.T) {
	m, log := newRecorded(t, 8, 72)
	m.PushRow(0xFF)
	m.Show()
	tail := (*log)[len(*log)-2:]
	if tail[0] != (transition{"STB", gpio.High}) || tail[1] != (transition{"STB", gpio.Low}) {
		t.Errorf("Show() transitions = %v, want strobe high then low", tail)
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() after Show() = %d, want 0", m.Pending())
	}
}

func TestPinFaultPanics(t *testing.T) {
	m, err := New(failPin{}, &recPin{log: &[]transition{}}, &recPin{log: &[]transition{}}, 8, 8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("PulseClock() on a failing line should panic")
		}
	}()
	m.PulseClock()
}
