package device

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestButtonRefresh(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO26", L: gpio.High}
	b := &Button{name: "GPIO26", send: []byte(".c.s"), pin: pin}
	start := time.Now()

	steps := []struct {
		level gpio.Level
		after time.Duration
		want  bool
	}{
		{gpio.High, 0, false},
		{gpio.Low, 100 * time.Millisecond, true},
		{gpio.Low, 110 * time.Millisecond, false},
		// Bounce inside the debounce window is ignored
		{gpio.High, 120 * time.Millisecond, false},
		{gpio.Low, 130 * time.Millisecond, false},
		{gpio.High, 300 * time.Millisecond, false},
		{gpio.Low, 400 * time.Millisecond, true},
	}
	for i, step := range steps {
		pin.Lock()
		pin.L = step.level
		pin.Unlock()
		ev, ok := b.Refresh(start.Add(step.after))
		if ok != step.want {
			t.Fatalf("step %d: Refresh() event = %v, want %v", i, ok, step.want)
		}
		if ok && (ev.Pin != "GPIO26" || string(ev.Send) != ".c.s") {
			t.Errorf("step %d: event = %+v", i, ev)
		}
	}
}

func TestTickerSendsAndStops(t *testing.T) {
	d := NewTicker(time.Millisecond)
	d.Start()
	select {
	case ev := <-d.EventChannel():
		if ev.Time.IsZero() {
			t.Error("tick without time")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no tick")
	}
	d.StopSendingEvent()
}
