package device

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jypelle/ledmatrix/internal/srv/config"
)

// fakePort hands out queued reads; a nil entry is a transient read error.
type fakePort struct {
	reads chan []byte

	lock     sync.Mutex
	writes   []string
	maxWrite int
	writeErr error
}

func (p *fakePort) Read(b []byte) (int, error) {
	select {
	case data, ok := <-p.reads:
		if !ok {
			return 0, io.EOF
		}
		if data == nil {
			return 0, errors.New("framing error")
		}
		return copy(b, data), nil
	case <-time.After(10 * time.Millisecond):
		return 0, nil
	}
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.maxWrite > 0 && len(b) > p.maxWrite {
		b = b[:p.maxWrite]
	}
	p.writes = append(p.writes, string(b))
	return len(b), nil
}

func (p *fakePort) Close() error { return nil }

func newTestSerial(port *fakePort, packetSize int) *Serial {
	d := NewSerial(&config.ServerConfig{
		ServerParam: &config.ServerParam{
			Serial: config.SerialParam{Port: "fake", PacketSize: packetSize},
		},
	})
	d.port = port
	return d
}

func receive(t *testing.T, d *Serial) []byte {
	t.Helper()
	select {
	case ev := <-d.EventChannel():
		return ev.Data
	case <-time.After(2 * time.Second):
		t.Fatal("no serial event")
		return nil
	}
}

func TestSerialBatchesInOrder(t *testing.T) {
	port := &fakePort{reads: make(chan []byte, 4)}
	port.reads <- []byte("AB")
	port.reads <- nil
	port.reads <- []byte(".c")
	d := newTestSerial(port, 64)
	d.Start()
	defer d.StopSendingEvent()

	if got := receive(t, d); !bytes.Equal(got, []byte("AB")) {
		t.Errorf("first batch = %q, want %q", got, "AB")
	}
	if got := receive(t, d); !bytes.Equal(got, []byte(".c")) {
		t.Errorf("batch after read error = %q, want %q", got, ".c")
	}
}

func TestSerialStopAfterEOF(t *testing.T) {
	port := &fakePort{reads: make(chan []byte)}
	close(port.reads)
	d := newTestSerial(port, 64)
	d.Start()

	stopped := make(chan bool)
	go func() {
		d.StopSendingEvent()
		stopped <- true
	}()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("StopSendingEvent() did not return")
	}
}

func TestSerialWritePackets(t *testing.T) {
	port := &fakePort{maxWrite: 3}
	d := newTestSerial(port, 4)

	n, err := d.Write([]byte("abcdef"))
	if err != nil || n != 6 {
		t.Fatalf("Write() = %d, %v; want 6, nil", n, err)
	}
	want := []string{"abc", "d", "ef"}
	if len(port.writes) != len(want) {
		t.Fatalf("writes = %q, want %q", port.writes, want)
	}
	for i := range want {
		if port.writes[i] != want[i] {
			t.Errorf("write %d = %q, want %q", i, port.writes[i], want[i])
		}
	}
}

func TestSerialWriteErrorDropsReply(t *testing.T) {
	port := &fakePort{writeErr: errors.New("unplugged")}
	d := newTestSerial(port, 4)
	if _, err := d.Write([]byte("Clearing\r\n")); err == nil {
		t.Error("Write() should report the port error")
	}
}
