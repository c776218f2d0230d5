package device

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/jypelle/ledmatrix/internal/srv/config"
	"github.com/jypelle/ledmatrix/internal/srv/event"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"golang.org/x/time/rate"
)

// StdioPort is the port name reading commands from stdin and replying on
// stdout.
const StdioPort = "-"

const readRetryDelay = 100 * time.Millisecond

// Serial polls the serial port for command bytes and sends the replies back
// in packets.
type Serial struct {
	eventChannel chan event.SerialEvent

	param   config.SerialParam
	port    io.ReadWriteCloser
	limiter *rate.Limiter

	askDone chan bool
	done    chan bool
}

type stdioPort struct {
	io.Reader
	io.Writer
}

func (stdioPort) Close() error { return nil }

func NewSerial(serverConfig *config.ServerConfig) *Serial {
	limit := rate.Inf
	if serverConfig.Serial.PacketIntervalMs > 0 {
		limit = rate.Every(time.Duration(serverConfig.Serial.PacketIntervalMs) * time.Millisecond)
	}

	device := Serial{
		eventChannel: make(chan event.SerialEvent),
		param:        serverConfig.Serial,
		limiter:      rate.NewLimiter(limit, 1),
		askDone:      make(chan bool),
		done:         make(chan bool, 1),
	}

	return &device
}

func (d *Serial) Start() {
	logrus.Infof("Start serial device")

	if d.port == nil {
		d.port = d.open()
	}

	go func() {
		buf := make([]byte, 256)
		for loop := true; loop; {
			select {
			case <-d.askDone:
				loop = false
				continue
			default:
			}

			n, err := d.port.Read(buf)
			if err == io.EOF {
				logrus.Infof("Serial port closed by peer")
				<-d.askDone
				loop = false
				continue
			}
			if err != nil {
				// Transient: the batch is lost, next poll tries again
				logrus.Debugf("Serial read error: %v", err)
				time.Sleep(readRetryDelay)
				continue
			}
			if n == 0 {
				continue
			}

			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case d.eventChannel <- event.SerialEvent{Data: data}:
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Serial) open() io.ReadWriteCloser {
	if d.param.Port == StdioPort {
		logrus.Infof("Reading commands from stdin")
		return stdioPort{Reader: os.Stdin, Writer: os.Stdout}
	}

	port, err := serial.Open(d.param.Port, &serial.Mode{BaudRate: d.param.BaudRate})
	if err != nil {
		logrus.Fatalf("Unable to open serial port %s: %v", d.param.Port, err)
	}
	if d.param.ReadTimeoutMs > 0 {
		if err := port.SetReadTimeout(time.Duration(d.param.ReadTimeoutMs) * time.Millisecond); err != nil {
			logrus.Fatalf("Unable to set read timeout on %s: %v", d.param.Port, err)
		}
	}
	return port
}

// StopSendingEvent stops polling. A poll blocked in a read without timeout is
// abandoned after a second.
func (d *Serial) StopSendingEvent() {
	logrus.Infof("Stop serial device")
	close(d.askDone)
	select {
	case <-d.done:
	case <-time.After(time.Second):
		logrus.Warnf("Serial poll still blocked in read")
	}
}

func (d *Serial) Stop() {
	if err := d.port.Close(); err != nil {
		logrus.Warnf("Unable to close serial port: %v", err)
	}
}

func (d *Serial) EventChannel() chan event.SerialEvent {
	return d.eventChannel
}

// Write sends p in packets of at most packet_size bytes, paced by the packet
// interval. A packet may need several writes to drain.
func (d *Serial) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := written + d.param.PacketSize
		if end > len(p) {
			end = len(p)
		}
		if err := d.limiter.Wait(context.Background()); err != nil {
			return written, err
		}
		for written < end {
			n, err := d.port.Write(p[written:end])
			written += n
			if err != nil {
				logrus.Debugf("Serial write error, %d bytes dropped: %v", len(p)-written, err)
				return written, err
			}
			if n == 0 {
				return written, io.ErrShortWrite
			}
		}
	}
	return written, nil
}
