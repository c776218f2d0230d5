package device

import (
	"sync"
	"time"

	"github.com/jypelle/ledmatrix/internal/srv/config"
	"github.com/jypelle/ledmatrix/internal/srv/event"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	buttonPollPeriod = 5 * time.Millisecond
	buttonDebounce   = 50 * time.Millisecond
)

type buttonPin interface {
	Read() gpio.Level
}

// Button injects its command bytes each time it is pressed. Lines are pulled
// up, a pressed button reads low.
type Button struct {
	name       string
	send       []byte
	pin        buttonPin
	isPressed  bool
	lastChange time.Time
}

func NewButton(param config.ButtonParam) *Button {
	pin := gpioreg.ByName(param.Pin)
	if pin == nil {
		logrus.Fatalf("Failed to find %s button", param.Pin)
	}

	// Set it as input, with an internal pull up resistor:
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		logrus.Fatalf("Failed to setup %s button: %v", param.Pin, err)
	}
	return &Button{name: param.Pin, send: []byte(param.Send), pin: pin}
}

// Refresh samples the line and returns an event on a debounced press.
func (b *Button) Refresh(now time.Time) (event.ButtonEvent, bool) {
	pressed := b.pin.Read() == gpio.Low
	if pressed == b.isPressed || now.Sub(b.lastChange) < buttonDebounce {
		return event.ButtonEvent{}, false
	}
	b.isPressed = pressed
	b.lastChange = now
	if !pressed {
		return event.ButtonEvent{}, false
	}
	return event.ButtonEvent{Pin: b.name, Send: b.send}, true
}

type Buttons struct {
	lock         sync.RWMutex
	eventChannel chan event.ButtonEvent
	simulation   bool
	params       []config.ButtonParam

	buttons []*Button

	checkTicker *time.Ticker

	askDone chan bool
	done    chan bool
}

func NewButtons(serverConfig *config.ServerConfig) *Buttons {
	if !serverConfig.SimulationMode && len(serverConfig.Buttons) > 0 {
		if _, err := host.Init(); err != nil {
			logrus.Fatalf("Unable to initialize periph host: %v", err)
		}
	}

	device := Buttons{
		eventChannel: make(chan event.ButtonEvent),
		simulation:   serverConfig.SimulationMode,
		params:       serverConfig.Buttons,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}

	return &device
}

func (d *Buttons) Start() {
	logrus.Infof("Start buttons device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if !d.simulation {
		for _, param := range d.params {
			d.buttons = append(d.buttons, NewButton(param))
		}
	}

	// Start periodic check
	d.checkTicker = time.NewTicker(buttonPollPeriod)
	go func() {
		for loop := true; loop; {
			select {
			case now := <-d.checkTicker.C:
				for _, button := range d.buttons {
					ev, ok := button.Refresh(now)
					if !ok {
						continue
					}
					select {
					case d.eventChannel <- ev:
					case <-d.askDone:
						loop = false
					}
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Buttons) StopSendingEvent() {
	logrus.Infof("Stop buttons device")

	d.lock.Lock()
	defer d.lock.Unlock()

	d.checkTicker.Stop()
	close(d.askDone)
	<-d.done
}

func (d *Buttons) EventChannel() chan event.ButtonEvent {
	return d.eventChannel
}
