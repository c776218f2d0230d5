package device

import (
	"time"

	"github.com/jypelle/ledmatrix/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// Ticker paces the status screen refresh.
type Ticker struct {
	eventChannel chan event.TickerEvent

	period        time.Duration
	refreshTicker *time.Ticker

	askDone chan bool
	done    chan bool
}

func NewTicker(period time.Duration) *Ticker {
	ticker := Ticker{
		eventChannel: make(chan event.TickerEvent),
		period:       period,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}
	return &ticker
}

func (d *Ticker) Start() {
	logrus.Infof("Start ticker device")

	d.refreshTicker = time.NewTicker(d.period)

	go func() {
		for loop := true; loop; {
			select {
			case now := <-d.refreshTicker.C:
				select {
				case d.eventChannel <- event.TickerEvent{Time: now}:
				case <-d.askDone:
					loop = false
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Ticker) StopSendingEvent() {
	logrus.Infof("Stop ticker device")
	d.refreshTicker.Stop()
	close(d.askDone)
	<-d.done
}

func (d *Ticker) EventChannel() chan event.TickerEvent {
	return d.eventChannel
}
