package srv

import (
	"io"

	"github.com/jypelle/ledmatrix/internal/srv/device"
	"github.com/jypelle/ledmatrix/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// eventLoop is the only goroutine driving the interpreter and the panels.
func (s *ServerApp) eventLoop() {
	for loop := true; loop; {
		select {
		case ev := <-s.serialDevice.EventChannel():
			s.feed("serial", ev.Data, s.serialDevice)
		case ev := <-s.apiEventChannel():
			s.handleApiEvent(ev)
		case ev := <-s.buttonsDevice.EventChannel():
			logrus.Debugf("Receive button event: %s", ev.Pin)
			s.inject("button "+ev.Pin, ev.Send, nil)
		case <-s.tickerEventChannel():
			if s.statusDirty {
				s.refreshStatus()
			}
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.eventLoopDone <- true
}

func (s *ServerApp) feed(source string, data []byte, reply io.Writer) {
	logrus.Debugf("Receive %d bytes from %s", len(data), source)
	s.interpreter.Feed(data, reply)
	s.count(source, data)
}

// inject runs a self-contained sequence without disturbing a control byte
// pending on the streams.
func (s *ServerApp) inject(source string, data []byte, reply io.Writer) {
	logrus.Debugf("Inject %d bytes from %s", len(data), source)
	s.interpreter.Inject(data, reply)
	s.count(source, data)
}

func (s *ServerApp) count(source string, data []byte) {
	s.stats.batches++
	s.stats.bytes += int64(len(data))
	s.stats.lastSource = source
	s.statusDirty = true
}

func (s *ServerApp) handleApiEvent(ev event.ApiEvent) {
	switch data := ev.Data.(type) {
	case event.ApiEventStreamData:
		s.feed(data.Source, data.Data, data.Reply)
		ev.Result <- nil
	case event.ApiEventStateData:
		*data.State = s.interpreter.State()
		ev.Result <- nil
	case event.ApiEventFrameData:
		frame, ok := s.matrixDevice.Frame(data.DisplayId)
		if !ok {
			ev.Result <- device.ErrNotSimulated
			return
		}
		*data.Frame = frame
		ev.Result <- nil
	default:
		logrus.Warnf("Unknown api event %T", ev.Data)
		ev.Result <- nil
	}
}

// A nil channel never fires, so disabled devices drop out of the select.
func (s *ServerApp) apiEventChannel() chan event.ApiEvent {
	if s.apiDevice == nil {
		return nil
	}
	return s.apiDevice.EventChannel()
}

func (s *ServerApp) tickerEventChannel() chan event.TickerEvent {
	if s.tickerDevice == nil {
		return nil
	}
	return s.tickerDevice.EventChannel()
}
