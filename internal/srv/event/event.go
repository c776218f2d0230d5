package event

import (
	"io"
	"time"

	"github.com/jypelle/ledmatrix/internal/protocol"
)

// Serial
type SerialEvent struct {
	Data []byte
}

// Api
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

// ApiEventStreamData carries a byte batch from the API or a websocket. Replies
// are written to Reply before Result is signaled.
type ApiEventStreamData struct {
	Source string
	Data   []byte
	Reply  io.Writer
}

type ApiEventStateData struct {
	State *protocol.State
}

type ApiEventFrameData struct {
	DisplayId protocol.DisplayId
	Frame     *string
}

// Buttons
type ButtonEvent struct {
	Pin  string
	Send []byte
}

// Ticker
type TickerEvent struct {
	Time time.Time
}
