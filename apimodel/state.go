package apimodel

import "github.com/jypelle/ledmatrix/internal/protocol"

// StateMessage is the interpreter state as served by the API.
type StateMessage struct {
	CommandMode   bool  `json:"command_mode"`
	ActiveDisplay int64 `json:"active_display"`
	InstantStrobe bool  `json:"instant_strobe"`
	Quiet         bool  `json:"quiet"`
}

func NewStateMessage(state protocol.State) StateMessage {
	return StateMessage{
		CommandMode:   state.CommandMode,
		ActiveDisplay: int64(state.Active),
		InstantStrobe: state.InstantStrobe,
		Quiet:         state.Quiet,
	}
}
