package realtime

import "encoding/json"

// Server event types the relay reacts to.
const (
	EventTypeAudioDelta = "response.audio.delta"
	EventTypeTurnStart  = "turn.start"
	EventTypeTurnEnd    = "turn.end"
	EventTypeError      = "error"
)

// ServerEvent is one message received from the realtime connection. Only
// the fields the relay consumes are modelled; Raw preserves the verbatim
// payload for debug logging.
type ServerEvent struct {
	Type string `json:"type"`

	// Delta carries base64 audio for response.audio.delta events.
	Delta string `json:"delta,omitempty"`

	// Turn identifies the conversational turn for turn.start / turn.end.
	Turn *TurnInfo `json:"turn,omitempty"`

	// Error is populated on error events.
	Error *ErrorDetail `json:"error,omitempty"`

	// Raw is the verbatim message this event was parsed from. Populated by
	// Session.ReadEvent, not part of the wire format.
	Raw json.RawMessage `json:"-"`
}

// TurnInfo identifies one conversational turn.
type TurnInfo struct {
	ID string `json:"id"`
}

// ErrorDetail is the nested error object of an error event:
// {"type":"error","error":{"type":"...","code":"...","message":"..."}}.
type ErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// TurnID returns the turn identifier carried by a turn lifecycle event, or
// "" when absent.
func (e *ServerEvent) TurnID() string {
	if e.Turn == nil {
		return ""
	}
	return e.Turn.ID
}
