// Package twilio implements the wire formats the relay exchanges with
// Twilio: Media Streams websocket frames and TwiML voice responses.
//
// Media Streams delivers one JSON object per websocket text message with an
// "event" discriminator. The relay consumes start/media/stop frames and
// produces media frames; everything else Twilio may send (connected, mark,
// dtmf) is ignored by the caller.
package twilio

import (
	"encoding/json"
	"fmt"
)

// Frame event discriminators used by Media Streams.
const (
	EventStart = "start"
	EventMedia = "media"
	EventStop  = "stop"
)

// AudioEncodingMulaw is the Media Streams payload encoding: 8-bit G.711
// µ-law at 8 kHz, base64-encoded in each media frame.
const AudioEncodingMulaw = "audio/x-mulaw"

// Frame is one inbound Media Streams message. Only the fields the relay
// consumes are modelled; Raw preserves the full payload for audit logging.
type Frame struct {
	Event string      `json:"event"`
	Start *StartBlock `json:"start,omitempty"`
	Media *MediaBlock `json:"media,omitempty"`

	// Raw is the verbatim message this frame was parsed from. It is not
	// part of the wire format and is populated by ParseFrame.
	Raw json.RawMessage `json:"-"`
}

// StartBlock carries the call identifiers delivered with the start event.
type StartBlock struct {
	StreamSid  string `json:"streamSid"`
	AccountSid string `json:"accountSid,omitempty"`
	CallSid    string `json:"callSid,omitempty"`
}

// MediaBlock carries one base64-encoded µ-law audio chunk.
type MediaBlock struct {
	Payload string `json:"payload"`
}

// ParseFrame decodes one Media Streams message. The returned frame keeps a
// reference to data in Frame.Raw, so callers must not reuse the buffer.
func ParseFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("twilio: parse frame: %w", err)
	}
	f.Raw = json.RawMessage(data)
	return &f, nil
}

// MediaFrame is the outbound media message sent back to Twilio. The
// StreamSid must echo the exact identifier of the stream it belongs to.
type MediaFrame struct {
	Event     string     `json:"event"`
	StreamSid string     `json:"streamSid"`
	Media     MediaBlock `json:"media"`
}

// NewMediaFrame builds an outbound media frame for the given stream
// carrying a base64 µ-law payload.
func NewMediaFrame(streamSid, payload string) MediaFrame {
	return MediaFrame{
		Event:     EventMedia,
		StreamSid: streamSid,
		Media:     MediaBlock{Payload: payload},
	}
}
