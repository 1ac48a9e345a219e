package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"
	"go.opentelemetry.io/otel/metric"

	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/observe"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/turn"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/pkg/realtime"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/pkg/twilio"
)

// loggableEvents is the fixed set of model event types recorded verbatim
// in the call log: a summary line at info, the full payload at debug.
var loggableEvents = map[string]bool{
	"response.content.done":             true,
	"rate_limits.updated":               true,
	"response.done":                     true,
	"input_audio_buffer.committed":      true,
	"input_audio_buffer.speech_stopped": true,
	"input_audio_buffer.speech_started": true,
	"session.created":                   true,
	realtime.EventTypeTurnStart:         true,
	realtime.EventTypeTurnEnd:           true,
}

// pumpModel consumes events from the model session until the connection
// closes, tracking turns and forwarding synthesised audio back to the
// telephony connection. Per-event failures are logged and never terminate
// the pump; only connection loss does.
func (b *Bridge) pumpModel(ctx context.Context, tconn *websocket.Conn, sess *realtime.Session, state *callState) error {
	turns := &turn.Controller{}

	for {
		evt, err := sess.ReadEvent(ctx)
		if err != nil {
			_, sink := state.get()
			sink.Info("model connection closed")
			return fmt.Errorf("model read: %w", err)
		}

		_, sink := state.get()
		if loggableEvents[evt.Type] {
			sink.Info("model event", "type", evt.Type)
			if sink.DebugEnabled() {
				sink.Debug("model event payload", "payload", string(evt.Raw))
			}
		}

		switch evt.Type {
		case realtime.EventTypeTurnStart:
			b.handleTurnStart(ctx, evt, sess, turns, state)

		case realtime.EventTypeTurnEnd:
			if turns.End(evt.TurnID()) {
				sink.Info("turn ended", "turn_id", evt.TurnID())
			} else {
				sink.Info("stale turn end ignored",
					"turn_id", evt.TurnID(), "active_turn_id", turns.Active())
			}

		case realtime.EventTypeAudioDelta:
			if err := b.forwardAudioDelta(ctx, evt, tconn, state); err != nil {
				return err
			}

		case realtime.EventTypeError:
			if evt.Error != nil {
				sink.Error("model error event",
					"code", evt.Error.Code, "message", evt.Error.Message)
			}
		}
	}
}

// handleTurnStart records the new turn and, on a barge-in superseding an
// in-flight one, sends response.cancel for the stale turn before the new
// one becomes current.
func (b *Bridge) handleTurnStart(ctx context.Context, evt *realtime.ServerEvent, sess *realtime.Session, turns *turn.Controller, state *callState) {
	_, sink := state.get()
	newID := evt.TurnID()

	if superseded := turns.Begin(newID); superseded != "" {
		if err := sess.CancelResponse(ctx, superseded); err != nil {
			sink.Error("cancel superseded response", "turn_id", superseded, "err", err)
		} else {
			b.metrics.TurnCancellations.Add(ctx, 1)
			sink.Info("cancelled response for superseded turn", "turn_id", superseded)
		}
	}
	sink.Info("new turn started", "turn_id", newID)
}

// forwardAudioDelta round-trips the delta's base64 payload (the audio
// bytes are opaque and pass through unchanged) and sends it to the
// telephony connection as a media frame echoing the session's stream SID.
// A malformed delta is dropped; a telephony write failure ends the pump.
func (b *Bridge) forwardAudioDelta(ctx context.Context, evt *realtime.ServerEvent, tconn *websocket.Conn, state *callState) error {
	if evt.Delta == "" {
		return nil
	}
	streamSid, sink := state.get()

	raw, err := base64.StdEncoding.DecodeString(evt.Delta)
	if err != nil {
		b.metrics.TranscodeErrors.Add(ctx, 1)
		sink.Error("audio delta decode failed", "err", err)
		return nil
	}
	payload := base64.StdEncoding.EncodeToString(raw)

	if streamSid == "" {
		// Nothing to echo: no start frame has named this stream yet.
		sink.Debug("model audio dropped, no stream sid")
		return nil
	}

	data, err := json.Marshal(twilio.NewMediaFrame(streamSid, payload))
	if err != nil {
		sink.Error("marshal media frame", "err", err)
		return nil
	}
	if err := tconn.Write(ctx, websocket.MessageText, data); err != nil {
		sink.Error("send audio to telephony", "err", err)
		return fmt.Errorf("telephony write: %w", err)
	}

	b.metrics.FramesRelayed.Add(ctx, 1,
		metric.WithAttributes(observe.DirectionAttr(observe.DirectionOutbound)))
	sink.Info("sent audio response to telephony")
	if sink.DebugEnabled() {
		sink.Debug("model audio frame", "payload_size", len(payload))
	}
	return nil
}
