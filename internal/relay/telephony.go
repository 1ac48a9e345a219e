package relay

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/coder/websocket"
	"go.opentelemetry.io/otel/metric"

	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/observe"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/pkg/audio"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/pkg/realtime"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/pkg/twilio"
)

// pumpTelephony consumes Media Streams frames from the telephony
// connection until the peer closes or sends stop, forwarding audio to the
// model session. On exit it closes the model session so the sibling pump
// observes the closure and ends naturally.
func (b *Bridge) pumpTelephony(ctx context.Context, tconn *websocket.Conn, sess *realtime.Session, state *callState) error {
	defer sess.Close()

	for {
		_, data, err := tconn.Read(ctx)
		if err != nil {
			_, sink := state.get()
			sink.Info("telephony client disconnected")
			return fmt.Errorf("telephony read: %w", err)
		}

		frame, err := twilio.ParseFrame(data)
		if err != nil {
			_, sink := state.get()
			sink.Error("malformed telephony frame", "err", err)
			continue
		}

		switch frame.Event {
		case twilio.EventStart:
			b.handleStart(ctx, frame, state)

		case twilio.EventMedia:
			b.handleMedia(ctx, frame, sess, state)

		case twilio.EventStop:
			_, sink := state.get()
			sink.Info("stop frame received")
			return nil

		default:
			// connected, mark, dtmf and anything newer are passed over.
		}
	}
}

// handleStart initialises the call's log sink from the stream SID and
// records the full start payload for audit.
func (b *Bridge) handleStart(ctx context.Context, frame *twilio.Frame, state *callState) {
	if frame.Start == nil || frame.Start.StreamSid == "" {
		_, sink := state.get()
		sink.Error("start frame without streamSid")
		return
	}

	streamSid := frame.Start.StreamSid
	sink, err := b.logs.Open(streamSid)
	if err != nil {
		// The call proceeds without an audit trail rather than dropping.
		slog.Error("open call log", "stream_sid", streamSid, "err", err)
		state.set(streamSid, nil)
		return
	}
	state.set(streamSid, sink)

	b.metrics.CallsStarted.Add(ctx, 1)
	sink.Info("call started", "stream_sid", streamSid)
	sink.Info("start event payload", "payload", string(frame.Raw))
}

// handleMedia forwards one base64 µ-law chunk to the model's input buffer.
// If the model session is no longer open the frame is dropped; a dead
// model connection ends the call through the sibling pump, not here.
func (b *Bridge) handleMedia(ctx context.Context, frame *twilio.Frame, sess *realtime.Session, state *callState) {
	if frame.Media == nil || frame.Media.Payload == "" {
		return
	}
	_, sink := state.get()

	if err := sess.AppendAudio(ctx, frame.Media.Payload); err != nil {
		sink.Debug("media frame dropped, model session unavailable", "err", err)
		return
	}

	b.metrics.FramesRelayed.Add(ctx, 1,
		metric.WithAttributes(observe.DirectionAttr(observe.DirectionInbound)))
	sink.Info("received audio from telephony")
	if sink.DebugEnabled() {
		sink.Debug("telephony audio frame",
			"payload_size", len(frame.Media.Payload),
			"level", payloadLevel(frame.Media.Payload),
		)
	}
}

// payloadLevel decodes a base64 µ-law payload and returns its RMS level.
// Only called at debug verbosity; metering failures read as silence.
func payloadLevel(payload string) float64 {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0
	}
	return audio.UlawLevel(raw)
}
