// Package relay implements the per-call session bridge between a Twilio
// Media Streams connection and an OpenAI Realtime session.
//
// A [Bridge] is instantiated once per process and handles one call per
// [Bridge.Run] invocation: it dials the model, then runs two pumps
// concurrently — telephony→model (audio ingress) and model→telephony
// (event handling, turn tracking, audio egress) — until either connection
// closes. All failures are terminal for that call only and are reported
// through logs, never to Run's caller.
//
// The two pumps share exactly two pieces of mutable state: the per-call
// log sink and the stream SID, both populated by the telephony pump when
// the start frame arrives and guarded by [callState]. Turn state is owned
// exclusively by the model pump.
package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/calllog"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/observe"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/pkg/realtime"
)

// Bridge builds one relay session per inbound call. Safe for concurrent
// use; per-call state lives in Run's frame.
type Bridge struct {
	client  *realtime.Client
	logs    *calllog.Registry
	session realtime.SessionConfig
	metrics *observe.Metrics
}

// New creates a Bridge. The session config is static per process and is
// sent verbatim on every call's model connection.
func New(client *realtime.Client, logs *calllog.Registry, session realtime.SessionConfig, metrics *observe.Metrics) *Bridge {
	return &Bridge{
		client:  client,
		logs:    logs,
		session: session,
		metrics: metrics,
	}
}

// callState is the mutable state shared by the two pumps. The stream SID
// and sink stay nil/empty until the telephony start frame arrives; a nil
// sink is a valid no-op destination.
type callState struct {
	mu        sync.Mutex
	streamSid string
	sink      *calllog.Sink
}

func (c *callState) set(streamSid string, sink *calllog.Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamSid = streamSid
	c.sink = sink
}

func (c *callState) get() (string, *calllog.Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamSid, c.sink
}

// Run relays one call. It owns tconn and the model session it dials: both
// are closed by the time Run returns, along with the call's log sink. Run
// never returns an error; a session failure ends that session only.
func (b *Bridge) Run(ctx context.Context, tconn *websocket.Conn) {
	// Correlation id for process logs emitted before the stream SID is known.
	callID := uuid.NewString()
	logger := slog.With("call_id", callID)
	logger.Info("telephony client connected")

	sess, err := b.client.Dial(ctx, b.session)
	if err != nil {
		logger.Error("model dial failed", "err", err)
		tconn.Close(websocket.StatusInternalError, "upstream unavailable")
		return
	}

	state := &callState{}
	started := time.Now()
	b.metrics.ActiveCalls.Add(ctx, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.pumpTelephony(gctx, tconn, sess, state) })
	g.Go(func() error { return b.pumpModel(gctx, tconn, sess, state) })

	if err := g.Wait(); err != nil {
		// Connection-closed errors are the normal end of a call.
		logger.Info("session ended", "reason", err)
	}

	_ = sess.Close()
	tconn.Close(websocket.StatusNormalClosure, "session ended")

	_, sink := state.get()
	if err := sink.Close(); err != nil {
		logger.Error("close call log", "err", err)
	}

	b.metrics.ActiveCalls.Add(context.WithoutCancel(ctx), -1)
	b.metrics.CallDuration.Record(context.WithoutCancel(ctx), time.Since(started).Seconds())
	logger.Info("session closed", "duration", time.Since(started))
}
