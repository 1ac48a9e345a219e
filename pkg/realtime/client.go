// Package realtime implements a websocket client for the OpenAI Realtime
// API as consumed by the relay.
//
// A [Client] dials the realtime endpoint with bearer authentication and
// returns a [Session]. The session sends exactly one session.update before
// any audio, accepts base64 µ-law chunks via [Session.AppendAudio], can
// abort an in-flight response via [Session.CancelResponse], and exposes the
// server's event stream through [Session.ReadEvent]. Sends may come from
// more than one goroutine; the session serialises them internally.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

const (
	defaultModel   = "gpt-4o-realtime-preview-2024-10-01"
	defaultBaseURL = "wss://api.openai.com/v1/realtime"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithModel sets the realtime model requested at dial time.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithBaseURL overrides the base websocket URL. Primarily used in tests to
// point at a local mock server.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// Client dials OpenAI Realtime sessions. Safe for concurrent use; each call
// is expected to open its own session.
type Client struct {
	apiKey  string
	model   string
	baseURL string
}

// New creates a Client with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SessionConfig is the static per-process session configuration carried by
// the initial session.update message.
type SessionConfig struct {
	Voice         string
	Instructions  string
	Temperature   float64
	TurnDetection TurnDetection
}

// TurnDetection selects the server-side voice activity detection mode and
// its timing thresholds.
type TurnDetection struct {
	Mode            string
	SpeechGapMs     int
	SpeechTimeoutMs int
}

// Dial opens a realtime session and sends the session.update carrying cfg.
// The session is ready to accept audio once Dial returns; no audio may be
// forwarded before the update is on the wire, which Dial guarantees.
func (c *Client) Dial(ctx context.Context, cfg SessionConfig) (*Session, error) {
	wsURL := fmt.Sprintf("%s?model=%s", c.baseURL, c.model)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer " + c.apiKey},
			"OpenAI-Beta":   []string{"realtime=v1"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("realtime: dial: %w", err)
	}

	s := &Session{conn: conn}
	if err := s.sendSessionUpdate(ctx, cfg); err != nil {
		conn.Close(websocket.StatusInternalError, "session update failed")
		return nil, fmt.Errorf("realtime: session update: %w", err)
	}
	return s, nil
}

// Session is one open realtime connection. ReadEvent must be called from a
// single goroutine; the write methods may be called from several.
type Session struct {
	conn *websocket.Conn

	// writeMu serialises outgoing messages: the websocket permits only one
	// concurrent writer and both relay pumps send on this connection.
	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

// ── Outgoing messages ──────────────────────────────────────────────────────────

type sessionUpdateMessage struct {
	Type    string        `json:"type"`
	Session sessionParams `json:"session"`
}

type sessionParams struct {
	TurnDetection     turnDetectionParams `json:"turn_detection"`
	InputAudioFormat  string              `json:"input_audio_format"`
	OutputAudioFormat string              `json:"output_audio_format"`
	Voice             string              `json:"voice,omitempty"`
	Instructions      string              `json:"instructions,omitempty"`
	Modalities        []string            `json:"modalities"`
	Temperature       float64             `json:"temperature,omitempty"`
}

type turnDetectionParams struct {
	Type      string          `json:"type"`
	Mode      string          `json:"mode,omitempty"`
	TimeUnits *timeUnitParams `json:"time_units,omitempty"`
}

type timeUnitParams struct {
	SpeechGapMs     int `json:"speech_gap_ms"`
	SpeechTimeoutMs int `json:"speech_timeout_ms"`
}

type appendAudioMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"` // base64 audio in the session's input format
}

type cancelResponseMessage struct {
	Type   string `json:"type"`
	TurnID string `json:"turn_id"`
}

func (s *Session) sendSessionUpdate(ctx context.Context, cfg SessionConfig) error {
	params := sessionParams{
		TurnDetection: turnDetectionParams{
			Type: "server_vad",
			Mode: cfg.TurnDetection.Mode,
		},
		InputAudioFormat:  "g711_ulaw",
		OutputAudioFormat: "g711_ulaw",
		Voice:             cfg.Voice,
		Instructions:      cfg.Instructions,
		Modalities:        []string{"text", "audio"},
		Temperature:       cfg.Temperature,
	}
	if cfg.TurnDetection.SpeechGapMs > 0 || cfg.TurnDetection.SpeechTimeoutMs > 0 {
		params.TurnDetection.TimeUnits = &timeUnitParams{
			SpeechGapMs:     cfg.TurnDetection.SpeechGapMs,
			SpeechTimeoutMs: cfg.TurnDetection.SpeechTimeoutMs,
		}
	}
	return s.writeJSON(ctx, sessionUpdateMessage{Type: "session.update", Session: params})
}

// writeJSON marshals v and writes it as a text websocket message.
func (s *Session) writeJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("realtime: marshal: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.Write(ctx, websocket.MessageText, data)
}

// AppendAudio forwards one base64 audio chunk to the model's input buffer.
// The payload is passed through verbatim; the session's input format was
// negotiated at dial time.
func (s *Session) AppendAudio(ctx context.Context, payload string) error {
	if s.isClosed() {
		return fmt.Errorf("realtime: session closed")
	}
	return s.writeJSON(ctx, appendAudioMessage{
		Type:  "input_audio_buffer.append",
		Audio: payload,
	})
}

// CancelResponse aborts the in-flight response generation for the given
// superseded turn.
func (s *Session) CancelResponse(ctx context.Context, turnID string) error {
	if s.isClosed() {
		return fmt.Errorf("realtime: session closed")
	}
	return s.writeJSON(ctx, cancelResponseMessage{
		Type:   "response.cancel",
		TurnID: turnID,
	})
}

// ReadEvent blocks until the next server event arrives or the connection
// closes. Messages that are not valid JSON are skipped rather than
// surfaced as errors.
func (s *Session) ReadEvent(ctx context.Context) (*ServerEvent, error) {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return nil, err
		}
		var evt ServerEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}
		evt.Raw = json.RawMessage(data)
		return &evt, nil
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close terminates the session. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.conn.Close(websocket.StatusNormalClosure, "session closed")
}
