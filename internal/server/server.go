// Package server exposes the relay's HTTP surface: the Twilio entry
// points (status page, incoming-call TwiML, media-stream websocket) plus
// the operational endpoints (/healthz, /readyz, /metrics).
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/config"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/health"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/relay"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/pkg/twilio"
)

// statusMessage is returned by GET / so Twilio webhook configuration can
// be smoke-tested from a browser.
const statusMessage = "Twilio Media Stream Server is running!"

// Server wires the HTTP routes to the bridge. One Server handles all
// calls; each media-stream upgrade gets its own bridge session.
type Server struct {
	cfg    *config.Config
	bridge *relay.Bridge
	httpd  *http.Server
}

// New builds the Server and its route table.
func New(cfg *config.Config, bridge *relay.Bridge) *Server {
	s := &Server{cfg: cfg, bridge: bridge}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /incoming-call", s.handleIncomingCall)
	mux.HandleFunc("POST /incoming-call", s.handleIncomingCall)
	mux.HandleFunc("GET /media-stream", s.handleMediaStream)
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(health.LogDirWritable(cfg.Call.LogsDir)).Register(mux)

	s.httpd = &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: mux,
	}
	return s
}

// Handler returns the route table. Used by tests to mount the server on
// an httptest.Server.
func (s *Server) Handler() http.Handler {
	return s.httpd.Handler
}

// ListenAndServe blocks serving HTTP until Shutdown is called or the
// listener fails.
func (s *Server) ListenAndServe() error {
	err := s.httpd.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight HTTP requests. Live websocket sessions are
// ended by process exit; there is no per-call reconnect to preserve.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpd.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": statusMessage})
}

// handleIncomingCall answers Twilio's call webhook with TwiML: speak the
// greeting, then connect the call to this server's media-stream endpoint.
func (s *Server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	host := s.cfg.Server.PublicHost
	if host == "" {
		host = r.Host
	}

	resp := &twilio.VoiceResponse{}
	resp.SayText(s.cfg.Call.Greeting, s.cfg.Call.AnswerVoice)
	resp.PauseFor(1)
	resp.SayText("How can I help?", s.cfg.Call.AnswerVoice)
	resp.ConnectStream("wss://" + host + "/media-stream")

	body, err := resp.Render()
	if err != nil {
		slog.Error("render twiml", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(body))
}

// handleMediaStream upgrades to a websocket and hands the connection to
// the bridge. The bridge owns the connection from here on and never
// reports an error back; the handler returns when the call ends.
func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Error("media-stream accept", "err", err)
		return
	}
	s.bridge.Run(r.Context(), conn)
}
