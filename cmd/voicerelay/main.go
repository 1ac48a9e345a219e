// Command voicerelay runs the Twilio ↔ OpenAI Realtime voice relay server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/calllog"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/config"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/observe"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/prompt"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/relay"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/internal/server"
	"github.com/realityinspector/supply-drop-ai-oai-twilio-voice/pkg/realtime"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voicerelay: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voicerelay: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voicerelay starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics provider ──────────────────────────────────────────────────────
	shutdownObserve, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise metrics provider", "err", err)
		return 1
	}

	// ── System instructions ───────────────────────────────────────────────────
	instructions, err := prompt.LoadOrDefault(cfg.Call.PromptsFile)
	if err != nil {
		slog.Warn("system prompt unavailable, using fallback", "file", cfg.Call.PromptsFile, "err", err)
	}

	// ── Relay wiring ──────────────────────────────────────────────────────────
	var clientOpts []realtime.Option
	if cfg.OpenAI.Model != "" {
		clientOpts = append(clientOpts, realtime.WithModel(cfg.OpenAI.Model))
	}
	if cfg.OpenAI.BaseURL != "" {
		clientOpts = append(clientOpts, realtime.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	client := realtime.New(cfg.OpenAI.APIKey, clientOpts...)

	logs := calllog.NewRegistry(cfg.Call.LogsDir, calllog.WithLevel(sinkLevel(cfg.Server.LogLevel)))

	bridge := relay.New(client, logs, realtime.SessionConfig{
		Voice:        cfg.OpenAI.Voice,
		Instructions: instructions,
		Temperature:  cfg.OpenAI.Temperature,
		TurnDetection: realtime.TurnDetection{
			Mode:            string(cfg.OpenAI.TurnDetection.Mode),
			SpeechGapMs:     cfg.OpenAI.TurnDetection.SpeechGapMs,
			SpeechTimeoutMs: cfg.OpenAI.TurnDetection.SpeechTimeoutMs,
		},
	}, observe.DefaultMetrics())

	srv := server.New(cfg, bridge)

	// ── Serve until signalled ─────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	slog.Info("server ready — press Ctrl+C to shut down")

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping…")
	case err := <-errCh:
		if err != nil {
			slog.Error("serve error", "err", err)
			return 1
		}
		return 0
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	if err := shutdownObserve(shutdownCtx); err != nil {
		slog.Warn("metrics shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: sinkLevel(level),
	}))
}

// sinkLevel maps the config level onto slog's; the same level drives both
// the process logger and the per-call sinks.
func sinkLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
