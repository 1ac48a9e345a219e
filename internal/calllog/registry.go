// Package calllog manages the per-call audit log files.
//
// A [Registry] creates one [Sink] per call, backed by an append-only file
// whose name combines a timestamp with the Twilio stream SID so that calls
// started in the same process never collide. Sinks write leveled text
// lines through slog; the handler serialises records, so both relay pumps
// may log concurrently without interleaving partial lines.
//
// A nil *Sink is a valid no-op sink: the bridge holds nil until the start
// frame arrives, and media received before then must neither log nor
// crash.
package calllog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// timestampLayout names log files the way the original call logs were
// named: call_20060102_150405_<streamSid>.log.
const timestampLayout = "20060102_150405"

// Registry creates per-call sinks under a common directory.
type Registry struct {
	dir   string
	level slog.Level

	// now is swappable for tests.
	now func() time.Time
}

// Option is a functional option for configuring a Registry.
type Option func(*Registry)

// WithLevel sets the minimum level written to call sinks. The default is
// slog.LevelInfo; debug verbosity additionally records full event payloads
// and audio metering.
func WithLevel(level slog.Level) Option {
	return func(r *Registry) { r.level = level }
}

// WithClock overrides the timestamp source used in file names. Used in
// tests for deterministic paths.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates a Registry writing call logs under dir. The
// directory is created lazily on the first Open.
func NewRegistry(dir string, opts ...Option) *Registry {
	r := &Registry{
		dir:   dir,
		level: slog.LevelInfo,
		now:   time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Open creates the sink for one call. The destination file name embeds the
// current timestamp and streamSid; sinks are never reused across calls.
func (r *Registry) Open(streamSid string) (*Sink, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("calllog: create log dir: %w", err)
	}

	name := fmt.Sprintf("call_%s_%s.log", r.now().Format(timestampLayout), streamSid)
	path := filepath.Join(r.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("calllog: open %s: %w", path, err)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: r.level}))
	return &Sink{logger: logger, file: f, path: path, level: r.level}, nil
}

// Dir returns the directory the registry writes under.
func (r *Registry) Dir() string {
	return r.dir
}

// Sink is the exclusively-owned log destination of one call. All methods
// are safe on a nil receiver and safe for concurrent use.
type Sink struct {
	logger *slog.Logger
	file   *os.File
	path   string
	level  slog.Level
}

// Path returns the sink's file path, or "" on a nil sink.
func (s *Sink) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// DebugEnabled reports whether debug entries would be written. Callers use
// this to skip work (payload dumps, audio metering) that only feeds debug
// lines.
func (s *Sink) DebugEnabled() bool {
	return s != nil && s.level <= slog.LevelDebug
}

// Info writes an info entry.
func (s *Sink) Info(msg string, args ...any) {
	if s == nil {
		return
	}
	s.logger.Info(msg, args...)
}

// Debug writes a debug entry.
func (s *Sink) Debug(msg string, args ...any) {
	if s == nil {
		return
	}
	s.logger.Debug(msg, args...)
}

// Error writes an error entry.
func (s *Sink) Error(msg string, args ...any) {
	if s == nil {
		return
	}
	s.logger.Error(msg, args...)
}

// Close flushes and closes the underlying file. Safe on nil; idempotence
// is delegated to os.File.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("calllog: sync %s: %w", s.path, err)
	}
	return s.file.Close()
}
