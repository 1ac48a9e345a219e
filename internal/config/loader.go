package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned by Validate when no OpenAI credential is
// configured and the OPENAI_API_KEY environment variable is unset. The
// process must not start without it.
var ErrMissingAPIKey = errors.New("config: openai.api_key is not set and OPENAI_API_KEY is empty")

// Defaults applied by Load when the file leaves fields empty. They mirror
// the values the relay originally shipped with.
const (
	DefaultListenAddr      = ":5000"
	DefaultVoice           = "shimmer"
	DefaultTemperature     = 0.8
	DefaultGreeting        = "Hello. Welcome to the Supply Drop Resource Assistance Line. I can help you find Wildfire relief resources in Southern California and Hurricane Recovery Resources in Western North Carolina. How can I help?"
	DefaultAnswerVoice     = "Polly.Matthew"
	DefaultLogsDir         = "logs"
	DefaultPromptsFile     = "prompts.json"
	DefaultSpeechGapMs     = 600
	DefaultSpeechTimeoutMs = 6000
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and the
// OPENAI_API_KEY environment fallback, and validates the result. Useful in
// tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.OpenAI.Voice == "" {
		cfg.OpenAI.Voice = DefaultVoice
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = DefaultTemperature
	}
	if cfg.OpenAI.TurnDetection.Mode == "" {
		cfg.OpenAI.TurnDetection.Mode = TurnDetectionNormal
	}
	if cfg.OpenAI.TurnDetection.SpeechGapMs == 0 {
		cfg.OpenAI.TurnDetection.SpeechGapMs = DefaultSpeechGapMs
	}
	if cfg.OpenAI.TurnDetection.SpeechTimeoutMs == 0 {
		cfg.OpenAI.TurnDetection.SpeechTimeoutMs = DefaultSpeechTimeoutMs
	}
	if cfg.Call.Greeting == "" {
		cfg.Call.Greeting = DefaultGreeting
	}
	if cfg.Call.AnswerVoice == "" {
		cfg.Call.AnswerVoice = DefaultAnswerVoice
	}
	if cfg.Call.LogsDir == "" {
		cfg.Call.LogsDir = DefaultLogsDir
	}
	if cfg.Call.PromptsFile == "" {
		cfg.Call.PromptsFile = DefaultPromptsFile
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.OpenAI.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("config: server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if !cfg.OpenAI.TurnDetection.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("config: openai.turn_detection.mode %q is invalid; valid values: normal, eager, relaxed", cfg.OpenAI.TurnDetection.Mode))
	}
	if cfg.OpenAI.Temperature < 0 || cfg.OpenAI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("config: openai.temperature %v is out of range [0, 2]", cfg.OpenAI.Temperature))
	}

	return errors.Join(errs...)
}
