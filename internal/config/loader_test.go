package config

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadFromReaderFullConfig(t *testing.T) {
	yaml := `
server:
  listen_addr: ":8080"
  log_level: debug
  public_host: relay.example.com
openai:
  api_key: sk-test
  model: gpt-4o-realtime-preview-2024-10-01
  voice: coral
  temperature: 0.6
  turn_detection:
    mode: eager
    speech_gap_ms: 400
    speech_timeout_ms: 5000
call:
  greeting: Hi there.
  answer_voice: Polly.Joanna
  logs_dir: /var/log/calls
  prompts_file: /etc/voicerelay/prompts.json
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("LogLevel = %q", cfg.Server.LogLevel)
	}
	if cfg.OpenAI.Voice != "coral" {
		t.Errorf("Voice = %q", cfg.OpenAI.Voice)
	}
	if cfg.OpenAI.TurnDetection.Mode != TurnDetectionEager {
		t.Errorf("TurnDetection.Mode = %q", cfg.OpenAI.TurnDetection.Mode)
	}
	if cfg.OpenAI.TurnDetection.SpeechGapMs != 400 {
		t.Errorf("SpeechGapMs = %d", cfg.OpenAI.TurnDetection.SpeechGapMs)
	}
	if cfg.Call.Greeting != "Hi there." {
		t.Errorf("Greeting = %q", cfg.Call.Greeting)
	}
}

func TestLoadFromReaderAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("openai:\n  api_key: sk-test\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want default %q", cfg.Server.ListenAddr, DefaultListenAddr)
	}
	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("LogLevel = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.OpenAI.Voice != DefaultVoice {
		t.Errorf("Voice = %q, want %q", cfg.OpenAI.Voice, DefaultVoice)
	}
	if cfg.OpenAI.Temperature != DefaultTemperature {
		t.Errorf("Temperature = %v, want %v", cfg.OpenAI.Temperature, DefaultTemperature)
	}
	if cfg.OpenAI.TurnDetection.Mode != TurnDetectionNormal {
		t.Errorf("TurnDetection.Mode = %q, want normal", cfg.OpenAI.TurnDetection.Mode)
	}
	if cfg.OpenAI.TurnDetection.SpeechGapMs != DefaultSpeechGapMs {
		t.Errorf("SpeechGapMs = %d, want %d", cfg.OpenAI.TurnDetection.SpeechGapMs, DefaultSpeechGapMs)
	}
	if cfg.Call.LogsDir != DefaultLogsDir {
		t.Errorf("LogsDir = %q, want %q", cfg.Call.LogsDir, DefaultLogsDir)
	}
	if cfg.Call.Greeting == "" {
		t.Error("Greeting default not applied")
	}
}

func TestLoadFromReaderMissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := LoadFromReader(strings.NewReader("server:\n  listen_addr: ':5000'\n"))
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestLoadFromReaderAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-env" {
		t.Errorf("APIKey = %q, want env fallback", cfg.OpenAI.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad log level",
			yaml: "server:\n  log_level: loud\nopenai:\n  api_key: sk-test\n",
			want: "log_level",
		},
		{
			name: "bad turn detection mode",
			yaml: "openai:\n  api_key: sk-test\n  turn_detection:\n    mode: psychic\n",
			want: "turn_detection.mode",
		},
		{
			name: "temperature out of range",
			yaml: "openai:\n  api_key: sk-test\n  temperature: 3.5\n",
			want: "temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tt.yaml))
			if err == nil {
				t.Fatal("LoadFromReader succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("openai:\n  api_key: sk-test\n  modle: typo\n"))
	if err == nil {
		t.Fatal("unknown field accepted")
	}
}
