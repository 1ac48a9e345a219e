// Package config provides the configuration schema and loader for the
// voice relay.
package config

// LogLevel controls log verbosity for the relay process and call sinks.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// TurnDetectionMode selects how aggressively the model's server VAD ends a
// caller turn.
type TurnDetectionMode string

const (
	TurnDetectionNormal  TurnDetectionMode = "normal"
	TurnDetectionEager   TurnDetectionMode = "eager"
	TurnDetectionRelaxed TurnDetectionMode = "relaxed"
)

// IsValid reports whether m is a recognised turn detection mode.
func (m TurnDetectionMode) IsValid() bool {
	switch m {
	case TurnDetectionNormal, TurnDetectionEager, TurnDetectionRelaxed:
		return true
	}
	return false
}

// Config is the root configuration structure for the relay. It is
// typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server ServerConfig `yaml:"server"`
	OpenAI OpenAIConfig `yaml:"openai"`
	Call   CallConfig   `yaml:"call"`
}

// ServerConfig holds network and logging settings for the relay process.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g. ":5000").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity of both the process logger and the
	// per-call sinks.
	LogLevel LogLevel `yaml:"log_level"`

	// PublicHost overrides the host used in the TwiML stream URL. When
	// empty, the Host header of the incoming-call request is used.
	PublicHost string `yaml:"public_host"`
}

// OpenAIConfig configures the Realtime API connection and the static
// session parameters sent in the initial session.update.
type OpenAIConfig struct {
	// APIKey is the bearer credential. When empty, Load falls back to the
	// OPENAI_API_KEY environment variable. Its absence is fatal.
	APIKey string `yaml:"api_key"`

	// Model selects the realtime model. Empty uses the client default.
	Model string `yaml:"model"`

	// BaseURL overrides the realtime websocket endpoint. Used in tests.
	BaseURL string `yaml:"base_url"`

	// Voice is the persona the model speaks with (e.g. "shimmer").
	Voice string `yaml:"voice"`

	// Temperature is the sampling temperature for response generation.
	Temperature float64 `yaml:"temperature"`

	// TurnDetection tunes the server VAD.
	TurnDetection TurnDetectionConfig `yaml:"turn_detection"`
}

// TurnDetectionConfig holds server-VAD mode and timing thresholds.
type TurnDetectionConfig struct {
	Mode            TurnDetectionMode `yaml:"mode"`
	SpeechGapMs     int               `yaml:"speech_gap_ms"`
	SpeechTimeoutMs int               `yaml:"speech_timeout_ms"`
}

// CallConfig holds the call-answering and audit-trail settings.
type CallConfig struct {
	// Greeting is spoken to the caller by Twilio before the media stream
	// opens.
	Greeting string `yaml:"greeting"`

	// AnswerVoice is the Twilio TTS voice used for the greeting
	// (e.g. "Polly.Matthew").
	AnswerVoice string `yaml:"answer_voice"`

	// LogsDir is the directory that receives one log file per call.
	LogsDir string `yaml:"logs_dir"`

	// PromptsFile is the JSON file carrying the system instructions.
	PromptsFile string `yaml:"prompts_file"`
}
