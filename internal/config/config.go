package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Engine backend identifiers accepted in ENGINE_BACKEND.
const (
	BackendWhisperCPP = "whispercpp"
	BackendDeepgram   = "deepgram"
	BackendStub       = "stub"
)

// Config holds all configuration for the transcription gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Audio stream parameters. These are fixed per deployment; clients must
	// send little-endian 16-bit PCM mono at SampleRate.
	SampleRate         int     `envconfig:"SAMPLE_RATE" default:"16000"`
	ChunkDurationSec   float64 `envconfig:"CHUNK_DURATION_SEC" default:"2.0"`   // short-window length (seconds)
	OverlapDurationSec float64 `envconfig:"OVERLAP_DURATION_SEC" default:"0.1"` // samples retained across windows
	RetranscribeSec    float64 `envconfig:"RETRANSCRIBE_SEC" default:"10.0"`    // long-window length (seconds)

	// DefaultLanguage is the client-vocabulary language code assumed when the
	// lang query parameter is absent. "auto" selects detection.
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"en"`

	// Inference engine configuration
	EngineBackend     string        `envconfig:"ENGINE_BACKEND" default:"whispercpp"` // whispercpp, deepgram, stub
	EngineConcurrency int64         `envconfig:"ENGINE_CONCURRENCY" default:"2"`      // max simultaneous inferences
	EngineTimeout     time.Duration `envconfig:"ENGINE_TIMEOUT" default:"30s"`        // per-inference HTTP timeout

	// whisper.cpp server backend
	WhisperServerURL string `envconfig:"WHISPER_SERVER_URL" default:"http://localhost:8081"`
	WhisperModel     string `envconfig:"WHISPER_MODEL" default:""` // empty uses whatever the server loaded

	// Deepgram REST backend
	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel  string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`

	// SilenceRMSThreshold is the normalized RMS ([0,1] scale) below which a
	// window is skipped without invoking the engine. Zero disables the gate.
	SilenceRMSThreshold float64 `envconfig:"SILENCE_RMS_THRESHOLD" default:"0.009"`

	// SendQueueSize bounds the per-session outbound result queue. Producers
	// block when it is full; the sender drains it in FIFO order.
	SendQueueSize int `envconfig:"SEND_QUEUE_SIZE" default:"64"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int           `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout time.Duration `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30s"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`   // debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"` // console output for development
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables.
// It first attempts to load from a .env file if one exists, then from the
// environment, then validates the result.
func Load() (*Config, error) {
	// Ignore the error: a missing .env file is the normal case.
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without consulting a .env file (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field invariants the window algorithm relies on.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.ChunkDurationSec <= 0 {
		return fmt.Errorf("CHUNK_DURATION_SEC must be positive, got %g", c.ChunkDurationSec)
	}
	if c.OverlapDurationSec < 0 || c.OverlapDurationSec >= c.ChunkDurationSec {
		return fmt.Errorf("OVERLAP_DURATION_SEC must be in [0, CHUNK_DURATION_SEC), got %g", c.OverlapDurationSec)
	}
	if c.RetranscribeSec <= c.ChunkDurationSec {
		return fmt.Errorf("RETRANSCRIBE_SEC (%g) must exceed CHUNK_DURATION_SEC (%g)", c.RetranscribeSec, c.ChunkDurationSec)
	}
	switch c.EngineBackend {
	case BackendWhisperCPP, BackendDeepgram, BackendStub:
	default:
		return fmt.Errorf("unknown ENGINE_BACKEND %q", c.EngineBackend)
	}
	if c.EngineBackend == BackendDeepgram && c.DeepgramAPIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required for the deepgram backend")
	}
	if c.EngineConcurrency < 1 {
		return fmt.Errorf("ENGINE_CONCURRENCY must be at least 1, got %d", c.EngineConcurrency)
	}
	if c.SendQueueSize < 1 {
		return fmt.Errorf("SEND_QUEUE_SIZE must be at least 1, got %d", c.SendQueueSize)
	}
	return nil
}

// ChunkSamples returns the short-window target length in samples.
func (c *Config) ChunkSamples() int {
	return int(float64(c.SampleRate) * c.ChunkDurationSec)
}

// OverlapSamples returns the overlap retained across windows, in samples.
func (c *Config) OverlapSamples() int {
	return int(float64(c.SampleRate) * c.OverlapDurationSec)
}

// RetranscribeSamples returns the long-window target length in samples.
func (c *Config) RetranscribeSamples() int {
	return int(float64(c.SampleRate) * c.RetranscribeSec)
}
