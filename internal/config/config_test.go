package config

import (
	"os"
	"testing"
	"time"
)

// clearEnv unsets every variable the Config struct reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "SAMPLE_RATE", "CHUNK_DURATION_SEC", "OVERLAP_DURATION_SEC",
		"RETRANSCRIBE_SEC", "DEFAULT_LANGUAGE", "ENGINE_BACKEND",
		"ENGINE_CONCURRENCY", "ENGINE_TIMEOUT", "WHISPER_SERVER_URL",
		"WHISPER_MODEL", "DEEPGRAM_API_KEY", "DEEPGRAM_MODEL",
		"SILENCE_RMS_THRESHOLD", "SEND_QUEUE_SIZE",
		"CIRCUIT_BREAKER_MAX_FAILURES", "CIRCUIT_BREAKER_RESET_TIMEOUT",
		"LOG_LEVEL", "LOG_PRETTY", "METRICS_ENABLED",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", cfg.SampleRate)
	}
	if cfg.ChunkDurationSec != 2.0 {
		t.Errorf("Expected chunk duration 2.0, got %g", cfg.ChunkDurationSec)
	}
	if cfg.EngineBackend != BackendWhisperCPP {
		t.Errorf("Expected default backend whispercpp, got %s", cfg.EngineBackend)
	}
	if cfg.EngineTimeout != 30*time.Second {
		t.Errorf("Expected engine timeout 30s, got %v", cfg.EngineTimeout)
	}
	if cfg.DefaultLanguage != "en" {
		t.Errorf("Expected default language en, got %s", cfg.DefaultLanguage)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("PORT", "9090")
	os.Setenv("CHUNK_DURATION_SEC", "1.5")
	os.Setenv("OVERLAP_DURATION_SEC", "0.2")
	os.Setenv("ENGINE_BACKEND", "stub")
	os.Setenv("LOG_LEVEL", "debug")
	defer clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.ChunkDurationSec != 1.5 {
		t.Errorf("Expected chunk duration 1.5, got %g", cfg.ChunkDurationSec)
	}
	if cfg.ChunkSamples() != 24000 {
		t.Errorf("Expected 24000 chunk samples, got %d", cfg.ChunkSamples())
	}
	if cfg.OverlapSamples() != 3200 {
		t.Errorf("Expected 3200 overlap samples, got %d", cfg.OverlapSamples())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
}

func TestValidate_OverlapMustBeShorterThanChunk(t *testing.T) {
	clearEnv(t)
	os.Setenv("OVERLAP_DURATION_SEC", "2.0")
	defer clearEnv(t)

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error when overlap equals chunk duration")
	}
}

func TestValidate_RetranscribeMustExceedChunk(t *testing.T) {
	clearEnv(t)
	os.Setenv("RETRANSCRIBE_SEC", "1.0")
	defer clearEnv(t)

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error when retranscribe window is shorter than chunk")
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	clearEnv(t)
	os.Setenv("ENGINE_BACKEND", "carrier-pigeon")
	defer clearEnv(t)

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for unknown engine backend")
	}
}

func TestValidate_DeepgramRequiresKey(t *testing.T) {
	clearEnv(t)
	os.Setenv("ENGINE_BACKEND", "deepgram")
	defer clearEnv(t)

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for deepgram backend without API key")
	}

	os.Setenv("DEEPGRAM_API_KEY", "token")
	if _, err := LoadFromEnv(); err != nil {
		t.Errorf("Expected deepgram backend with key to validate, got %v", err)
	}
}

func TestChunkSamples_FractionalDurations(t *testing.T) {
	cfg := &Config{SampleRate: 16000, ChunkDurationSec: 1.5, OverlapDurationSec: 0.1, RetranscribeSec: 10}
	if got := cfg.ChunkSamples(); got != 24000 {
		t.Errorf("ChunkSamples: got %d, want 24000", got)
	}
	if got := cfg.OverlapSamples(); got != 1600 {
		t.Errorf("OverlapSamples: got %d, want 1600", got)
	}
	if got := cfg.RetranscribeSamples(); got != 160000 {
		t.Errorf("RetranscribeSamples: got %d, want 160000", got)
	}
}
