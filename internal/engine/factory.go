package engine

import (
	"fmt"

	"github.com/streamscribe/transcribe-gateway/internal/config"
	"github.com/streamscribe/transcribe-gateway/internal/resilience"
)

// New builds the configured backend wrapped with metrics, circuit breaking
// and the shared concurrency limit, innermost to outermost.
func New(cfg *config.Config) (Engine, error) {
	var backend Engine
	switch cfg.EngineBackend {
	case config.BackendWhisperCPP:
		backend = NewWhisperCPP(cfg.WhisperServerURL, cfg.WhisperModel, cfg.SampleRate, cfg.EngineTimeout)
	case config.BackendDeepgram:
		backend = NewDeepgram(cfg.DeepgramAPIKey, cfg.DeepgramModel, cfg.SampleRate, cfg.EngineTimeout)
	case config.BackendStub:
		backend = NewStub()
	default:
		return nil, fmt.Errorf("engine: unknown backend %q", cfg.EngineBackend)
	}

	breaker := resilience.NewBreaker(backend.Name(),
		cfg.CircuitBreakerMaxFailures, cfg.CircuitBreakerResetTimeout)
	return Limit(WithBreaker(WithMetrics(backend), breaker), cfg.EngineConcurrency), nil
}
