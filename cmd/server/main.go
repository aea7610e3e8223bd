package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streamscribe/transcribe-gateway/internal/config"
	"github.com/streamscribe/transcribe-gateway/internal/engine"
	"github.com/streamscribe/transcribe-gateway/internal/observability"
	"github.com/streamscribe/transcribe-gateway/internal/session"
	"github.com/streamscribe/transcribe-gateway/internal/transcriber"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger("info", false)
		logger := observability.GetLogger()
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	eng, err := engine.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize inference engine")
	}
	tr := transcriber.New(eng)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/transcribe", session.Handler(cfg, tr))
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.CheckFunc{
		"engine": tr.Ready,
	}))
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// No ReadTimeout/WriteTimeout: streaming sessions are long-lived.
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("backend", cfg.EngineBackend).
			Int("sample_rate", cfg.SampleRate).
			Float64("chunk_sec", cfg.ChunkDurationSec).
			Float64("retranscribe_sec", cfg.RetranscribeSec).
			Msg("Transcription gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("Shutting down")

	// Give in-flight sessions a chance to drain before the listener dies.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Forced shutdown")
	}
	logger.Info().Msg("Server stopped")
}
