package engine

import (
	"context"
	"fmt"

	"github.com/streamscribe/transcribe-gateway/internal/audio"
)

// Stub is a deterministic in-process backend for development and load tests.
// It fabricates a transcript describing the window it received, so the full
// pipeline can be exercised without a real recognizer.
type Stub struct{}

// NewStub creates the stub backend.
func NewStub() *Stub { return &Stub{} }

// Name implements Engine.
func (s *Stub) Name() string { return "stub" }

// Transcribe implements Engine. Silent windows produce empty text, like a
// real recognizer would.
func (s *Stub) Transcribe(_ context.Context, samples []float32, language string) (Result, error) {
	if audio.RMS(samples) < 1e-4 {
		return Result{}, nil
	}
	lang := language
	if lang == "" {
		lang = "en"
	}
	return Result{
		Text:     fmt.Sprintf("[stub transcript: %d samples]", len(samples)),
		Language: lang,
	}, nil
}
