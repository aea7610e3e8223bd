// Package engine abstracts the speech-recognition capability behind a small
// batch interface: one PCM window in, recognized text and a detected language
// out. Backends are selected by configuration; all of them are safe for
// concurrent use, with the shared-instance concurrency bound applied by Limit.
package engine

import (
	"context"
	"errors"
)

// ErrLanguageRejected indicates the backend refused the language hint as
// invalid or unsupported. Callers are expected to retry exactly once with no
// hint; any other error is terminal for the window.
var ErrLanguageRejected = errors.New("engine: language hint rejected")

// Result is the outcome of transcribing one window.
type Result struct {
	// Text is the recognized text, empty for silence or non-speech.
	Text string

	// Language is the detected language in the engine's own vocabulary
	// (ISO 639-1 for Whisper-style backends). May be empty when the backend
	// does not report one.
	Language string
}

// Engine transcribes a window of normalized float32 samples. language is a
// hint in the engine's vocabulary; empty means auto-detect.
type Engine interface {
	// Name identifies the backend for logs and metrics.
	Name() string

	Transcribe(ctx context.Context, samples []float32, language string) (Result, error)
}

// Pinger is implemented by backends that can be probed for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping probes e if it supports probing; engines without a probe are
// considered always ready.
func Ping(ctx context.Context, e Engine) error {
	if p, ok := e.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
