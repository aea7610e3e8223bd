package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// limited bounds how many Transcribe calls run against the wrapped engine at
// once. Sessions share one engine instance; without a cap a burst of windows
// from many clients would pile concurrent inferences onto the backend.
type limited struct {
	inner Engine
	sem   *semaphore.Weighted
}

// Limit wraps e so at most n Transcribe calls run concurrently. Excess
// callers block until a slot frees or their context is done. n < 1 returns e
// unchanged.
func Limit(e Engine, n int64) Engine {
	if n < 1 {
		return e
	}
	return &limited{inner: e, sem: semaphore.NewWeighted(n)}
}

func (l *limited) Name() string { return l.inner.Name() }

func (l *limited) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Result{}, fmt.Errorf("engine: waiting for inference slot: %w", err)
	}
	defer l.sem.Release(1)
	return l.inner.Transcribe(ctx, samples, language)
}

// Ping bypasses the concurrency gate; probes must not queue behind inference.
func (l *limited) Ping(ctx context.Context) error {
	return Ping(ctx, l.inner)
}
