package engine

import (
	"context"
	"errors"
	"time"

	"github.com/streamscribe/transcribe-gateway/internal/observability"
	"github.com/streamscribe/transcribe-gateway/internal/resilience"
)

// instrumented records latency and outcome for every Transcribe call.
type instrumented struct {
	inner Engine
}

// WithMetrics wraps e with inference latency and request counters.
func WithMetrics(e Engine) Engine {
	return &instrumented{inner: e}
}

func (i *instrumented) Name() string { return i.inner.Name() }

func (i *instrumented) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	start := time.Now()
	res, err := i.inner.Transcribe(ctx, samples, language)
	observability.ObserveInference(i.inner.Name(), time.Since(start), err == nil)
	return res, err
}

func (i *instrumented) Ping(ctx context.Context) error {
	return Ping(ctx, i.inner)
}

// protected runs Transcribe calls through a circuit breaker so a dead backend
// sheds load fast instead of stacking up timeouts.
type protected struct {
	inner   Engine
	breaker *resilience.Breaker
}

// WithBreaker wraps e with the given circuit breaker. Hint rejections and
// context cancellations do not count as backend failures; only genuine
// backend errors trip the breaker.
func WithBreaker(e Engine, b *resilience.Breaker) Engine {
	return &protected{inner: e, breaker: b}
}

func (p *protected) Name() string { return p.inner.Name() }

func (p *protected) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	var res Result
	var callErr error
	err := p.breaker.Call(func() error {
		res, callErr = p.inner.Transcribe(ctx, samples, language)
		if callErr == nil {
			return nil
		}
		if errors.Is(callErr, ErrLanguageRejected) ||
			errors.Is(callErr, context.Canceled) ||
			errors.Is(callErr, context.DeadlineExceeded) {
			// Caller-side conditions, not backend health.
			return nil
		}
		return callErr
	})
	observability.UpdateBreakerState(p.breaker.Name(), int(p.breaker.GetState()))
	if errors.Is(err, resilience.ErrOpen) {
		return Result{}, err
	}
	if callErr != nil {
		return Result{}, callErr
	}
	return res, nil
}

func (p *protected) Ping(ctx context.Context) error {
	if p.breaker.GetState() == resilience.StateOpen {
		return resilience.ErrOpen
	}
	return Ping(ctx, p.inner)
}
