package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/streamscribe/transcribe-gateway/internal/config"
	"github.com/streamscribe/transcribe-gateway/internal/resilience"
)

// fakeEngine is a scriptable Engine for wrapper tests.
type fakeEngine struct {
	mu       sync.Mutex
	fn       func(language string) (Result, error)
	inFlight int32
	maxSeen  int32
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxSeen)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxSeen, max, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		return fn(language)
	}
	return Result{Text: "ok", Language: "en"}, nil
}

func TestLimit_BoundsConcurrency(t *testing.T) {
	fake := &fakeEngine{}
	eng := Limit(fake, 2)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := eng.Transcribe(context.Background(), nil, ""); err != nil {
				t.Errorf("Transcribe: %v", err)
			}
		}()
	}
	wg.Wait()

	if max := atomic.LoadInt32(&fake.maxSeen); max > 2 {
		t.Errorf("Observed %d concurrent calls, limit is 2", max)
	}
}

func TestLimit_CanceledContext(t *testing.T) {
	eng := Limit(&fakeEngine{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.Transcribe(ctx, nil, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWithBreaker_TripsOnBackendErrors(t *testing.T) {
	fake := &fakeEngine{fn: func(string) (Result, error) {
		return Result{}, errors.New("backend down")
	}}
	b := resilience.NewBreaker("fake", 2, time.Minute)
	eng := WithBreaker(fake, b)

	eng.Transcribe(context.Background(), nil, "")
	eng.Transcribe(context.Background(), nil, "")

	if _, err := eng.Transcribe(context.Background(), nil, ""); !errors.Is(err, resilience.ErrOpen) {
		t.Errorf("Expected ErrOpen after trip, got %v", err)
	}
}

func TestWithBreaker_HintRejectionDoesNotTrip(t *testing.T) {
	fake := &fakeEngine{fn: func(string) (Result, error) {
		return Result{}, ErrLanguageRejected
	}}
	b := resilience.NewBreaker("fake", 1, time.Minute)
	eng := WithBreaker(fake, b)

	for i := 0; i < 5; i++ {
		if _, err := eng.Transcribe(context.Background(), nil, "xx"); !errors.Is(err, ErrLanguageRejected) {
			t.Fatalf("Call %d: expected ErrLanguageRejected to pass through, got %v", i, err)
		}
	}
	if b.GetState() != resilience.StateClosed {
		t.Errorf("Breaker state = %v, hint rejections must not trip it", b.GetState())
	}
}

func TestWithBreaker_SuccessPassesResultThrough(t *testing.T) {
	fake := &fakeEngine{}
	eng := WithBreaker(fake, resilience.NewBreaker("fake", 2, time.Minute))

	res, err := eng.Transcribe(context.Background(), nil, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "ok" {
		t.Errorf("Text = %q, want ok", res.Text)
	}
}

func TestStub_Transcribe(t *testing.T) {
	stub := NewStub()

	res, err := stub.Transcribe(context.Background(), sine(1000), "de")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text == "" {
		t.Error("Expected fabricated transcript for non-silent input")
	}
	if res.Language != "de" {
		t.Errorf("Language = %q, want echoed hint de", res.Language)
	}

	silent, err := stub.Transcribe(context.Background(), make([]float32, 1000), "")
	if err != nil {
		t.Fatalf("Transcribe silence: %v", err)
	}
	if silent.Text != "" {
		t.Errorf("Expected empty text for silence, got %q", silent.Text)
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := &config.Config{
		EngineBackend:              config.BackendStub,
		EngineConcurrency:          2,
		SampleRate:                 16000,
		CircuitBreakerMaxFailures:  5,
		CircuitBreakerResetTimeout: time.Minute,
	}
	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if eng.Name() != "stub" {
		t.Errorf("Name = %q, want stub", eng.Name())
	}

	cfg.EngineBackend = "nonsense"
	if _, err := New(cfg); err == nil {
		t.Error("Expected error for unknown backend")
	}
}
