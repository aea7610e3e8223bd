package audio

// Window is a snapshot of samples ready for transcription. Long marks the
// larger retranscription window; short windows drive low-latency partials.
// The Samples slice is owned by the receiver and never mutated afterwards.
type Window struct {
	Samples []float32
	Long    bool
}

// WindowConfig sizes the two accumulators, all values in samples.
type WindowConfig struct {
	ChunkSize        int // short-window target
	OverlapSize      int // samples retained after every emission
	RetranscribeSize int // long-window target
}

// WindowBuffer accumulates one inbound PCM byte stream into two independent
// rolling windows: a short one emitted frequently for latency and a long one
// emitted periodically for accuracy. After every emission the buffer keeps
// only the trailing overlap, so neither accumulator grows without bound.
//
// WindowBuffer is not safe for concurrent use; each session owns exactly one
// and feeds it from its single ingest goroutine.
type WindowBuffer struct {
	cfg WindowConfig

	short []byte // short-window byte accumulator (PCM16)
	long  []byte // long-window byte accumulator (PCM16)
}

// NewWindowBuffer creates a dual-window buffer. Panics on a config where the
// overlap is not strictly smaller than the chunk, since emission could then
// never shrink the buffer.
func NewWindowBuffer(cfg WindowConfig) *WindowBuffer {
	if cfg.ChunkSize <= 0 || cfg.OverlapSize < 0 || cfg.OverlapSize >= cfg.ChunkSize {
		panic("audio: overlap must be in [0, chunk size)")
	}
	if cfg.RetranscribeSize <= cfg.ChunkSize {
		panic("audio: retranscribe size must exceed chunk size")
	}
	return &WindowBuffer{cfg: cfg}
}

// Ingest appends raw PCM16 bytes to both accumulators and returns every
// window that became ready, in chronological order (short windows first when
// both fire from the same fragment, matching how they are checked). A single
// large fragment may satisfy the short-window condition more than once; all
// resulting windows are emitted, none re-derived from stale truncated state.
// A trailing odd byte stays buffered until the next fragment completes the
// sample.
func (w *WindowBuffer) Ingest(data []byte) []Window {
	if len(data) == 0 {
		return nil
	}
	w.short = append(w.short, data...)
	w.long = append(w.long, data...)

	var ready []Window

	// Short windows: emit the most recent ChunkSize samples, keeping only the
	// trailing overlap. A backlog of two or more full chunks is drained
	// oldest-first so no samples are skipped.
	for {
		n := len(w.short) / 2
		if n < w.cfg.ChunkSize {
			break
		}
		var winBytes []byte
		if n >= 2*w.cfg.ChunkSize {
			winBytes = w.short[:w.cfg.ChunkSize*2]
			w.short = w.short[(w.cfg.ChunkSize-w.cfg.OverlapSize)*2:]
		} else {
			winBytes = w.short[(n-w.cfg.ChunkSize)*2:]
			w.short = w.short[(n-w.cfg.OverlapSize)*2:]
		}
		ready = append(ready, Window{Samples: DecodePCM16(winBytes)})
	}

	// Long window: emit the entire accumulator once it reaches the target,
	// then keep the trailing overlap for the next cycle.
	if n := len(w.long) / 2; n >= w.cfg.RetranscribeSize {
		ready = append(ready, Window{Samples: DecodePCM16(w.long), Long: true})
		w.long = w.long[(n-w.cfg.OverlapSize)*2:]
	}

	return ready
}

// ShortLen returns the number of complete samples currently buffered for the
// short window.
func (w *WindowBuffer) ShortLen() int { return len(w.short) / 2 }

// LongLen returns the number of complete samples currently buffered for the
// long window.
func (w *WindowBuffer) LongLen() int { return len(w.long) / 2 }
