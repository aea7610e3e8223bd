// Package transcriber adapts the raw inference engine to the session layer:
// it translates language hints into the engine's vocabulary, retries once
// with auto-detect when the engine rejects a hint, and normalizes the
// detected language back into the canonical pivot.
package transcriber

import (
	"context"
	"errors"

	"golang.org/x/text/language"

	"github.com/streamscribe/transcribe-gateway/internal/engine"
	"github.com/streamscribe/transcribe-gateway/internal/langcode"
	"github.com/streamscribe/transcribe-gateway/internal/observability"
)

// Result is one finished transcription, with the detected language as a
// canonical tag (language.Und when nothing was detected).
type Result struct {
	Text     string
	Language language.Tag
}

// Transcriber runs windows through a shared engine.
type Transcriber struct {
	engine engine.Engine
}

// New wraps the given engine.
func New(e engine.Engine) *Transcriber {
	return &Transcriber{engine: e}
}

// Backend reports the underlying engine name.
func (t *Transcriber) Backend() string { return t.engine.Name() }

// Ready probes the underlying engine.
func (t *Transcriber) Ready(ctx context.Context) error {
	return engine.Ping(ctx, t.engine)
}

// Transcribe runs one window. hint is the canonical session language;
// language.Und (or a tag the engine vocabulary cannot express) means
// auto-detect. A rejected hint is retried exactly once with no hint; any
// other failure is returned as-is and never retried.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, hint language.Tag) (Result, error) {
	hintCode, _ := langcode.Project(hint, langcode.VocabWhisper)

	res, err := t.engine.Transcribe(ctx, samples, hintCode)
	if err != nil && hintCode != "" && errors.Is(err, engine.ErrLanguageRejected) {
		observability.RecordLanguageFallback()
		res, err = t.engine.Transcribe(ctx, samples, "")
	}
	if err != nil {
		return Result{}, err
	}

	detected := langcode.Normalize(res.Language)
	if detected == language.Und {
		// Engine reported nothing usable; the session hint is the best guess.
		detected = hint
	}
	return Result{Text: res.Text, Language: detected}, nil
}
