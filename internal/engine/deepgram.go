package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/streamscribe/transcribe-gateway/internal/audio"
)

const deepgramListenURL = "https://api.deepgram.com/v1/listen"

// Deepgram transcribes windows through Deepgram's prerecorded REST API,
// posting raw linear16 PCM. With no language hint it asks Deepgram to detect
// the language and reports the detection back.
type Deepgram struct {
	apiKey     string
	model      string
	sampleRate int
	baseURL    string
	client     *http.Client
}

// NewDeepgram creates a Deepgram REST client.
func NewDeepgram(apiKey, model string, sampleRate int, timeout time.Duration) *Deepgram {
	return &Deepgram{
		apiKey:     apiKey,
		model:      model,
		sampleRate: sampleRate,
		baseURL:    deepgramListenURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name implements Engine.
func (d *Deepgram) Name() string { return "deepgram" }

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe implements Engine.
func (d *Deepgram) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	params := url.Values{}
	params.Set("model", d.model)
	params.Set("punctuate", "true")
	params.Set("smart_format", "true")
	if language != "" {
		params.Set("language", language)
	} else {
		params.Set("detect_language", "true")
	}

	pcm := audio.EncodePCM16(samples)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"?"+params.Encode(), bytes.NewReader(pcm))
	if err != nil {
		return Result{}, fmt.Errorf("deepgram: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "audio/l16;rate="+strconv.Itoa(d.sampleRate)+";channels=1")

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("deepgram: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("deepgram: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Deepgram answers 400 with an error body naming the language
		// parameter when the hint is unsupported for the model.
		if resp.StatusCode == http.StatusBadRequest && language != "" &&
			strings.Contains(strings.ToLower(string(raw)), "language") {
			return Result{}, fmt.Errorf("deepgram: hint %q: %w", language, ErrLanguageRejected)
		}
		return Result{}, fmt.Errorf("deepgram: API returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed deepgramResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("deepgram: decode response: %w", err)
	}
	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return Result{}, nil
	}

	channel := parsed.Results.Channels[0]
	detected := channel.DetectedLanguage
	if detected == "" {
		detected = language
	}
	return Result{
		Text:     strings.TrimSpace(channel.Alternatives[0].Transcript),
		Language: detected,
	}, nil
}
