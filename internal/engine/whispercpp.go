package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/streamscribe/transcribe-gateway/internal/audio"
)

// WhisperCPP talks to a whisper.cpp server over its /inference HTTP endpoint.
// Windows are encoded as 16 kHz mono WAV and posted as multipart form data;
// the server answers verbose JSON carrying text and the detected language.
type WhisperCPP struct {
	serverURL  string
	model      string
	sampleRate int
	client     *http.Client
}

// NewWhisperCPP creates a whisper.cpp server client. model may be empty, in
// which case the server uses whatever model it was started with.
func NewWhisperCPP(serverURL, model string, sampleRate int, timeout time.Duration) *WhisperCPP {
	return &WhisperCPP{
		serverURL:  strings.TrimRight(serverURL, "/"),
		model:      model,
		sampleRate: sampleRate,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name implements Engine.
func (w *WhisperCPP) Name() string { return "whispercpp" }

type whisperResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Error    string `json:"error"`
}

// Transcribe implements Engine.
func (w *WhisperCPP) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return Result{}, fmt.Errorf("whispercpp: build request: %w", err)
	}
	if _, err := fw.Write(encodeWAV(samples, w.sampleRate)); err != nil {
		return Result{}, fmt.Errorf("whispercpp: build request: %w", err)
	}
	mw.WriteField("response_format", "verbose_json")
	if language != "" {
		mw.WriteField("language", language)
	}
	if w.model != "" {
		mw.WriteField("model", w.model)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("whispercpp: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.serverURL+"/inference", body)
	if err != nil {
		return Result{}, fmt.Errorf("whispercpp: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("whispercpp: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("whispercpp: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// The server reports an unknown language code as a 400 naming the
		// rejected parameter.
		if resp.StatusCode == http.StatusBadRequest && language != "" &&
			strings.Contains(strings.ToLower(string(raw)), "language") {
			return Result{}, fmt.Errorf("whispercpp: hint %q: %w", language, ErrLanguageRejected)
		}
		return Result{}, fmt.Errorf("whispercpp: server returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed whisperResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("whispercpp: decode response: %w", err)
	}
	if parsed.Error != "" {
		return Result{}, fmt.Errorf("whispercpp: server error: %s", parsed.Error)
	}

	return Result{
		Text:     strings.TrimSpace(parsed.Text),
		Language: parsed.Language,
	}, nil
}

// Ping implements Pinger by checking the server is reachable.
func (w *WhisperCPP) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.serverURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("whispercpp: unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("whispercpp: health returned %d", resp.StatusCode)
	}
	return nil
}

// encodeWAV wraps float32 samples in a minimal PCM16 mono WAV container.
func encodeWAV(samples []float32, sampleRate int) []byte {
	pcm := audio.EncodePCM16(samples)

	buf := &bytes.Buffer{}
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
