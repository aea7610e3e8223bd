// Package session implements the per-connection streaming lifecycle: PCM
// frames in, windows dispatched to concurrent inference tasks, results
// delivered in enqueue order by a single sender, and a terminal done event
// once everything in flight has drained.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/streamscribe/transcribe-gateway/internal/audio"
	"github.com/streamscribe/transcribe-gateway/internal/config"
	"github.com/streamscribe/transcribe-gateway/internal/langcode"
	"github.com/streamscribe/transcribe-gateway/internal/observability"
	"github.com/streamscribe/transcribe-gateway/internal/transcriber"
)

// Conn is the subset of *websocket.Conn a session needs. WriteJSON is only
// ever called from the sender goroutine, so the single-writer constraint of
// gorilla connections holds.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Outbound message shapes. A session emits transcripts and per-window errors
// in enqueue order, then exactly one done event, always last.
type transcriptMessage struct {
	PartialText    string `json:"partial_text"`
	DetectedLang   string `json:"detected_lang"`
	IsRetranscribe bool   `json:"is_retranscribe"`
}

type errorMessage struct {
	Error string `json:"error"`
}

type eventMessage struct {
	Event string `json:"event"`
}

// Session owns one client connection from accept to close.
type Session struct {
	id      string
	conn    Conn
	cfg     *config.Config
	tr      *transcriber.Transcriber
	hint    language.Tag
	windows *audio.WindowBuffer

	queue      chan interface{}
	tasks      sync.WaitGroup
	senderDone chan struct{}
	closeOnce  sync.Once

	logger  zerolog.Logger
	metrics *observability.SessionMetrics
}

// New creates a session for an upgraded connection. langParam is the client's
// requested language code ("auto" or empty selects detection).
func New(conn Conn, cfg *config.Config, tr *transcriber.Transcriber, langParam string) *Session {
	id := uuid.New().String()
	return &Session{
		id:   id,
		conn: conn,
		cfg:  cfg,
		tr:   tr,
		hint: langcode.Normalize(langParam),
		windows: audio.NewWindowBuffer(audio.WindowConfig{
			ChunkSize:        cfg.ChunkSamples(),
			OverlapSize:      cfg.OverlapSamples(),
			RetranscribeSize: cfg.RetranscribeSamples(),
		}),
		queue:      make(chan interface{}, cfg.SendQueueSize),
		senderDone: make(chan struct{}),
		logger:     observability.WithSession(id).With().Str("lang", langParam).Logger(),
		metrics:    observability.NewSessionMetrics(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Run drives the session until the client disconnects or ctx is canceled,
// then drains: waits for in-flight inference, flushes queued results, sends
// the done event and closes the connection. It always returns with the
// connection closed.
func (s *Session) Run(ctx context.Context) {
	defer s.metrics.RecordSessionEnd()
	defer s.close()

	s.logger.Info().Str("backend", s.tr.Backend()).Msg("Session opened")

	go s.sender()
	s.readLoop(ctx)

	// Draining: no more ingest. Every producer registered before the read
	// loop ended, so Wait covers all of them; closing the queue afterwards
	// lets the sender finish the flush and emit the terminal event.
	s.tasks.Wait()
	close(s.queue)
	<-s.senderDone

	s.logger.Info().Msg("Session closed")
}

func (s *Session) readLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.Debug().Err(err).Msg("Read loop ended")
			return
		}
		if msgType != websocket.BinaryMessage {
			// Text frames are not part of the protocol; ignore them.
			continue
		}
		s.metrics.RecordAudioBytes(len(data))
		for _, w := range s.windows.Ingest(data) {
			s.dispatch(ctx, w)
		}
	}
}

// dispatch starts one inference task for a window. Tasks are independent:
// one window failing never affects its siblings or the session.
func (s *Session) dispatch(ctx context.Context, w audio.Window) {
	s.metrics.RecordWindow(w.Long)
	if audio.IsSilence(w.Samples, s.cfg.SilenceRMSThreshold) {
		s.metrics.RecordSilenceSkip()
		return
	}

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()

		res, err := s.tr.Transcribe(ctx, w.Samples, s.hint)
		if err != nil {
			s.logger.Warn().Err(err).Bool("long", w.Long).Msg("Window transcription failed")
			s.metrics.RecordError("inference", "engine")
			s.queue <- errorMessage{Error: "transcription failed"}
			return
		}
		if res.Text == "" {
			return
		}

		detected, ok := langcode.Project(res.Language, langcode.VocabClient)
		if !ok {
			detected = langcode.Auto
		}
		s.queue <- transcriptMessage{
			PartialText:    res.Text,
			DetectedLang:   detected,
			IsRetranscribe: w.Long,
		}
	}()
}

// sender is the only goroutine that writes to the connection. It preserves
// enqueue order and terminates with the done event after the queue closes.
func (s *Session) sender() {
	defer close(s.senderDone)
	for msg := range s.queue {
		if t, ok := msg.(transcriptMessage); ok {
			s.metrics.RecordResult(t.IsRetranscribe)
		}
		s.send(msg)
	}
	s.send(eventMessage{Event: "done"})
}

// send writes one message, swallowing failures: a send error usually means
// the client is gone, and the drain still has to run to completion.
func (s *Session) send(msg interface{}) {
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug().Err(err).Msg("Send failed")
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Connection close")
		}
	})
}
