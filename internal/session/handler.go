package session

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/streamscribe/transcribe-gateway/internal/config"
	"github.com/streamscribe/transcribe-gateway/internal/observability"
	"github.com/streamscribe/transcribe-gateway/internal/transcriber"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  8192,
	WriteBufferSize: 4096,
	// The gateway sits behind its own ingress; origin policy is enforced
	// there, not here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades requests on the streaming endpoint and runs a session per
// connection. The client selects a language with ?lang=; absent means the
// configured default.
func Handler(cfg *config.Config, tr *transcriber.Transcriber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = cfg.DefaultLanguage
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			logger := observability.GetLogger()
			logger.Warn().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		New(conn, cfg, tr, lang).Run(r.Context())
	}
}
