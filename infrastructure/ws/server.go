package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatwire/contract"
	"chatwire/services"
)

// Handler upgrades connections and walks each one through its lifecycle:
// identity from the handshake, registration in the presence directory, pump
// loops, deregistration by session handle on transport close.
type Handler struct {
	log        *slog.Logger
	chat       services.IChatService
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewHandler(log *slog.Logger, chat services.IChatService,
	allowedOrigins []string, bufferSize int) *Handler {
	return &Handler{
		log:        log,
		chat:       chat,
		upgrader:   newUpgrader(allowedOrigins),
		bufferSize: bufferSize,
	}
}

// newUpgrader builds a websocket upgrader restricted to the allowed origins.
// Requests without an Origin header (non-browser clients) are accepted.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool)
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Identity is caller-supplied; trust is established upstream.
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	sink := NewSink(h.bufferSize)
	session := contract.Session{Handle: uuid.New(), Sink: sink}
	h.chat.Connect(userID, session)
	h.log.Info("session registered", "user_id", userID, "session", session.Handle)

	c := &client{
		conn:   conn,
		userID: userID,
		sink:   sink,
		chat:   h.chat,
		log:    h.log,
		done:   make(chan struct{}),
	}

	go c.writePump()
	c.readPump(r.Context())

	h.chat.Disconnect(session.Handle)
	h.log.Info("session unregistered", "user_id", userID, "session", session.Handle)
}
