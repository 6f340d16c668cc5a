package realtime

import (
	"chatbox-backend/internal/auth"
	"chatbox-backend/pkg/httputil"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler upgrades authenticated requests to websocket connections attached to the hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler creates the /ws handler. allowedOrigins is matched against the
// Origin header; "*" allows any origin. Requests without an Origin header
// (non-browser clients) are always allowed.
func NewHandler(hub *Hub, allowedOrigins []string, logger *zap.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: logger.Named("ws_handler"),
	}
}

// ServeHTTP expects the JWT middleware to have put the caller's id in the context.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	select {
	case <-h.hub.Done():
		httputil.RespondError(w, http.StatusServiceUnavailable, "Notifications unavailable")
		return
	default:
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		h.log.Info("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
		log:    h.log.With(zap.Stringer("user_id", userID)),
	}
	if !h.hub.register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
