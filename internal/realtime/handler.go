package realtime

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to realtime connections.
type Handler struct {
	registry Registry
	relay    *Relay
	upgrader websocket.Upgrader
}

// NewHandler builds the upgrade handler. Cross-origin access is restricted
// to the one configured origin; requests without an Origin header
// (non-browser clients) are allowed through.
func NewHandler(registry Registry, allowedOrigin string) *Handler {
	h := &Handler{
		registry: registry,
		relay:    NewRelay(registry),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if allowedOrigin == "*" {
				return true
			}
			return strings.EqualFold(origin, allowedOrigin)
		},
	}
	return h
}

// ServeWS handles GET /ws.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade failed: %v", err)
		return
	}

	c := newConn(sock, h.registry, h.relay)
	log.Printf("realtime client connected: %s", c.id)

	go c.writePump()
	go c.readPump()
}
