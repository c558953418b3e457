package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"pa-review-service/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AuditHub fans recorded audit events out to websocket subscribers watching a
// case. It implements service.AuditSink.
type AuditHub struct {
	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]bool // caseID -> connections
}

// NewAuditHub constructs an empty hub.
func NewAuditHub() *AuditHub {
	return &AuditHub{subs: make(map[string]map[*websocket.Conn]bool)}
}

// Publish delivers ev to every watcher of caseID. Connections that fail to
// accept the write are dropped.
func (h *AuditHub) Publish(caseID string, ev model.AuditEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs[caseID] {
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("audit stream: write to watcher of %s: %v", caseID, err)
			conn.Close()
			delete(h.subs[caseID], conn)
		}
	}
}

func (h *AuditHub) subscribe(caseID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[caseID] == nil {
		h.subs[caseID] = make(map[*websocket.Conn]bool)
	}
	h.subs[caseID][conn] = true
}

func (h *AuditHub) unsubscribe(caseID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[caseID], conn)
	if len(h.subs[caseID]) == 0 {
		delete(h.subs, caseID)
	}
}

// handleAuditStream upgrades the connection and streams audit events for one
// case until the client goes away.
func (s *Server) handleAuditStream(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("audit stream: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	s.hub.subscribe(caseID, conn)
	defer s.hub.unsubscribe(caseID, conn)

	// The feed is one-way; reads only detect the peer closing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("audit stream: websocket read: %v", err)
			}
			return
		}
	}
}
