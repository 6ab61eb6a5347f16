package services

import (
	"sync"

	"github.com/gorilla/websocket"

	"project-management-api/config"
	"project-management-api/models"
)

// RealtimeHub pushes freshly created notifications to connected websocket
// clients of the recipient. The stream is best-effort: the durable in-app
// feed is the notifications table and its synchronous realtime delivery
// record, so a dropped or missed frame loses nothing.
//
// gorilla connections support at most one concurrent writer, so every
// connection carries its own write lock and Notify serializes on it.
type RealtimeHub struct {
	mu    sync.RWMutex
	conns map[uint]map[*websocket.Conn]*sync.Mutex
}

// Realtime is the process-wide hub.
var Realtime = &RealtimeHub{conns: make(map[uint]map[*websocket.Conn]*sync.Mutex)}

func (h *RealtimeHub) Register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]*sync.Mutex)
	}
	h.conns[userID][conn] = &sync.Mutex{}
}

func (h *RealtimeHub) Unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[userID], conn)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Notify streams a notification to every open connection of its recipient.
// Write errors only drop the broken connection.
func (h *RealtimeHub) Notify(n *models.Notification) {
	type target struct {
		conn    *websocket.Conn
		writeMu *sync.Mutex
	}

	h.mu.RLock()
	targets := make([]target, 0, len(h.conns[n.UserID]))
	for conn, writeMu := range h.conns[n.UserID] {
		targets = append(targets, target{conn: conn, writeMu: writeMu})
	}
	h.mu.RUnlock()

	for _, t := range targets {
		t.writeMu.Lock()
		err := t.conn.WriteJSON(n)
		t.writeMu.Unlock()
		if err != nil {
			config.Logger.WithField("user_id", n.UserID).
				Debugf("realtime push failed, dropping connection: %v", err)
			h.Unregister(n.UserID, t.conn)
			_ = t.conn.Close()
		}
	}
}
