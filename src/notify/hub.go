// Package notify pushes pulse updates to the owner's open websocket connections.
package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"tradepulse/src/model"
)

const (
	EventStatsUpdated = "pulse.stats_updated"
	EventPulseDeleted = "pulse.deleted"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Event is one message sent to subscribers.
type Event struct {
	Type           string            `json:"type"`
	PulseID        string            `json:"pulse_id"`
	Status         string            `json:"status,omitempty"`
	Stats          *model.PulseStats `json:"stats,omitempty"`
	RuleViolations []string          `json:"rule_violations,omitempty"`
	At             time.Time         `json:"at"`
}

type client struct {
	id     string
	userID uint
	conn   *websocket.Conn
	send   chan Event
}

// Hub fans events out per user. Slow clients drop events rather than block publishers.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[*client]struct{}
	upgrader websocket.Upgrader
}

func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[uint]map[*client]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Publish queues ev for every connection of userID.
func (h *Hub) Publish(userID uint, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- ev:
		default:
			logger.WithFields(map[string]interface{}{
				"component": "notify",
				"client_id": c.id,
				"user_id":   userID,
				"event":     ev.Type,
			}).Warn("Dropping event for slow websocket client")
		}
	}
}

// ClientCount reports how many connections userID has open.
func (h *Hub) ClientCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// ServeWS upgrades the request and blocks until the connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan Event, sendBuffer),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)

	return nil
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}

	logger.WithFields(map[string]interface{}{
		"component": "notify",
		"client_id": c.id,
		"user_id":   c.userID,
	}).Debug("Websocket client registered")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// readPump only watches for close and pong frames; clients never send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).WithField("client_id", c.id).Warn("Websocket closed unexpectedly")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				logger.WithError(err).WithField("client_id", c.id).Warn("Websocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
