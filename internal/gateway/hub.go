// Package gateway streams ledger and decision events to websocket clients.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abhay-codes07/dream-trade-bot/internal/metrics"
)

// Envelope is the frame sent to clients.
type Envelope struct {
	Type string          `json:"type"`
	Seq  int64           `json:"seq"`
	TS   time.Time       `json:"ts"`
	Data json.RawMessage `json:"data"`
}

// Hub fans events out to connected clients. Slow clients drop frames
// rather than stall the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	seq     int64

	replay   *ReplayBuffer
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewHub creates a hub keeping the last replaySize events for reconnects.
func NewHub(replaySize int, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		replay:  NewReplayBuffer(replaySize),
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		now: time.Now,
	}
}

// Publish encodes v and broadcasts it as an event of type kind.
func (h *Hub) Publish(kind string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[gateway] encode %s event: %v", kind, err)
		return
	}

	h.mu.Lock()
	h.seq++
	env := Envelope{Type: kind, Seq: h.seq, TS: h.now().UTC(), Data: data}
	h.mu.Unlock()

	frame, err := json.Marshal(env)
	if err != nil {
		log.Printf("[gateway] encode envelope: %v", err)
		return
	}
	h.replay.Push(env.Seq, frame)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
		}
	}
}

// ServeHTTP upgrades the request. ?since=<seq> replays buffered events
// newer than seq before live ones.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade failed: %v", err)
		return
	}

	since := int64(-1)
	if s := r.URL.Query().Get("since"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			since = v
		}
	}

	c := &Client{conn: conn, send: make(chan []byte, 256), hub: h}

	h.mu.Lock()
	if since >= 0 {
		for _, frame := range h.replay.Since(since) {
			select {
			case c.send <- frame:
			default:
			}
		}
	}
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetWSClients(count)
	log.Printf("[gateway] ws client connected (%d total)", count)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	close(c.send)
	h.mu.Unlock()
	h.metrics.SetWSClients(count)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
