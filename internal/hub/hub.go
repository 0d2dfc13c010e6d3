// Package hub implements the realtime fan-out of queue changes to connected attendee and DJ clients
package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/derWhity/turntable/internal/log"
	"github.com/derWhity/turntable/internal/models"
)

// Message kinds pushed to subscribed clients
const (
	KindQueueUpdate      = "queue:update"
	KindRequestAdded     = "request:added"
	KindVisibilityToggle = "visibility:toggle"
	KindRequestPlayed    = "request:played"
)

// subscribeMessage is the only message clients are expected to send. Subscribing to a second
// event replaces the first subscription
type subscribeMessage struct {
	Type      string `json:"type"`
	EventSlug string `json:"eventSlug"`
}

// envelope is the wire format of every pushed message
type envelope struct {
	Type      string      `json:"type"`
	EventSlug string      `json:"eventSlug"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// client is one connected websocket peer. The write mutex serializes concurrent broadcasts onto
// the single connection
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	slug    string
}

func (c *client) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub keeps track of all connected clients and their event subscriptions
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}

	upgrader websocket.Upgrader
	logger   *logrus.Entry
	now      func() time.Time
}

// New creates a new hub instance with the given logger
func New(logger *logrus.Entry) *Hub {
	return &Hub{
		clients: map[*client]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The attendee page is served from arbitrary origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
		now:    time.Now,
	}
}

// HandleWS upgrades an incoming HTTP request to a websocket connection and services it until the
// peer disconnects
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	go h.readLoop(c)
}

// readLoop consumes subscribe messages until the connection dies
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg subscribeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Ignore anything that is not valid JSON
			continue
		}
		if msg.Type == "subscribe" && msg.EventSlug != "" {
			h.mu.Lock()
			c.slug = msg.EventSlug
			h.mu.Unlock()
			h.logger.WithField(log.FldEvent, msg.EventSlug).Debug("Client subscribed")
		}
	}
}

// drop removes a client from the registry and closes its connection
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

// NumSubscribers returns the number of clients currently subscribed to the given event
func (h *Hub) NumSubscribers(eventSlug string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	num := 0
	for c := range h.clients {
		if c.slug == eventSlug {
			num++
		}
	}
	return num
}

// broadcast pushes one message to every client subscribed to the given event. Clients whose
// connection errors out are dropped
func (h *Hub) broadcast(eventSlug string, kind string, payload interface{}) {
	data, err := json.Marshal(envelope{
		Type:      kind,
		EventSlug: eventSlug,
		Timestamp: h.now().UnixNano() / int64(time.Millisecond),
		Payload:   payload,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal broadcast message")
		return
	}
	h.mu.RLock()
	var targets []*client
	for c := range h.clients {
		if c.slug == eventSlug {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		if err := c.send(data); err != nil {
			h.drop(c)
		}
	}
}

// BroadcastQueueUpdate notifies subscribers that the queue contents of an event have changed
func (h *Hub) BroadcastQueueUpdate(eventSlug string) {
	h.broadcast(eventSlug, KindQueueUpdate, nil)
}

// BroadcastNewRequest notifies subscribers about a new or merged song request
func (h *Hub) BroadcastNewRequest(eventSlug string, req *models.SongRequest) {
	h.broadcast(eventSlug, KindRequestAdded, req)
}

// BroadcastVisibilityToggle notifies subscribers that the DJ toggled the queue visibility
func (h *Hub) BroadcastVisibilityToggle(eventSlug string, visible bool) {
	h.broadcast(eventSlug, KindVisibilityToggle, map[string]bool{"queueVisible": visible})
}

// BroadcastRequestPlayed notifies subscribers that a request left the queue
func (h *Hub) BroadcastRequestPlayed(eventSlug string, req *models.SongRequest) {
	h.broadcast(eventSlug, KindRequestPlayed, req)
}
