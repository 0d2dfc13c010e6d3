package hub

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derWhity/turntable/internal/models"
)

func newTestHub() *Hub {
	logger := logrus.New()
	logger.Out = ioutil.Discard
	h := New(logrus.NewEntry(logger))
	h.now = func() time.Time { return time.Date(2026, 5, 1, 21, 30, 0, 0, time.UTC) }
	return h
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func subscribe(t *testing.T, h *Hub, conn *websocket.Conn, slug string) {
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe", "eventSlug": slug}))
	// The subscription is processed asynchronously by the read loop
	deadline := time.Now().Add(time.Second)
	for h.NumSubscribers(slug) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client did not subscribe to %q in time", slug)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
	h := newTestHub()
	server := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer server.Close()

	subscriber := dial(t, server)
	defer subscriber.Close()
	bystander := dial(t, server)
	defer bystander.Close()

	subscribe(t, h, subscriber, "friday-night-abc123")
	subscribe(t, h, bystander, "other-event-xyz789")

	h.BroadcastNewRequest("friday-night-abc123", &models.SongRequest{
		ID:       "req-1",
		SongName: "Blinding Lights",
		Artist:   "The Weeknd",
		Upvotes:  1,
		Status:   models.RequestStatusQueued,
	})

	subscriber.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := subscriber.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type      string          `json:"type"`
		EventSlug string          `json:"eventSlug"`
		Timestamp int64           `json:"timestamp"`
		Payload   json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, KindRequestAdded, msg.Type)
	assert.Equal(t, "friday-night-abc123", msg.EventSlug)
	assert.Equal(t, time.Date(2026, 5, 1, 21, 30, 0, 0, time.UTC).UnixNano()/int64(time.Millisecond), msg.Timestamp)

	var req models.SongRequest
	require.NoError(t, json.Unmarshal(msg.Payload, &req))
	assert.Equal(t, "req-1", req.ID)

	// The bystander subscribed to a different event and must not receive anything
	bystander.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = bystander.ReadMessage()
	assert.Error(t, err)
}

func TestResubscribeReplacesSubscription(t *testing.T) {
	h := newTestHub()
	server := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	subscribe(t, h, conn, "first-event-aaaaaa")
	subscribe(t, h, conn, "second-event-bbbbbb")

	assert.Equal(t, 0, h.NumSubscribers("first-event-aaaaaa"))
	assert.Equal(t, 1, h.NumSubscribers("second-event-bbbbbb"))
}

func TestDisconnectedClientsAreDropped(t *testing.T) {
	h := newTestHub()
	server := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer server.Close()

	conn := dial(t, server)
	subscribe(t, h, conn, "friday-night-abc123")
	conn.Close()

	deadline := time.Now().Add(time.Second)
	for h.NumSubscribers("friday-night-abc123") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not dropped after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
