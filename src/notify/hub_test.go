package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepulse/src/model"
)

func newTestServer(t *testing.T, hub *Hub, userID uint) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, userID)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubDeliversToOwnerOnly(t *testing.T) {
	hub := NewHub([]string{"*"})
	defer hub.Close()

	owner := dial(t, newTestServer(t, hub, 7))
	_ = dial(t, newTestServer(t, hub, 8))

	require.Eventually(t, func() bool {
		return hub.ClientCount(7) == 1 && hub.ClientCount(8) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish(7, Event{
		Type:    EventStatsUpdated,
		PulseID: "SCAL050324",
		Status:  model.PulseStatusLocked,
		Stats:   &model.PulseStats{TotalTrades: 2},
	})

	require.NoError(t, owner.SetReadDeadline(time.Now().Add(time.Second)))
	var got Event
	require.NoError(t, owner.ReadJSON(&got))

	assert.Equal(t, EventStatsUpdated, got.Type)
	assert.Equal(t, "SCAL050324", got.PulseID)
	assert.Equal(t, model.PulseStatusLocked, got.Status)
	require.NotNil(t, got.Stats)
	assert.Equal(t, 2, got.Stats.TotalTrades)
	assert.False(t, got.At.IsZero())
}

func TestHubUnregistersOnClose(t *testing.T) {
	hub := NewHub([]string{"*"})
	defer hub.Close()

	conn := dial(t, newTestServer(t, hub, 3))
	require.Eventually(t, func() bool { return hub.ClientCount(3) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))

	require.Eventually(t, func() bool { return hub.ClientCount(3) == 0 }, time.Second, 10*time.Millisecond)

	// Publishing with nobody listening is a no-op.
	hub.Publish(3, Event{Type: EventPulseDeleted})
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))
}
