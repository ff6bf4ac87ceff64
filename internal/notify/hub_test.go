package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-api/internal/persist"
)

func readEvent(t *testing.T, conn *websocket.Conn) (string, persist.Event) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string        `json:"type"`
		Data persist.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg.Type, msg.Data
}

func TestHubSendsCurrentThenUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(func() persist.Event {
		return persist.Event{Status: persist.StatusIdle}
	}, func(*http.Request) bool { return true })
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	msgType, ev := readEvent(t, conn)
	assert.Equal(t, "sync_status", msgType)
	assert.Equal(t, persist.StatusIdle, ev.Status)

	// the initial message is written by the pump, which starts after registration
	hub.SyncListener()(persist.Event{Status: persist.StatusError, Error: "unreachable"})

	msgType, ev = readEvent(t, conn)
	assert.Equal(t, "sync_status", msgType)
	assert.Equal(t, persist.StatusError, ev.Status)
	assert.Equal(t, "unreachable", ev.Error)
}

func TestAllowOrigins(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://evil.test")

	assert.True(t, AllowOrigins([]string{"*"})(req))
	assert.False(t, AllowOrigins([]string{"http://localhost:3000"})(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, AllowOrigins([]string{"http://localhost:3000"})(req))
}
