package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}

func TestHubBroadcastToRoom(t *testing.T) {
	hub := startHub(t)
	room := MatchRoom(7)

	watcher := NewClient(hub, nil, room)
	other := NewClient(hub, nil, MatchRoom(8))
	hub.Register <- watcher
	hub.Register <- other

	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom(room, Message{Type: MessageScoresUpdated, Payload: map[string]int{"match_id": 7}})

	select {
	case raw := <-watcher.Send:
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]int `json:"payload"`
			RoomID  string         `json:"room_id"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageScoresUpdated, msg.Type)
		assert.Equal(t, "match_7", msg.RoomID)
		assert.Equal(t, 7, msg.Payload["match_id"])
	case <-time.After(time.Second):
		t.Fatal("watcher did not receive the broadcast")
	}

	assert.Len(t, other.Send, 0)
}

func TestHubUnregisterClosesClient(t *testing.T) {
	hub := startHub(t)
	room := MatchRoom(1)

	client := NewClient(hub, nil, room)
	hub.Register <- client
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister <- client
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-client.Send
	assert.False(t, open)

	// Broadcasting to an empty room is a no-op.
	hub.BroadcastToRoom(room, Message{Type: MessageMatchFinished})
}

func TestHubStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := NewClient(hub, nil, MatchRoom(3))
	hub.Register <- client
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, open := <-client.Send
	assert.False(t, open)
}
