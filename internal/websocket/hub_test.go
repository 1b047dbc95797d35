package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paalso/microblog-go/internal/models"
)

func TestBroadcastToReachesOnlyTargetUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Registering subscribes the client to its own user ID.
	alice := NewClient(hub, nil, "alice")
	bob := NewClient(hub, nil, "bob")
	hub.Register <- alice
	hub.Register <- bob

	post := models.Post{ID: "p1", Body: "hello", UserID: "alice", Username: "alice"}
	hub.BroadcastTo("alice", NewPostMessage(post))

	select {
	case data := <-alice.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "new_post", msg.Action)
		payload, ok := msg.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "hello", payload["body"])
	case <-time.After(time.Second):
		t.Fatal("expected a message for alice")
	}

	select {
	case data := <-bob.Send:
		t.Fatalf("unexpected message for bob: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastToUserWithoutClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Nobody is connected for this user; delivery is a no-op.
	hub.BroadcastTo("ghost", []byte("ping"))

	alice := NewClient(hub, nil, "alice")
	hub.Register <- alice
	hub.BroadcastTo("alice", []byte("pong"))

	select {
	case data := <-alice.Send:
		assert.Equal(t, "pong", string(data))
	case <-time.After(time.Second):
		t.Fatal("expected a message for alice")
	}
}

func TestBroadcastToMultipleClientsOfOneUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// The same user connected twice receives the message on both clients.
	first := NewClient(hub, nil, "alice")
	second := NewClient(hub, nil, "alice")
	hub.Register <- first
	hub.Register <- second

	hub.BroadcastTo("alice", []byte("hi"))

	for _, client := range []*Client{first, second} {
		select {
		case data := <-client.Send:
			assert.Equal(t, "hi", string(data))
		case <-time.After(time.Second):
			t.Fatal("expected a message on every client")
		}
	}
}

func TestBroadcastToDuringConnectionChurn(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Fan out concurrently with clients connecting and disconnecting; all
	// map access must stay on the Run goroutine.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			hub.BroadcastTo("user-1", []byte("ping"))
		}
	}()

	for i := 0; i < 2000; i++ {
		client := NewClient(hub, nil, "user-1")
		hub.Register <- client
		hub.Unregister <- client
	}
	<-done
}
