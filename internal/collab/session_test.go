package collab

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAllRooms struct{}

func (allowAllRooms) AuthorizeRoom(context.Context, uuid.UUID, uuid.UUID) error { return nil }

// newFrameSession builds a session around a registered client without a real
// websocket connection, enough to drive handleFrame directly.
func newFrameSession(t *testing.T, hub *Hub, username string) *Session {
	t.Helper()
	s := &Session{
		hub:        hub,
		client:     NewClient(uuid.New(), username),
		authorizer: allowAllRooms{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	hub.Register(s.client)
	return s
}

func rawPayload(t *testing.T, payload any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func TestSessionRelaysConsoleOutputToPeers(t *testing.T) {
	hub := startHub(t)
	room := uuid.New().String()

	alice := newFrameSession(t, hub, "alice")
	bob := connect(t, hub, "bob")
	join(t, hub, alice.client, room)
	join(t, hub, bob, room)

	alice.handleFrame(context.Background(), Frame{
		Type:    EventConsoleOutput,
		Room:    room,
		Payload: rawPayload(t, ConsoleOutputPayload{Stdout: "hello\n", Status: "ok"}),
	})

	frame := recvFrame(t, bob)
	assert.Equal(t, EventConsoleOutput, frame.Type)
	assert.Equal(t, room, frame.Room)

	var payload ConsoleOutputPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.Equal(t, "hello\n", payload.Stdout)

	assertSilent(t, alice.client)
}

func TestSessionErrorsSurviveHubShutdown(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	alice := newFrameSession(t, hub, "alice")
	room := uuid.New().String()
	join(t, hub, alice.client, room)

	cancel()
	hub.Wait()

	// The hub closed alice's send queue on shutdown; error frames for a
	// released client must be dropped, not sent on the closed channel.
	alice.handleFrame(context.Background(), Frame{Type: "no-such-event"})
	alice.sendError("late error")

	// The deferred unregister in Run must not block against a stopped hub.
	hub.Unregister(alice.client)
}
