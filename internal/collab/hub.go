package collab

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// sendBuffer bounds the per-client outbound queue. A client that cannot keep
// up has further frames dropped rather than stalling the room.
const sendBuffer = 64

// Client is one connected session as the hub sees it. ID identifies the
// connection (a user can hold several), UserID and Username identify who is
// behind it.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Username string

	send chan []byte
}

// NewClient creates a hub client for the given user.
func NewClient(userID uuid.UUID, username string) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Username: username,
		send:     make(chan []byte, sendBuffer),
	}
}

// Send returns the client's outbound frame queue. It is closed when the
// client is unregistered.
func (c *Client) Send() <-chan []byte { return c.send }

type roomMessage struct {
	room   string
	sender uuid.UUID // client ID excluded from delivery; uuid.Nil excludes nobody
	data   []byte
}

// Hub tracks connected clients and their room memberships and fans frames out
// to room members. A single Run loop serializes registration and broadcast,
// so frames from one sender arrive at every recipient in the order they were
// submitted.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
	rooms   map[string]map[uuid.UUID]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage
	done       chan struct{}

	logger *slog.Logger
}

// NewHub creates an empty hub. Call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		rooms:      make(map[string]map[uuid.UUID]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes hub events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until the hub has shut down.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a client to the hub. The client is in no room until JoinRoom.
// Registering against a hub that has shut down is a no-op.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister disconnects a client, removing it from every room it joined and
// closing its send queue. After shutdown this returns immediately; closeAll
// has already released every client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// JoinRoom adds a client to a room. Joining a room the client is already in
// is a no-op; a client may be in several rooms at once.
func (h *Hub) JoinRoom(clientID uuid.UUID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[uuid.UUID]bool)
	}
	h.rooms[room][clientID] = true
}

// LeaveRoom removes a client from a room. Leaving a room the client is not in
// is a no-op. Empty rooms are discarded.
func (h *Hub) LeaveRoom(clientID uuid.UUID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(clientID, room)
}

// InRoom reports whether the client is currently a member of the room.
func (h *Hub) InRoom(clientID uuid.UUID, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[room][clientID]
}

// RoomSize returns the number of clients currently in the room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// SendTo queues a frame for a single client, bypassing rooms. Frames for
// clients the hub no longer tracks are dropped, so callers stay safe across
// hub shutdown: send queues are only ever closed after the client leaves the
// clients map, under the same lock held here.
func (h *Hub) SendTo(clientID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// Relay queues a frame for every room member except the sending client.
func (h *Hub) Relay(room string, sender uuid.UUID, frameType string, payload any) {
	h.enqueue(room, sender, frameType, payload)
}

// Announce queues a frame for every room member, the originator included.
// Used for events that do not originate from a room session, such as console
// output from a code run.
func (h *Hub) Announce(room, frameType string, payload any) {
	h.enqueue(room, uuid.Nil, frameType, payload)
}

func (h *Hub) enqueue(room string, sender uuid.UUID, frameType string, payload any) {
	data := mustFrame(frameType, room, payload)
	if data == nil {
		h.logger.Error("dropping unencodable frame", "type", frameType, "room", room)
		return
	}
	select {
	case h.broadcast <- roomMessage{room: room, sender: sender, data: data}:
	case <-h.done:
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("client connected", "client_id", client.ID, "user_id", client.UserID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	for room := range h.rooms {
		h.removeFromRoom(client.ID, room)
	}
	close(client.send)
	h.logger.Debug("client disconnected", "client_id", client.ID, "user_id", client.UserID)
}

func (h *Hub) handleBroadcast(msg roomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[msg.room]
	if !ok {
		return
	}
	if msg.sender != uuid.Nil && !members[msg.sender] {
		// A sender that never joined (or already left) does not get to
		// inject frames into the room.
		return
	}
	for clientID := range members {
		if clientID == msg.sender {
			continue
		}
		client, ok := h.clients[clientID]
		if !ok {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			h.logger.Warn("client send queue full, dropping frame",
				"client_id", clientID, "room", msg.room)
		}
	}
}

// removeFromRoom requires h.mu held for writing.
func (h *Hub) removeFromRoom(clientID uuid.UUID, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.rooms = make(map[string]map[uuid.UUID]bool)
}
