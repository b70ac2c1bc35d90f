package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// RoomAuthorizer decides whether a user may join a task's room. The hub
// itself performs no access control; every join goes through this port.
type RoomAuthorizer interface {
	AuthorizeRoom(ctx context.Context, taskID, userID uuid.UUID) error
}

// Session drives one websocket connection: it decodes incoming frames,
// applies room authorization, and relays events through the hub. A session
// belongs to a single authenticated user but may join any number of rooms.
type Session struct {
	hub        *Hub
	conn       *websocket.Conn
	client     *Client
	authorizer RoomAuthorizer
	logger     *slog.Logger
}

// NewSession wraps an upgraded websocket connection for the given user.
func NewSession(hub *Hub, conn *websocket.Conn, userID uuid.UUID, username string, authorizer RoomAuthorizer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		hub:        hub,
		conn:       conn,
		client:     NewClient(userID, username),
		authorizer: authorizer,
		logger:     logger,
	}
}

// Run registers the session with the hub and pumps frames in both directions
// until the connection closes or ctx is cancelled. It always unregisters the
// session on return, which removes it from every room it joined.
func (s *Session) Run(ctx context.Context) {
	s.hub.Register(s.client)
	defer func() {
		s.hub.Unregister(s.client)
		_ = s.conn.Close()
	}()

	go s.writePump()
	s.readPump(ctx)
}

func (s *Session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "user_id", s.client.UserID, "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.sendError("malformed frame")
			continue
		}
		s.handleFrame(ctx, frame)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-s.client.Send():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) handleFrame(ctx context.Context, frame Frame) {
	switch frame.Type {
	case EventJoinRoom:
		s.handleJoin(ctx, frame.Room)
	case EventLeaveRoom:
		s.hub.LeaveRoom(s.client.ID, frame.Room)
	case EventCodeChange:
		s.hub.Relay(frame.Room, s.client.ID, EventCodeUpdate, json.RawMessage(frame.Payload))
	case EventSendMessage:
		s.handleChat(frame)
	case EventConsoleOutput, EventFileCreated, EventFileRenamed, EventFileDeleted:
		s.hub.Relay(frame.Room, s.client.ID, frame.Type, json.RawMessage(frame.Payload))
	default:
		s.sendError("unknown event type: " + frame.Type)
	}
}

func (s *Session) handleJoin(ctx context.Context, room string) {
	taskID, err := uuid.Parse(room)
	if err != nil {
		s.sendError("invalid room id")
		return
	}
	if err := s.authorizer.AuthorizeRoom(ctx, taskID, s.client.UserID); err != nil {
		s.logger.Info("room join rejected",
			"task_id", taskID, "user_id", s.client.UserID, "error", err)
		s.sendError("not a member of this task")
		return
	}
	s.hub.JoinRoom(s.client.ID, room)
}

func (s *Session) handleChat(frame Frame) {
	var payload ChatPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.Message == "" {
		s.sendError("invalid chat payload")
		return
	}
	s.hub.Relay(frame.Room, s.client.ID, EventReceiveMessage, ChatPayload{
		Message: s.client.Username + ": " + payload.Message,
	})
}

func (s *Session) sendError(msg string) {
	data, err := json.Marshal(Frame{Type: EventError, Error: msg})
	if err != nil {
		return
	}
	s.hub.SendTo(s.client.ID, data)
}
