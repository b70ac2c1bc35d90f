// Package collab implements the in-memory collaboration rooms: one room per
// task, relaying code edits, file lifecycle events, chat messages and console
// output between the connected sessions of that task's members. Delivery is
// best-effort and ordered per sender; rooms are not persisted and disappear
// when their last session leaves.
package collab

import "encoding/json"

// Event types carried in the Frame envelope. Client-originated types on the
// left column of the relay pairs (code-change, send-message) are rebroadcast
// to the rest of the room under the paired type.
const (
	EventJoinRoom       = "join-room"
	EventLeaveRoom      = "leave-room"
	EventCodeChange     = "code-change"
	EventCodeUpdate     = "code-update"
	EventSendMessage    = "send-message"
	EventReceiveMessage = "receive-message"
	EventFileCreated    = "file-created"
	EventFileRenamed    = "file-renamed"
	EventFileDeleted    = "file-deleted"
	EventConsoleOutput  = "console-output"
	EventError          = "error"
)

// Frame is the JSON envelope exchanged over the websocket. Room identifies
// the task room the frame concerns; Payload is event-specific.
type Frame struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// CodeChangePayload carries an editor update for a single file.
type CodeChangePayload struct {
	FileID  string `json:"file_id"`
	Content string `json:"content"`
}

// ChatPayload carries a chat message. On receive-message the hub has already
// prefixed the sender's username ("alice: hello").
type ChatPayload struct {
	Message string `json:"message"`
}

// FilePayload announces a file lifecycle event to the room.
type FilePayload struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

// ConsoleOutputPayload relays the result of a code run to the room.
type ConsoleOutputPayload struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Status string `json:"status"`
}

func mustFrame(frameType, room string, payload any) []byte {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil
		}
		raw = data
	}
	data, err := json.Marshal(Frame{Type: frameType, Room: room, Payload: raw})
	if err != nil {
		return nil
	}
	return data
}
