package gameserver

import (
	"encoding/json"
	"fmt"
)

// ServerName is the sender name used for system announcements. No player
// actor may use it.
const ServerName = "Server"

// Client message types.
const (
	TypeJoin         = "join"
	TypeGlobal       = "send_global"
	TypeRoom         = "send_room"
	TypePrivate      = "send_private"
	TypeMove         = "move"
	TypeTransferItem = "transfer_item"
	TypeLeave        = "leave"
)

// Server event types.
const (
	EventJoinResult    = "join_result"
	EventMoveResult    = "move_result"
	EventPrivateResult = "private_result"
	EventMessage       = "message"
	EventError         = "error"
)

// Message scopes.
const (
	ScopeGlobal  = "global"
	ScopeRoom    = "room"
	ScopePrivate = "private"
)

// ClientMessage is the single envelope for everything a client sends over
// the socket. Type selects the operation; unused fields stay empty.
type ClientMessage struct {
	RequestID string `json:"request_id,omitempty"`
	Type      string `json:"type"`
	Token     string `json:"token,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Target    string `json:"target,omitempty"`
	Direction string `json:"direction,omitempty"`
	Portal    string `json:"portal,omitempty"`
	ItemID    string `json:"item_id,omitempty"`
	TargetID  string `json:"target_id,omitempty"`
}

// DecodeClientMessage parses a raw frame and checks that the type is one
// the server knows.
func DecodeClientMessage(raw []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("malformed client message: %w", err)
	}
	switch msg.Type {
	case TypeJoin, TypeGlobal, TypeRoom, TypePrivate, TypeMove, TypeTransferItem, TypeLeave:
		return &msg, nil
	default:
		return nil, fmt.Errorf("unknown client message type %q", msg.Type)
	}
}

// ServerEvent is the single envelope for everything the server pushes.
// Exactly one payload field is set, matching Type.
type ServerEvent struct {
	RequestID string         `json:"request_id,omitempty"`
	Type      string         `json:"type"`
	Join      *JoinResult    `json:"join,omitempty"`
	Move      *MoveResult    `json:"move,omitempty"`
	Private   *PrivateResult `json:"private,omitempty"`
	Message   *Message       `json:"message,omitempty"`
	Error     *ErrorEvent    `json:"error,omitempty"`
}

// JoinResult reports the outcome of a join attempt. On success WorldID,
// RoomID, and AreaID locate the actor's starting position.
type JoinResult struct {
	Success bool   `json:"success"`
	WorldID string `json:"world_id,omitempty"`
	RoomID  string `json:"room_id,omitempty"`
	AreaID  string `json:"area_id,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// MoveResult reports the outcome of a navigation attempt.
type MoveResult struct {
	Success bool   `json:"success"`
	RoomID  string `json:"room_id,omitempty"`
	AreaID  string `json:"area_id,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// PrivateResult reports whether a private message reached its target.
type PrivateResult struct {
	Success bool   `json:"success"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// Message is a chat or system line delivered to a client.
type Message struct {
	Scope  string `json:"scope"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	System bool   `json:"system,omitempty"`
}

// ErrorEvent reports an expected failure for a request that has no
// dedicated result type.
type ErrorEvent struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
}

// Encode marshals a server event for the wire.
func Encode(ev *ServerEvent) ([]byte, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode server event: %w", err)
	}
	return raw, nil
}

func errorEvent(requestID string, rej *Rejection) *ServerEvent {
	return &ServerEvent{
		RequestID: requestID,
		Type:      EventError,
		Error:     &ErrorEvent{Kind: rej.Kind, Message: rej.Message},
	}
}
