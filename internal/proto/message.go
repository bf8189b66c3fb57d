package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Inbound event names.
const (
	InboundJoinRoom    = "join_room"
	InboundLeaveRoom   = "leave_room"
	InboundSendMessage = "send_message"
	InboundTypingStart = "typing_start"
	InboundTypingStop  = "typing_stop"
)

// Outbound event names.
const (
	OutboundReceiveMessage   = "receive_message"
	OutboundUserJoinedRoom   = "user_joined_room"
	OutboundUserLeftRoom     = "user_left_room"
	OutboundUserTyping       = "user_typing"
	OutboundUserStopTyping   = "user_stop_typing"
	OutboundUserStatusChange = "user_status_change"
	OutboundMessageDeleted   = "message_deleted"
	OutboundMessageError     = "message_error"
	OutboundMembersAdded     = "members_added"
	OutboundMemberRemoved    = "member_removed"
	OutboundUserLeftGroup    = "user_left_group"
)

var errBadRoom = errors.New("room must be a positive id")

// RoomRef is a room id that decodes from a bare id (number or numeric string)
// or from an object of the form {"room": id}.
type RoomRef int64

// UnmarshalJSON implements json.Unmarshaler.
func (r *RoomRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var wrapped struct {
			Room json.RawMessage `json:"room"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return err
		}
		if len(wrapped.Room) == 0 {
			return errBadRoom
		}
		return r.UnmarshalJSON(wrapped.Room)
	}

	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var id int64
	switch v := raw.(type) {
	case float64:
		id = int64(v)
		if float64(id) != v {
			return errBadRoom
		}
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errBadRoom
		}
		id = parsed
	default:
		return errBadRoom
	}
	if id <= 0 {
		return errBadRoom
	}
	*r = RoomRef(id)
	return nil
}

// SendMessageData is the payload of send_message.
type SendMessageData struct {
	Room     RoomRef `json:"room"`
	Content  string  `json:"content"`
	Type     string  `json:"type,omitempty"`
	FileURL  string  `json:"fileUrl,omitempty"`
	FileName string  `json:"fileName,omitempty"`
	FileSize int64   `json:"fileSize,omitempty"`
}

// TypingData is the payload of typing_start and typing_stop.
type TypingData struct {
	Room RoomRef `json:"room"`
}

// SenderPayload is the public profile attached to a message.
type SenderPayload struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

// MessagePayload is a persisted message as clients see it.
type MessagePayload struct {
	ID        int64         `json:"id"`
	Room      int64         `json:"room"`
	Sender    SenderPayload `json:"sender"`
	Type      string        `json:"type"`
	Content   string        `json:"content"`
	FileURL   string        `json:"fileUrl,omitempty"`
	FileName  string        `json:"fileName,omitempty"`
	FileSize  int64         `json:"fileSize,omitempty"`
	Deleted   bool          `json:"deleted"`
	DeletedBy *int64        `json:"deletedBy,omitempty"`
	ReadBy    []int64       `json:"readBy"`
	CreatedAt time.Time     `json:"createdAt"`
}

// UserRoomPayload is carried by join, leave and typing signals.
type UserRoomPayload struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	RoomID   int64  `json:"roomId"`
}

// StatusPayload is carried by user_status_change.
type StatusPayload struct {
	UserID   int64 `json:"userId"`
	IsOnline bool  `json:"isOnline"`
}

// MessageDeletedPayload is carried by message_deleted. One event is sent per
// room. MessageIDs always lists every message removed from that room and is
// the field clients should read. MessageID is only set when exactly one
// message was removed, so clients that read only messageId miss bulk deletes
// of more than one message.
type MessageDeletedPayload struct {
	MessageID  int64   `json:"messageId,omitempty"`
	MessageIDs []int64 `json:"messageIds"`
	RoomID     int64   `json:"roomId"`
}

// RoomPayload describes a room in membership signals and REST responses.
type RoomPayload struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	IsGlobal      bool      `json:"isGlobal"`
	Members       []int64   `json:"members"`
	CreatorID     *int64    `json:"creatorId,omitempty"`
	LastMessageID *int64    `json:"lastMessageId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MembershipPayload is carried by members_added, member_removed and user_left_group.
type MembershipPayload struct {
	RoomID          int64        `json:"roomId"`
	Room            *RoomPayload `json:"room,omitempty"`
	UserID          int64        `json:"userId"`
	Username        string       `json:"username"`
	AddedMembers    []int64      `json:"addedMembers,omitempty"`
	RemovedUserID   int64        `json:"removedUserId,omitempty"`
	RemovedUsername string       `json:"removedUsername,omitempty"`
}

// ErrorPayload is carried by message_error.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
