package core

import "github.com/vovakirdan/arangam-server/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventReceiveMessage delivers a persisted, sender-enriched message to a room.
	EventReceiveMessage EventKind = iota
	// EventUserJoinedRoom notifies subscribers about a connection joining a room topic.
	EventUserJoinedRoom
	// EventUserLeftRoom notifies subscribers about a connection leaving a room topic.
	EventUserLeftRoom
	// EventUserTyping notifies subscribers that a user started typing.
	EventUserTyping
	// EventUserStopTyping notifies subscribers that a user stopped typing.
	EventUserStopTyping
	// EventUserStatusChange notifies every client about a presence transition.
	EventUserStatusChange
	// EventMessageDeleted notifies a room that messages were soft-deleted.
	EventMessageDeleted
	// EventMessageError reports a failed send to the sender only.
	EventMessageError

	// Membership signals emitted on behalf of the REST layer.
	// EventMembersAdded notifies a room that members were added to a group.
	EventMembersAdded
	// EventMemberRemoved notifies a room that a member was removed from a group.
	EventMemberRemoved
	// EventUserLeftGroup notifies a room that a member left a group.
	EventUserLeftGroup
)

var eventNames = map[EventKind]string{
	EventReceiveMessage:   "receive_message",
	EventUserJoinedRoom:   "user_joined_room",
	EventUserLeftRoom:     "user_left_room",
	EventUserTyping:       "user_typing",
	EventUserStopTyping:   "user_stop_typing",
	EventUserStatusChange: "user_status_change",
	EventMessageDeleted:   "message_deleted",
	EventMessageError:     "message_error",
	EventMembersAdded:     "members_added",
	EventMemberRemoved:    "member_removed",
	EventUserLeftGroup:    "user_left_group",
}

// String returns the wire name of the event.
func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind       EventKind
	RoomID     int64
	UserID     int64
	Username   string
	Online     bool     // EventUserStatusChange
	Message    *Message // EventReceiveMessage
	MessageIDs []int64  // EventMessageDeleted
	Error      *CoreError
	Membership *MembershipChange // membership signals
}

// MembershipChange carries the payload of membership signals.
type MembershipChange struct {
	Room            *store.Room
	AddedMembers    []int64
	RemovedUserID   int64
	RemovedUsername string
}
