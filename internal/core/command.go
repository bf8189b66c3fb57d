package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the client to a room topic.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom unsubscribes the client from a room topic.
	CommandLeaveRoom
	// CommandSendMessage persists and broadcasts a chat message.
	CommandSendMessage
	// CommandTypingStart tells other subscribers the user started typing.
	CommandTypingStart
	// CommandTypingStop tells other subscribers the user stopped typing.
	CommandTypingStop
)

// Command represents an action requested by a client.
type Command struct {
	Kind   CommandKind
	RoomID int64
	Draft  Draft
}
