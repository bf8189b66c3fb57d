package core

// Join subscribes c to the room topic and tells the other subscribers. Joining a
// topic the client already holds changes nothing and emits nothing.
func (h *Hub) Join(c *Client, roomID int64) bool {
	if !h.topics.Join(c, roomID) {
		return false
	}
	h.log.Debug().Str("conn_id", c.ID).Int64("room_id", roomID).Msg("joined room topic")
	h.broadcastRoom(roomID, &Event{
		Kind:     EventUserJoinedRoom,
		RoomID:   roomID,
		UserID:   c.UserID,
		Username: c.Name,
	}, c)
	return true
}

// Leave unsubscribes c from the room topic and tells the remaining subscribers.
func (h *Hub) Leave(c *Client, roomID int64) bool {
	if !h.topics.Leave(c, roomID) {
		return false
	}
	h.log.Debug().Str("conn_id", c.ID).Int64("room_id", roomID).Msg("left room topic")
	h.broadcastRoom(roomID, &Event{
		Kind:     EventUserLeftRoom,
		RoomID:   roomID,
		UserID:   c.UserID,
		Username: c.Name,
	}, nil)
	return true
}

// TypingStart relays a typing indicator to the other subscribers of the room.
// Nothing is stored and no timeout is applied.
func (h *Hub) TypingStart(c *Client, roomID int64) {
	h.broadcastRoom(roomID, &Event{
		Kind:     EventUserTyping,
		RoomID:   roomID,
		UserID:   c.UserID,
		Username: c.Name,
	}, c)
}

// TypingStop relays the end of a typing indicator to the other subscribers.
func (h *Hub) TypingStop(c *Client, roomID int64) {
	h.broadcastRoom(roomID, &Event{
		Kind:     EventUserStopTyping,
		RoomID:   roomID,
		UserID:   c.UserID,
		Username: c.Name,
	}, c)
}

// BroadcastToRoom fans an already-built event out to the room's current
// subscribers. The REST layer uses it for membership signals after it has
// changed the stored member set. It returns the number of deliveries.
func (h *Hub) BroadcastToRoom(roomID int64, ev *Event) int {
	if ev == nil {
		return 0
	}
	ev.RoomID = roomID
	return h.broadcastRoom(roomID, ev, nil)
}

// MembersAdded announces members added to a group room.
func (h *Hub) MembersAdded(change *MembershipChange, roomID, actorID int64, actorName string) int {
	return h.BroadcastToRoom(roomID, &Event{
		Kind:       EventMembersAdded,
		UserID:     actorID,
		Username:   actorName,
		Membership: change,
	})
}

// MemberRemoved announces a member removed from a group room by another member.
func (h *Hub) MemberRemoved(change *MembershipChange, roomID, actorID int64, actorName string) int {
	return h.BroadcastToRoom(roomID, &Event{
		Kind:       EventMemberRemoved,
		UserID:     actorID,
		Username:   actorName,
		Membership: change,
	})
}

// UserLeftGroup announces that a member left a group room on their own.
func (h *Hub) UserLeftGroup(change *MembershipChange, roomID, userID int64, username string) int {
	return h.BroadcastToRoom(roomID, &Event{
		Kind:       EventUserLeftGroup,
		UserID:     userID,
		Username:   username,
		Membership: change,
	})
}
