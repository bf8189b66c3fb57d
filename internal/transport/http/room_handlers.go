package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/arangam-server/internal/core"
	"github.com/vovakirdan/arangam-server/internal/proto"
	"github.com/vovakirdan/arangam-server/internal/store"
)

const (
	globalRoomName  = "Global Chat"
	maxHistoryLimit = 200
)

// RoomHandlers provides HTTP handlers for room management endpoints. Membership
// changes are announced through the hub after the store has been updated.
type RoomHandlers struct {
	store        store.Store
	hub          *core.Hub
	historyLimit int
	log          *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, hub *core.Hub, historyLimit int, logger *zerolog.Logger) *RoomHandlers {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &RoomHandlers{
		store:        st,
		hub:          hub,
		historyLimit: historyLimit,
		log:          logger,
	}
}

// PrivateRoomRequest represents the private room request body.
type PrivateRoomRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// GroupRoomRequest represents the group creation request body.
type GroupRoomRequest struct {
	Name      string  `json:"name" binding:"required"`
	MemberIDs []int64 `json:"memberIds"`
}

// AddMembersRequest represents the add members request body.
type AddMembersRequest struct {
	UserIDs []int64 `json:"userIds" binding:"required"`
}

// ListRooms lists the rooms the caller belongs to.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	rooms, err := h.store.ListRoomsForMember(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]*proto.RoomPayload, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomPayload(room))
	}
	c.JSON(http.StatusOK, response)
}

// GlobalRoom returns the global room and makes the caller a member.
// GET /api/rooms/global
func (h *RoomHandlers) GlobalRoom(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	room, err := h.store.GetOrCreateGlobalRoom(c.Request.Context(), globalRoomName, user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to load global room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, roomPayload(room))
}

// PrivateRoom returns the two-member room shared with another user, creating it
// on first use.
// POST /api/rooms/private
func (h *RoomHandlers) PrivateRoom(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req PrivateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userId is required"})
		return
	}
	if req.UserID == user.ID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Cannot create a private room with yourself"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		}
		h.log.Error().Err(err).Int64("target_id", req.UserID).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	room, err := h.store.FindPrivateRoom(ctx, user.ID, req.UserID)
	if err == nil {
		c.JSON(http.StatusOK, roomPayload(room))
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to look up private room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	creator := user.ID
	room, err = h.store.CreateRoom(ctx, &store.Room{
		Type:      store.RoomTypePrivate,
		Members:   []int64{user.ID, req.UserID},
		CreatorID: &creator,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to create private room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", room.ID).Int64("user_id", user.ID).Int64("peer_id", req.UserID).Msg("private room created")
	c.JSON(http.StatusCreated, roomPayload(room))
}

// CreateGroup creates a group room. The creator is always a member.
// POST /api/rooms/group
func (h *RoomHandlers) CreateGroup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req GroupRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Group name is required"})
		return
	}

	ctx := c.Request.Context()
	members := []int64{user.ID}
	for _, id := range req.MemberIDs {
		if id == user.ID {
			continue
		}
		if _, err := h.store.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown member " + strconv.FormatInt(id, 10)})
				return
			}
			h.log.Error().Err(err).Int64("target_id", id).Msg("failed to load group member")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		members = append(members, id)
	}

	creator := user.ID
	room, err := h.store.CreateRoom(ctx, &store.Room{
		Name:      strings.TrimSpace(req.Name),
		Type:      store.RoomTypeGroup,
		Members:   members,
		CreatorID: &creator,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to create group")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", room.ID).Int64("user_id", user.ID).Int("members", len(room.Members)).Msg("group created")
	c.JSON(http.StatusCreated, roomPayload(room))
}

// GetRoom returns a room the caller belongs to.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	user, room, ok := h.memberRoom(c)
	if !ok {
		return
	}
	h.log.Debug().Int64("room_id", room.ID).Int64("user_id", user.ID).Msg("room fetched")
	c.JSON(http.StatusOK, roomPayload(room))
}

// History returns the room's messages, oldest first. Soft-deleted messages are
// included with deleted set.
// GET /api/rooms/:id/messages?limit=50&before=RFC3339
func (h *RoomHandlers) History(c *gin.Context) {
	_, room, ok := h.memberRoom(c)
	if !ok {
		return
	}

	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before timestamp"})
			return
		}
		before = &t
	}

	ctx := c.Request.Context()
	msgs, err := h.store.ListMessages(ctx, room.ID, limit, before)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", room.ID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	senders := newSenderCache(h.store)
	response := make([]proto.MessagePayload, 0, len(msgs))
	for _, m := range msgs {
		response = append(response, messagePayload(m, senders.get(ctx, m.SenderID)))
	}
	c.JSON(http.StatusOK, response)
}

// AddMembers adds users to a group. Only the group's creator may do this.
// POST /api/rooms/:id/members
func (h *RoomHandlers) AddMembers(c *gin.Context) {
	user, room, ok := h.creatorGroup(c)
	if !ok {
		return
	}

	var req AddMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userIds is required"})
		return
	}

	ctx := c.Request.Context()
	for _, id := range req.UserIDs {
		if _, err := h.store.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown member " + strconv.FormatInt(id, 10)})
				return
			}
			h.log.Error().Err(err).Int64("target_id", id).Msg("failed to load member")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
	}

	added, err := h.store.AddMembers(ctx, room.ID, req.UserIDs)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", room.ID).Msg("failed to add members")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	roomID := room.ID
	room, err = h.store.GetRoomByID(ctx, roomID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to reload room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if len(added) > 0 {
		h.hub.MembersAdded(&core.MembershipChange{Room: room, AddedMembers: added}, room.ID, user.ID, user.Username)
	}
	h.log.Info().Int64("room_id", room.ID).Int("added", len(added)).Msg("members added")
	c.JSON(http.StatusOK, roomPayload(room))
}

// RemoveMember removes a user from a group. Only the group's creator may do this.
// DELETE /api/rooms/:id/members/:userId
func (h *RoomHandlers) RemoveMember(c *gin.Context) {
	user, room, ok := h.creatorGroup(c)
	if !ok {
		return
	}

	targetID, ok := pathID(c, "userId")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}
	if targetID == user.ID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Use leave to exit a group you created"})
		return
	}
	if !store.IsMember(room, targetID) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User is not a member of this group"})
		return
	}

	ctx := c.Request.Context()
	target, err := h.store.GetUserByID(ctx, targetID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Error().Err(err).Int64("target_id", targetID).Msg("failed to load member")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	updated, ok := h.removeAndReload(c, room.ID, targetID)
	if !ok {
		return
	}

	change := &core.MembershipChange{Room: updated, RemovedUserID: targetID}
	if target != nil {
		change.RemovedUsername = target.Username
	}
	h.hub.MemberRemoved(change, room.ID, user.ID, user.Username)
	h.log.Info().Int64("room_id", room.ID).Int64("removed_id", targetID).Msg("member removed")
	c.JSON(http.StatusOK, roomPayload(updated))
}

// LeaveGroup removes the caller from a group.
// POST /api/rooms/:id/leave
func (h *RoomHandlers) LeaveGroup(c *gin.Context) {
	user, room, ok := h.memberRoom(c)
	if !ok {
		return
	}
	if room.Type != store.RoomTypeGroup {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Only group rooms can be left"})
		return
	}

	updated, ok := h.removeAndReload(c, room.ID, user.ID)
	if !ok {
		return
	}

	h.hub.UserLeftGroup(&core.MembershipChange{
		Room:            updated,
		RemovedUserID:   user.ID,
		RemovedUsername: user.Username,
	}, room.ID, user.ID, user.Username)
	h.log.Info().Int64("room_id", room.ID).Int64("user_id", user.ID).Msg("user left group")
	c.JSON(http.StatusOK, gin.H{"message": "Left group"})
}

// DeleteGroup removes a group room with its members and messages. Only the
// creator may delete it.
// DELETE /api/rooms/:id
func (h *RoomHandlers) DeleteGroup(c *gin.Context) {
	user, room, ok := h.creatorGroup(c)
	if !ok {
		return
	}

	if err := h.store.DeleteRoom(c.Request.Context(), room.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", room.ID).Msg("failed to delete room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", room.ID).Int64("user_id", user.ID).Msg("group deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
}

func (h *RoomHandlers) removeAndReload(c *gin.Context, roomID, userID int64) (*store.Room, bool) {
	ctx := c.Request.Context()
	if err := h.store.RemoveMember(ctx, roomID, userID); err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Int64("target_id", userID).Msg("failed to remove member")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return nil, false
	}
	room, err := h.store.GetRoomByID(ctx, roomID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to reload room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return nil, false
	}
	return room, true
}

// memberRoom loads the :id room and checks the caller belongs to it. It writes
// the error response itself.
func (h *RoomHandlers) memberRoom(c *gin.Context) (*store.User, *store.Room, bool) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil, nil, false
	}

	roomID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return nil, nil, false
	}

	room, err := h.store.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Room not found"})
			return nil, nil, false
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to load room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return nil, nil, false
	}

	if !store.IsMember(room, user.ID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Not a member of this room"})
		return nil, nil, false
	}
	return user, room, true
}

// creatorGroup is memberRoom restricted to group rooms managed by their creator.
func (h *RoomHandlers) creatorGroup(c *gin.Context) (*store.User, *store.Room, bool) {
	user, room, ok := h.memberRoom(c)
	if !ok {
		return nil, nil, false
	}
	if room.Type != store.RoomTypeGroup {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Only group rooms have managed members"})
		return nil, nil, false
	}
	if room.CreatorID == nil || *room.CreatorID != user.ID {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Only the group creator can manage this group"})
		return nil, nil, false
	}
	return user, room, true
}

// senderCache resolves message senders once per request.
type senderCache struct {
	store store.UserStore
	seen  map[int64]core.Sender
}

func newSenderCache(st store.UserStore) *senderCache {
	return &senderCache{store: st, seen: make(map[int64]core.Sender)}
}

func (s *senderCache) get(ctx context.Context, id int64) core.Sender {
	if sender, ok := s.seen[id]; ok {
		return sender
	}
	sender := core.Sender{ID: id}
	if u, err := s.store.GetUserByID(ctx, id); err == nil {
		sender = core.SenderFromUser(u)
	}
	s.seen[id] = sender
	return sender
}
