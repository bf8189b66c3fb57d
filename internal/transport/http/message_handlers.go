package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/arangam-server/internal/core"
	"github.com/vovakirdan/arangam-server/internal/store"
)

// MessageHandlers provides HTTP handlers for message moderation and receipts.
type MessageHandlers struct {
	store store.Store
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.Store, hub *core.Hub, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// BulkDeleteRequest represents the bulk delete request body.
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// DeleteMessage soft-deletes one of the caller's messages.
// DELETE /api/messages/:id
func (h *MessageHandlers) DeleteMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid message id"})
		return
	}

	msg, err := h.hub.DeleteMessage(c.Request.Context(), user.ID, id)
	if err != nil {
		h.writeDeleteError(c, err, user.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted", "messageId": msg.ID, "roomId": msg.RoomID})
}

// BulkDelete soft-deletes several of the caller's messages at once. The batch
// is rejected as a whole if any message belongs to someone else.
// POST /api/messages/bulk-delete
func (h *MessageHandlers) BulkDelete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Message IDs are required", Code: core.ErrCodeBadRequest})
		return
	}

	deleted, err := h.hub.DeleteMessages(c.Request.Context(), user.ID, req.IDs)
	if err != nil {
		h.writeDeleteError(c, err, user.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Messages deleted", "messageIds": deleted})
}

func (h *MessageHandlers) writeDeleteError(c *gin.Context, err error, userID int64) {
	switch {
	case errors.Is(err, core.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Message IDs are required", Code: core.ErrCodeBadRequest})
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Message not found", Code: core.ErrCodeNotFound})
	case errors.Is(err, core.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Not authorized to delete this message", Code: core.ErrCodeForbidden})
	default:
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to delete messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// MarkRead adds the caller to a message's read-by set.
// POST /api/messages/:id/read
func (h *MessageHandlers) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid message id"})
		return
	}

	ctx := c.Request.Context()
	msg, err := h.store.GetMessageByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Message not found", Code: core.ErrCodeNotFound})
			return
		}
		h.log.Error().Err(err).Int64("message_id", id).Msg("failed to load message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	room, err := h.store.GetRoomByID(ctx, msg.RoomID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", msg.RoomID).Msg("failed to load room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !store.IsMember(room, user.ID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Not a member of this room", Code: core.ErrCodeForbidden})
		return
	}

	if err := h.store.MarkMessageRead(ctx, id, user.ID); err != nil {
		h.log.Error().Err(err).Int64("message_id", id).Msg("failed to mark message read")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read", "messageId": id})
}
