package core

import (
	"context"
	"strings"

	"github.com/vovakirdan/arangam-server/internal/store"
)

// Send validates a draft, persists it and broadcasts the sender-enriched message
// to every current subscriber of the room, the sender's own connection included.
// On failure nothing is broadcast; the caller reports the error to the sender.
func (h *Hub) Send(ctx context.Context, c *Client, roomID int64, d Draft) (*Message, error) {
	if d.Type == "" {
		d.Type = store.MessageTypeText
	}
	if !d.Type.Valid() {
		return nil, ErrInvalidMessageKind
	}
	if d.Type == store.MessageTypeText && strings.TrimSpace(d.Content) == "" {
		return nil, ErrEmptyContent
	}
	if h.store == nil {
		return nil, ErrMessageSendFailed
	}

	pctx, cancel := h.persistContext(ctx)
	defer cancel()

	sent := &store.Message{
		RoomID:    roomID,
		SenderID:  c.UserID,
		Type:      d.Type,
		Content:   d.Content,
		File:      d.File,
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.CreateMessage(pctx, sent); err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Int64("user_id", c.UserID).Msg("failed to persist message")
		return nil, wrapSendFailed(err)
	}

	if err := h.store.SetLastMessage(pctx, roomID, sent.ID, sent.CreatedAt); err != nil {
		h.log.Warn().Err(err).Int64("room_id", roomID).Int64("message_id", sent.ID).Msg("failed to update room last message")
	}

	user, err := h.store.GetUserByID(pctx, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", c.UserID).Msg("failed to load message sender")
		return nil, wrapSendFailed(err)
	}

	msg := &Message{Message: *sent, Sender: SenderFromUser(user)}
	delivered := h.broadcastRoom(roomID, &Event{
		Kind:     EventReceiveMessage,
		RoomID:   roomID,
		UserID:   c.UserID,
		Username: c.Name,
		Message:  msg,
	}, nil)

	h.log.Debug().
		Int64("room_id", roomID).
		Int64("message_id", msg.ID).
		Str("type", string(msg.Type)).
		Int("delivered", delivered).
		Msg("message relayed")
	return msg, nil
}
