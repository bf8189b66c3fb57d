package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vovakirdan/arangam-server/internal/store"
)

// DeleteMessage soft-deletes one message on behalf of its sender and notifies the
// owning room. Deleting an already deleted message succeeds without a broadcast.
func (h *Hub) DeleteMessage(ctx context.Context, actorID, messageID int64) (*store.Message, error) {
	if h.store == nil {
		return nil, ErrNotFound
	}
	pctx, cancel := h.persistContext(ctx)
	defer cancel()

	msg, err := h.store.GetMessageByID(pctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load message: %w", err)
	}
	if msg.SenderID != actorID {
		return nil, ErrForbidden
	}
	if msg.Deleted {
		return msg, nil
	}

	if err := h.store.MarkMessagesDeleted(pctx, []int64{msg.ID}, actorID); err != nil {
		return nil, fmt.Errorf("mark deleted: %w", err)
	}
	msg.Deleted = true
	msg.DeletedBy = &actorID

	h.broadcastRoom(msg.RoomID, &Event{
		Kind:       EventMessageDeleted,
		RoomID:     msg.RoomID,
		UserID:     actorID,
		MessageIDs: []int64{msg.ID},
	}, nil)
	h.log.Info().Int64("message_id", msg.ID).Int64("room_id", msg.RoomID).Int64("user_id", actorID).Msg("message deleted")
	return msg, nil
}

// DeleteMessages soft-deletes a batch of messages. Every found message must
// belong to actorID, otherwise nothing is modified. Unknown ids are ignored and
// already deleted messages are left alone. One event is sent per affected room.
// It returns the ids that were newly deleted.
func (h *Hub) DeleteMessages(ctx context.Context, actorID int64, messageIDs []int64) ([]int64, error) {
	ids := dedupe(messageIDs)
	if len(ids) == 0 {
		return nil, ErrBadRequest
	}
	if h.store == nil {
		return nil, ErrNotFound
	}
	pctx, cancel := h.persistContext(ctx)
	defer cancel()

	msgs, err := h.store.GetMessagesByIDs(pctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil, ErrNotFound
	}
	for _, m := range msgs {
		if m.SenderID != actorID {
			return nil, ErrForbidden
		}
	}

	byRoom := make(map[int64][]int64)
	pending := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		if m.Deleted {
			continue
		}
		pending = append(pending, m.ID)
		byRoom[m.RoomID] = append(byRoom[m.RoomID], m.ID)
	}
	if len(pending) == 0 {
		return pending, nil
	}

	if err := h.store.MarkMessagesDeleted(pctx, pending, actorID); err != nil {
		return nil, fmt.Errorf("mark deleted: %w", err)
	}

	rooms := make([]int64, 0, len(byRoom))
	for roomID := range byRoom {
		rooms = append(rooms, roomID)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	for _, roomID := range rooms {
		h.broadcastRoom(roomID, &Event{
			Kind:       EventMessageDeleted,
			RoomID:     roomID,
			UserID:     actorID,
			MessageIDs: byRoom[roomID],
		}, nil)
	}

	h.log.Info().Int("count", len(pending)).Int("rooms", len(rooms)).Int64("user_id", actorID).Msg("messages deleted")
	return pending, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
