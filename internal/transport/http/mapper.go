package http

import (
	"encoding/json"

	"github.com/vovakirdan/arangam-server/internal/core"
	"github.com/vovakirdan/arangam-server/internal/proto"
	"github.com/vovakirdan/arangam-server/internal/store"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *core.CoreError) {
	switch inbound.Type {
	case proto.InboundJoinRoom, proto.InboundLeaveRoom:
		var room proto.RoomRef
		if err := json.Unmarshal(inbound.Data, &room); err != nil {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "room is required"}
		}
		kind := core.CommandJoinRoom
		if inbound.Type == proto.InboundLeaveRoom {
			kind = core.CommandLeaveRoom
		}
		return &core.Command{Kind: kind, RoomID: int64(room)}, nil
	case proto.InboundSendMessage:
		var msg proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil || msg.Room <= 0 {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "room is required"}
		}
		draft := core.Draft{
			Type:    store.MessageType(msg.Type),
			Content: msg.Content,
		}
		if msg.FileURL != "" {
			draft.File = &store.FileInfo{URL: msg.FileURL, Name: msg.FileName, Size: msg.FileSize}
		}
		return &core.Command{Kind: core.CommandSendMessage, RoomID: int64(msg.Room), Draft: draft}, nil
	case proto.InboundTypingStart, proto.InboundTypingStop:
		var typing proto.TypingData
		if err := json.Unmarshal(inbound.Data, &typing); err != nil || typing.Room <= 0 {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "room is required"}
		}
		kind := core.CommandTypingStart
		if inbound.Type == proto.InboundTypingStop {
			kind = core.CommandTypingStop
		}
		return &core.Command{Kind: kind, RoomID: int64(typing.Room)}, nil
	default:
		return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "unknown event type"}
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: event.Kind.String()}

	switch event.Kind {
	case core.EventReceiveMessage:
		if event.Message != nil {
			out.Data = messagePayload(&event.Message.Message, event.Message.Sender)
		}
	case core.EventUserJoinedRoom, core.EventUserLeftRoom, core.EventUserTyping, core.EventUserStopTyping:
		out.Data = proto.UserRoomPayload{
			UserID:   event.UserID,
			Username: event.Username,
			RoomID:   event.RoomID,
		}
	case core.EventUserStatusChange:
		out.Data = proto.StatusPayload{UserID: event.UserID, IsOnline: event.Online}
	case core.EventMessageDeleted:
		payload := proto.MessageDeletedPayload{MessageIDs: event.MessageIDs, RoomID: event.RoomID}
		if len(event.MessageIDs) == 1 {
			payload.MessageID = event.MessageIDs[0]
		}
		out.Data = payload
	case core.EventMessageError:
		if event.Error == nil {
			out.Data = proto.ErrorPayload{Message: "unknown error"}
			break
		}
		out.Data = proto.ErrorPayload{Message: event.Error.Message, Code: event.Error.Code}
	case core.EventMembersAdded, core.EventMemberRemoved, core.EventUserLeftGroup:
		payload := proto.MembershipPayload{
			RoomID:   event.RoomID,
			UserID:   event.UserID,
			Username: event.Username,
		}
		if m := event.Membership; m != nil {
			payload.Room = roomPayload(m.Room)
			payload.AddedMembers = m.AddedMembers
			payload.RemovedUserID = m.RemovedUserID
			payload.RemovedUsername = m.RemovedUsername
		}
		out.Data = payload
	}
	return out
}

func messagePayload(m *store.Message, sender core.Sender) proto.MessagePayload {
	p := proto.MessagePayload{
		ID:   m.ID,
		Room: m.RoomID,
		Sender: proto.SenderPayload{
			ID:           sender.ID,
			Username:     sender.Username,
			Email:        sender.Email,
			ProfilePhoto: sender.ProfilePhoto,
		},
		Type:      string(m.Type),
		Content:   m.Content,
		Deleted:   m.Deleted,
		DeletedBy: m.DeletedBy,
		ReadBy:    m.ReadBy,
		CreatedAt: m.CreatedAt,
	}
	if p.ReadBy == nil {
		p.ReadBy = []int64{}
	}
	if m.File != nil {
		p.FileURL = m.File.URL
		p.FileName = m.File.Name
		p.FileSize = m.File.Size
	}
	return p
}

func roomPayload(r *store.Room) *proto.RoomPayload {
	if r == nil {
		return nil
	}
	members := r.Members
	if members == nil {
		members = []int64{}
	}
	return &proto.RoomPayload{
		ID:            r.ID,
		Name:          r.Name,
		Type:          string(r.Type),
		IsGlobal:      r.IsGlobal,
		Members:       members,
		CreatorID:     r.CreatorID,
		LastMessageID: r.LastMessageID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
