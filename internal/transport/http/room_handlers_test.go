package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/vovakirdan/arangam-server/internal/core"
	"github.com/vovakirdan/arangam-server/internal/proto"
	"github.com/vovakirdan/arangam-server/internal/store"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func decodeRoom(t *testing.T, body []byte) proto.RoomPayload {
	t.Helper()

	var room proto.RoomPayload
	if err := json.Unmarshal(body, &room); err != nil {
		t.Fatalf("decode room: %v (%s)", err, body)
	}
	return room
}

func TestGlobalAndPrivateRooms(t *testing.T) {
	env := startTestServer(t)
	aliceToken, aliceID := env.signup(t, "alice")
	bobToken, bobID := env.signup(t, "bob")

	_, body := env.do(t, http.MethodGet, "/api/rooms/global", aliceToken, nil)
	global := decodeRoom(t, body)
	_, body = env.do(t, http.MethodGet, "/api/rooms/global", bobToken, nil)
	again := decodeRoom(t, body)
	if !global.IsGlobal || global.ID != again.ID {
		t.Fatalf("global room should be a singleton: %+v vs %+v", global, again)
	}
	if len(again.Members) != 2 {
		t.Fatalf("both users should be global members: %+v", again.Members)
	}

	resp, body := env.do(t, http.MethodPost, "/api/rooms/private", aliceToken, map[string]int64{"userId": bobID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create private: expected 201, got %d: %s", resp.StatusCode, body)
	}
	private := decodeRoom(t, body)

	resp, body = env.do(t, http.MethodPost, "/api/rooms/private", bobToken, map[string]int64{"userId": aliceID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reuse private: expected 200, got %d", resp.StatusCode)
	}
	if decodeRoom(t, body).ID != private.ID {
		t.Fatalf("private room should be reused")
	}

	resp, _ = env.do(t, http.MethodPost, "/api/rooms/private", aliceToken, map[string]int64{"userId": aliceID})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("self private room: expected 400, got %d", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodGet, "/api/rooms", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list rooms: expected 200, got %d", resp.StatusCode)
	}
	var rooms []proto.RoomPayload
	if err := json.Unmarshal(body, &rooms); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
}

func TestGroupMembershipSignals(t *testing.T) {
	env := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceToken, _ := env.signup(t, "alice")
	bobToken, bobID := env.signup(t, "bob")
	carolToken, carolID := env.signup(t, "carol")

	resp, body := env.do(t, http.MethodPost, "/api/rooms/group", aliceToken, map[string]any{
		"name":      "team",
		"memberIds": []int64{bobID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create group: expected 201, got %d: %s", resp.StatusCode, body)
	}
	group := decodeRoom(t, body)
	if len(group.Members) != 2 {
		t.Fatalf("group should hold creator and bob: %+v", group.Members)
	}

	bob := env.dial(t, ctx, bobToken)
	send(t, ctx, bob, proto.InboundJoinRoom, group.ID)
	waitFor(t, "bob subscribed", func() bool { return env.hub.SubscriberCount(group.ID) == 1 })

	resp, _ = env.do(t, http.MethodPost, "/api/rooms/"+itoa(group.ID)+"/members", bobToken, map[string]any{"userIds": []int64{carolID}})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-creator add: expected 403, got %d", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodPost, "/api/rooms/"+itoa(group.ID)+"/members", aliceToken, map[string]any{"userIds": []int64{carolID}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add members: expected 200, got %d: %s", resp.StatusCode, body)
	}
	var added proto.MembershipPayload
	readUntil(t, ctx, bob, proto.OutboundMembersAdded, &added)
	if added.RoomID != group.ID || len(added.AddedMembers) != 1 || added.AddedMembers[0] != carolID || added.Room == nil || len(added.Room.Members) != 3 {
		t.Fatalf("unexpected members_added: %+v", added)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/rooms/"+itoa(group.ID)+"/leave", carolToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leave group: expected 200, got %d", resp.StatusCode)
	}
	var left proto.MembershipPayload
	readUntil(t, ctx, bob, proto.OutboundUserLeftGroup, &left)
	if left.UserID != carolID || left.RemovedUsername != "carol" {
		t.Fatalf("unexpected user_left_group: %+v", left)
	}

	resp, _ = env.do(t, http.MethodDelete, "/api/rooms/"+itoa(group.ID)+"/members/"+itoa(bobID), aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove member: expected 200, got %d", resp.StatusCode)
	}
	var removed proto.MembershipPayload
	readUntil(t, ctx, bob, proto.OutboundMemberRemoved, &removed)
	if removed.RemovedUserID != bobID || removed.Username != "alice" {
		t.Fatalf("unexpected member_removed: %+v", removed)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/rooms/"+itoa(group.ID), bobToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("removed member: expected 403, got %d", resp.StatusCode)
	}
}

func TestHistoryAndMessageDeletion(t *testing.T) {
	env := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceToken, aliceID := env.signup(t, "alice")
	bobToken, bobID := env.signup(t, "bob")
	carolToken, _ := env.signup(t, "carol")

	room, err := env.store.CreateRoom(ctx, &store.Room{Name: "team", Type: store.RoomTypeGroup, Members: []int64{aliceID, bobID}})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	other, err := env.store.CreateRoom(ctx, &store.Room{Name: "other", Type: store.RoomTypeGroup, Members: []int64{aliceID}})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	sender := core.NewClient(aliceID, "alice")
	env.hub.RegisterClient(ctx, sender)
	defer env.hub.UnregisterClient(sender)
	first, err := env.hub.Send(ctx, sender, room.ID, core.Draft{Content: "first"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	bobsMsg, err := env.hub.Send(ctx, core.NewClient(bobID, "bob"), room.ID, core.Draft{Content: "bob here"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	elsewhere, err := env.hub.Send(ctx, sender, other.ID, core.Draft{Content: "elsewhere"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	resp, body := env.do(t, http.MethodGet, "/api/rooms/"+itoa(room.ID)+"/messages", bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", resp.StatusCode)
	}
	var history []proto.MessagePayload
	if err := json.Unmarshal(body, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 || history[0].Content != "first" || history[0].Sender.Username != "alice" {
		t.Fatalf("unexpected history: %+v", history)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/rooms/"+itoa(room.ID)+"/messages", carolToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-member history: expected 403, got %d", resp.StatusCode)
	}

	bob := env.dial(t, ctx, bobToken)
	send(t, ctx, bob, proto.InboundJoinRoom, room.ID)
	waitFor(t, "bob subscribed", func() bool { return env.hub.SubscriberCount(room.ID) == 1 })

	resp, _ = env.do(t, http.MethodDelete, "/api/messages/"+itoa(first.ID), bobToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign delete: expected 403, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/messages/bulk-delete", aliceToken, map[string]any{"ids": []int64{first.ID, bobsMsg.ID}})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("mixed bulk delete: expected 403, got %d", resp.StatusCode)
	}
	for _, id := range []int64{first.ID, bobsMsg.ID} {
		m, err := env.store.GetMessageByID(ctx, id)
		if err != nil || m.Deleted {
			t.Fatalf("message %d should be untouched: %+v %v", id, m, err)
		}
	}

	resp, _ = env.do(t, http.MethodDelete, "/api/messages/"+itoa(first.ID), aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("own delete: expected 200, got %d", resp.StatusCode)
	}
	var deleted proto.MessageDeletedPayload
	readUntil(t, ctx, bob, proto.OutboundMessageDeleted, &deleted)
	if deleted.MessageID != first.ID || deleted.RoomID != room.ID {
		t.Fatalf("unexpected message_deleted: %+v", deleted)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/messages/bulk-delete", aliceToken, map[string]any{"ids": []int64{elsewhere.ID}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bulk delete: expected 200, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/messages/bulk-delete", aliceToken, map[string]any{"ids": []int64{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty bulk delete: expected 400, got %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, "/api/messages/9999", aliceToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing message: expected 404, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/messages/"+itoa(bobsMsg.ID)+"/read", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark read: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodPost, "/api/messages/"+itoa(bobsMsg.ID)+"/read", carolToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-member mark read: expected 403, got %d", resp.StatusCode)
	}

	_, body = env.do(t, http.MethodGet, "/api/rooms/"+itoa(room.ID)+"/messages", bobToken, nil)
	history = nil
	if err := json.Unmarshal(body, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if !history[0].Deleted || history[0].DeletedBy == nil || *history[0].DeletedBy != aliceID {
		t.Fatalf("deleted message should stay in history: %+v", history[0])
	}
	if len(history[1].ReadBy) != 1 || history[1].ReadBy[0] != aliceID {
		t.Fatalf("read receipt not recorded: %+v", history[1])
	}
}

func TestDeleteGroupCreatorOnly(t *testing.T) {
	env := startTestServer(t)
	aliceToken, _ := env.signup(t, "alice")
	bobToken, bobID := env.signup(t, "bob")

	_, body := env.do(t, http.MethodPost, "/api/rooms/group", aliceToken, map[string]any{
		"name":      "crew",
		"memberIds": []int64{bobID},
	})
	group := decodeRoom(t, body)

	ctx := context.Background()
	msg := &store.Message{RoomID: group.ID, SenderID: bobID, Type: store.MessageTypeText, Content: "hi"}
	if err := env.store.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	path := "/api/rooms/" + itoa(group.ID)
	resp, _ := env.do(t, http.MethodDelete, path, bobToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-creator delete: expected 403, got %d", resp.StatusCode)
	}

	_, body = env.do(t, http.MethodPost, "/api/rooms/private", aliceToken, map[string]int64{"userId": bobID})
	private := decodeRoom(t, body)
	resp, _ = env.do(t, http.MethodDelete, "/api/rooms/"+itoa(private.ID), aliceToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("private room delete: expected 400, got %d", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodDelete, path, aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("creator delete: expected 200, got %d: %s", resp.StatusCode, body)
	}
	if _, err := env.store.GetMessageByID(ctx, msg.ID); err == nil {
		t.Fatalf("room messages should be deleted with the room")
	}

	resp, _ = env.do(t, http.MethodGet, path, aliceToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted room: expected 404, got %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, path, aliceToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", resp.StatusCode)
	}
}
