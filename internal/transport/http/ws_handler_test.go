package http

import (
	"context"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/arangam-server/internal/config"
	"github.com/vovakirdan/arangam-server/internal/proto"
	"github.com/vovakirdan/arangam-server/internal/store"
)

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t)

	resp, body := env.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health response: %d %q", resp.StatusCode, body)
	}
}

func TestWebSocketRejectsBadCredentials(t *testing.T) {
	env := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, token := range []string{"", "not-a-jwt"} {
		_, resp, err := websocket.Dial(ctx, env.wsURL(token), nil)
		if err == nil {
			t.Fatalf("dial with token %q should fail", token)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 for token %q, got %+v", token, resp)
		}
	}
}

func TestWebSocketRejectsDeletedAccount(t *testing.T) {
	env := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Correctly signed, but no account 9999 exists.
	_, resp, err := websocket.Dial(ctx, env.wsURL(forgeToken(t, 9999)), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing account, got err=%v resp=%+v", err, resp)
	}
}

func TestWebSocketRelay(t *testing.T) {
	env := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceToken, aliceID := env.signup(t, "alice")
	bobToken, bobID := env.signup(t, "bob")

	room, err := env.store.CreateRoom(ctx, &store.Room{
		Name:    "team",
		Type:    store.RoomTypeGroup,
		Members: []int64{aliceID, bobID},
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	alice := env.dial(t, ctx, aliceToken)
	bob := env.dial(t, ctx, bobToken)
	waitFor(t, "both users online", func() bool {
		return env.hub.IsOnline(aliceID) && env.hub.IsOnline(bobID)
	})

	send(t, ctx, alice, proto.InboundJoinRoom, room.ID)
	send(t, ctx, bob, proto.InboundJoinRoom, map[string]int64{"room": room.ID})
	waitFor(t, "two subscribers", func() bool { return env.hub.SubscriberCount(room.ID) == 2 })

	send(t, ctx, alice, proto.InboundSendMessage, proto.SendMessageData{Room: proto.RoomRef(room.ID), Content: "hello"})

	var gotAlice, gotBob proto.MessagePayload
	readUntil(t, ctx, alice, proto.OutboundReceiveMessage, &gotAlice)
	readUntil(t, ctx, bob, proto.OutboundReceiveMessage, &gotBob)
	if !reflect.DeepEqual(gotAlice, gotBob) {
		t.Fatalf("subscribers saw different payloads:\n%+v\n%+v", gotAlice, gotBob)
	}
	if gotBob.ID == 0 || gotBob.Content != "hello" || gotBob.Type != "text" || gotBob.Room != room.ID {
		t.Fatalf("unexpected message payload: %+v", gotBob)
	}
	if gotBob.Sender.ID != aliceID || gotBob.Sender.Username != "alice" {
		t.Fatalf("unexpected sender: %+v", gotBob.Sender)
	}

	send(t, ctx, bob, proto.InboundTypingStart, proto.TypingData{Room: proto.RoomRef(room.ID)})
	var typing proto.UserRoomPayload
	readUntil(t, ctx, alice, proto.OutboundUserTyping, &typing)
	if typing.UserID != bobID || typing.Username != "bob" || typing.RoomID != room.ID {
		t.Fatalf("unexpected typing payload: %+v", typing)
	}

	send(t, ctx, alice, proto.InboundSendMessage, map[string]any{"room": room.ID, "content": "x", "type": "sticker"})
	var errPayload proto.ErrorPayload
	readUntil(t, ctx, alice, proto.OutboundMessageError, &errPayload)
	if errPayload.Code != "invalid_message_kind" {
		t.Fatalf("unexpected error payload: %+v", errPayload)
	}

	send(t, ctx, alice, proto.InboundSendMessage, map[string]any{"room": room.ID, "type": "image", "fileUrl": "/uploads/cat.png"})
	var image proto.MessagePayload
	readUntil(t, ctx, bob, proto.OutboundReceiveMessage, &image)
	if image.Type != "image" || image.FileURL != "/uploads/cat.png" || image.Content != "" {
		t.Fatalf("unexpected image payload: %+v", image)
	}

	_ = alice.Close(websocket.StatusNormalClosure, "bye")

	var left proto.UserRoomPayload
	readUntil(t, ctx, bob, proto.OutboundUserLeftRoom, &left)
	if left.UserID != aliceID || left.RoomID != room.ID {
		t.Fatalf("unexpected user_left_room: %+v", left)
	}
	for {
		var status proto.StatusPayload
		readUntil(t, ctx, bob, proto.OutboundUserStatusChange, &status)
		if status.UserID == aliceID && !status.IsOnline {
			break
		}
	}
	if env.hub.IsOnline(aliceID) {
		t.Fatalf("alice should be offline")
	}

	stored, err := env.store.GetUserByID(ctx, aliceID)
	if err != nil {
		t.Fatalf("load alice: %v", err)
	}
	if stored.IsOnline || stored.LastSeen == nil {
		t.Fatalf("presence not persisted: %+v", stored)
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	env := startTestServer(t, func(cfg *config.Config) { cfg.RateLimitPerMinute = 2 })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, _ := env.signup(t, "alice")
	conn := env.dial(t, ctx, token)

	for i := 0; i < 3; i++ {
		send(t, ctx, conn, proto.InboundTypingStart, proto.TypingData{Room: 1})
	}

	var errPayload proto.ErrorPayload
	readUntil(t, ctx, conn, proto.OutboundMessageError, &errPayload)
	if errPayload.Code != "rate_limited" {
		t.Fatalf("expected rate_limited, got %+v", errPayload)
	}
}

func TestWebSocketRejectsMalformedRoom(t *testing.T) {
	env := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, _ := env.signup(t, "alice")
	conn := env.dial(t, ctx, token)

	send(t, ctx, conn, proto.InboundJoinRoom, map[string]string{"room": "general"})
	var errPayload proto.ErrorPayload
	readUntil(t, ctx, conn, proto.OutboundMessageError, &errPayload)
	if errPayload.Code != "bad_request" {
		t.Fatalf("expected bad_request, got %+v", errPayload)
	}
}
