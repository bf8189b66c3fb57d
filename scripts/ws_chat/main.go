// Command ws_chat is an interactive terminal client for manual testing of the
// chat socket. Obtain a token from /api/auth/login first.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/arangam-server/internal/proto"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", os.Getenv("ARANGAM_TOKEN"), "access token")
	room := flag.Int64("room", 1, "room id to join")
	flag.Parse()

	if *token == "" {
		return errors.New("token is required (-token or ARANGAM_TOKEN)")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	target := *addr + "?token=" + url.QueryEscape(*token)
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := write(ctx, conn, proto.InboundJoinRoom, *room); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	fmt.Printf("Connected to %s in room %d\n", *addr, *room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *room)
	return nil
}

func write(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload})
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch f.Type {
		case proto.OutboundReceiveMessage:
			var msg proto.MessagePayload
			if err := json.Unmarshal(f.Data, &msg); err != nil {
				log.Printf("decode message: %v", err)
				continue
			}
			text := msg.Content
			if msg.Type != "text" {
				text = fmt.Sprintf("<%s %s>", msg.Type, msg.FileURL)
			}
			fmt.Printf("[room %d] %s: %s\n", msg.Room, msg.Sender.Username, text)
		case proto.OutboundUserJoinedRoom, proto.OutboundUserLeftRoom:
			var evt proto.UserRoomPayload
			if err := json.Unmarshal(f.Data, &evt); err != nil {
				log.Printf("decode %s: %v", f.Type, err)
				continue
			}
			verb := "joined"
			if f.Type == proto.OutboundUserLeftRoom {
				verb = "left"
			}
			fmt.Printf("[room %d] %s %s\n", evt.RoomID, evt.Username, verb)
		case proto.OutboundMessageError:
			var e proto.ErrorPayload
			_ = json.Unmarshal(f.Data, &e)
			fmt.Printf("error %s: %s\n", e.Code, e.Message)
		default:
			fmt.Printf("event=%s data=%s\n", f.Type, f.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, room int64) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			data := proto.SendMessageData{Room: proto.RoomRef(room), Content: text}
			if err := write(ctx, conn, proto.InboundSendMessage, data); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
