package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/arangam-server/internal/auth"
	"github.com/vovakirdan/arangam-server/internal/core"
	"github.com/vovakirdan/arangam-server/internal/proto"
)

// WSHandler authenticates, upgrades and bridges connections to core.Client.
type WSHandler struct {
	hub             *core.Hub
	authService     *auth.Service
	log             *zerolog.Logger
	maxMessageBytes int64
	ratePerMinute   int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, maxMessageBytes int64, ratePerMinute int, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:             hub,
		authService:     authService,
		log:             logger,
		maxMessageBytes: maxMessageBytes,
		ratePerMinute:   ratePerMinute,
	}
}

// handshakeToken reads the credential from the token query parameter or the
// Authorization header.
func handshakeToken(r *stdhttp.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if token, ok := auth.BearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return ""
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	user, err := h.authService.Authenticate(r.Context(), handshakeToken(r))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			h.log.Debug().Msg("ws handshake for missing user")
			stdhttp.Error(w, "Authentication error: User not found", stdhttp.StatusUnauthorized)
		case errors.Is(err, auth.ErrUnauthenticated):
			h.log.Debug().Err(err).Msg("ws handshake rejected")
			stdhttp.Error(w, "Authentication error", stdhttp.StatusUnauthorized)
		default:
			h.log.Error().Err(err).Msg("ws handshake failed")
			stdhttp.Error(w, "internal server error", stdhttp.StatusInternalServerError)
		}
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := core.NewClient(user.ID, user.Username)
	h.hub.RegisterClient(ctx, client)
	defer h.hub.UnregisterClient(client)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel()
	h.hub.UnregisterClient(client)
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	_ = conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.ratePerMinute)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			h.hub.SendError(client, &core.CoreError{Code: core.ErrCodeRateLimited, Message: "rate limit exceeded"})
			continue
		}

		cmd, cerr := inboundToCommand(inbound)
		if cerr != nil {
			h.log.Debug().Str("conn_id", client.ID).Str("type", inbound.Type).Str("code", cerr.Code).Msg("rejected inbound")
			h.hub.SendError(client, cerr)
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
