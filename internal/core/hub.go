package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/arangam-server/internal/store"
)

const defaultPersistTimeout = 5 * time.Second

// Store is the persistence the hub needs. store.Store satisfies it.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
	SetUserPresence(ctx context.Context, userID int64, online bool, lastSeen *time.Time) error
	CreateMessage(ctx context.Context, msg *store.Message) error
	SetLastMessage(ctx context.Context, roomID, messageID int64, at time.Time) error
	GetMessageByID(ctx context.Context, id int64) (*store.Message, error)
	GetMessagesByIDs(ctx context.Context, ids []int64) ([]*store.Message, error)
	MarkMessagesDeleted(ctx context.Context, ids []int64, deletedBy int64) error
}

// Option customizes a Hub.
type Option func(*Hub)

// WithPersistTimeout bounds every store call the hub makes.
func WithPersistTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.persistTimeout = d
		}
	}
}

// WithClock overrides the time source used for message and last-seen timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// Hub owns the presence registry and the topic router and relays events between
// connected clients. It is created at process start and shared by every
// connection handler.
type Hub struct {
	store    Store
	presence *Presence
	topics   *Topics
	log      *zerolog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
	wg      sync.WaitGroup

	persistTimeout time.Duration
	now            func() time.Time
}

// NewHub creates a new chat hub instance.
func NewHub(st Store, logger *zerolog.Logger, opts ...Option) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	h := &Hub{
		store:          st,
		presence:       NewPresence(),
		topics:         NewTopics(),
		log:            logger,
		clients:        make(map[*Client]struct{}),
		persistTimeout: defaultPersistTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run blocks until ctx is cancelled, then disconnects every client and waits for
// their command loops to finish.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.UnregisterClient(c)
	}
	h.wg.Wait()
	h.log.Info().Int("clients", len(clients)).Msg("hub stopped")
}

// RegisterClient attaches an authenticated connection: it records presence and
// starts processing the client's commands.
func (h *Hub) RegisterClient(ctx context.Context, c *Client) {
	h.mu.Lock()
	if _, exists := h.clients[c]; exists {
		h.mu.Unlock()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.log.Info().Str("conn_id", c.ID).Int64("user_id", c.UserID).Str("username", c.Name).Msg("client connected")

	if h.presence.Add(c.UserID, c.ID) {
		h.setPresence(ctx, c.UserID, true)
	}

	h.wg.Add(1)
	go h.serve(ctx, c)
}

// UnregisterClient detaches a connection. Topic subscriptions and presence are
// cleaned up immediately; it is safe to call more than once.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	if _, exists := h.clients[c]; !exists {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()

	for _, roomID := range h.topics.LeaveAll(c) {
		h.broadcastRoom(roomID, &Event{
			Kind:     EventUserLeftRoom,
			RoomID:   roomID,
			UserID:   c.UserID,
			Username: c.Name,
		}, nil)
	}

	if h.presence.Remove(c.UserID, c.ID) {
		h.setPresence(context.Background(), c.UserID, false)
	}

	h.log.Info().Str("conn_id", c.ID).Int64("user_id", c.UserID).Msg("client disconnected")
}

// serve processes a client's commands in order until the client is unregistered.
func (h *Hub) serve(ctx context.Context, c *Client) {
	defer h.wg.Done()

	for {
		select {
		case cmd := <-c.Commands:
			if cmd != nil {
				h.handle(ctx, c, cmd)
			}
		case <-c.done:
			return
		}
	}
}

func (h *Hub) handle(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.Join(c, cmd.RoomID)
	case CommandLeaveRoom:
		h.Leave(c, cmd.RoomID)
	case CommandSendMessage:
		if _, err := h.Send(ctx, c, cmd.RoomID, cmd.Draft); err != nil {
			h.SendError(c, sendError(err))
		}
	case CommandTypingStart:
		h.TypingStart(c, cmd.RoomID)
	case CommandTypingStop:
		h.TypingStop(c, cmd.RoomID)
	default:
		h.SendError(c, coreError(ErrCodeBadRequest, "unknown command"))
	}
}

// setPresence persists the transition, then announces it to every client.
// Persistence failures are logged and never stop the announcement.
func (h *Hub) setPresence(ctx context.Context, userID int64, online bool) {
	var lastSeen *time.Time
	if !online {
		now := h.now()
		lastSeen = &now
	}

	if h.store != nil {
		pctx, cancel := h.persistContext(ctx)
		err := h.store.SetUserPresence(pctx, userID, online, lastSeen)
		cancel()
		if err != nil {
			h.log.Warn().Err(err).Int64("user_id", userID).Bool("online", online).Msg("failed to persist presence")
		}
	}

	h.broadcastAll(&Event{Kind: EventUserStatusChange, UserID: userID, Online: online})
}

// persistContext detaches store calls from connection cancellation so a
// disconnect never aborts a write that was already issued.
func (h *Hub) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), h.persistTimeout)
}

// IsOnline reports whether the user holds at least one registered connection.
func (h *Hub) IsOnline(userID int64) bool {
	return h.presence.IsOnline(userID)
}

// OnlineUsers returns the ids of users with at least one registered connection.
func (h *Hub) OnlineUsers() []int64 {
	return h.presence.OnlineUsers()
}

// IsSubscribed reports whether c currently receives broadcasts for the room.
func (h *Hub) IsSubscribed(c *Client, roomID int64) bool {
	return h.topics.IsSubscribed(c, roomID)
}

// SubscriberCount returns how many connections are subscribed to the room topic.
func (h *Hub) SubscriberCount(roomID int64) int {
	return h.topics.Count(roomID)
}

// SendError reports an error to a single client.
func (h *Hub) SendError(c *Client, err *CoreError) {
	if !c.deliver(&Event{Kind: EventMessageError, Error: err}) {
		h.log.Debug().Str("conn_id", c.ID).Str("code", err.Code).Msg("dropped error event")
	}
}

// broadcastRoom delivers ev to a snapshot of the room's subscribers, skipping
// except when non-nil. A full or closed subscriber never blocks the others.
func (h *Hub) broadcastRoom(roomID int64, ev *Event, except *Client) int {
	delivered := 0
	for _, c := range h.topics.Subscribers(roomID) {
		if c == except {
			continue
		}
		if c.deliver(ev) {
			delivered++
			continue
		}
		h.log.Debug().Str("conn_id", c.ID).Int64("room_id", roomID).Str("event", ev.Kind.String()).Msg("dropped event for slow subscriber")
	}
	return delivered
}

// broadcastAll delivers ev to every registered client.
func (h *Hub) broadcastAll(ev *Event) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if !c.deliver(ev) {
			h.log.Debug().Str("conn_id", c.ID).Str("event", ev.Kind.String()).Msg("dropped global event")
		}
	}
}
