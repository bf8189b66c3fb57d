package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/arangam-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed before %v arrived", kind)
			}
			if ev != nil && ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

// expectNoEvent drains ch for a short while and fails if an event of kind shows up.
func expectNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected %v event: %+v", kind, ev)
			}
		case <-timeout:
			return
		}
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory Store for hub tests.
type memStore struct {
	mu         sync.Mutex
	users      map[int64]*store.User
	messages   map[int64]*store.Message
	lastByRoom map[int64]int64
	presence   []presenceCall
	nextID     int64

	failCreate      bool
	failPresence    bool
	failLastMessage bool
}

type presenceCall struct {
	userID   int64
	online   bool
	lastSeen *time.Time
}

func newMemStore(users ...*store.User) *memStore {
	s := &memStore{
		users:      make(map[int64]*store.User),
		messages:   make(map[int64]*store.Message),
		lastByRoom: make(map[int64]int64),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) SetUserPresence(_ context.Context, userID int64, online bool, lastSeen *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence = append(s.presence, presenceCall{userID: userID, online: online, lastSeen: lastSeen})
	if s.failPresence {
		return errStoreDown
	}
	if u, ok := s.users[userID]; ok {
		u.IsOnline = online
		if lastSeen != nil {
			u.LastSeen = lastSeen
		}
	}
	return nil
}

func (s *memStore) CreateMessage(_ context.Context, msg *store.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return errStoreDown
	}
	s.nextID++
	msg.ID = s.nextID
	cp := *msg
	s.messages[msg.ID] = &cp
	return nil
}

func (s *memStore) SetLastMessage(_ context.Context, roomID, messageID int64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLastMessage {
		return errStoreDown
	}
	s.lastByRoom[roomID] = messageID
	return nil
}

func (s *memStore) GetMessageByID(_ context.Context, id int64) (*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) GetMessagesByIDs(_ context.Context, ids []int64) ([]*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*store.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.messages[id]; ok {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) MarkMessagesDeleted(_ context.Context, ids []int64, deletedBy int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if m, ok := s.messages[id]; ok {
			m.Deleted = true
			by := deletedBy
			m.DeletedBy = &by
		}
	}
	return nil
}

// seed stores a message directly and returns its id.
func (s *memStore) seed(roomID, senderID int64, content string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.messages[s.nextID] = &store.Message{
		ID:        s.nextID,
		RoomID:    roomID,
		SenderID:  senderID,
		Type:      store.MessageTypeText,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	return s.nextID
}

func (s *memStore) message(id int64) store.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.messages[id]
}

func (s *memStore) lastMessage(roomID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastByRoom[roomID]
}

func (s *memStore) presenceCalls(userID int64) []presenceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []presenceCall
	for _, p := range s.presence {
		if p.userID == userID {
			out = append(out, p)
		}
	}
	return out
}

func testUsers() (*store.User, *store.User, *store.User) {
	return &store.User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: "secret-hash"},
		&store.User{ID: 2, Username: "bob", Email: "bob@example.com", PasswordHash: "secret-hash"},
		&store.User{ID: 3, Username: "carol", Email: "carol@example.com", PasswordHash: "secret-hash"}
}

func newTestHub(t *testing.T, st Store) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(st, nil, WithPersistTimeout(time.Second))
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}
