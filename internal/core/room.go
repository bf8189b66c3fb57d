package core

import "sync"

// topic groups clients subscribed to the same room broadcast.
type topic struct {
	roomID  int64
	clients map[*Client]struct{}
}

func newTopic(roomID int64) *topic {
	return &topic{
		roomID:  roomID,
		clients: make(map[*Client]struct{}),
	}
}

// add inserts a client. Returns true if newly added.
func (t *topic) add(c *Client) bool {
	if _, exists := t.clients[c]; exists {
		return false
	}
	t.clients[c] = struct{}{}
	return true
}

// remove deletes a client. Returns true if removed.
func (t *topic) remove(c *Client) bool {
	if _, exists := t.clients[c]; !exists {
		return false
	}
	delete(t.clients, c)
	return true
}

func (t *topic) empty() bool {
	return len(t.clients) == 0
}

// Topics tracks which connections are subscribed to which room topics. It does
// not consult persisted room membership.
type Topics struct {
	mu       sync.RWMutex
	topics   map[int64]*topic
	byClient map[*Client]map[int64]struct{}
}

// NewTopics creates an empty router.
func NewTopics() *Topics {
	return &Topics{
		topics:   make(map[int64]*topic),
		byClient: make(map[*Client]map[int64]struct{}),
	}
}

// Join subscribes c to the room topic. It returns false if c was already
// subscribed or has been closed.
func (t *Topics) Join(c *Client, roomID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	// close happens before LeaveAll takes t.mu, so a closed client seen here
	// would never be cleaned up.
	if c.isClosed() {
		return false
	}

	tp, ok := t.topics[roomID]
	if !ok {
		tp = newTopic(roomID)
		t.topics[roomID] = tp
	}
	if !tp.add(c) {
		return false
	}

	rooms, ok := t.byClient[c]
	if !ok {
		rooms = make(map[int64]struct{})
		t.byClient[c] = rooms
	}
	rooms[roomID] = struct{}{}
	return true
}

// Leave unsubscribes c from the room topic. It returns false if c was not subscribed.
func (t *Topics) Leave(c *Client, roomID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaveLocked(c, roomID)
}

func (t *Topics) leaveLocked(c *Client, roomID int64) bool {
	tp, ok := t.topics[roomID]
	if !ok || !tp.remove(c) {
		return false
	}
	if tp.empty() {
		delete(t.topics, roomID)
	}

	if rooms, ok := t.byClient[c]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(t.byClient, c)
		}
	}
	return true
}

// LeaveAll unsubscribes c from every topic and returns the rooms it held.
func (t *Topics) LeaveAll(c *Client) []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	held := make([]int64, 0, len(t.byClient[c]))
	for roomID := range t.byClient[c] {
		held = append(held, roomID)
	}
	for _, roomID := range held {
		t.leaveLocked(c, roomID)
	}
	return held
}

// Subscribers returns a snapshot of the room's subscribers. Clients joining after
// the snapshot is taken are not included.
func (t *Topics) Subscribers(roomID int64) []*Client {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tp, ok := t.topics[roomID]
	if !ok {
		return nil
	}
	out := make([]*Client, 0, len(tp.clients))
	for c := range tp.clients {
		out = append(out, c)
	}
	return out
}

// IsSubscribed reports whether c currently receives the room's broadcasts.
func (t *Topics) IsSubscribed(c *Client, roomID int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.byClient[c][roomID]
	return ok
}

// Count returns the number of subscribers of a room topic.
func (t *Topics) Count(roomID int64) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if tp, ok := t.topics[roomID]; ok {
		return len(tp.clients)
	}
	return 0
}
