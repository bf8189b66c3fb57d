package core

import (
	"sort"
	"sync"
)

// Presence maps each user to the set of their live connections. A user is online
// while the set is non-empty.
type Presence struct {
	mu    sync.Mutex
	conns map[int64]map[string]struct{}
}

// NewPresence creates an empty registry.
func NewPresence() *Presence {
	return &Presence{conns: make(map[int64]map[string]struct{})}
}

// Add records connID for userID. It returns true when this is the user's first
// live connection.
func (p *Presence) Add(userID int64, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		p.conns[userID] = set
	}
	if _, exists := set[connID]; exists {
		return false
	}
	set[connID] = struct{}{}
	return len(set) == 1
}

// Remove drops connID for userID. It returns true when this removed the user's
// last live connection.
func (p *Presence) Remove(userID int64, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		return false
	}
	if _, exists := set[connID]; !exists {
		return false
	}
	delete(set, connID)
	if len(set) > 0 {
		return false
	}
	delete(p.conns, userID)
	return true
}

// IsOnline reports whether the user holds at least one connection.
func (p *Presence) IsOnline(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns[userID]) > 0
}

// Connections returns how many live connections the user holds.
func (p *Presence) Connections(userID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns[userID])
}

// OnlineUsers returns the ids of online users in ascending order.
func (p *Presence) OnlineUsers() []int64 {
	p.mu.Lock()
	ids := make([]int64, 0, len(p.conns))
	for id := range p.conns {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
