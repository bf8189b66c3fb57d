package core

import (
	"reflect"
	"testing"
)

func TestPresenceTracksEveryConnection(t *testing.T) {
	p := NewPresence()

	if !p.Add(1, "phone") {
		t.Fatalf("first connection should report first")
	}
	if p.Add(1, "laptop") {
		t.Fatalf("second connection should not report first")
	}
	if p.Add(1, "laptop") {
		t.Fatalf("re-adding a connection should be a no-op")
	}
	if got := p.Connections(1); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}

	if p.Remove(1, "phone") {
		t.Fatalf("removing one of two connections should not report last")
	}
	if !p.IsOnline(1) {
		t.Fatalf("user should stay online")
	}
	if p.Remove(1, "unknown") {
		t.Fatalf("removing an unknown connection should be a no-op")
	}
	if !p.Remove(1, "laptop") {
		t.Fatalf("removing the last connection should report last")
	}
	if p.IsOnline(1) {
		t.Fatalf("user should be offline")
	}
	if p.Remove(1, "laptop") {
		t.Fatalf("removing twice should not report last again")
	}
}

func TestPresenceOnlineUsersSorted(t *testing.T) {
	p := NewPresence()
	p.Add(3, "c")
	p.Add(1, "a")
	p.Add(2, "b")
	p.Remove(2, "b")

	if got := p.OnlineUsers(); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("unexpected online users: %v", got)
	}
}
