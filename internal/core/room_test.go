package core

import "testing"

func TestTopicsJoinLeave(t *testing.T) {
	topics := NewTopics()
	a := NewClient(1, "alice")
	b := NewClient(2, "bob")

	if !topics.Join(a, 1) || topics.Join(a, 1) {
		t.Fatalf("join should subscribe once")
	}
	topics.Join(b, 1)
	topics.Join(a, 2)

	if got := topics.Count(1); got != 2 {
		t.Fatalf("expected 2 subscribers, got %d", got)
	}
	if !topics.Leave(a, 1) || topics.Leave(a, 1) {
		t.Fatalf("leave should unsubscribe once")
	}
	if topics.IsSubscribed(a, 1) || !topics.IsSubscribed(a, 2) {
		t.Fatalf("unexpected subscriptions after leave")
	}

	held := topics.LeaveAll(a)
	if len(held) != 1 || held[0] != 2 {
		t.Fatalf("unexpected held rooms: %v", held)
	}
	if topics.Count(2) != 0 {
		t.Fatalf("empty topic should be dropped")
	}
	if len(topics.LeaveAll(a)) != 0 {
		t.Fatalf("second LeaveAll should hold nothing")
	}
}

func TestTopicsSubscribersIsSnapshot(t *testing.T) {
	topics := NewTopics()
	a := NewClient(1, "alice")
	b := NewClient(2, "bob")

	topics.Join(a, 1)
	snap := topics.Subscribers(1)
	topics.Join(b, 1)

	if len(snap) != 1 || snap[0] != a {
		t.Fatalf("snapshot should not include later joiners: %v", snap)
	}
	if len(topics.Subscribers(1)) != 2 {
		t.Fatalf("fresh snapshot should include both clients")
	}
	if topics.Subscribers(99) != nil {
		t.Fatalf("unknown room should have no subscribers")
	}
}

func TestTopicsRefuseClosedClient(t *testing.T) {
	topics := NewTopics()
	a := NewClient(1, "alice")
	a.close()

	if topics.Join(a, 3) {
		t.Fatalf("closed client should not be subscribed")
	}
	if topics.IsSubscribed(a, 3) || topics.Count(3) != 0 {
		t.Fatalf("closed client left behind in topic 3")
	}
}
