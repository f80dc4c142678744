package ratelimit

import (
	"testing"
	"time"
)

func TestAllowAndRefill(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(2, 1, WithClock(func() time.Time { return now }))

	if !l.Allow("u1") || !l.Allow("u1") {
		t.Fatalf("burst of capacity should be allowed")
	}
	if l.Allow("u1") {
		t.Fatalf("third call should be limited")
	}
	if !l.Allow("u2") {
		t.Fatalf("buckets are per key")
	}

	now = now.Add(1500 * time.Millisecond)
	if !l.Allow("u1") {
		t.Fatalf("one token should have refilled")
	}
	if l.Allow("u1") {
		t.Fatalf("only one token should have refilled")
	}
}

func TestPrune(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(1, 1, WithClock(func() time.Time { return now }))
	l.Allow("a")
	if n := l.Prune(); n != 0 {
		t.Fatalf("drained bucket must stay, pruned %d", n)
	}
	now = now.Add(2 * time.Second)
	if n := l.Prune(); n != 1 {
		t.Fatalf("refilled bucket should be pruned, pruned %d", n)
	}
}
