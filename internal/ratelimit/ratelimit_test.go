package ratelimit

import (
	"testing"
	"time"
)

func TestCheckMonotonicity(t *testing.T) {
	l := New(100 * time.Millisecond)
	t0 := time.Now()

	if gated := l.Check("room:p1", t0); gated {
		t.Fatalf("first check should not be gated")
	}
	if gated := l.Check("room:p1", t0.Add(50*time.Millisecond)); !gated {
		t.Fatalf("second check within the interval should be gated")
	}
	if gated := l.Check("room:p1", t0.Add(150*time.Millisecond)); gated {
		t.Fatalf("third check after the interval should not be gated")
	}
}

func TestRemoveAndPrefix(t *testing.T) {
	l := New(time.Second)
	now := time.Now()
	l.Check("room1:p1", now)
	l.Check("room1:p2", now)
	l.Check("room2:p1", now)

	l.RemoveByPrefix("room1:")
	if gated := l.Check("room1:p1", now); gated {
		t.Fatalf("expected room1:p1 state to be cleared")
	}
	if gated := l.Check("room2:p1", now); !gated {
		t.Fatalf("room2:p1 should still be gated, untouched by room1 prefix removal")
	}
}

func TestKeyComposition(t *testing.T) {
	if Key("r1", "p1") != "r1:p1" {
		t.Fatalf("unexpected key format: %s", Key("r1", "p1"))
	}
}
