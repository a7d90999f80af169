package rate_limiter

import (
	"testing"
	"time"
)

func TestAllowHonoursBurst(t *testing.T) {
	l := New(1, 3)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("fourth request in the same instant should be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("a token should be replenished after one second")
	}
}

func TestCleanupEvictsIdleClients(t *testing.T) {
	l := New(1, 1)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(4 * time.Minute)
	l.Allow("recent")
	now = now.Add(2 * time.Minute)

	if removed := l.Cleanup(maxIdle); removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if _, ok := l.visitors["recent"]; !ok {
		t.Error("recent client should survive cleanup")
	}
}
