package ws

import (
	"testing"
	"time"
)

func TestAttemptLimiterRefusesBeyondThreshold(t *testing.T) {
	now := time.Now()
	l := NewAttemptLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("attempt %d should be admitted", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("attempt beyond threshold should be refused")
	}
	// Still refused inside the window.
	now = now.Add(30 * time.Second)
	if l.Allow("10.0.0.1") {
		t.Fatal("attempt inside window should still be refused")
	}
}

func TestAttemptLimiterWindowElapses(t *testing.T) {
	now := time.Now()
	l := NewAttemptLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		l.Allow("10.0.0.2")
	}
	now = now.Add(61 * time.Second)
	if !l.Allow("10.0.0.2") {
		t.Fatal("attempt after window elapsed should be admitted")
	}
}

func TestAttemptLimiterAddressesAreIndependent(t *testing.T) {
	now := time.Now()
	l := NewAttemptLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.3")
	if l.Allow("10.0.0.3") {
		t.Fatal("second attempt from same address should be refused")
	}
	if !l.Allow("10.0.0.4") {
		t.Fatal("other addresses must not be penalized")
	}
}

func TestAttemptLimiterSweepPrunesStaleWindows(t *testing.T) {
	now := time.Now()
	l := NewAttemptLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.5")
	now = now.Add(2 * time.Minute)
	l.sweep()

	l.mu.Lock()
	size := len(l.attempts)
	l.mu.Unlock()
	if size != 0 {
		t.Fatalf("stale windows not pruned, %d remain", size)
	}
}
