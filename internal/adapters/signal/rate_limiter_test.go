package signal

import (
	"testing"
	"time"
)

func TestCallRateLimiter(t *testing.T) {
	rl := NewCallRateLimiter(2, time.Minute)

	if !rl.Allow("c1") {
		t.Fatal("first attempt should pass")
	}
	if !rl.Allow("c1") {
		t.Fatal("second attempt should pass")
	}
	if rl.Allow("c1") {
		t.Fatal("third attempt inside window should be blocked")
	}

	// Other connections have their own window.
	if !rl.Allow("c2") {
		t.Fatal("separate connection should pass")
	}
}

func TestCallRateLimiterWindowExpiry(t *testing.T) {
	rl := NewCallRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("c1") {
		t.Fatal("first attempt should pass")
	}
	if rl.Allow("c1") {
		t.Fatal("second attempt should be blocked")
	}

	time.Sleep(15 * time.Millisecond)
	if !rl.Allow("c1") {
		t.Fatal("attempt after window should pass")
	}
}

func TestCallRateLimiterForget(t *testing.T) {
	rl := NewCallRateLimiter(1, time.Minute)

	rl.Allow("c1")
	rl.Forget("c1")
	if !rl.Allow("c1") {
		t.Fatal("forgotten connection starts fresh")
	}
}
