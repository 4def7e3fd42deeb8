package domain

import (
	"testing"
	"time"
)

func TestCallStateTransitions(t *testing.T) {
	cases := []struct {
		name string
		from CallState
		to   CallState
		ok   bool
	}{
		{"initiated to connected", StateInitiated, StateConnected, true},
		{"initiated to completed", StateInitiated, StateCompleted, true},
		{"initiated to rejected", StateInitiated, StateRejected, true},
		{"initiated to failed", StateInitiated, StateFailed, true},
		{"connected to completed", StateConnected, StateCompleted, true},
		{"connected to failed", StateConnected, StateFailed, true},
		{"connected to rejected", StateConnected, StateRejected, false},
		{"connected to initiated", StateConnected, StateInitiated, false},
		{"completed is terminal", StateCompleted, StateConnected, false},
		{"rejected is terminal", StateRejected, StateConnected, false},
		{"failed is terminal", StateFailed, StateCompleted, false},
		{"no self loop", StateInitiated, StateInitiated, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := &CallSession{State: tc.from, StartedAt: time.Now()}
			err := sess.Transition(tc.to, time.Now())
			if tc.ok && err != nil {
				t.Fatalf("expected transition %v -> %v to succeed, got %v", tc.from, tc.to, err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatalf("expected transition %v -> %v to fail", tc.from, tc.to)
				}
				if sess.State != tc.from {
					t.Fatalf("illegal transition mutated state to %v", sess.State)
				}
			}
		})
	}
}

func TestTransitionStampsEndedAtOnTerminalOnly(t *testing.T) {
	now := time.Now()

	sess := &CallSession{State: StateInitiated, StartedAt: now}
	if err := sess.Transition(StateConnected, now); err != nil {
		t.Fatal(err)
	}
	if sess.EndedAt != nil {
		t.Fatal("EndedAt set on non-terminal state")
	}

	end := now.Add(90 * time.Second)
	if err := sess.Transition(StateCompleted, end); err != nil {
		t.Fatal(err)
	}
	if sess.EndedAt == nil || !sess.EndedAt.Equal(end) {
		t.Fatalf("EndedAt not stamped on terminal transition: %v", sess.EndedAt)
	}
	if got := sess.Duration(); got != 90 {
		t.Fatalf("expected 90s duration, got %d", got)
	}
}

func TestPeer(t *testing.T) {
	sess := &CallSession{Caller: "alice", Callee: "bob"}

	if peer, err := sess.Peer("alice"); err != nil || peer != "bob" {
		t.Fatalf("Peer(alice) = %q, %v", peer, err)
	}
	if peer, err := sess.Peer("bob"); err != nil || peer != "alice" {
		t.Fatalf("Peer(bob) = %q, %v", peer, err)
	}
	if _, err := sess.Peer("mallory"); err != ErrNotParty {
		t.Fatalf("expected ErrNotParty, got %v", err)
	}
}

func TestParseCallKind(t *testing.T) {
	if _, err := ParseCallKind("audio"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseCallKind("video"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseCallKind("hologram"); err != ErrBadCallKind {
		t.Fatalf("expected ErrBadCallKind, got %v", err)
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("alice"); err != nil {
		t.Fatal(err)
	}
	if err := ValidateName(""); err != ErrNameEmpty {
		t.Fatalf("expected ErrNameEmpty, got %v", err)
	}
	long := make([]byte, MaxNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateName(string(long)); err != ErrNameTooLong {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}
}
