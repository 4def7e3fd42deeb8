package domain

import (
	"errors"
	"time"
)

type CallID int64

// CallKind distinguishes audio-only from video calls. It is carried
// through to the log untouched.
type CallKind string

const (
	KindAudio CallKind = "audio"
	KindVideo CallKind = "video"
)

func ParseCallKind(s string) (CallKind, error) {
	switch CallKind(s) {
	case KindAudio, KindVideo:
		return CallKind(s), nil
	}
	return "", ErrBadCallKind
}

// CallState is a closed set of call-session states. Transitions go
// through Transition; handlers never assign State directly.
type CallState int

const (
	StateInitiated CallState = iota
	StateConnected
	StateCompleted
	StateRejected
	StateFailed
)

func (s CallState) String() string {
	switch s {
	case StateInitiated:
		return "initiated"
	case StateConnected:
		return "connected"
	case StateCompleted:
		return "completed"
	case StateRejected:
		return "rejected"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transition is legal from s.
func (s CallState) Terminal() bool {
	switch s {
	case StateCompleted, StateRejected, StateFailed:
		return true
	}
	return false
}

var (
	ErrBadCallKind   = errors.New("bad call kind")
	ErrSelfCall      = errors.New("cannot call self")
	ErrAlreadyInCall = errors.New("already in a call")
	ErrCalleeOffline = errors.New("callee offline")
	ErrCallNotFound  = errors.New("call not found")
	ErrWrongState    = errors.New("illegal state transition")
	ErrNotParty      = errors.New("not a party to this call")
)

// legal transitions; everything else is ErrWrongState.
var transitions = map[CallState][]CallState{
	StateInitiated: {StateConnected, StateCompleted, StateRejected, StateFailed},
	StateConnected: {StateCompleted, StateFailed},
}

func canTransition(from, to CallState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CallSession is the live record of one call attempt. Owned by the
// call store until terminal, then discarded.
type CallSession struct {
	ID        CallID
	Caller    string
	Callee    string
	Kind      CallKind
	State     CallState
	StartedAt time.Time
	EndedAt   *time.Time
}

// Transition moves the session to the requested state, stamping
// EndedAt when the target is terminal. EndedAt is set iff the state
// is terminal; that pairing lives here and nowhere else.
func (c *CallSession) Transition(to CallState, now time.Time) error {
	if !canTransition(c.State, to) {
		return ErrWrongState
	}
	c.State = to
	if to.Terminal() {
		t := now
		c.EndedAt = &t
	}
	return nil
}

// Peer returns the other party, or ErrNotParty if name is neither side.
func (c *CallSession) Peer(name string) (string, error) {
	switch name {
	case c.Caller:
		return c.Callee, nil
	case c.Callee:
		return c.Caller, nil
	}
	return "", ErrNotParty
}

// Duration is the connected time in whole seconds, zero until ended.
func (c *CallSession) Duration() int64 {
	if c.EndedAt == nil {
		return 0
	}
	return int64(c.EndedAt.Sub(c.StartedAt) / time.Second)
}
