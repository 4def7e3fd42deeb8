package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"signalhub/internal/core"
	"signalhub/internal/domain"
)

// CallStore owns every live call session and is the single
// serialization point for the one-active-call check, session creation
// and forced termination. Sessions leave the store the moment they go
// terminal; the durable trace lives in the sink.
type CallStore struct {
	mu       sync.Mutex
	nextID   domain.CallID
	sessions map[domain.CallID]*domain.CallSession
	sink     core.CallLog
	now      func() time.Time
}

func NewCallStore(sink core.CallLog) *CallStore {
	return &CallStore{
		sessions: make(map[domain.CallID]*domain.CallSession),
		sink:     sink,
		now:      time.Now,
	}
}

// busy reports whether name may not start a new call: it already owns
// an unanswered attempt, or it is a party to a connected call. A name
// that is merely being rung (callee of someone else's Initiated
// session) may still dial out, which is what lets two users ring each
// other simultaneously — but it holds at most one connected call:
// Answer re-checks with inConnected before any session connects.
func (s *CallStore) busy(name string) bool {
	for _, sess := range s.sessions {
		if sess.Caller == name {
			return true
		}
		if sess.Callee == name && sess.State == domain.StateConnected {
			return true
		}
	}
	return false
}

// inConnected reports whether name is a party to a connected call.
func (s *CallStore) inConnected(name string) bool {
	for _, sess := range s.sessions {
		if sess.State != domain.StateConnected {
			continue
		}
		if sess.Caller == name || sess.Callee == name {
			return true
		}
	}
	return false
}

// Start validates and creates a session in Initiated, allocating the
// next CallID. Callee reachability is the caller's (orchestrator's)
// concern; relay failure after creation goes through Fail.
func (s *CallStore) Start(ctx context.Context, caller, callee string, kind domain.CallKind) (domain.CallSession, error) {
	if caller == callee {
		return domain.CallSession{}, domain.ErrSelfCall
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy(caller) {
		return domain.CallSession{}, domain.ErrAlreadyInCall
	}
	s.nextID++
	sess := &domain.CallSession{
		ID:        s.nextID,
		Caller:    caller,
		Callee:    callee,
		Kind:      kind,
		State:     domain.StateInitiated,
		StartedAt: s.now(),
	}
	s.sessions[sess.ID] = sess
	s.appendSink(ctx, sess)
	log.Info().Str("module", "app.calls").Int64("call_id", int64(sess.ID)).
		Str("caller", caller).Str("callee", callee).Str("kind", string(kind)).Msg("call initiated")
	return *sess, nil
}

// Answer moves an Initiated session to Connected. Only the callee may
// answer, and connecting must not put either party into a second
// connected call.
func (s *CallStore) Answer(ctx context.Context, id domain.CallID, by string) (domain.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.CallSession{}, domain.ErrCallNotFound
	}
	if by != sess.Callee {
		return domain.CallSession{}, domain.ErrNotParty
	}
	// Re-answering a non-Initiated session is a state error, not a
	// busy one; the busy check must not count the session itself.
	if sess.State == domain.StateInitiated &&
		(s.inConnected(sess.Caller) || s.inConnected(sess.Callee)) {
		return domain.CallSession{}, domain.ErrAlreadyInCall
	}
	if err := sess.Transition(domain.StateConnected, s.now()); err != nil {
		return domain.CallSession{}, err
	}
	s.updateSink(ctx, sess)
	log.Info().Str("module", "app.calls").Int64("call_id", int64(id)).Msg("call connected")
	return *sess, nil
}

// Reject moves an Initiated session to Rejected and discards it.
func (s *CallStore) Reject(ctx context.Context, id domain.CallID, by string) (domain.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.CallSession{}, domain.ErrCallNotFound
	}
	if by != sess.Callee {
		return domain.CallSession{}, domain.ErrNotParty
	}
	return s.finishLocked(ctx, sess, domain.StateRejected)
}

// End completes a ringing or connected call. Either party may hang up.
func (s *CallStore) End(ctx context.Context, id domain.CallID, by string) (domain.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.CallSession{}, domain.ErrCallNotFound
	}
	if _, err := sess.Peer(by); err != nil {
		return domain.CallSession{}, err
	}
	return s.finishLocked(ctx, sess, domain.StateCompleted)
}

// Fail marks a session Failed after a delivery failure.
func (s *CallStore) Fail(ctx context.Context, id domain.CallID) (domain.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.CallSession{}, domain.ErrCallNotFound
	}
	return s.finishLocked(ctx, sess, domain.StateFailed)
}

// ForceTerminate closes every non-terminal session name is a party to,
// for disconnect handling. A call that reached Connected counts as
// Completed, an unanswered one as Failed. Returns the closed sessions
// so the lifecycle code can notify the surviving parties.
func (s *CallStore) ForceTerminate(ctx context.Context, name string) []domain.CallSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	var closed []domain.CallSession
	for _, sess := range s.sessions {
		if sess.Caller != name && sess.Callee != name {
			continue
		}
		final := domain.StateFailed
		if sess.State == domain.StateConnected {
			final = domain.StateCompleted
		}
		done, err := s.finishLocked(ctx, sess, final)
		if err != nil {
			continue
		}
		closed = append(closed, done)
	}
	return closed
}

// Get returns a copy of a live session.
func (s *CallStore) Get(id domain.CallID) (domain.CallSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.CallSession{}, false
	}
	return *sess, true
}

// Active returns the number of live (non-terminal) sessions.
func (s *CallStore) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// finishLocked applies a terminal transition, evicts the session and
// writes through to the sink. Caller holds s.mu.
func (s *CallStore) finishLocked(ctx context.Context, sess *domain.CallSession, to domain.CallState) (domain.CallSession, error) {
	if err := sess.Transition(to, s.now()); err != nil {
		return domain.CallSession{}, err
	}
	delete(s.sessions, sess.ID)
	s.updateSink(ctx, sess)
	log.Info().Str("module", "app.calls").Int64("call_id", int64(sess.ID)).
		Str("state", to.String()).Msg("call closed")
	return *sess, nil
}

// Sink failures never block or fail the live call.

func (s *CallStore) appendSink(ctx context.Context, sess *domain.CallSession) {
	if err := s.sink.Append(ctx, sess); err != nil {
		log.Error().Err(err).Str("module", "app.calls").Int64("call_id", int64(sess.ID)).Msg("log append")
	}
}

func (s *CallStore) updateSink(ctx context.Context, sess *domain.CallSession) {
	if err := s.sink.Update(ctx, sess.ID, sess.State, sess.EndedAt); err != nil {
		log.Error().Err(err).Str("module", "app.calls").Int64("call_id", int64(sess.ID)).Msg("log update")
	}
}
