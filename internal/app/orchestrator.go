package app

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"signalhub/internal/core"
	"signalhub/internal/domain"
	"signalhub/internal/metrics"
)

// Orchestrator ties presence, the call store and the relay together so
// every wire command is one flow with its side effects in one place.
// The websocket adapter decodes commands and calls in here.
type Orchestrator struct {
	Presence *Presence
	Calls    *CallStore
	Relay    *Relay
}

func NewOrchestrator(sink core.CallLog) *Orchestrator {
	presence := NewPresence()
	return &Orchestrator{
		Presence: presence,
		Calls:    NewCallStore(sink),
		Relay:    NewRelay(presence),
	}
}

// Register binds name to the connection and announces the newcomer:
// a presence-joined delta to everyone else, then the full list to all
// so no client is left with a stale roster.
func (o *Orchestrator) Register(cid domain.ConnID, name string, conn core.PeerConn) error {
	if err := o.Presence.Register(cid, name, conn); err != nil {
		return err
	}
	o.Relay.Broadcast(encode(presenceDeltaMsg{Type: "presence-joined", Name: name}))
	o.broadcastRoster()
	metrics.OnlineUsers.Set(float64(len(o.Presence.Names())))
	return nil
}

// StartCall creates the session and rings the callee. No session and
// no log row exist when the callee is offline at the check; a failure
// to deliver the ring after creation marks the session Failed.
func (o *Orchestrator) StartCall(ctx context.Context, caller, callee string, kind domain.CallKind, payload json.RawMessage) (domain.CallSession, error) {
	if _, _, ok := o.Presence.Lookup(callee); !ok {
		return domain.CallSession{}, domain.ErrCalleeOffline
	}
	sess, err := o.Calls.Start(ctx, caller, callee, kind)
	if err != nil {
		return domain.CallSession{}, err
	}
	metrics.CallsStarted.Inc()
	metrics.ActiveCalls.Set(float64(o.Calls.Active()))
	ring := encode(incomingCallMsg{
		Type: "incoming-call", CallID: sess.ID, From: caller, Kind: kind, Payload: payload,
	})
	if err := o.Relay.Send(callee, ring); err != nil {
		if failed, ferr := o.Calls.Fail(ctx, sess.ID); ferr == nil {
			o.noteClosed(failed)
		}
		return domain.CallSession{}, err
	}
	return sess, nil
}

// Answer connects the call and carries the answer payload back to the
// caller. A caller that vanished between ring and answer fails the
// session.
func (o *Orchestrator) Answer(ctx context.Context, by string, id domain.CallID, payload json.RawMessage) (domain.CallSession, error) {
	sess, err := o.Calls.Answer(ctx, id, by)
	if err != nil {
		return domain.CallSession{}, err
	}
	accepted := encode(callAcceptedMsg{
		Type: "call-accepted", CallID: id, From: by, Payload: payload,
	})
	if err := o.Relay.Send(sess.Caller, accepted); err != nil {
		if failed, ferr := o.Calls.Fail(ctx, id); ferr == nil {
			o.noteClosed(failed)
		}
		return domain.CallSession{}, err
	}
	return sess, nil
}

// Reject declines a ringing call. Telling the caller is best-effort;
// the session is terminal either way.
func (o *Orchestrator) Reject(ctx context.Context, by string, id domain.CallID) (domain.CallSession, error) {
	sess, err := o.Calls.Reject(ctx, id, by)
	if err != nil {
		return domain.CallSession{}, err
	}
	o.noteClosed(sess)
	o.notifyClosed(sess, "call-rejected", by)
	return sess, nil
}

// End hangs up from either side. Telling the peer is best-effort.
func (o *Orchestrator) End(ctx context.Context, by string, id domain.CallID) (domain.CallSession, error) {
	sess, err := o.Calls.End(ctx, id, by)
	if err != nil {
		return domain.CallSession{}, err
	}
	o.noteClosed(sess)
	o.notifyClosed(sess, "call-ended", by)
	return sess, nil
}

// Disconnect unwinds a closing connection: first force-terminate any
// call the name is party to (while presence still resolves, so the
// counterpart can be told), then drop the presence entry and announce
// it. Runs synchronously in the connection's teardown path.
func (o *Orchestrator) Disconnect(ctx context.Context, cid domain.ConnID) {
	name, ok := o.Presence.NameOf(cid)
	if ok {
		for _, sess := range o.Calls.ForceTerminate(ctx, name) {
			o.noteClosed(sess)
			o.notifyClosed(sess, "call-ended", name)
		}
	}
	if gone, ok := o.Presence.Remove(cid); ok {
		o.Relay.Broadcast(encode(presenceDeltaMsg{Type: "presence-left", Name: gone}))
		o.broadcastRoster()
	}
	metrics.OnlineUsers.Set(float64(len(o.Presence.Names())))
	log.Info().Str("module", "app.orchestrator").Str("cid", string(cid)).Msg("disconnected")
}

// notifyClosed tells the party opposite to `by` that the call closed.
// Best-effort: an unreachable peer does not reopen a terminal session.
func (o *Orchestrator) notifyClosed(sess domain.CallSession, msgType, by string) {
	peer, err := sess.Peer(by)
	if err != nil {
		return
	}
	bye := encode(callClosedMsg{Type: msgType, CallID: sess.ID, From: by})
	if err := o.Relay.Send(peer, bye); err != nil && !errors.Is(err, ErrTargetOffline) {
		log.Warn().Err(err).Str("module", "app.orchestrator").Int64("call_id", int64(sess.ID)).Msg("close notify")
	}
}

func (o *Orchestrator) noteClosed(sess domain.CallSession) {
	metrics.CallsClosed.WithLabelValues(sess.State.String()).Inc()
	if sess.EndedAt != nil {
		metrics.CallSeconds.Observe(float64(sess.Duration()))
	}
	metrics.ActiveCalls.Set(float64(o.Calls.Active()))
}

func (o *Orchestrator) broadcastRoster() {
	o.Relay.Broadcast(encode(presenceUpdateMsg{Type: "presence-update", Names: o.Presence.Names()}))
}
