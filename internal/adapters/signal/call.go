package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"signalhub/internal/app"
	"signalhub/internal/domain"
)

// callFailed carries a flow error back to the side that issued the
// command. CallID is zero when no session was ever created.
type callFailedMsg struct {
	Type   string        `json:"type"`
	CallID domain.CallID `json:"callId,omitempty"`
	Reason string        `json:"reason"`
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrSelfCall):
		return "self-call"
	case errors.Is(err, domain.ErrAlreadyInCall):
		return "already-in-call"
	case errors.Is(err, domain.ErrCalleeOffline), errors.Is(err, app.ErrTargetOffline):
		return "target-offline"
	case errors.Is(err, domain.ErrCallNotFound):
		return "not-found"
	case errors.Is(err, domain.ErrWrongState):
		return "wrong-state"
	case errors.Is(err, domain.ErrNotParty):
		return "not-party"
	case errors.Is(err, domain.ErrBadCallKind):
		return "bad-kind"
	}
	return "internal"
}

// registeredName resolves the sender, or tells it to register first.
func (ctl *Controller) registeredName(cid domain.ConnID, conn *wsConn) (string, bool) {
	name, ok := ctl.Orch.Presence.NameOf(cid)
	if !ok {
		ctl.sendError(conn, "not-registered")
	}
	return name, ok
}

func (ctl *Controller) handleCallStart(ctx context.Context, cid domain.ConnID, conn *wsConn, data []byte) {
	caller, ok := ctl.registeredName(cid, conn)
	if !ok {
		return
	}
	var p struct {
		Type    string          `json:"type"`
		To      string          `json:"to"`
		Kind    string          `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		ctl.sendError(conn, "bad-payload")
		return
	}
	kind, err := domain.ParseCallKind(p.Kind)
	if err != nil {
		ctl.sendJSON(conn, callFailedMsg{Type: "call-failed", Reason: reasonFor(err)})
		return
	}
	if !ctl.limiter.Allow(cid) {
		log.Warn().Str("module", "signal").Str("caller", caller).Msg("call rate limited")
		ctl.sendJSON(conn, callFailedMsg{Type: "call-failed", Reason: "rate-limited"})
		return
	}

	sess, err := ctl.Orch.StartCall(ctx, caller, p.To, kind, p.Payload)
	if err != nil {
		ctl.sendJSON(conn, callFailedMsg{Type: "call-failed", Reason: reasonFor(err)})
		return
	}
	ctl.sendJSON(conn, struct {
		Type   string        `json:"type"`
		CallID domain.CallID `json:"callId"`
		To     string        `json:"to"`
	}{Type: "call-started", CallID: sess.ID, To: p.To})
}

func (ctl *Controller) handleCallAnswer(ctx context.Context, cid domain.ConnID, conn *wsConn, data []byte) {
	name, ok := ctl.registeredName(cid, conn)
	if !ok {
		return
	}
	var p struct {
		Type    string          `json:"type"`
		CallID  domain.CallID   `json:"callId"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad-payload")
		return
	}
	if _, err := ctl.Orch.Answer(ctx, name, p.CallID, p.Payload); err != nil {
		ctl.sendJSON(conn, callFailedMsg{Type: "call-failed", CallID: p.CallID, Reason: reasonFor(err)})
	}
}

func (ctl *Controller) handleCallReject(ctx context.Context, cid domain.ConnID, conn *wsConn, data []byte) {
	name, ok := ctl.registeredName(cid, conn)
	if !ok {
		return
	}
	var p struct {
		Type   string        `json:"type"`
		CallID domain.CallID `json:"callId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad-payload")
		return
	}
	if _, err := ctl.Orch.Reject(ctx, name, p.CallID); err != nil {
		ctl.sendJSON(conn, callFailedMsg{Type: "call-failed", CallID: p.CallID, Reason: reasonFor(err)})
	}
}

func (ctl *Controller) handleCallEnd(ctx context.Context, cid domain.ConnID, conn *wsConn, data []byte) {
	name, ok := ctl.registeredName(cid, conn)
	if !ok {
		return
	}
	var p struct {
		Type   string        `json:"type"`
		CallID domain.CallID `json:"callId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad-payload")
		return
	}
	if _, err := ctl.Orch.End(ctx, name, p.CallID); err != nil {
		ctl.sendJSON(conn, callFailedMsg{Type: "call-failed", CallID: p.CallID, Reason: reasonFor(err)})
	}
}
