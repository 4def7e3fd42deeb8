package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"signalhub/internal/core"
	"signalhub/internal/metrics"
)

var ErrTargetOffline = errors.New("target offline")

// Relay delivers already-encoded frames to named peers. Payloads pass
// through verbatim; the relay never parses them. Delivery is
// fire-and-forget: TrySend either queues the frame or fails now.
type Relay struct {
	presence *Presence
}

func NewRelay(p *Presence) *Relay {
	return &Relay{presence: p}
}

// Send forwards one frame to the live connection registered under
// target. ErrTargetOffline when no such connection, or when its send
// queue is full (a stalled peer is as good as gone).
func (r *Relay) Send(target string, f core.Frame) error {
	_, conn, ok := r.presence.Lookup(target)
	if !ok {
		metrics.RelayFailures.Inc()
		return ErrTargetOffline
	}
	if err := conn.TrySend(f); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("target", target).Msg("send failed")
		metrics.RelayFailures.Inc()
		return ErrTargetOffline
	}
	metrics.SignalsRelayed.Inc()
	return nil
}

// Broadcast fans a frame out to every online connection. Slow peers
// are skipped, never waited on.
func (r *Relay) Broadcast(f core.Frame) {
	for _, snap := range r.presence.snapshot() {
		if err := snap.Conn.TrySend(f); err != nil {
			log.Warn().Err(err).Str("module", "app.relay").Str("target", snap.Name).Msg("broadcast drop")
		}
	}
}
