package core

import (
	"context"
	"time"

	"signalhub/internal/domain"
)

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// PeerConn abstracts a system messaging transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type PeerConn interface {
	TrySend(Frame) error
	Close()
}

// CallLog is the durable sink for call outcomes. Writes may complete
// after the in-memory transition; they are best-effort durable and
// must be idempotent for repeated terminal updates of one call.
type CallLog interface {
	Append(ctx context.Context, sess *domain.CallSession) error
	Update(ctx context.Context, id domain.CallID, status domain.CallState, endedAt *time.Time) error
}
