package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"signalhub/internal/domain"
)

func setupCallLog(t *testing.T) *CallLog {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)

	c := NewCallLog(db)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func appendCall(t *testing.T, c *CallLog, id domain.CallID, startedAt time.Time) {
	t.Helper()
	err := c.Append(context.Background(), &domain.CallSession{
		ID:        id,
		Caller:    "alice",
		Callee:    "bob",
		Kind:      domain.KindVideo,
		State:     domain.StateInitiated,
		StartedAt: startedAt,
	})
	require.NoError(t, err)
}

func TestAppendAndRecent(t *testing.T) {
	c := setupCallLog(t)

	appendCall(t, c, 1, time.Now())
	c.Flush()

	recs, err := c.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, int64(1), recs[0].CallID)
	require.Equal(t, "alice", recs[0].Caller)
	require.Equal(t, "bob", recs[0].Callee)
	require.Equal(t, "video", recs[0].Kind)
	require.Equal(t, "initiated", recs[0].Status)
	require.Nil(t, recs[0].EndedAt)
}

func TestUpdateLifecycle(t *testing.T) {
	c := setupCallLog(t)
	ctx := context.Background()
	started := time.Now().Add(-2 * time.Minute)

	appendCall(t, c, 7, started)

	require.NoError(t, c.Update(ctx, 7, domain.StateConnected, nil))
	c.Flush()

	recs, err := c.Recent(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "connected", recs[0].Status)
	require.Nil(t, recs[0].EndedAt)

	ended := started.Add(90 * time.Second)
	require.NoError(t, c.Update(ctx, 7, domain.StateCompleted, &ended))
	c.Flush()

	recs, err = c.Recent(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "completed", recs[0].Status)
	require.NotNil(t, recs[0].EndedAt)
	require.Equal(t, int64(90), recs[0].Duration)
}

func TestUpdateTerminalIsIdempotent(t *testing.T) {
	c := setupCallLog(t)
	ctx := context.Background()
	started := time.Now().Add(-time.Minute)

	appendCall(t, c, 3, started)
	require.NoError(t, c.Update(ctx, 3, domain.StateConnected, nil))
	ended := started.Add(30 * time.Second)
	require.NoError(t, c.Update(ctx, 3, domain.StateCompleted, &ended))
	c.Flush()

	// Replay with a different timestamp: same terminal status, no change.
	later := started.Add(5 * time.Minute)
	require.NoError(t, c.Update(ctx, 3, domain.StateCompleted, &later))
	c.Flush()

	recs, err := c.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "completed", recs[0].Status)
	require.Equal(t, int64(30), recs[0].Duration)
	require.True(t, recs[0].EndedAt.Equal(ended))
}

func TestNoDurationForCallThatNeverConnected(t *testing.T) {
	c := setupCallLog(t)
	ctx := context.Background()
	started := time.Now().Add(-time.Minute)

	// Rejected after ringing for 45s: no talk time to record.
	appendCall(t, c, 5, started)
	ended := started.Add(45 * time.Second)
	require.NoError(t, c.Update(ctx, 5, domain.StateRejected, &ended))
	c.Flush()

	recs, err := c.Recent(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "rejected", recs[0].Status)
	require.NotNil(t, recs[0].EndedAt)
	require.Zero(t, recs[0].Duration)
}

func TestUpdateUnknownCallCreatesNothing(t *testing.T) {
	c := setupCallLog(t)
	ctx := context.Background()

	require.NoError(t, c.Update(ctx, 42, domain.StateFailed, nil))
	c.Flush()

	recs, err := c.Recent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	c := setupCallLog(t)
	base := time.Now().Add(-time.Hour)

	appendCall(t, c, 1, base)
	appendCall(t, c, 2, base.Add(10*time.Minute))
	appendCall(t, c, 3, base.Add(20*time.Minute))
	c.Flush()

	recs, err := c.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, int64(3), recs[0].CallID)
	require.Equal(t, int64(2), recs[1].CallID)
}

func TestPing(t *testing.T) {
	c := setupCallLog(t)
	require.NoError(t, c.Ping(context.Background()))
}
