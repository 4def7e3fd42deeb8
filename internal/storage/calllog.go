// Package storage persists call outcomes to sqlite via gorm. The live
// call store never waits on it: writes go through a single-worker
// queue and failures are logged, not propagated into call flow.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"signalhub/internal/domain"
)

// CallRecord is one row of the call log. CallID is the coordinator's
// id and the key for updates; the row id is storage-internal.
type CallRecord struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	CallID    int64  `gorm:"uniqueIndex" json:"callId"`
	Caller    string `json:"caller"`
	Callee    string `json:"callee"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Duration  int64  `json:"duration"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

func (CallRecord) TableName() string { return "call_logs" }

// Open opens (or creates) the sqlite database and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	// One connection: sqlite serializes writers anyway, and a pool
	// would split an in-memory database across connections.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&CallRecord{}); err != nil {
		return nil, err
	}
	return db, nil
}

// CallLog implements core.CallLog on gorm. One worker goroutine
// applies writes in submission order, which keeps the append of a call
// ahead of any of its updates.
type CallLog struct {
	db   *gorm.DB
	jobs chan func()
	done chan struct{}
}

func NewCallLog(db *gorm.DB) *CallLog {
	c := &CallLog{
		db:   db,
		jobs: make(chan func(), 1024),
		done: make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *CallLog) run() {
	defer close(c.done)
	for job := range c.jobs {
		job()
	}
}

// enqueue never blocks the caller; a full queue drops the write.
func (c *CallLog) enqueue(job func()) {
	select {
	case c.jobs <- job:
	default:
		log.Error().Str("module", "storage.calllog").Msg("write queue full, dropping")
	}
}

// Append records a freshly initiated call. The caller's ctx is not
// carried into the queue: the write outlives the request that caused it.
func (c *CallLog) Append(_ context.Context, sess *domain.CallSession) error {
	rec := CallRecord{
		CallID:    int64(sess.ID),
		Caller:    sess.Caller,
		Callee:    sess.Callee,
		Kind:      string(sess.Kind),
		Status:    sess.State.String(),
		StartedAt: sess.StartedAt,
	}
	c.enqueue(func() {
		if err := c.db.Create(&rec).Error; err != nil {
			log.Error().Err(err).Str("module", "storage.calllog").Int64("call_id", rec.CallID).Msg("append")
		}
	})
	return nil
}

// Update moves a call's row to a new status. Idempotent: replaying the
// same terminal status for the same call changes nothing.
func (c *CallLog) Update(_ context.Context, id domain.CallID, status domain.CallState, endedAt *time.Time) error {
	c.enqueue(func() {
		var rec CallRecord
		err := c.db.Where("call_id = ?", int64(id)).First(&rec).Error
		if err != nil {
			log.Error().Err(err).Str("module", "storage.calllog").Int64("call_id", int64(id)).Msg("update lookup")
			return
		}
		if rec.Status == status.String() {
			return
		}
		// Only calls that were connected when they ended get a
		// duration; a rejected or failed ring stays at zero.
		if endedAt != nil && rec.Status == domain.StateConnected.String() {
			rec.Duration = int64(endedAt.Sub(rec.StartedAt) / time.Second)
		}
		rec.Status = status.String()
		rec.EndedAt = endedAt
		if err := c.db.Save(&rec).Error; err != nil {
			log.Error().Err(err).Str("module", "storage.calllog").Int64("call_id", int64(id)).Msg("update")
		}
	})
	return nil
}

// Recent returns the newest rows for the read-side API.
func (c *CallLog) Recent(ctx context.Context, limit int) ([]CallRecord, error) {
	var recs []CallRecord
	err := c.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// Ping verifies the database is reachable, for the health probe.
func (c *CallLog) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Flush blocks until every write submitted so far has been applied.
func (c *CallLog) Flush() {
	barrier := make(chan struct{})
	c.jobs <- func() { close(barrier) }
	<-barrier
}

// Close drains the queue and stops the worker.
func (c *CallLog) Close() error {
	close(c.jobs)
	select {
	case <-c.done:
		return nil
	case <-time.After(5 * time.Second):
		return errors.New("call log close timed out")
	}
}
