package pool

import (
	"sync/atomic"
	"time"
)

// PoolStats is a snapshot of the counters of a pool.
type PoolStats struct {
	TotalConns  int32 // sessions open, borrowed or idle
	IdleConns   int32
	ActiveConns int32 // sessions borrowed by Exec

	AcquireCount     uint64
	AcquireWaitCount uint64 // acquires that waited for a release
	AcquireWaitTime  time.Duration
	AcquireErrors    uint64 // failed dials, cancelled waits, closed pool

	CreatedConns   uint64
	DestroyedConns uint64
}

// poolCounters is updated by the channel pool; puddle keeps its own.
type poolCounters struct {
	total, idle, active atomic.Int32

	acquires, waits, acquireErrors atomic.Uint64
	waitTime                       atomic.Int64

	created, destroyed atomic.Uint64
}

func (c *poolCounters) recordAcquire() {
	c.acquires.Add(1)
}

func (c *poolCounters) recordAcquireError() {
	c.acquireErrors.Add(1)
}

func (c *poolCounters) recordWait(d time.Duration) {
	c.waits.Add(1)
	c.waitTime.Add(int64(d))
}

// recordCreate accounts for a new session handed out by Acquire.
func (c *poolCounters) recordCreate() {
	c.created.Add(1)
	c.total.Add(1)
	c.active.Add(1)
}

// recordTake accounts for an idle session handed out.
func (c *poolCounters) recordTake() {
	c.idle.Add(-1)
	c.active.Add(1)
}

// recordPut accounts for a borrowed session returned to the idle set.
func (c *poolCounters) recordPut() {
	c.active.Add(-1)
	c.idle.Add(1)
}

// recordDestroy accounts for a borrowed session being closed.
func (c *poolCounters) recordDestroy() {
	c.destroyed.Add(1)
	c.total.Add(-1)
	c.active.Add(-1)
}

// recordDestroyIdle accounts for an idle session being closed.
func (c *poolCounters) recordDestroyIdle() {
	c.destroyed.Add(1)
	c.total.Add(-1)
	c.idle.Add(-1)
}

func (c *poolCounters) snapshot() PoolStats {
	return PoolStats{
		TotalConns:       c.total.Load(),
		IdleConns:        c.idle.Load(),
		ActiveConns:      c.active.Load(),
		AcquireCount:     c.acquires.Load(),
		AcquireWaitCount: c.waits.Load(),
		AcquireWaitTime:  time.Duration(c.waitTime.Load()),
		AcquireErrors:    c.acquireErrors.Load(),
		CreatedConns:     c.created.Load(),
		DestroyedConns:   c.destroyed.Load(),
	}
}
