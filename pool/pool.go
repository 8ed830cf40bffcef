// Package pool keeps a bounded set of independent sessions to one daemon,
// for applications that issue queries from many goroutines.
//
// A musicpd.Client already serializes its exchanges; a pool only adds
// parallelism. Sessions are plain clients: one used for idle is held for as
// long as it waits, so watchers should dial their own session instead.
package pool

import (
	"context"
	"errors"
	"time"

	"github.com/pior/musicpd"
)

var (
	ErrPoolClosed = errors.New("mpd pool: closed")

	errInvalidSize = errors.New("mpd pool: size must be > 0")
)

// Constructor creates a ready session.
type Constructor func(ctx context.Context) (*musicpd.Client, error)

// Resource is a session borrowed from a Pool.
// Exactly one of Release, ReleaseUnused or Destroy must be called.
type Resource interface {
	Value() *musicpd.Client

	// Release returns the session to the pool.
	Release()
	// ReleaseUnused returns the session without marking it as used.
	ReleaseUnused()
	// Destroy closes the session and frees its slot.
	Destroy()

	CreationTime() time.Time
	IdleDuration() time.Duration
}

// Pool is a bounded set of sessions.
type Pool interface {
	// Acquire returns an idle session, dials a new one when under the size
	// limit, or waits for a release until ctx is done.
	Acquire(ctx context.Context) (Resource, error)

	// AcquireAllIdle returns every idle session, for health checks.
	AcquireAllIdle() []Resource

	Close()
	Stats() PoolStats
}
