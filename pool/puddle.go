package pool

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jackc/puddle/v2"

	"github.com/pior/musicpd"
)

// NewPuddlePool creates a pool of sessions backed by puddle.
func NewPuddlePool(constructor Constructor, maxSize int32) (Pool, error) {
	if maxSize <= 0 {
		return nil, errInvalidSize
	}

	p := &puddlePool{}

	pool, err := puddle.NewPool(&puddle.Config[*musicpd.Client]{
		Constructor: func(ctx context.Context) (*musicpd.Client, error) {
			client, err := constructor(ctx)
			if err == nil {
				p.createdConns.Add(1)
			}
			return client, err
		},
		Destructor: func(client *musicpd.Client) {
			p.destroyedConns.Add(1)
			_ = client.Close()
		},
		MaxSize: maxSize,
	})
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// puddlePool wraps puddle.Pool to implement Pool.
type puddlePool struct {
	pool           *puddle.Pool[*musicpd.Client]
	createdConns   atomic.Int64
	destroyedConns atomic.Int64
}

func (p *puddlePool) Acquire(ctx context.Context) (Resource, error) {
	res, err := p.pool.Acquire(ctx)
	if errors.Is(err, puddle.ErrClosedPool) {
		return nil, ErrPoolClosed
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *puddlePool) AcquireAllIdle() []Resource {
	idle := p.pool.AcquireAllIdle()
	resources := make([]Resource, len(idle))
	for i, res := range idle {
		resources[i] = res
	}
	return resources
}

func (p *puddlePool) Close() {
	p.pool.Close()
}

// Stats maps puddle's counters to PoolStats.
func (p *puddlePool) Stats() PoolStats {
	s := p.pool.Stat()

	return PoolStats{
		TotalConns:       s.TotalResources(),
		IdleConns:        s.IdleResources(),
		ActiveConns:      s.AcquiredResources(),
		AcquireCount:     uint64(s.AcquireCount()),
		AcquireWaitCount: uint64(s.EmptyAcquireCount()),
		AcquireWaitTime:  s.EmptyAcquireWaitTime(),
		AcquireErrors:    uint64(s.CanceledAcquireCount()),
		CreatedConns:     uint64(p.createdConns.Load()),
		DestroyedConns:   uint64(p.destroyedConns.Load()),
	}
}
