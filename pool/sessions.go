package pool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/musicpd"
)

// Config holds the configuration of a session pool.
type Config struct {
	// Session is used to dial every session of the pool.
	Session musicpd.Config

	// MaxSize is the maximum number of sessions.
	// Defaults to 4.
	MaxSize int32

	// MaxConnLifetime is the maximum duration a session can be reused.
	// Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a session can stay idle in
	// the pool before being closed. Zero means no limit.
	MaxConnIdleTime time.Duration

	// HealthCheckInterval is how often idle sessions are pinged.
	// Zero disables health checks.
	HealthCheckInterval time.Duration

	// NewPool is the pool factory.
	// If nil, NewChannelPool is used.
	NewPool func(constructor Constructor, maxSize int32) (Pool, error)

	// NewCircuitBreaker creates the circuit breaker of the pool.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(addr string) *CircuitBreaker

	// for testing purposes only
	constructor Constructor
}

// Sessions runs functions on pooled sessions to one daemon.
type Sessions struct {
	addr           string
	pool           Pool
	circuitBreaker *CircuitBreaker
	log            *slog.Logger

	maxConnLifetime time.Duration
	maxConnIdleTime time.Duration

	stopHealthCheck chan struct{}
	closeOnce       sync.Once
	wg              sync.WaitGroup
}

// New creates a session pool. Sessions are dialed on demand.
func New(config Config) (*Sessions, error) {
	if config.MaxSize == 0 {
		config.MaxSize = 4
	}

	newPool := config.NewPool
	if newPool == nil {
		newPool = NewChannelPool
	}

	constructor := config.constructor
	if constructor == nil {
		sessionConfig := config.Session
		constructor = func(ctx context.Context) (*musicpd.Client, error) {
			return musicpd.Dial(ctx, sessionConfig)
		}
	}

	pool, err := newPool(constructor, config.MaxSize)
	if err != nil {
		return nil, err
	}

	addr := config.Session.Address
	if addr == "" {
		addr = musicpd.DefaultAddress
	}

	log := config.Session.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := &Sessions{
		addr:            addr,
		pool:            pool,
		log:             log,
		maxConnLifetime: config.MaxConnLifetime,
		maxConnIdleTime: config.MaxConnIdleTime,
		stopHealthCheck: make(chan struct{}),
	}
	if config.NewCircuitBreaker != nil {
		s.circuitBreaker = config.NewCircuitBreaker(addr)
	}

	if config.HealthCheckInterval > 0 {
		s.wg.Add(1)
		go s.healthCheckLoop(config.HealthCheckInterval)
	}

	return s, nil
}

// Address returns the daemon address.
func (s *Sessions) Address() string {
	return s.addr
}

// Exec runs fn with a session of the pool.
//
// fn must leave the session READY: a session left idle, in a command list
// or disconnected is destroyed instead of being returned to the pool.
// The error of fn is returned as is.
func (s *Sessions) Exec(ctx context.Context, fn func(client *musicpd.Client) error) error {
	if s.circuitBreaker == nil {
		return s.execDirect(ctx, fn)
	}

	_, err := s.circuitBreaker.Execute(func() (*musicpd.Result, error) {
		return nil, s.execDirect(ctx, fn)
	})
	return err
}

// Execute runs one command on a pooled session.
func (s *Sessions) Execute(ctx context.Context, name string, args ...any) (*musicpd.Result, error) {
	var res *musicpd.Result
	err := s.Exec(ctx, func(client *musicpd.Client) error {
		var err error
		res, err = client.Execute(ctx, name, args...)
		return err
	})
	return res, err
}

func (s *Sessions) execDirect(ctx context.Context, fn func(client *musicpd.Client) error) error {
	resource, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	client := resource.Value()
	err = fn(client)

	if client.State() != musicpd.StateReady {
		s.log.Debug("mpd pool: destroying session", "state", client.State().String(), "error", err)
		resource.Destroy()
		return err
	}

	resource.Release()
	return err
}

// Stats contains the statistics of a session pool.
type Stats struct {
	Addr                 string
	PoolStats            PoolStats
	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

func (s *Sessions) Stats() Stats {
	stats := Stats{
		Addr:      s.addr,
		PoolStats: s.pool.Stats(),
	}
	if s.circuitBreaker != nil {
		stats.CircuitBreakerState = s.circuitBreaker.State()
		stats.CircuitBreakerCounts = s.circuitBreaker.Counts()
	}
	return stats
}

// Close stops health checks and closes every session.
// Borrowed sessions are closed when released.
func (s *Sessions) Close() {
	s.closeOnce.Do(func() {
		close(s.stopHealthCheck)
		s.wg.Wait()
		s.pool.Close()
	})
}

// healthCheckLoop periodically checks idle sessions.
func (s *Sessions) healthCheckLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopHealthCheck:
			return
		case <-ticker.C:
			s.checkIdleSessions(interval)
		}
	}
}

// checkIdleSessions destroys idle sessions that are too old, idle for too
// long or that do not answer ping.
func (s *Sessions) checkIdleSessions(timeout time.Duration) {
	now := time.Now()

	for _, res := range s.pool.AcquireAllIdle() {
		if s.maxConnLifetime > 0 && now.Sub(res.CreationTime()) > s.maxConnLifetime {
			res.Destroy()
			continue
		}

		if s.maxConnIdleTime > 0 && res.IdleDuration() > s.maxConnIdleTime {
			res.Destroy()
			continue
		}

		if err := s.healthCheck(res.Value(), timeout); err != nil {
			s.log.Debug("mpd pool: health check failed", "error", err)
			res.Destroy()
			continue
		}

		res.ReleaseUnused()
	}
}

func (s *Sessions) healthCheck(client *musicpd.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Ping(ctx)
}
