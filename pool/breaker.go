package pool

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/musicpd"
	"github.com/pior/musicpd/proto"
)

// CircuitBreaker guards the exchanges of a pool.
type CircuitBreaker = gobreaker.CircuitBreaker[*musicpd.Result]

// NewCircuitBreakerConfig returns a function that creates the circuit
// breaker of a pool.
//
// Only failures that cost a session (transport or protocol errors, failed
// dials, deadlines) count against the daemon. An ACK is a valid answer, and
// so are local misuse errors and a cancelled context.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(addr string) *CircuitBreaker {
	return func(addr string) *CircuitBreaker {
		return gobreaker.NewCircuitBreaker[*musicpd.Result](gobreaker.Settings{
			Name:        addr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: isSuccessful,
		})
	}
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return !proto.ShouldCloseConnection(err)
}
