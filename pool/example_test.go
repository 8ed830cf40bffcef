package pool_test

import (
	"context"
	"fmt"
	"time"

	"github.com/pior/musicpd"
	"github.com/pior/musicpd/pool"
)

func ExampleSessions() {
	sessions, err := pool.New(pool.Config{
		Session:             musicpd.Config{Address: "localhost:6600"},
		MaxSize:             4,
		MaxConnIdleTime:     5 * time.Minute,
		HealthCheckInterval: 30 * time.Second,
		NewCircuitBreaker:   pool.NewCircuitBreakerConfig(1, time.Minute, 10*time.Second),
	})
	if err != nil {
		panic(err)
	}
	defer sessions.Close()

	ctx := context.Background()

	res, err := sessions.Execute(ctx, "status")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("state:", res.Object.PlayState())

	stats := sessions.Stats()
	fmt.Printf("sessions: %d, breaker: %s\n", stats.PoolStats.TotalConns, stats.CircuitBreakerState)
}
