// Command mpdwatch watches MPD subsystems and pushes every change to
// WebSocket subscribers as JSON, together with the player status.
// Prometheus metrics are served on /metrics.
//
//	mpdwatch --listen :6680 player mixer options
//
// The watch session reconnects when the daemon goes away.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/pior/musicpd"
	"github.com/pior/musicpd/pool"
)

func main() {
	var (
		address   string
		password  string
		listen    string
		reconnect time.Duration
		verbose   bool
	)

	flag.StringVarP(&address, "address", "a", "", "host:port, socket path or @abstract (default from MPD_HOST/MPD_PORT)")
	flag.StringVar(&password, "password", "", "password (default from MPD_HOST)")
	flag.StringVarP(&listen, "listen", "l", "localhost:6680", "WebSocket listen address")
	flag.DurationVar(&reconnect, "reconnect", 2*time.Second, "delay before reconnecting to the daemon")
	flag.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := musicpd.ConfigFromEnv()
	if address != "" {
		cfg.Network = ""
		cfg.Address = address
	}
	if password != "" {
		cfg.Password = password
	}
	cfg.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, listen, reconnect, flag.Args(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "mpdwatch: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg musicpd.Config, listen string, reconnect time.Duration, subsystems []string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}

	sessions, err := pool.New(pool.Config{
		Session:             cfg,
		MaxSize:             2,
		HealthCheckInterval: time.Minute,
		NewCircuitBreaker:   pool.NewCircuitBreakerConfig(1, time.Minute, reconnect),
	})
	if err != nil {
		return err
	}
	defer sessions.Close()

	h := newHub(logger)
	m := newMetrics(h, sessions)

	mux := http.NewServeMux()
	mux.Handle("/", h)
	mux.Handle("/metrics", m.handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	logger.Info("mpdwatch: listening", "address", ln.Addr().String())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return watchLoop(ctx, cfg, subsystems, reconnect, sessions, h, m, logger)
	})

	return g.Wait()
}

// watchLoop publishes changes until ctx is done, redialing the watch
// session after failures.
func watchLoop(ctx context.Context, cfg musicpd.Config, subsystems []string, reconnect time.Duration, sessions *pool.Sessions, h *hub, m *metrics, logger *slog.Logger) error {
	for {
		err := watchOnce(ctx, cfg, subsystems, sessions, h, m)
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("mpdwatch: watch ended, reconnecting", "error", err, "delay", reconnect)
		m.reconnects.Inc()

		select {
		case <-time.After(reconnect):
		case <-ctx.Done():
			return nil
		}
	}
}

func watchOnce(ctx context.Context, cfg musicpd.Config, subsystems []string, sessions *pool.Sessions, h *hub, m *metrics) error {
	w, err := musicpd.NewWatcher(ctx, cfg, subsystems...)
	if err != nil {
		return err
	}
	defer w.Close()

	for ev := range w.Events {
		m.recordChanges(ev.Changed)
		msg := message{Changed: ev.Changed, Time: ev.Time}

		// the watch session is blocked in idle, status comes from the pool
		if res, err := sessions.Execute(ctx, "status"); err == nil {
			msg.Status = res.Object
		}

		h.publish(msg)
	}

	return <-w.Errors
}
