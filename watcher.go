package musicpd

import (
	"context"
	"time"
)

// Event is one idle wake-up.
type Event struct {
	Changed []string
	Time    time.Time
}

// Watcher watches subsystems on a dedicated session and delivers changes on
// the Events channel. Both channels are closed when the watch ends; Errors
// receives at most one error, the one that ended the watch.
type Watcher struct {
	Events <-chan Event
	Errors <-chan error

	client *Client
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher dials a session and starts watching the subsystems (all of
// them when none is given). The watch stops when ctx is done or Close is
// called.
func NewWatcher(ctx context.Context, cfg Config, subsystems ...string) (*Watcher, error) {
	client, err := Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newWatcher(ctx, client, subsystems), nil
}

func newWatcher(ctx context.Context, client *Client, subsystems []string) *Watcher {
	ctx, cancel := context.WithCancel(ctx)

	events := make(chan Event)
	errs := make(chan error, 1)
	w := &Watcher{
		Events: events,
		Errors: errs,
		client: client,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(w.done)
		defer close(errs)
		defer close(events)
		defer func() { _ = client.Close() }()

		err := client.Watch(ctx, func(changed []string) error {
			select {
			case events <- Event{Changed: changed, Time: time.Now()}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}, subsystems...)

		if err != nil && ctx.Err() == nil {
			client.log.Warn("mpd watch stopped", "error", err)
			errs <- err
		}
	}()

	return w
}

// Client returns the session used by the watcher.
// Commands sent on it fail with StateError while idle is pending.
func (w *Watcher) Client() *Client {
	return w.client
}

// Close stops the watch and closes the session.
func (w *Watcher) Close() error {
	w.cancel()
	<-w.done
	return nil
}
