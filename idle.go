package musicpd

import (
	"context"
	"time"

	"github.com/pior/musicpd/proto"
)

// noIdleTimeout bounds the noidle exchange when no timeout is configured.
const noIdleTimeout = 5 * time.Second

// idleWait is a pending idle. Fields other than done are written by the
// goroutine blocked in Idle before done is closed.
type idleWait struct {
	done chan struct{}

	// guarded by Client.mu
	noidleSent bool
	cancelled  bool

	changed []string
	err     error
}

// Idle waits until one of the subsystems changes and returns the names of
// the changed subsystems. Without subsystems, any change ends the wait.
//
// No read timeout applies while waiting. The wait ends early when NoIdle is
// called from another goroutine, in which case the changed set may be empty,
// or when ctx is done: Idle then sends noidle itself, reads the daemon answer
// and returns ctx.Err() with the session ready for the next command.
//
// While idle is pending every other command fails with StateError, and so
// does a second Idle.
func (c *Client) Idle(ctx context.Context, subsystems ...string) ([]string, error) {
	args := make([]any, len(subsystems))
	for i, s := range subsystems {
		args[i] = s
	}
	cmd, err := proto.NewCommand(proto.CmdIdle, args...)
	if err != nil {
		return nil, err
	}

	w, err := c.startIdle(ctx, cmd)
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() { c.cancelIdle(w) })
	resp, err := c.conn.ReadResponse()
	stop()

	c.finishIdle(w, resp, err)

	if w.cancelled {
		return nil, ctx.Err()
	}
	return w.changed, w.err
}

func (c *Client) startIdle(ctx context.Context, cmd proto.Command) (*idleWait, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch st := c.State(); st {
	case StateReady:
	case StateDisconnected:
		return nil, ErrClosed
	default:
		return nil, &StateError{Op: proto.CmdIdle, State: st}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_ = c.conn.SetWriteDeadline(deadline(ctx, c.cfg.WriteTimeout))
	if err := c.conn.WriteCommands(cmd); err != nil {
		if proto.ShouldCloseConnection(err) {
			c.failLocked(err)
		}
		return nil, err
	}
	_ = c.conn.SetReadDeadline(time.Time{})

	w := &idleWait{done: make(chan struct{})}
	c.idle = w
	c.setState(StateIdlePending)
	c.log.Debug("mpd idle", "command", cmd.String())
	return w, nil
}

func (c *Client) finishIdle(w *idleWait, resp *proto.Response, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(w.done)

	if c.idle == w {
		c.idle = nil
	}

	switch {
	case err == nil:
		w.changed = resp.Values("changed")
		if w.changed == nil {
			w.changed = []string{}
		}
		c.stats.recordIdle()
		if c.State() == StateIdlePending {
			c.setState(StateReady)
		}
		c.log.Debug("mpd idle done", "changed", w.changed)

	case proto.ShouldCloseConnection(err):
		w.err = err
		c.failLocked(err)

	default:
		w.err = err
		c.stats.recordAck()
		if c.State() == StateIdlePending {
			c.setState(StateReady)
		}
	}
}

// cancelIdle ends a pending idle when its context is done.
func (c *Client) cancelIdle(w *idleWait) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.idle != w {
		return
	}
	w.cancelled = true
	if w.noidleSent {
		return
	}

	if err := c.sendNoIdleLocked(w); err != nil {
		c.conn.Interrupt()
		return
	}
	// a daemon that does not answer noidle must not block forever
	timeout := noIdleTimeout
	if c.cfg.ReadTimeout > 0 {
		timeout = c.cfg.ReadTimeout
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
}

// NoIdle ends the pending idle and returns the changed subsystems it
// reported, the same set the blocked Idle call returns (possibly empty).
//
// Outside of a pending idle, NoIdle fails with StateError, or does nothing
// when Config.LenientNoIdle is set.
func (c *Client) NoIdle(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	w := c.idle
	st := c.State()
	if w == nil || st != StateIdlePending {
		c.mu.Unlock()
		if st == StateDisconnected {
			return nil, ErrClosed
		}
		if c.cfg.LenientNoIdle {
			return nil, nil
		}
		return nil, &StateError{Op: proto.CmdNoIdle, State: st}
	}

	if !w.noidleSent {
		if err := c.sendNoIdleLocked(w); err != nil {
			c.mu.Unlock()
			c.conn.Interrupt()
			return nil, err
		}
	}
	c.mu.Unlock()

	select {
	case <-w.done:
		return w.changed, w.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) sendNoIdleLocked(w *idleWait) error {
	timeout := noIdleTimeout
	if c.cfg.WriteTimeout > 0 {
		timeout = c.cfg.WriteTimeout
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	if err := c.conn.WriteLine(proto.CmdNoIdle); err != nil {
		return err
	}
	w.noidleSent = true
	return nil
}

// Watch runs idle in a loop and calls fn with each set of changed
// subsystems. It returns the first error of Idle or fn. A failed session is
// not reconnected.
func (c *Client) Watch(ctx context.Context, fn func(changed []string) error, subsystems ...string) error {
	for {
		changed, err := c.Idle(ctx, subsystems...)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			continue
		}
		if err := fn(changed); err != nil {
			return err
		}
	}
}
