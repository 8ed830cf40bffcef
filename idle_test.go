package musicpd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pior/musicpd/internal/mpdtest"
	"github.com/pior/musicpd/proto"
)

type idleResult struct {
	changed []string
	err     error
}

// idleAsync runs Idle in a goroutine and waits until it is pending.
func idleAsync(t *testing.T, ctx context.Context, c *Client, subsystems ...string) <-chan idleResult {
	t.Helper()

	ch := make(chan idleResult, 1)
	go func() {
		changed, err := c.Idle(ctx, subsystems...)
		ch <- idleResult{changed, err}
	}()

	require.Eventually(t, func() bool {
		return c.State() == StateIdlePending
	}, 2*time.Second, time.Millisecond)
	return ch
}

func waitIdle(t *testing.T, ch <-chan idleResult) idleResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("idle did not return")
		return idleResult{}
	}
}

func TestIdle_Changed(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle")
		time.Sleep(20 * time.Millisecond)
		c.OK("changed", "playlist")
	})

	changed, err := c.Idle(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"playlist"}, changed)
	require.Equal(t, StateReady, c.State())
	require.Equal(t, uint64(1), c.Stats().Idles)
}

func TestIdle_Subsystems(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle player mixer")
		c.OK("changed", "player", "changed", "mixer")
	})

	changed, err := c.Idle(context.Background(), proto.SubsystemPlayer, proto.SubsystemMixer)
	require.NoError(t, err)
	require.Equal(t, []string{"player", "mixer"}, changed)
}

func TestIdle_NoIdle(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle")
		c.Expect("noidle")
		c.OK()
		c.Expect("status")
		c.OK("state", "stop")
	})
	ctx := context.Background()

	pending := idleAsync(t, ctx, c)

	start := time.Now()
	changed, err := c.NoIdle(ctx)
	require.NoError(t, err)
	require.Empty(t, changed)
	require.NotNil(t, changed)

	res := waitIdle(t, pending)
	require.NoError(t, res.err)
	require.Empty(t, res.changed)
	require.Less(t, time.Since(start), time.Second)

	require.Equal(t, StateReady, c.State())
	res2, err := c.Execute(ctx, "status")
	require.NoError(t, err)
	require.Equal(t, PlayStateStop, res2.Object.PlayState())
}

func TestIdle_NoIdleReturnsPendingChanges(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle")
		c.Expect("noidle")
		c.OK("changed", "options")
	})
	ctx := context.Background()

	pending := idleAsync(t, ctx, c)

	changed, err := c.NoIdle(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"options"}, changed)

	res := waitIdle(t, pending)
	require.Equal(t, []string{"options"}, res.changed)
}

func TestIdle_CommandWhilePending(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle")
		// nothing but noidle may follow idle on the wire
		c.Expect("noidle")
		c.OK()
	})
	ctx := context.Background()

	pending := idleAsync(t, ctx, c)

	var stateErr *StateError

	_, err := c.Execute(ctx, "status")
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, StateIdlePending, stateErr.State)
	require.False(t, stateErr.ShouldCloseConnection())

	_, err = c.Idle(ctx)
	require.ErrorAs(t, err, &stateErr, "repeated idle is rejected")

	_, err = c.CommandListBegin()
	require.ErrorAs(t, err, &stateErr)

	require.Equal(t, StateIdlePending, c.State())

	_, err = c.NoIdle(ctx)
	require.NoError(t, err)
	require.NoError(t, waitIdle(t, pending).err)
}

func TestNoIdle_OutsideIdle(t *testing.T) {
	t.Run("strict", func(t *testing.T) {
		c := dialTest(t, nil)

		changed, err := c.NoIdle(context.Background())
		require.Nil(t, changed)

		var stateErr *StateError
		require.ErrorAs(t, err, &stateErr)
		require.Equal(t, StateReady, stateErr.State)
	})

	t.Run("lenient", func(t *testing.T) {
		srv := mpdtest.NewServer(t, nil)
		cfg := testConfig(srv)
		cfg.LenientNoIdle = true

		c, err := Dial(context.Background(), cfg)
		require.NoError(t, err)
		defer c.Close()

		changed, err := c.NoIdle(context.Background())
		require.NoError(t, err)
		require.Nil(t, changed)
		require.Equal(t, StateReady, c.State())
	})
}

func TestIdle_ContextCancelled(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle database")
		c.Expect("noidle")
		c.OK()
		c.Expect("ping")
		c.OK()
	})

	ctx, cancel := context.WithCancel(context.Background())
	pending := idleAsync(t, ctx, c, proto.SubsystemDatabase)
	cancel()

	res := waitIdle(t, pending)
	require.ErrorIs(t, res.err, context.Canceled)
	require.Equal(t, StateReady, c.State())

	require.NoError(t, c.Ping(context.Background()))
}

func TestIdle_Ack(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle bogus")
		c.Ack(2, 0, "idle", "Unrecognized idle event: bogus")
		c.Expect("ping")
		c.OK()
	})

	_, err := c.Idle(context.Background(), "bogus")
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, StateReady, c.State())
	require.NoError(t, c.Ping(context.Background()))
}

func TestIdle_ConnectionLost(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle")
		c.Close()
	})

	_, err := c.Idle(context.Background())
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, StateDisconnected, c.State())

	_, err = c.NoIdle(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func TestRun_Idle(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle stored_playlist")
		c.OK("changed", "stored_playlist")
	})

	res, err := c.Execute(context.Background(), "idle", "stored_playlist")
	require.NoError(t, err)
	require.Equal(t, KindChanges, res.Kind)
	require.Equal(t, []string{"stored_playlist"}, res.List)
}

func TestWatch(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle player")
		c.OK("changed", "player")
		c.Expect("idle player")
		c.OK("changed", "player")
		c.Expect("idle player")
		c.Close()
	})

	var events [][]string
	err := c.Watch(context.Background(), func(changed []string) error {
		events = append(events, changed)
		return nil
	}, proto.SubsystemPlayer)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr, "a lost session ends the watch")
	require.Equal(t, [][]string{{"player"}, {"player"}}, events)
}

func TestWatch_CallbackError(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("idle")
		c.OK("changed", "mixer")
	})

	stop := errors.New("stop")
	err := c.Watch(context.Background(), func(changed []string) error {
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, StateReady, c.State())
}

func TestWatcher(t *testing.T) {
	srv := mpdtest.NewServer(t, func(c *mpdtest.Conn) {
		c.Expect("idle")
		c.OK("changed", "playlist", "changed", "player")
		c.Expect("idle")
		// Close sends noidle when the watcher is closed
		c.Expect("noidle")
		c.OK()
	})

	w, err := NewWatcher(context.Background(), testConfig(srv))
	require.NoError(t, err)

	select {
	case ev := <-w.Events:
		require.Equal(t, []string{"playlist", "player"}, ev.Changed)
		require.False(t, ev.Time.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}

	require.Eventually(t, func() bool {
		return w.Client().State() == StateIdlePending
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, w.Close())

	_, open := <-w.Events
	require.False(t, open)
	err, open = <-w.Errors
	require.False(t, open)
	require.NoError(t, err)
	require.Equal(t, StateDisconnected, w.Client().State())
}

func TestWatcher_Error(t *testing.T) {
	srv := mpdtest.NewServer(t, func(c *mpdtest.Conn) {
		c.Expect("idle")
		c.Close()
	})

	w, err := NewWatcher(context.Background(), testConfig(srv))
	require.NoError(t, err)
	defer w.Close()

	select {
	case err := <-w.Errors:
		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
	case <-time.After(2 * time.Second):
		t.Fatal("no error")
	}

	_, open := <-w.Events
	require.False(t, open)
}

func TestRun_IdleRejectsNonStringSubsystem(t *testing.T) {
	done := make(chan struct{})
	c := dialTest(t, func(c *mpdtest.Conn) {
		defer close(done)
		c.ExpectNothing(100 * time.Millisecond)
	})

	_, err := c.Execute(context.Background(), "idle", 5)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, StateReady, c.State())
	<-done
}
