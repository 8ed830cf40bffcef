package main

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pior/musicpd"
	"github.com/pior/musicpd/internal/mpdtest"
	"github.com/pior/musicpd/pool"
)

func dialHub(t *testing.T, h *hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })

	require.Eventually(t, func() bool { return h.count() == 1 }, 2*time.Second, time.Millisecond)
	return conn
}

func TestHub_Publish(t *testing.T) {
	h := newHub(slog.New(slog.DiscardHandler))
	conn := dialHub(t, h)

	h.publish(message{Changed: []string{"player"}, Time: time.Now(), Status: musicpd.Record{"state": "play"}})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	require.Equal(t, []any{"player"}, got["changed"])
	require.Equal(t, map[string]any{"state": "play"}, got["status"])
}

func TestHub_Unsubscribe(t *testing.T) {
	h := newHub(slog.New(slog.DiscardHandler))
	conn := dialHub(t, h)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool { return h.count() == 0 }, 2*time.Second, time.Millisecond)
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h := newHub(slog.New(slog.DiscardHandler))
	ch := h.subscribe()

	for range subscriberBuffer + 1 {
		h.publish(message{Changed: []string{"mixer"}})
	}
	require.Equal(t, 0, h.count())

	n := 0
	for range ch {
		n++
	}
	require.Equal(t, subscriberBuffer, n)

	h.unsubscribe(ch)
}

func TestWatchOnce(t *testing.T) {
	srv := mpdtest.NewServer(t, func(c *mpdtest.Conn) {
		line, err := c.ReadLine()
		if err != nil {
			return
		}
		switch line {
		case "idle player":
			c.OK("changed", "player")
			c.Expect("idle player")
			c.Close()
		case "status":
			c.OK("state", "pause", "volume", "30")
			c.Expect("close")
		}
	})
	cfg := musicpd.Config{Address: srv.Addr(), DialTimeout: time.Second, ReadTimeout: time.Second}

	sessions, err := pool.New(pool.Config{Session: cfg})
	require.NoError(t, err)
	defer sessions.Close()

	h := newHub(slog.New(slog.DiscardHandler))
	ch := h.subscribe()
	m := newMetrics(h, sessions)

	err = watchOnce(context.Background(), cfg, []string{"player"}, sessions, h, m)
	var connErr *musicpd.ConnectionError
	require.ErrorAs(t, err, &connErr)

	select {
	case msg := <-ch:
		require.Equal(t, []string{"player"}, msg.Changed)
		require.Equal(t, musicpd.PlayStatePause, msg.Status.PlayState())
	default:
		t.Fatal("no message published")
	}

	require.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("player")))
}

func TestMetrics_Handler(t *testing.T) {
	sessions, err := pool.New(pool.Config{Session: musicpd.Config{Address: "127.0.0.1:1"}})
	require.NoError(t, err)
	defer sessions.Close()

	m := newMetrics(newHub(slog.New(slog.DiscardHandler)), sessions)
	m.recordChanges([]string{"mixer", "mixer"})

	rec := httptest.NewRecorder()
	m.handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	require.Contains(t, body, `mpdwatch_changes_total{subsystem="mixer"} 2`)
	require.Contains(t, body, "mpdwatch_subscribers 0")
	require.Contains(t, body, `mpdwatch_pool_sessions{server="127.0.0.1:1"} 0`)
	require.Contains(t, body, `mpdwatch_pool_acquire_wait_seconds{server="127.0.0.1:1"} 0`)
	require.Contains(t, body, `mpdwatch_pool_sessions_destroyed{server="127.0.0.1:1"} 0`)
}
