package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/pior/musicpd"
)

// message is sent to subscribers for every idle wake-up.
type message struct {
	Changed []string       `json:"changed"`
	Time    time.Time      `json:"time"`
	Status  musicpd.Record `json:"status,omitempty"`
}

// subscriberBuffer bounds the messages queued for a slow subscriber before
// it is dropped.
const subscriberBuffer = 16

// hub fans messages out to WebSocket subscribers.
type hub struct {
	log *slog.Logger

	mu   sync.Mutex
	subs map[chan message]struct{}
}

func newHub(log *slog.Logger) *hub {
	return &hub{log: log, subs: make(map[chan message]struct{})}
}

func (h *hub) subscribe() chan message {
	ch := make(chan message, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// publish never blocks: a subscriber with a full queue is disconnected.
func (h *hub) publish(msg message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.log.Warn("mpdwatch: dropping slow subscriber")
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request and streams messages until the client
// goes away.
func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn("mpdwatch: websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	// Subscribers only listen; CloseRead handles control frames and
	// cancels ctx when the peer closes.
	ctx := conn.CloseRead(r.Context())

	h.log.Debug("mpdwatch: subscriber connected", "remote", r.RemoteAddr)

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusPolicyViolation, "too slow")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, msg)
			cancel()
			if err != nil {
				h.log.Debug("mpdwatch: subscriber write failed", "error", err)
				return
			}
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}
