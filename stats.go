package musicpd

import (
	"sync/atomic"
)

// SessionStats contains statistics about the exchanges of one session.
// All fields are safe for concurrent access.
//
// For Prometheus integration, expose these as counters.
type SessionStats struct {
	Commands     uint64 // Commands sent outside of command lists
	CommandLists uint64 // Command lists sent
	Idles        uint64 // Completed idle waits
	Acks         uint64 // ACK responses from the daemon
	Errors       uint64 // Errors that closed the session
	BinaryBytes  uint64 // Bytes received in binary segments
}

// sessionStatsCollector provides internal methods for updating session stats.
// Not exported - the client updates its own stats.
type sessionStatsCollector struct {
	stats SessionStats
}

func (c *sessionStatsCollector) recordCommand() {
	atomic.AddUint64(&c.stats.Commands, 1)
}

func (c *sessionStatsCollector) recordCommandList() {
	atomic.AddUint64(&c.stats.CommandLists, 1)
}

func (c *sessionStatsCollector) recordIdle() {
	atomic.AddUint64(&c.stats.Idles, 1)
}

func (c *sessionStatsCollector) recordAck() {
	atomic.AddUint64(&c.stats.Acks, 1)
}

func (c *sessionStatsCollector) recordError() {
	atomic.AddUint64(&c.stats.Errors, 1)
}

func (c *sessionStatsCollector) recordBinary(n int) {
	atomic.AddUint64(&c.stats.BinaryBytes, uint64(n))
}

func (c *sessionStatsCollector) snapshot() SessionStats {
	return SessionStats{
		Commands:     atomic.LoadUint64(&c.stats.Commands),
		CommandLists: atomic.LoadUint64(&c.stats.CommandLists),
		Idles:        atomic.LoadUint64(&c.stats.Idles),
		Acks:         atomic.LoadUint64(&c.stats.Acks),
		Errors:       atomic.LoadUint64(&c.stats.Errors),
		BinaryBytes:  atomic.LoadUint64(&c.stats.BinaryBytes),
	}
}
