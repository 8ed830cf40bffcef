// Package mpdtest provides a scripted fake daemon for session tests.
package mpdtest

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// DefaultGreeting is sent to every client unless WithGreeting is used.
const DefaultGreeting = "OK MPD 0.23.5\n"

// lineTimeout bounds the wait for a line from the client.
const lineTimeout = 5 * time.Second

// closeGrace is how long Close lets handlers finish their script, so that
// lines written by a client right before the test ends are still read.
const closeGrace = time.Second

// Server is a TCP loopback listener running a handler per connection.
type Server struct {
	t        testing.TB
	ln       net.Listener
	greeting string
	handler  func(*Conn)

	wg     sync.WaitGroup
	mu     sync.Mutex
	conns  []net.Conn
	closed bool
}

// Option configures a Server.
type Option func(*Server)

// WithGreeting replaces the greeting line, sent as is.
func WithGreeting(greeting string) Option {
	return func(s *Server) {
		s.greeting = greeting
	}
}

// NewServer starts a server running handler for each accepted connection,
// after the greeting. The server is closed with the test.
func NewServer(t testing.TB, handler func(*Conn), opts ...Option) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("mpdtest: listen: %v", err)
	}

	s := &Server{
		t:        t,
		ln:       ln,
		greeting: DefaultGreeting,
		handler:  handler,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.acceptLoop()

	t.Cleanup(s.Close)
	return s
}

// Addr returns the host:port of the listener.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = nc.Close()
			return
		}
		s.conns = append(s.conns, nc)
		s.wg.Add(1)
		s.mu.Unlock()

		go s.serve(nc)
	}
}

func (s *Server) serve(nc net.Conn) {
	defer s.wg.Done()
	defer nc.Close()

	c := &Conn{t: s.t, conn: nc, r: bufio.NewReader(nc)}
	if s.greeting != "" {
		c.Send(s.greeting)
	}
	if s.handler != nil {
		s.handler(c)
	}
}

// Close stops the listener and waits for the handlers to return. Connections
// still open after closeGrace are closed to unblock their handlers.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.ln.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(closeGrace):
	}

	s.mu.Lock()
	conns := s.conns
	s.mu.Unlock()
	for _, nc := range conns {
		_ = nc.Close()
	}
	<-done
}

// Conn is the daemon side of one client connection.
type Conn struct {
	t    testing.TB
	conn net.Conn
	r    *bufio.Reader
}

// ReadLine returns the next line sent by the client, without terminator.
func (c *Conn) ReadLine() (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(lineTimeout))
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// Expect reads the next line and checks it is want.
func (c *Conn) Expect(want string) bool {
	line, err := c.ReadLine()
	if !assert.NoError(c.t, err, "mpdtest: waiting for %q", want) {
		return false
	}
	return assert.Equal(c.t, want, line)
}

// ExpectNothing checks that the client sends nothing during d.
func (c *Conn) ExpectNothing(d time.Duration) bool {
	_ = c.conn.SetReadDeadline(time.Now().Add(d))
	line, err := c.r.ReadString('\n')

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() && line == "" {
		return true
	}
	return assert.Fail(c.t, "mpdtest: unexpected data from client", "%q (err=%v)", line, err)
}

// Send writes raw data to the client.
func (c *Conn) Send(data string) {
	_, err := c.conn.Write([]byte(data))
	assert.NoError(c.t, err, "mpdtest: send")
}

// SendBytes writes raw bytes to the client.
func (c *Conn) SendBytes(data []byte) {
	_, err := c.conn.Write(data)
	assert.NoError(c.t, err, "mpdtest: send")
}

// OK sends the pairs, given as alternating keys and values, then "OK".
func (c *Conn) OK(kv ...string) {
	c.Send(Pairs(kv...) + "OK\n")
}

// Ack sends an ACK line.
func (c *Conn) Ack(code, index int, command, message string) {
	c.Send(fmt.Sprintf("ACK [%d@%d] {%s} %s\n", code, index, command, message))
}

// Close closes the connection from the daemon side.
func (c *Conn) Close() {
	_ = c.conn.Close()
}

// Pairs formats alternating keys and values as response lines.
func Pairs(kv ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteString(kv[i])
		b.WriteString(": ")
		b.WriteString(kv[i+1])
		b.WriteString("\n")
	}
	return b.String()
}
