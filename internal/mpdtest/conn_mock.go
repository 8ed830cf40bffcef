package mpdtest

import (
	"bytes"
	"net"
	"strings"
	"sync"
	"time"
)

// ConnMock is a net.Conn replaying a scripted daemon output and recording
// everything the client writes.
type ConnMock struct {
	mu       sync.Mutex
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
	closed   bool
}

// NewConnMock creates a mock connection that returns the concatenation of
// output to the reader.
func NewConnMock(output ...string) *ConnMock {
	return &ConnMock{
		readBuf:  bytes.NewBufferString(strings.Join(output, "")),
		writeBuf: &bytes.Buffer{},
	}
}

func (m *ConnMock) Read(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, net.ErrClosed
	}
	return m.readBuf.Read(b)
}

func (m *ConnMock) Write(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, net.ErrClosed
	}
	return m.writeBuf.Write(b)
}

func (m *ConnMock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *ConnMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6600}
}

func (m *ConnMock) SetDeadline(t time.Time) error      { return nil }
func (m *ConnMock) SetReadDeadline(t time.Time) error  { return nil }
func (m *ConnMock) SetWriteDeadline(t time.Time) error { return nil }

// Written returns the raw bytes written by the client.
func (m *ConnMock) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeBuf.String()
}

// IsClosed reports whether Close was called.
func (m *ConnMock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
