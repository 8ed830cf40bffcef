package musicpd

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pior/musicpd/proto"
)

// Connection is the line transport of a session: it owns the socket and
// exposes blocking line, exact-length and write primitives.
//
// Reads and writes may happen concurrently from two goroutines (the socket
// is full duplex), but two concurrent reads or two concurrent writes are not
// allowed. Client enforces this.
type Connection struct {
	addr   string
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	closed atomic.Bool
}

// NewConnection wraps an established net.Conn.
func NewConnection(conn net.Conn) *Connection {
	addr := ""
	if ra := conn.RemoteAddr(); ra != nil {
		addr = ra.String()
	}
	return &Connection{
		addr:   addr,
		conn:   conn,
		reader: bufio.NewReaderSize(conn, proto.ReadBufferSize),
		writer: bufio.NewWriter(conn),
	}
}

// Addr returns the remote address.
func (c *Connection) Addr() string {
	return c.addr
}

// ReadLine returns the next line without its terminator.
func (c *Connection) ReadLine() (string, error) {
	return proto.ReadLine(c.reader)
}

// ReadExact returns exactly n raw bytes.
func (c *Connection) ReadExact(n int) ([]byte, error) {
	return proto.ReadExact(c.reader, n)
}

// ReadResponse reads one response up to its terminal line.
func (c *Connection) ReadResponse() (*proto.Response, error) {
	return proto.ReadResponse(c.reader)
}

// ReadListResponses reads the response of a command_list_ok_begin batch.
func (c *Connection) ReadListResponses() ([]*proto.Response, error) {
	return proto.ReadListResponses(c.reader)
}

// WriteLine writes a raw line, adding the terminator if missing.
func (c *Connection) WriteLine(line string) error {
	buf := []byte(line)
	if len(buf) == 0 || buf[len(buf)-1] != proto.LineTerminator {
		buf = append(buf, proto.LineTerminator)
	}
	return c.write(buf)
}

// encodeBuffers holds command encoding buffers between writes.
var encodeBuffers = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 256)
		return &buf
	},
}

// WriteCommands encodes all commands and sends them with a single flush.
// When one of them cannot be encoded, nothing is written.
func (c *Connection) WriteCommands(cmds ...proto.Command) error {
	bufp := encodeBuffers.Get().(*[]byte)
	buf := (*bufp)[:0]
	defer func() {
		*bufp = buf[:0]
		encodeBuffers.Put(bufp)
	}()

	for _, cmd := range cmds {
		var err error
		buf, err = proto.AppendCommand(buf, cmd)
		if err != nil {
			return err
		}
		buf = append(buf, proto.LineTerminator)
	}
	return c.write(buf)
}

// write sends buf completely. bufio.Writer keeps writing until every byte
// is accepted or the socket reports an error.
func (c *Connection) write(buf []byte) error {
	if c.closed.Load() {
		return &proto.ConnectionError{Op: "write", Err: net.ErrClosed}
	}
	if _, err := c.writer.Write(buf); err != nil {
		return &proto.ConnectionError{Op: "write", Err: err}
	}
	if err := c.writer.Flush(); err != nil {
		return &proto.ConnectionError{Op: "write", Err: err}
	}
	return nil
}

// SetReadDeadline sets the deadline for subsequent reads.
// A zero value disables the deadline.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the deadline for subsequent writes.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// Interrupt makes a blocked read return with a timeout error.
func (c *Connection) Interrupt() {
	_ = c.conn.SetReadDeadline(time.Unix(1, 0))
}

// IsClosed returns whether the connection is closed
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// Close closes the connection. Closing twice is not an error.
func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}
