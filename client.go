package musicpd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pior/musicpd/proto"
)

// Client is a session with one daemon over a dedicated connection.
//
// The protocol has a single outstanding request per connection: Client
// serializes exchanges with an internal mutex, so it is safe for concurrent
// use. The exceptions are Idle, which releases the session while it waits
// and makes every other command fail with StateError until NoIdle is called,
// and CommandList, which must be used by one goroutine.
//
// A transport or protocol failure closes the session for good. There is no
// reconnection: dial a new Client.
type Client struct {
	cfg     Config
	log     *slog.Logger
	conn    *Connection
	version proto.Version

	// mu serializes writes and request/response exchanges.
	mu    sync.Mutex
	state atomic.Int32
	list  *CommandList
	idle  *idleWait

	stats sessionStatsCollector
}

// Dial connects to the daemon named by cfg, reads the greeting and
// authenticates when a password is configured.
//
// Go errors returned:
//   - ConnectionError: refused, timeout, DNS failure or invalid greeting
//   - CommandError: the daemon rejected the password or binarylimit
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	network, addr := cfg.network()

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	netConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Err: err}
	}

	return NewClient(ctx, netConn, cfg)
}

// NewClient runs the session handshake on an established connection.
// The connection is closed when the handshake fails.
func NewClient(ctx context.Context, netConn net.Conn, cfg Config) (*Client, error) {
	c := &Client{
		cfg:  cfg,
		log:  cfg.logger(),
		conn: NewConnection(netConn),
	}
	c.setState(StateConnecting)

	if err := c.handshake(ctx); err != nil {
		c.setState(StateDisconnected)
		_ = c.conn.Close()
		return nil, err
	}

	c.setState(StateReady)
	c.log.Debug("mpd connected", "addr", c.conn.Addr(), "version", c.version.String())
	return c, nil
}

func (c *Client) handshake(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetReadDeadline(deadline(ctx, c.cfg.ReadTimeout))
	stop := afterFuncWait(ctx, c.conn.Interrupt)
	line, err := c.conn.ReadLine()
	stop()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &ConnectionError{Op: "handshake", Err: ctxErr}
		}
		return err
	}

	c.version, err = proto.ParseGreeting(line)
	if err != nil {
		return &ConnectionError{Op: "handshake", Err: err}
	}

	if c.cfg.Password != "" {
		if _, err := c.roundTripLocked(ctx, proto.MustCommand(proto.CmdPassword, c.cfg.Password)); err != nil {
			return err
		}
	}

	if c.cfg.BinaryChunkLimit > 0 {
		if _, err := c.roundTripLocked(ctx, proto.MustCommand(proto.CmdBinaryLimit, c.cfg.BinaryChunkLimit)); err != nil {
			return err
		}
	}

	return nil
}

// Version returns the protocol version announced by the daemon.
func (c *Client) Version() proto.Version {
	return c.version
}

// Addr returns the address of the daemon.
func (c *Client) Addr() string {
	return c.conn.Addr()
}

// State returns the current session state.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Stats returns a snapshot of the session counters.
func (c *Client) Stats() SessionStats {
	return c.stats.snapshot()
}

// Execute sends one command and returns its decoded result.
// Arguments are strings, integers, floats or proto.Range values.
//
// Go errors returned:
//   - CommandError: the daemon answered with ACK, the session is still usable
//   - EncodingError: invalid argument or arity, nothing was sent
//   - StateError: idle is pending, nothing was sent
//   - CommandListError: a command list is open, nothing was sent
//   - ConnectionError, ProtocolError: the session is closed
func (c *Client) Execute(ctx context.Context, name string, args ...any) (*Result, error) {
	cmd, err := proto.NewCommand(name, args...)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, cmd)
}

// Run is Execute with a prepared command.
func (c *Client) Run(ctx context.Context, cmd proto.Command) (*Result, error) {
	switch cmd.Name {
	case proto.CmdIdle:
		subsystems := make([]string, len(cmd.Args))
		for i, a := range cmd.Args {
			if a.Kind() != proto.ArgString {
				return nil, &EncodingError{Message: "idle: subsystem must be a string, got " + a.Kind().String(), Value: a}
			}
			subsystems[i] = a.Str()
		}
		changed, err := c.Idle(ctx, subsystems...)
		if err != nil {
			return nil, err
		}
		return &Result{Command: cmd.Name, Kind: KindChanges, List: changed}, nil

	case proto.CmdNoIdle:
		changed, err := c.NoIdle(ctx)
		if err != nil {
			return nil, err
		}
		return &Result{Command: cmd.Name, Kind: KindChanges, List: changed}, nil

	case proto.CmdCommandListBegin, proto.CmdCommandListOKBegin, proto.CmdCommandListEnd:
		return nil, &CommandListError{Message: cmd.Name + " must be sent with CommandListBegin or CommandListOKBegin"}

	case proto.CmdClose:
		return &Result{Command: cmd.Name, Kind: KindNothing}, c.Close()
	}

	spec, known := lookupCommand(cmd.Name)
	if err := spec.checkArgs(cmd); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReadyLocked(cmd.Name); err != nil {
		return nil, err
	}

	resp, err := c.roundTripLocked(ctx, cmd)
	c.stats.recordCommand()
	if err != nil {
		return nil, err
	}

	res := c.decode(cmd, spec, resp)
	c.log.Debug("mpd command", "command", cmd.Name, "kind", res.Kind.String(), "known", known, "pairs", len(resp.Pairs))
	return res, nil
}

func (c *Client) decode(cmd proto.Command, spec commandSpec, resp *proto.Response) *Result {
	if spec.kind == KindNothing && len(resp.Pairs) > 0 {
		c.log.Warn("mpd unexpected response pairs", "command", cmd.Name, "pairs", len(resp.Pairs))
	}

	res := decodeResult(cmd.Name, spec, resp, func(key, value string, err error) {
		c.log.Warn("mpd value kept as string", "command", cmd.Name, "key", key, "error", err)
	})

	if res.Binary != nil && len(cmd.Args) > 1 && cmd.Args[1].Kind() == proto.ArgInt {
		res.Binary.Offset = cmd.Args[1].IntValue()
	}
	return res
}

// Ping checks that the session is alive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Run(ctx, proto.MustCommand(proto.CmdPing))
	return err
}

// Close sends close when the session is ready, then closes the connection.
// Closing twice is not an error.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.State()
	if st == StateDisconnected {
		return nil
	}
	if st == StateReady {
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = c.conn.WriteLine(proto.CmdClose)
	}

	c.setState(StateDisconnected)
	c.list = nil
	c.log.Debug("mpd closed", "addr", c.conn.Addr())
	return c.conn.Close()
}

// checkReadyLocked returns the error for a command sent outside of READY.
func (c *Client) checkReadyLocked(op string) error {
	switch st := c.State(); st {
	case StateReady:
		return nil
	case StateDisconnected:
		return ErrClosed
	case StateCommandList:
		return &CommandListError{Message: op + " sent while a command list is open"}
	default:
		return &StateError{Op: op, State: st}
	}
}

// exchangeLocked writes cmds and reads the response with read.
// The session is AWAITING_RESPONSE during the exchange and READY afterwards,
// or DISCONNECTED when the error means the stream is out of sync.
func (c *Client) exchangeLocked(ctx context.Context, cmds []proto.Command, read func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prev := c.State()
	c.setState(StateAwaitingResponse)

	_ = c.conn.SetWriteDeadline(deadline(ctx, c.cfg.WriteTimeout))
	_ = c.conn.SetReadDeadline(deadline(ctx, c.cfg.ReadTimeout))
	stop := afterFuncWait(ctx, c.conn.Interrupt)

	err := c.conn.WriteCommands(cmds...)
	if err == nil {
		err = read()
	}
	stop()

	if err == nil {
		c.setState(prev)
		return nil
	}

	var encErr *EncodingError
	if errors.As(err, &encErr) {
		// nothing was written
		c.setState(prev)
		return err
	}

	if !proto.ShouldCloseConnection(err) {
		c.stats.recordAck()
		c.setState(prev)
		return err
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		err = &ConnectionError{Op: "exchange", Err: ctxErr}
	}
	c.failLocked(err)
	return err
}

// roundTripLocked runs a single command exchange.
func (c *Client) roundTripLocked(ctx context.Context, cmd proto.Command) (*proto.Response, error) {
	var resp *proto.Response
	err := c.exchangeLocked(ctx, []proto.Command{cmd}, func() error {
		var err error
		resp, err = c.conn.ReadResponse()
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp.HasBinary() {
		c.stats.recordBinary(len(resp.Binary))
	}
	return resp, nil
}

// fail closes the session after an error that desynchronized the stream.
func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failLocked(err)
}

func (c *Client) failLocked(err error) {
	if c.State() == StateDisconnected {
		return
	}
	c.stats.recordError()
	c.setState(StateDisconnected)
	c.list = nil
	c.log.Warn("mpd session closed", "addr", c.conn.Addr(), "error", err)
	_ = c.conn.Close()
}

// afterFuncWait runs f when ctx is done, like context.AfterFunc. The
// returned stop function waits for a call of f that already started, so
// that f never overlaps the next exchange.
func afterFuncWait(ctx context.Context, f func()) (stop func()) {
	finished := make(chan struct{})
	stopFunc := context.AfterFunc(ctx, func() {
		defer close(finished)
		f()
	})
	return func() {
		if !stopFunc() {
			<-finished
		}
	}
}

// deadline returns the earliest of the context deadline and now+timeout.
// The zero time means no deadline.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}
	return d
}
