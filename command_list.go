package musicpd

import (
	"context"
	"errors"

	"github.com/pior/musicpd/proto"
)

// CommandList buffers commands and sends them as one batch framed by
// command_list_begin (or command_list_ok_begin) and command_list_end.
//
// While a list is open the session only accepts commands through the list:
// Execute fails with CommandListError and Idle with StateError.
// A CommandList is not safe for concurrent use.
type CommandList struct {
	c     *Client
	ok    bool
	cmds  []proto.Command
	specs []commandSpec
	done  bool
}

// CommandListBegin opens a batch whose response is merged into a single
// Result. An ACK fails the whole batch.
func (c *Client) CommandListBegin() (*CommandList, error) {
	return c.beginList(false)
}

// CommandListOKBegin opens a batch that returns one Result per command.
// When a command fails, End returns the results of the commands before it
// and the CommandError whose Index points at the failing command.
func (c *Client) CommandListOKBegin() (*CommandList, error) {
	return c.beginList(true)
}

func (c *Client) beginList(ok bool) (*CommandList, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch st := c.State(); st {
	case StateReady:
	case StateDisconnected:
		return nil, ErrClosed
	case StateCommandList:
		return nil, &CommandListError{Message: "a command list is already open"}
	default:
		return nil, &StateError{Op: "command list", State: st}
	}

	l := &CommandList{c: c, ok: ok}
	c.list = l
	c.setState(StateCommandList)
	return l, nil
}

// Add buffers a command. Nothing is sent before End.
// Invalid arguments fail here with EncodingError and the command is not
// buffered.
func (l *CommandList) Add(name string, args ...any) error {
	cmd, err := proto.NewCommand(name, args...)
	if err != nil {
		return err
	}
	return l.AddCommand(cmd)
}

// AddCommand is Add with a prepared command.
func (l *CommandList) AddCommand(cmd proto.Command) error {
	if l.done {
		return &CommandListError{Message: "list already ended"}
	}

	switch cmd.Name {
	case proto.CmdCommandListBegin, proto.CmdCommandListOKBegin:
		return &CommandListError{Message: "command lists cannot be nested"}
	case proto.CmdCommandListEnd:
		return &CommandListError{Message: "use End to send the list"}
	case proto.CmdIdle, proto.CmdNoIdle, proto.CmdClose:
		return &CommandListError{Message: cmd.Name + " is not allowed in a command list"}
	}

	spec, _ := lookupCommand(cmd.Name)
	if err := spec.checkArgs(cmd); err != nil {
		return err
	}
	if _, err := proto.AppendCommand(nil, cmd); err != nil {
		return err
	}

	l.cmds = append(l.cmds, cmd)
	l.specs = append(l.specs, spec)
	return nil
}

// Len returns the number of buffered commands.
func (l *CommandList) Len() int {
	return len(l.cmds)
}

// End sends the batch and returns its results in submission order.
// An empty list sends nothing.
//
// With CommandListOKBegin, a CommandError comes with the results of the
// commands that succeeded before it; no result is made up for the commands
// the daemon skipped.
func (l *CommandList) End(ctx context.Context) ([]*Result, error) {
	c := l.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := l.closeLocked(); err != nil {
		return nil, err
	}
	if len(l.cmds) == 0 {
		return nil, nil
	}

	begin := proto.CmdCommandListBegin
	if l.ok {
		begin = proto.CmdCommandListOKBegin
	}

	cmds := make([]proto.Command, 0, len(l.cmds)+2)
	cmds = append(cmds, proto.Command{Name: begin})
	cmds = append(cmds, l.cmds...)
	cmds = append(cmds, proto.Command{Name: proto.CmdCommandListEnd})

	c.stats.recordCommandList()

	if !l.ok {
		var resp *proto.Response
		err := c.exchangeLocked(ctx, cmds, func() error {
			var err error
			resp, err = c.conn.ReadResponse()
			return err
		})
		if err != nil {
			return nil, err
		}
		c.log.Debug("mpd command list", "commands", len(l.cmds), "pairs", len(resp.Pairs))
		return []*Result{decodeResult(begin, commandSpec{kind: KindPairs}, resp, nil)}, nil
	}

	var resps []*proto.Response
	err := c.exchangeLocked(ctx, cmds, func() error {
		var err error
		resps, err = c.conn.ReadListResponses()
		return err
	})

	var cmdErr *CommandError
	if err != nil && !errors.As(err, &cmdErr) {
		return nil, err
	}

	results := make([]*Result, 0, len(resps))
	for i, resp := range resps {
		if i >= len(l.cmds) {
			break
		}
		if resp.HasBinary() {
			c.stats.recordBinary(len(resp.Binary))
		}
		results = append(results, c.decode(l.cmds[i], l.specs[i], resp))
	}
	c.log.Debug("mpd command list", "commands", len(l.cmds), "results", len(results))

	return results, err
}

// Abort drops the buffered commands and closes the list without I/O.
func (l *CommandList) Abort() {
	c := l.c
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = l.closeLocked()
}

// closeLocked detaches the list from the session.
func (l *CommandList) closeLocked() error {
	c := l.c
	if l.done {
		return &CommandListError{Message: "list already ended"}
	}
	l.done = true

	if c.list != l {
		// the session was closed meanwhile
		return ErrClosed
	}
	c.list = nil
	c.setState(StateReady)
	return nil
}
