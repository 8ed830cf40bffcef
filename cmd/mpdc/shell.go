package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pior/musicpd"
	"github.com/pior/musicpd/proto"
)

var errQuit = errors.New("quit")

const helpText = `Lines are sent to the daemon as commands, for example:
  status
  find "(artist == 'Nina Simone')" sort Title
  command_list_ok_begin ... command_list_end
  idle [subsystem...]        wait for a change, Ctrl-C sends noidle

Shell commands:
  art <uri> [file]           fetch the cover file (albumart), optionally save it
  picture <uri> [file]       fetch the embedded picture (readpicture)
  stats                      session counters
  help                       this text
  quit, exit                 leave
`

// shell runs command lines on one session.
type shell struct {
	client *musicpd.Client
	out    io.Writer
	list   *musicpd.CommandList
	listOK bool
	// failed is set when the last command was answered with ACK.
	failed bool
}

func newShell(client *musicpd.Client, out io.Writer) *shell {
	return &shell{client: client, out: out}
}

func (s *shell) prompt() string {
	if s.list != nil {
		return "mpd (list)> "
	}
	return "mpd> "
}

// handle runs one line. Errors that leave the session usable are printed;
// the returned error ends the shell.
func (s *shell) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	s.failed = false

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprint(s.out, helpText)
		return nil
	case "stats":
		if s.list == nil {
			s.printStats()
			return nil
		}
	case "art", "picture":
		if s.list == nil {
			return s.check(s.fetchBinary(ctx, fields))
		}
	}

	cmd, err := proto.ParseCommand(line)
	if err != nil {
		return s.check(err)
	}

	switch cmd.Name {
	case proto.CmdCommandListBegin, proto.CmdCommandListOKBegin:
		return s.check(s.beginList(cmd.Name == proto.CmdCommandListOKBegin))
	case proto.CmdCommandListEnd:
		return s.check(s.endList(ctx))
	}

	if s.list != nil {
		return s.check(s.list.AddCommand(cmd))
	}

	if cmd.Name == proto.CmdIdle {
		// Ctrl-C during idle sends noidle instead of killing the shell.
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
		defer cancel()
	}

	res, err := s.client.Run(ctx, cmd)
	if errors.Is(err, context.Canceled) && cmd.Name == proto.CmdIdle {
		fmt.Fprintln(s.out, "OK")
		return nil
	}
	if err != nil {
		return s.check(err)
	}
	if cmd.Name == proto.CmdClose {
		return errQuit
	}

	s.printResult(res)
	fmt.Fprintln(s.out, "OK")
	return nil
}

// check prints recoverable errors and returns the others.
func (s *shell) check(err error) error {
	if err == nil {
		return nil
	}
	if s.client.State() == musicpd.StateDisconnected {
		return err
	}

	s.failed = true
	var cmdErr *musicpd.CommandError
	if errors.As(err, &cmdErr) {
		fmt.Fprintf(s.out, "ACK [%d@%d] {%s} %s\n", cmdErr.Code, cmdErr.Index, cmdErr.Command, cmdErr.Message)
		return nil
	}
	fmt.Fprintf(s.out, "error: %v\n", err)
	return nil
}

func (s *shell) beginList(ok bool) error {
	if s.list != nil {
		return &musicpd.CommandListError{Message: "a command list is already open"}
	}

	var err error
	if ok {
		s.list, err = s.client.CommandListOKBegin()
	} else {
		s.list, err = s.client.CommandListBegin()
	}
	if err != nil {
		s.list = nil
		return err
	}
	s.listOK = ok
	return nil
}

func (s *shell) endList(ctx context.Context) error {
	if s.list == nil {
		return &musicpd.CommandListError{Message: "no command list is open"}
	}

	list := s.list
	s.list = nil

	results, err := list.End(ctx)
	for _, res := range results {
		s.printResult(res)
		if s.listOK {
			fmt.Fprintln(s.out, "list_OK")
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "OK")
	return nil
}

func (s *shell) fetchBinary(ctx context.Context, fields []string) error {
	if len(fields) < 2 || len(fields) > 3 {
		return fmt.Errorf("usage: %s <uri> [file]", fields[0])
	}

	command := "albumart"
	if strings.EqualFold(fields[0], "picture") {
		command = "readpicture"
	}

	bin, err := s.client.ReadBinary(ctx, command, fields[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "size: %d\n", bin.Size)
	if bin.Type != "" {
		fmt.Fprintf(s.out, "type: %s\n", bin.Type)
	}
	if bin.Size > 0 {
		fmt.Fprintf(s.out, "xxh3: %016x\n", bin.Sum())
	}

	if len(fields) == 3 && len(bin.Data) > 0 {
		if err := os.WriteFile(fields[2], bin.Data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "written: %s\n", fields[2])
	}

	fmt.Fprintln(s.out, "OK")
	return nil
}

func (s *shell) printResult(res *musicpd.Result) {
	if res.Kind == musicpd.KindChanges && len(res.Pairs) == 0 {
		for _, subsystem := range res.List {
			fmt.Fprintf(s.out, "changed: %s\n", subsystem)
		}
		return
	}

	for _, p := range res.Pairs {
		fmt.Fprintf(s.out, "%s: %s\n", p.Key, p.Value)
	}
	if res.Binary != nil {
		fmt.Fprintf(s.out, "binary: %d bytes at offset %d\n", len(res.Binary.Data), res.Binary.Offset)
	}
}

func (s *shell) printStats() {
	st := s.client.Stats()
	fmt.Fprintf(s.out, "address: %s\n", s.client.Addr())
	fmt.Fprintf(s.out, "protocol: %s\n", s.client.Version())
	fmt.Fprintf(s.out, "commands: %d\n", st.Commands)
	fmt.Fprintf(s.out, "command_lists: %d\n", st.CommandLists)
	fmt.Fprintf(s.out, "idles: %d\n", st.Idles)
	fmt.Fprintf(s.out, "acks: %d\n", st.Acks)
	fmt.Fprintf(s.out, "errors: %d\n", st.Errors)
	fmt.Fprintf(s.out, "binary_bytes: %d\n", st.BinaryBytes)
}
