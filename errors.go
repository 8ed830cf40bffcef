package musicpd

import (
	"errors"

	"github.com/pior/musicpd/proto"
)

var (
	// ErrClosed is returned by operations on a session that was closed or
	// lost its connection.
	ErrClosed = errors.New("mpd: session closed")
)

// Errors produced by the wire layer, re-exported for callers that only
// import this package.
type (
	CommandError    = proto.CommandError
	ProtocolError   = proto.ProtocolError
	ConnectionError = proto.ConnectionError
	EncodingError   = proto.EncodingError
)

// StateError is returned when an operation is not valid in the current
// session state, for example a command sent while idle is pending.
// It is raised before any I/O; the session state is unchanged.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return "mpd: " + e.Op + " not allowed while session is " + e.State.String()
}

// ShouldCloseConnection returns false - nothing was sent
func (e *StateError) ShouldCloseConnection() bool {
	return false
}

// CommandListError is returned on misuse of command lists: nesting,
// sending a regular command while a list is open, or using a list that was
// already ended. It is raised before any I/O.
type CommandListError struct {
	Message string
}

func (e *CommandListError) Error() string {
	return "mpd: command list: " + e.Message
}

// ShouldCloseConnection returns false - nothing was sent
func (e *CommandListError) ShouldCloseConnection() bool {
	return false
}
