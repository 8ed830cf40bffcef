package proto

import (
	"errors"
	"fmt"
	"strconv"
)

// Error types for MPD protocol operations.
// Each type reports whether the connection it happened on can still be used,
// so callers can decide between reusing and discarding a session.

// CommandError represents an ACK line sent by the daemon.
// The daemon rejected the command but the stream is still in sync, so the
// connection can be REUSED.
//
// Index is the position of the failing command inside a command list
// (0 outside command lists). Command is the name the daemon was executing,
// which may be empty.
type CommandError struct {
	Code    AckCode
	Index   int
	Command string
	Message string
}

func (e *CommandError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("mpd: ACK [%d@%d] %s", int(e.Code), e.Index, e.Message)
	}
	return fmt.Sprintf("mpd: ACK [%d@%d] {%s} %s", int(e.Code), e.Index, e.Command, e.Message)
}

// ShouldCloseConnection returns false - the daemon stays in sync after an ACK
func (e *CommandError) ShouldCloseConnection() bool {
	return false
}

// Is reports whether target is a CommandError with the same code.
// It allows errors.Is(err, &CommandError{Code: AckNoExist}).
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ProtocolError represents a line the client could not make sense of:
// malformed pairs, an unparsable greeting, an invalid binary length or
// text that is not UTF-8.
//
// Connection handling: CLOSE, the client and the daemon are out of sync
type ProtocolError struct {
	Message string
	Line    string // offending line, if any
	Err     error  // underlying error, if any
}

func (e *ProtocolError) Error() string {
	msg := "mpd: protocol error: " + e.Message
	if e.Line != "" {
		msg += ": " + strconv.Quote(e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - the stream position is unknown
func (e *ProtocolError) ShouldCloseConnection() bool {
	return true
}

// ConnectionError wraps socket level failures: refused, reset, timeout,
// EOF and name resolution errors.
//
// Connection handling: connection is already broken, CLOSE it
type ConnectionError struct {
	Op  string // dial, handshake, read, write
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mpd: connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - connection errors mean connection is broken
func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// EncodingError is returned when a command cannot be serialized, for
// example because an argument has an unsupported type.
// Nothing was written, the connection is still valid.
type EncodingError struct {
	Message string
	Value   any
}

func (e *EncodingError) Error() string {
	if e.Value == nil {
		return "mpd: encoding error: " + e.Message
	}
	return fmt.Sprintf("mpd: encoding error: %s (%T)", e.Message, e.Value)
}

// ShouldCloseConnection returns false - nothing reached the wire
func (e *EncodingError) ShouldCloseConnection() bool {
	return false
}

// ErrorWithConnectionState is implemented by all protocol error types.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
//
// Returns true for ProtocolError, ConnectionError and unknown errors.
// Returns false for CommandError, EncodingError and nil.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	// Unknown error type - be conservative and close connection
	return true
}
