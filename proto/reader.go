package proto

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ReadLine reads one response line and strips its terminator.
//
// Go errors returned:
//   - ConnectionError: EOF, reset or timeout, including EOF in the middle of a line
//   - ProtocolError: the line is not valid UTF-8
func ReadLine(r *bufio.Reader) (string, error) {
	// ReadSlice avoids an allocation for the common short line; fall back to
	// ReadBytes when the line does not fit the buffer
	line, err := r.ReadSlice(LineTerminator)
	if err == bufio.ErrBufferFull {
		var rest []byte
		head := append([]byte(nil), line...)
		rest, err = r.ReadBytes(LineTerminator)
		line = append(head, rest...)
	}
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			err = io.ErrUnexpectedEOF
		}
		return "", &ConnectionError{Op: "read", Err: err}
	}

	line = line[:len(line)-1]
	if !utf8.Valid(line) {
		return "", &ProtocolError{Message: "response line is not valid UTF-8", Line: string(line)}
	}
	return string(line), nil
}

// ReadExact reads exactly n raw bytes.
// A stream ending before n bytes is a ConnectionError, never a short read.
func ReadExact(r *bufio.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, &ProtocolError{Message: "negative read length"}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, &ConnectionError{Op: "read", Err: err}
	}
	return buf, nil
}

// ParseGreeting validates the first line sent by the daemon,
// "OK MPD <version>", and extracts the version.
func ParseGreeting(line string) (Version, error) {
	rest, ok := strings.CutPrefix(line, GreetingPrefix)
	if !ok {
		return Version{}, &ProtocolError{Message: "unexpected greeting", Line: line}
	}
	return ParseVersion(strings.TrimSpace(rest))
}

// ReadGreeting reads and parses the greeting line.
func ReadGreeting(r *bufio.Reader) (Version, error) {
	line, err := ReadLine(r)
	if err != nil {
		return Version{}, err
	}
	return ParseGreeting(line)
}

// ParseAck parses an error line:
//
//	ACK [<code>@<index>] {<command>} <message>
//
// A line that starts with "ACK " but does not follow this layout yields a
// CommandError with code AckGeneric and the remainder as message.
func ParseAck(line string) *CommandError {
	rest, ok := strings.CutPrefix(line, AckPrefix)
	if !ok {
		return &CommandError{Code: AckGeneric, Message: line}
	}
	generic := &CommandError{Code: AckGeneric, Message: rest}

	inner, tail, ok := strings.Cut(strings.TrimPrefix(rest, "["), "]")
	if !ok || !strings.HasPrefix(rest, "[") {
		return generic
	}
	codeStr, indexStr, ok := strings.Cut(inner, "@")
	if !ok {
		return generic
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return generic
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return generic
	}

	tail = strings.TrimPrefix(tail, " ")
	command, message, ok := strings.Cut(strings.TrimPrefix(tail, "{"), "}")
	if !ok || !strings.HasPrefix(tail, "{") {
		return generic
	}

	return &CommandError{
		Code:    AckCode(code),
		Index:   index,
		Command: command,
		Message: strings.TrimPrefix(message, " "),
	}
}

// terminal identifies what ended a response segment.
type terminal uint8

const (
	terminalOK terminal = iota
	terminalListOK
)

// ReadResponse reads one complete response: key/value lines up to "OK".
//
// A "binary: <n>" line makes the reader consume exactly n raw bytes (plus the
// newline that follows them) before it continues with the remaining lines.
//
// Go errors returned:
//   - CommandError: the daemon answered with ACK, connection still usable
//   - ProtocolError: malformed line or unexpected list_OK, connection must be closed
//   - ConnectionError: I/O failure, connection must be closed
func ReadResponse(r *bufio.Reader) (*Response, error) {
	resp, term, err := readSegment(r)
	if err != nil {
		return nil, err
	}
	if term == terminalListOK {
		return nil, &ProtocolError{Message: "unexpected " + ListOK + " outside a command list"}
	}
	return resp, nil
}

// ReadListResponses reads the response to a command_list_ok_begin batch:
// one segment per command, each closed by "list_OK", then a final "OK".
//
// When the daemon reports an ACK, the segments completed before the failing
// command are returned together with the CommandError. No segment is made up
// for commands the daemon skipped.
func ReadListResponses(r *bufio.Reader) ([]*Response, error) {
	var resps []*Response
	for {
		resp, term, err := readSegment(r)
		if err != nil {
			return resps, err
		}
		if term == terminalOK {
			if resp.Len() > 0 || resp.HasBinary() {
				return resps, &ProtocolError{Message: "pairs after the last " + ListOK}
			}
			return resps, nil
		}
		resps = append(resps, resp)
	}
}

func readSegment(r *bufio.Reader) (*Response, terminal, error) {
	resp := &Response{}
	for {
		line, err := ReadLine(r)
		if err != nil {
			return nil, 0, err
		}

		switch {
		case line == ResponseOK:
			return resp, terminalOK, nil
		case line == ListOK:
			return resp, terminalListOK, nil
		case strings.HasPrefix(line, AckPrefix):
			return nil, 0, ParseAck(line)
		}

		key, value, ok := strings.Cut(line, PairSeparator)
		if !ok {
			return nil, 0, &ProtocolError{Message: "malformed response line", Line: line}
		}

		if key == BinaryKey {
			data, err := readBinary(r, value)
			if err != nil {
				return nil, 0, err
			}
			if resp.Binary != nil {
				return nil, 0, &ProtocolError{Message: "more than one binary segment", Line: line}
			}
			resp.Binary = data
			continue
		}

		resp.Pairs = append(resp.Pairs, Pair{Key: key, Value: value})
	}
}

func readBinary(r *bufio.Reader, length string) ([]byte, error) {
	n, err := strconv.Atoi(length)
	if err != nil {
		return nil, &ProtocolError{Message: "invalid binary length", Line: length, Err: err}
	}
	if n < 0 || n > MaxBinaryLength {
		return nil, &ProtocolError{Message: "binary length out of range", Line: length}
	}

	data, err := ReadExact(r, n)
	if err != nil {
		return nil, err
	}

	// The daemon terminates the segment with a newline before the next line.
	b, err := r.Peek(1)
	if err != nil {
		return nil, &ConnectionError{Op: "read", Err: err}
	}
	if b[0] == LineTerminator {
		_, _ = r.Discard(1)
	}
	return data, nil
}
