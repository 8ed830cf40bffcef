package proto

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Buffer pool for building command lines
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

// WriteCommand serializes cmd and writes it to w followed by the line
// terminator.
// Format: <name> [<arg> ...]\n
//
// Nothing is written when the command cannot be encoded.
// When w is a *bufio.Writer the line is buffered but NOT flushed, so several
// commands can be queued and sent with a single Flush (command lists).
func WriteCommand(w io.Writer, cmd Command) error {
	bp := bufferPool.Get().(*[]byte)
	defer func() {
		*bp = (*bp)[:0]
		bufferPool.Put(bp)
	}()

	line, err := AppendCommand((*bp)[:0], cmd)
	if err != nil {
		return err
	}
	line = append(line, LineTerminator)
	*bp = line

	if bw, ok := w.(*bufio.Writer); ok {
		_, err = bw.Write(line)
		return err
	}
	_, err = w.Write(line)
	return err
}

// AppendCommand appends the wire form of cmd, without terminator, to b.
func AppendCommand(b []byte, cmd Command) ([]byte, error) {
	if err := validateName(cmd.Name); err != nil {
		return b, err
	}

	b = append(b, cmd.Name...)
	for _, arg := range cmd.Args {
		b = append(b, ' ')
		var err error
		b, err = AppendArg(b, arg)
		if err != nil {
			return b, err
		}
	}
	return b, nil
}

// AppendArg appends the wire form of a single argument.
//
// Integers and floats use plain decimal notation (floats always carry a
// decimal point). Ranges render as START:END with open bounds omitted.
// Strings are written bare when they are made of safe characters and cannot
// be mistaken for a number or a range; otherwise they are double quoted with
// '"' and '\' escaped.
func AppendArg(b []byte, arg Arg) ([]byte, error) {
	switch arg.kind {
	case ArgInt:
		return strconv.AppendInt(b, arg.i, 10), nil
	case ArgFloat:
		return appendFloat(b, arg.f), nil
	case ArgRange:
		return arg.r.appendTo(b), nil
	case ArgString:
		if strings.ContainsAny(arg.s, "\n\r\x00") {
			return b, &EncodingError{Message: "string argument contains a line break or NUL", Value: arg.s}
		}
		if isBare(arg.s) {
			return append(b, arg.s...), nil
		}
		return appendQuoted(b, arg.s), nil
	default:
		return b, &EncodingError{Message: "unsupported argument kind " + arg.kind.String()}
	}
}

// Quote returns s as a double quoted protocol token.
func Quote(s string) string {
	return string(appendQuoted(nil, s))
}

func appendQuoted(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			b = append(b, '\\')
		}
		b = append(b, c)
	}
	return append(b, '"')
}

func appendFloat(b []byte, f float64) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, f, 'f', -1, 64)
	for _, c := range b[start:] {
		if c == '.' {
			return b
		}
	}
	return append(b, '.', '0')
}

// isBare reports whether s can be sent without quotes and still decode as
// the same string.
func isBare(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isBareByte(s[i]) {
			return false
		}
	}
	return classifyBare(s).kind == ArgString
}

func isBareByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.', c == '/', c == ':', c == '+':
		return true
	default:
		return false
	}
}
