// Package proto provides a low-level wire protocol implementation for the
// Music Player Daemon (MPD) control protocol.
//
// This package serves as a foundation for the session layer in the parent
// package. It focuses on correctness of serialization and parsing, without
// imposing connection management, typing of values or state tracking.
//
// # Core Types
//
// Command and Response are pure data containers:
//
//   - Command: a command name plus typed arguments (string, integer, float, range)
//   - Response: the ordered key/value pairs of a reply, plus an optional binary segment
//   - Pair: a single "key: value" line
//
// # Serialization and Parsing
//
// WriteCommand serializes a command to wire format:
//
//	cmd, err := proto.NewCommand("find", "(artist == \"Nina Simone\")", "window", proto.NewRange(0, 10))
//	err = proto.WriteCommand(w, cmd)
//	// find "(artist == \"Nina Simone\")" window 0:10\n
//
// ReadResponse parses one reply:
//
//	resp, err := proto.ReadResponse(bufio.NewReader(conn))
//	if err != nil {
//	    if proto.ShouldCloseConnection(err) {
//	        conn.Close()
//	    }
//	    return err
//	}
//	for _, p := range resp.Pairs {
//	    fmt.Println(p.Key, p.Value)
//	}
//
// Values are returned as raw strings. Interpreting them (integers, states,
// grouping pairs into records) depends on the command and is left to the
// caller.
//
// # Command Lists
//
// The response to a command_list_ok_begin batch is read with
// ReadListResponses, which returns one Response per command:
//
//	resps, err := proto.ReadListResponses(r)
//	var ack *proto.CommandError
//	if errors.As(err, &ack) {
//	    // resps holds the results of the ack.Index commands that succeeded
//	}
//
// # Error Handling
//
// The package defines error types that indicate connection state:
//
//   - CommandError: ACK from the daemon, connection can be REUSED
//   - EncodingError: command could not be serialized, nothing was written
//   - ProtocolError: malformed data, CLOSE connection
//   - ConnectionError: network/I/O error, connection already broken
//
// Use ShouldCloseConnection to determine error handling strategy.
//
// # Thread Safety
//
// Command and Response values are not synchronized. WriteCommand and
// ReadResponse are safe to use concurrently on different readers/writers.
package proto
