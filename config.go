package musicpd

import (
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultAddress is used when neither Config.Address nor the environment
// name a daemon.
const DefaultAddress = "localhost:6600"

// Config holds the settings of a single session.
// There is no package-level default: every Client is built from an explicit
// Config value.
type Config struct {
	// Network is "tcp" or "unix".
	// If empty, it is derived from Address: a leading '/' or '@' means unix.
	Network string

	// Address is host:port for TCP, a socket path, or "@name" for a Linux
	// abstract socket. Defaults to DefaultAddress.
	Address string

	// Password is sent with the password command right after the greeting.
	// Empty means no authentication.
	Password string

	// DialTimeout bounds connection establishment and the greeting.
	// Zero means no limit beyond the context passed to Dial.
	DialTimeout time.Duration

	// ReadTimeout bounds the wait for a response to a regular command.
	// It is NOT applied to idle, which waits for as long as the daemon is
	// quiet. Zero means no limit beyond the context.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a request.
	// Zero means no limit beyond the context.
	WriteTimeout time.Duration

	// Dialer is the net.Dialer used to create the connection.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// Logger receives debug traces of the session.
	// If nil, logs are discarded.
	Logger *slog.Logger

	// LenientNoIdle turns NoIdle outside of a pending idle into a no-op.
	// By default (strict mode) such a call fails with StateError.
	LenientNoIdle bool

	// BinaryChunkLimit, when > 0, is sent with binarylimit after connecting
	// to set the maximum size of binary chunks (albumart, readpicture).
	BinaryChunkLimit int
}

// ConfigFromEnv returns a Config built from the environment variables
// understood by MPD clients:
//
//   - MPD_HOST: host name, socket path or "@abstract", optionally prefixed by "password@"
//   - MPD_PORT: TCP port (default 6600)
//   - MPD_TIMEOUT: dial and read timeout in seconds
//
// Without MPD_HOST, $XDG_RUNTIME_DIR/mpd/socket is used when it exists,
// DefaultAddress otherwise.
func ConfigFromEnv() Config {
	return configFromLookup(os.LookupEnv, fileExists)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func configFromLookup(lookup func(string) (string, bool), exists func(string) bool) Config {
	var cfg Config

	port := "6600"
	if p, ok := lookup("MPD_PORT"); ok && p != "" {
		port = p
	}

	if t, ok := lookup("MPD_TIMEOUT"); ok && t != "" {
		if secs, err := strconv.ParseFloat(t, 64); err == nil && secs > 0 {
			d := time.Duration(secs * float64(time.Second))
			cfg.DialTimeout = d
			cfg.ReadTimeout = d
		}
	}

	host, ok := lookup("MPD_HOST")
	if !ok || host == "" {
		if dir, ok := lookup("XDG_RUNTIME_DIR"); ok && dir != "" {
			socket := filepath.Join(dir, "mpd", "socket")
			if exists(socket) {
				cfg.Network = "unix"
				cfg.Address = socket
				return cfg
			}
		}
		cfg.Address = net.JoinHostPort("localhost", port)
		return cfg
	}

	// "password@host", but "@abstract" is a socket name without password
	if i := strings.Index(host, "@"); i > 0 {
		cfg.Password = host[:i]
		host = host[i+1:]
	}

	switch {
	case strings.HasPrefix(host, "/"), strings.HasPrefix(host, "@"):
		cfg.Network = "unix"
		cfg.Address = host
	default:
		cfg.Network = "tcp"
		cfg.Address = net.JoinHostPort(host, port)
	}
	return cfg
}

// network returns the network and address to dial.
func (c Config) network() (string, string) {
	addr := c.Address
	if addr == "" {
		addr = DefaultAddress
	}
	if c.Network != "" {
		return c.Network, addr
	}
	if strings.HasPrefix(addr, "/") || strings.HasPrefix(addr, "@") {
		return "unix", addr
	}
	return "tcp", addr
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}
