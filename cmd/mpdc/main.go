// Command mpdc is an interactive shell for MPD.
//
// Lines are sent as raw protocol commands. command_list_begin and
// command_list_ok_begin collect the following lines until command_list_end.
// idle blocks until a change or Ctrl-C. Arguments given on the command line
// are run as a single command instead of starting the shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/pior/musicpd"
)

func main() {
	var (
		address     string
		password    string
		timeout     time.Duration
		binaryLimit int
		historyFile string
		verbose     bool
	)

	flag.StringVarP(&address, "address", "a", "", "host:port, socket path or @abstract (default from MPD_HOST/MPD_PORT)")
	flag.StringVar(&password, "password", "", "password (default from MPD_HOST)")
	flag.DurationVar(&timeout, "timeout", 0, "dial and read timeout (default from MPD_TIMEOUT)")
	flag.IntVar(&binaryLimit, "binary-limit", 0, "maximum binary chunk size requested from the daemon")
	flag.StringVar(&historyFile, "history", defaultHistoryFile(), "history file")
	flag.BoolVarP(&verbose, "verbose", "v", false, "log protocol activity to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := musicpd.ConfigFromEnv()
	if address != "" {
		cfg.Network = ""
		cfg.Address = address
	}
	if password != "" {
		cfg.Password = password
	}
	if timeout > 0 {
		cfg.DialTimeout = timeout
		cfg.ReadTimeout = timeout
	}
	cfg.BinaryChunkLimit = binaryLimit
	cfg.Logger = logger

	ctx := context.Background()

	client, err := musicpd.Dial(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mpdc: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	sh := newShell(client, os.Stdout)

	if flag.NArg() > 0 {
		if err := sh.handle(ctx, strings.Join(flag.Args(), " ")); err != nil && !errors.Is(err, errQuit) {
			fmt.Fprintf(os.Stderr, "mpdc: %v\n", err)
			os.Exit(1)
		}
		if sh.failed {
			os.Exit(2)
		}
		return
	}

	editor := newLineEditor(historyFile)
	defer editor.Close()

	fmt.Fprintf(os.Stdout, "connected to %s (protocol %s), type help for help\n", client.Addr(), client.Version())

	for {
		line, err := editor.ReadLine(sh.prompt())
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "mpdc: %v\n", err)
			os.Exit(1)
		}

		err = sh.handle(ctx, line)
		if errors.Is(err, errQuit) {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "mpdc: %v\n", err)
			os.Exit(1)
		}
	}
}
