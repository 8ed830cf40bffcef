package mpdtest

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServer_CloseLetsHandlerReadLastLine(t *testing.T) {
	got := make(chan string, 1)
	srv := NewServer(t, func(c *Conn) {
		line, err := c.ReadLine()
		if err == nil {
			got <- line
		}
	})

	nc, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer nc.Close()

	greeting, err := bufio.NewReader(nc).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, DefaultGreeting, greeting)

	_, err = nc.Write([]byte("close\n"))
	require.NoError(t, err)
	srv.Close()

	select {
	case line := <-got:
		require.Equal(t, "close", line)
	default:
		t.Fatal("handler did not read the line sent before Close")
	}
}

func TestServer_CloseUnblocksIdleHandler(t *testing.T) {
	returned := make(chan struct{})
	srv := NewServer(t, func(c *Conn) {
		defer close(returned)
		_, _ = c.ReadLine()
	})

	nc, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer nc.Close()
	_, err = bufio.NewReader(nc).ReadString('\n')
	require.NoError(t, err)

	start := time.Now()
	srv.Close()
	require.Less(t, time.Since(start), lineTimeout)

	select {
	case <-returned:
	default:
		t.Fatal("handler still running after Close")
	}
}
