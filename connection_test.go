package musicpd

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pior/musicpd/internal/mpdtest"
	"github.com/pior/musicpd/proto"
)

func TestConnection_WriteCommands(t *testing.T) {
	mock := mpdtest.NewConnMock()
	conn := NewConnection(mock)

	err := conn.WriteCommands(
		proto.MustCommand("command_list_begin"),
		proto.MustCommand("play", 3),
		proto.MustCommand("command_list_end"),
	)
	require.NoError(t, err)
	require.Equal(t, "command_list_begin\nplay 3\ncommand_list_end\n", mock.Written())
}

func TestConnection_WriteCommandsEncodingError(t *testing.T) {
	mock := mpdtest.NewConnMock()
	conn := NewConnection(mock)

	err := conn.WriteCommands(
		proto.MustCommand("play", 3),
		proto.Command{Name: "add", Args: []proto.Arg{proto.String("a\nb")}},
	)

	var encErr *proto.EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Empty(t, mock.Written(), "nothing is written when a command cannot be encoded")
}

func TestConnection_WriteLine(t *testing.T) {
	mock := mpdtest.NewConnMock()
	conn := NewConnection(mock)

	require.NoError(t, conn.WriteLine("noidle"))
	require.NoError(t, conn.WriteLine("ping\n"))
	require.Equal(t, "noidle\nping\n", mock.Written())
}

func TestConnection_Read(t *testing.T) {
	mock := mpdtest.NewConnMock("OK MPD 0.23.5\n", "volume: 50\nOK\n", "\x01\x02\x03")
	conn := NewConnection(mock)

	line, err := conn.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "OK MPD 0.23.5", line)

	resp, err := conn.ReadResponse()
	require.NoError(t, err)
	require.Equal(t, []proto.Pair{{Key: "volume", Value: "50"}}, resp.Pairs)

	data, err := conn.ReadExact(3)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)

	_, err = conn.ReadLine()
	var connErr *proto.ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestConnection_Close(t *testing.T) {
	mock := mpdtest.NewConnMock()
	conn := NewConnection(mock)

	require.False(t, conn.IsClosed())
	require.Equal(t, "127.0.0.1:6600", conn.Addr())

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	require.True(t, conn.IsClosed())
	require.True(t, mock.IsClosed())

	err := conn.WriteLine("ping")
	var connErr *proto.ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.True(t, errors.Is(err, net.ErrClosed))
}
