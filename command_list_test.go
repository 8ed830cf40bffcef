package musicpd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pior/musicpd/internal/mpdtest"
	"github.com/pior/musicpd/proto"
)

func TestCommandList_PartialFailure(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("command_list_ok_begin")
		c.Expect("add a.flac")
		c.Expect("addid b.flac")
		c.Expect("play 99")
		c.Expect("status")
		c.Expect("command_list_end")
		c.Send("list_OK\n")
		c.Send("Id: 12\nlist_OK\n")
		c.Ack(2, 2, "play", "Bad song index")
		c.Expect("ping")
		c.OK()
	})
	ctx := context.Background()

	list, err := c.CommandListOKBegin()
	require.NoError(t, err)
	require.Equal(t, StateCommandList, c.State())

	require.NoError(t, list.Add("add", "a.flac"))
	require.NoError(t, list.Add("addid", "b.flac"))
	require.NoError(t, list.Add("play", 99))
	require.NoError(t, list.Add("status"))
	require.Equal(t, 4, list.Len())

	results, err := list.End(ctx)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, 2, cmdErr.Index)
	require.Equal(t, "play", cmdErr.Command)

	require.Len(t, results, 2, "no result for the failing and skipped commands")
	require.Equal(t, "add", results[0].Command)
	require.Equal(t, KindNothing, results[0].Kind)
	require.Equal(t, "addid", results[1].Command)
	require.Equal(t, int64(12), results[1].Item)

	require.Equal(t, StateReady, c.State())
	require.NoError(t, c.Ping(ctx))
}

func TestCommandList_OKResults(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("command_list_ok_begin")
		c.Expect("status")
		c.Expect("currentsong")
		c.Expect("command_list_end")
		c.Send("state: pause\nvolume: 20\nlist_OK\n")
		c.Send("file: a.flac\nPos: 0\nlist_OK\n")
		c.OK()
	})

	list, err := c.CommandListOKBegin()
	require.NoError(t, err)
	require.NoError(t, list.Add("status"))
	require.NoError(t, list.AddCommand(proto.MustCommand("currentsong")))

	results, err := list.End(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, PlayStatePause, results[0].Object.PlayState())
	require.Equal(t, "a.flac", results[1].Object.String("file"))
	require.Equal(t, uint64(1), c.Stats().CommandLists)
}

func TestCommandList_Merged(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("command_list_begin")
		c.Expect("clear")
		c.Expect("addid a.flac")
		c.Expect("command_list_end")
		c.OK("Id", "3")
	})

	list, err := c.CommandListBegin()
	require.NoError(t, err)
	require.NoError(t, list.Add("clear"))
	require.NoError(t, list.Add("addid", "a.flac"))

	results, err := list.End(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, []proto.Pair{{Key: "Id", Value: "3"}}, results[0].Pairs)
}

func TestCommandList_MergedAck(t *testing.T) {
	c := dialTest(t, func(c *mpdtest.Conn) {
		c.Expect("command_list_begin")
		c.Expect("clear")
		c.Expect("play 5")
		c.Expect("command_list_end")
		c.Ack(2, 1, "play", "Bad song index")
	})

	list, err := c.CommandListBegin()
	require.NoError(t, err)
	require.NoError(t, list.Add("clear"))
	require.NoError(t, list.Add("play", 5))

	results, err := list.End(context.Background())
	require.Nil(t, results)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, 1, cmdErr.Index)
	require.Equal(t, StateReady, c.State())
}

func TestCommandList_EmptySendsNothing(t *testing.T) {
	done := make(chan struct{})
	c := dialTest(t, func(c *mpdtest.Conn) {
		defer close(done)
		c.ExpectNothing(100 * time.Millisecond)
	})

	list, err := c.CommandListOKBegin()
	require.NoError(t, err)

	results, err := list.End(context.Background())
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, StateReady, c.State())
	<-done
}

func TestCommandList_Misuse(t *testing.T) {
	done := make(chan struct{})
	c := dialTest(t, func(c *mpdtest.Conn) {
		defer close(done)
		c.ExpectNothing(100 * time.Millisecond)
	})
	ctx := context.Background()

	list, err := c.CommandListBegin()
	require.NoError(t, err)

	var listErr *CommandListError
	var stateErr *StateError

	_, err = c.CommandListOKBegin()
	require.ErrorAs(t, err, &listErr, "nested list")

	_, err = c.Execute(ctx, "status")
	require.ErrorAs(t, err, &listErr, "command outside of the list")

	_, err = c.Idle(ctx)
	require.ErrorAs(t, err, &stateErr, "idle in a list")
	require.Equal(t, StateCommandList, stateErr.State)

	require.ErrorAs(t, list.Add("idle"), &listErr)
	require.ErrorAs(t, list.Add("command_list_begin"), &listErr)
	require.ErrorAs(t, list.Add("close"), &listErr)

	var encErr *EncodingError
	require.ErrorAs(t, list.Add("play", 1, 2), &encErr)
	require.ErrorAs(t, list.Add("add", []int{1}), &encErr)
	require.Equal(t, 0, list.Len())

	list.Abort()
	require.Equal(t, StateReady, c.State())

	_, err = list.End(ctx)
	require.ErrorAs(t, err, &listErr, "list already ended")
	require.ErrorAs(t, list.Add("status"), &listErr)
	<-done
}

func TestCommandList_SessionClosed(t *testing.T) {
	c := dialTest(t, nil)

	list, err := c.CommandListBegin()
	require.NoError(t, err)
	require.NoError(t, list.Add("status"))

	require.NoError(t, c.Close())

	_, err = list.End(context.Background())
	require.ErrorIs(t, err, ErrClosed)

	_, err = c.CommandListBegin()
	require.ErrorIs(t, err, ErrClosed)
}
