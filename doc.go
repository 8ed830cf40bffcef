// Package musicpd is a client for the Music Player Daemon (MPD).
//
// A Client is one session over one connection. Commands are sent with
// Execute and their response is decoded according to the command:
//
//	client, err := musicpd.Dial(ctx, musicpd.ConfigFromEnv())
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	res, err := client.Execute(ctx, "status")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Object.PlayState(), res.Object.String("elapsed"))
//
// Batches go through command lists, and change notifications through Idle,
// Watch or a Watcher. The wire format lives in the proto subpackage.
package musicpd
