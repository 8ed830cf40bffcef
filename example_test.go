package musicpd_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/pior/musicpd"
	"github.com/pior/musicpd/proto"
)

func ExampleDial() {
	ctx := context.Background()

	cfg := musicpd.ConfigFromEnv()
	cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client, err := musicpd.Dial(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	res, err := client.Execute(ctx, "status")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Object.PlayState(), res.Object.String("volume"))
}

func ExampleClient_Execute_ack() {
	ctx := context.Background()

	client, err := musicpd.Dial(ctx, musicpd.Config{Address: "localhost:6600"})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	_, err = client.Execute(ctx, "play", 999)

	var ack *musicpd.CommandError
	if errors.As(err, &ack) && ack.Code == proto.AckArg {
		// the session is still usable
		fmt.Println("no such song:", ack.Message)
	}
}

func ExampleCommandList() {
	ctx := context.Background()

	client, err := musicpd.Dial(ctx, musicpd.ConfigFromEnv())
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	list, err := client.CommandListOKBegin()
	if err != nil {
		log.Fatal(err)
	}
	_ = list.Add("clear")
	_ = list.Add("add", "jazz/")
	_ = list.Add("play", 0)

	results, err := list.End(ctx)
	fmt.Println(len(results), err)
}

func ExampleClient_Watch() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := musicpd.Dial(ctx, musicpd.ConfigFromEnv())
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	err = client.Watch(ctx, func(changed []string) error {
		fmt.Println("changed:", changed)
		return nil
	}, proto.SubsystemPlayer, proto.SubsystemMixer)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
