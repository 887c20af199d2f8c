// Command tail prints a game's queued storylets and then follows its event
// channel.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/jwebster45206/world-reactor/internal/config"
	"github.com/jwebster45206/world-reactor/internal/services/events"
	"github.com/jwebster45206/world-reactor/internal/services/queue"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <game-id> [--drain]\n", os.Args[0])
		os.Exit(1)
	}
	gameID, err := uuid.Parse(os.Args[1])
	if err != nil {
		log.Fatal("Invalid game id:", err)
	}
	drain := len(os.Args) > 2 && os.Args[2] == "--drain"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	redisURL := cfg.RedisURL
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := queue.NewClient(ctx, redisURL, nil)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer client.Close()

	nq := queue.NewNarrativeQueue(client, nil)
	if drain {
		items, err := nq.Drain(ctx, gameID)
		if err != nil {
			log.Fatal(err)
		}
		printItems(items)
	} else {
		depth, err := nq.Depth(ctx, gameID)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%d storylet(s) queued\n", depth)
		items, err := nq.Peek(ctx, gameID, 0)
		if err != nil {
			log.Fatal(err)
		}
		printItems(items)
	}

	sub := client.GetRedisClient().Subscribe(ctx, events.Channel(gameID))
	defer sub.Close()
	fmt.Printf("Following %s\n", events.Channel(gameID))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				fmt.Printf("?? %s\n", msg.Payload)
				continue
			}
			data, _ := json.Marshal(ev.Data)
			fmt.Printf("%-22s %s\n", ev.Type, data)
		}
	}
}

func printItems(items []storylet.QueueItem) {
	for _, item := range items {
		fmt.Printf("- %s [%s] %s\n", item.Title, item.BranchID, item.Narrative)
	}
}
