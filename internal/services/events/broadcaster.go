package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/world-reactor/pkg/ambient"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeAmbient          EventType = "ambient"
	EventTypeStoryletResolved EventType = "storylet.resolved"
	EventTypeWorldTrigger     EventType = "world.trigger_fired"
)

// Event represents a generic event structure
type Event struct {
	Type   EventType      `json:"type"`
	GameID string         `json:"game_id,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes events to Redis Pub/Sub, one channel per game.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel returns the pub/sub channel for a game.
func Channel(gameID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", gameID.String())
}

// Publish publishes an arbitrary event type, such as the mission
// progression events.
func (b *Broadcaster) Publish(ctx context.Context, gameID uuid.UUID, eventType string, data map[string]any) error {
	return b.publishToGame(ctx, gameID, Event{
		Type:   EventType(eventType),
		GameID: gameID.String(),
		Data:   data,
	})
}

// PublishAmbient publishes one ambient feed event.
func (b *Broadcaster) PublishAmbient(ctx context.Context, gameID uuid.UUID, ev ambient.Event) error {
	return b.publishToGame(ctx, gameID, Event{
		Type:   EventTypeAmbient,
		GameID: gameID.String(),
		Data: map[string]any{
			"category": ev.Category,
			"event":    ev,
		},
	})
}

// PublishStoryletResolved publishes a resolved storylet queue item.
func (b *Broadcaster) PublishStoryletResolved(ctx context.Context, gameID uuid.UUID, item storylet.QueueItem) error {
	return b.publishToGame(ctx, gameID, Event{
		Type:   EventTypeStoryletResolved,
		GameID: gameID.String(),
		Data: map[string]any{
			"item_id":     item.ID,
			"storylet_id": item.StoryletID,
			"branch_id":   item.BranchID,
			"title":       item.Title,
		},
	})
}

// PublishTriggersFired publishes the ids of world triggers that fired in
// one tick.
func (b *Broadcaster) PublishTriggersFired(ctx context.Context, gameID uuid.UUID, ids []string) error {
	return b.publishToGame(ctx, gameID, Event{
		Type:   EventTypeWorldTrigger,
		GameID: gameID.String(),
		Data: map[string]any{
			"trigger_ids": ids,
		},
	})
}

// publishToGame publishes an event to the game-specific channel
func (b *Broadcaster) publishToGame(ctx context.Context, gameID uuid.UUID, event Event) error {
	channel := Channel(gameID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}
