package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/world-reactor/pkg/storylet"
)

// NarrativeQueue mirrors each game's storylet display queue into a Redis
// list so a client can render items outside the game process.
type NarrativeQueue struct {
	client *Client
	logger *slog.Logger
}

// NewNarrativeQueue creates a new narrative queue service
func NewNarrativeQueue(client *Client, logger *slog.Logger) *NarrativeQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &NarrativeQueue{
		client: client,
		logger: logger,
	}
}

func (q *NarrativeQueue) queueKey(gameID uuid.UUID) string {
	return fmt.Sprintf("narrative-queue:%s", gameID.String())
}

// Push appends a resolved storylet to the end of the game's queue.
func (q *NarrativeQueue) Push(ctx context.Context, gameID uuid.UUID, item storylet.QueueItem) error {
	key := q.queueKey(gameID)

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal queue item: %w", err)
	}

	if err := q.client.rdb.RPush(ctx, key, data).Err(); err != nil {
		q.logger.Error("Failed to push narrative item",
			"error", err,
			"game_id", gameID.String(),
			"key", key)
		return fmt.Errorf("failed to push narrative item: %w", err)
	}

	q.logger.Debug("Pushed narrative item",
		"game_id", gameID.String(),
		"item_id", item.ID,
		"storylet_id", item.StoryletID)

	return nil
}

// Drain removes and returns every queued item for a game, oldest first.
func (q *NarrativeQueue) Drain(ctx context.Context, gameID uuid.UUID) ([]storylet.QueueItem, error) {
	key := q.queueKey(gameID)

	var lrange *redis.StringSliceCmd
	_, err := q.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		q.logger.Error("Failed to drain narrative queue",
			"error", err,
			"game_id", gameID.String(),
			"key", key)
		return nil, fmt.Errorf("failed to drain narrative queue: %w", err)
	}

	items, err := decodeItems(lrange.Val())
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		q.logger.Debug("Drained narrative queue",
			"game_id", gameID.String(),
			"count", len(items))
	}
	return items, nil
}

// Peek returns up to limit queued items without removing them. A limit of
// zero or less returns everything.
func (q *NarrativeQueue) Peek(ctx context.Context, gameID uuid.UUID, limit int) ([]storylet.QueueItem, error) {
	key := q.queueKey(gameID)

	end := int64(limit - 1)
	if limit <= 0 {
		end = -1 // Get all
	}

	raw, err := q.client.rdb.LRange(ctx, key, 0, end).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		q.logger.Error("Failed to peek narrative queue",
			"error", err,
			"game_id", gameID.String(),
			"key", key)
		return nil, fmt.Errorf("failed to peek narrative queue: %w", err)
	}

	return decodeItems(raw)
}

// Clear removes all queued items for a game
func (q *NarrativeQueue) Clear(ctx context.Context, gameID uuid.UUID) error {
	key := q.queueKey(gameID)

	if err := q.client.rdb.Del(ctx, key).Err(); err != nil {
		q.logger.Error("Failed to clear narrative queue",
			"error", err,
			"game_id", gameID.String(),
			"key", key)
		return fmt.Errorf("failed to clear narrative queue: %w", err)
	}

	q.logger.Debug("Cleared narrative queue", "game_id", gameID.String())
	return nil
}

// Depth returns the number of items queued for a game
func (q *NarrativeQueue) Depth(ctx context.Context, gameID uuid.UUID) (int, error) {
	key := q.queueKey(gameID)

	count, err := q.client.rdb.LLen(ctx, key).Result()
	if err != nil {
		q.logger.Error("Failed to get narrative queue depth",
			"error", err,
			"game_id", gameID.String(),
			"key", key)
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}

	return int(count), nil
}

func decodeItems(raw []string) ([]storylet.QueueItem, error) {
	items := make([]storylet.QueueItem, 0, len(raw))
	for _, r := range raw {
		var item storylet.QueueItem
		if err := json.Unmarshal([]byte(r), &item); err != nil {
			return nil, fmt.Errorf("failed to decode narrative item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}
