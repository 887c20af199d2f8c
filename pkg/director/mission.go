package director

import (
	"context"
	"errors"
	"time"

	"github.com/jwebster45206/world-reactor/pkg/state"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
)

// Mission progression event types.
const (
	EventMissionAccomplished   = "MISSION_ACCOMPLISHED"
	EventLevelAdvanceRequested = "LEVEL_ADVANCE_REQUESTED"
)

// MissionEvent identifies a mission level.
type MissionEvent struct {
	Level   int
	LevelID string
	Name    string
}

func (e MissionEvent) data() map[string]any {
	return map[string]any{
		"level":    e.Level,
		"level_id": e.LevelID,
		"name":     e.Name,
	}
}

// LevelAdvanceEvent asks the game to move on to the next level.
type LevelAdvanceEvent struct {
	MissionEvent
	NextLevel   int
	NextLevelID string
}

// MissionAccomplished marks the current mission done, broadcasts
// MISSION_ACCOMPLISHED and triggers a missionCompletion storylet. A failed
// broadcast is logged; the storylet still resolves.
func (d *Director) MissionAccomplished(ctx context.Context, gs *state.GameState, ev MissionEvent, now time.Time) (*storylet.QueueItem, error) {
	if gs == nil {
		return nil, errors.New("director: nil game state")
	}

	gs.Mission = state.MissionProgress{
		LevelID:        ev.LevelID,
		Name:           ev.Name,
		Accomplished:   true,
		AccomplishedAt: now,
	}
	d.publish(ctx, gs, EventMissionAccomplished, ev.data())

	return d.TriggerStorylet(ctx, gs, TriggerRequest{
		Type:      storylet.TriggerMissionCompletion,
		MissionID: ev.LevelID,
	}, now)
}

// RequestLevelAdvance broadcasts LEVEL_ADVANCE_REQUESTED. Moving the game to
// the next level is left to the listener.
func (d *Director) RequestLevelAdvance(ctx context.Context, gs *state.GameState, ev LevelAdvanceEvent) error {
	if gs == nil {
		return errors.New("director: nil game state")
	}
	data := ev.data()
	data["next_level"] = ev.NextLevel
	data["next_level_id"] = ev.NextLevelID
	if d.publisher == nil {
		return nil
	}
	return d.publisher.Publish(ctx, gs.ID, EventLevelAdvanceRequested, data)
}

func (d *Director) publish(ctx context.Context, gs *state.GameState, eventType string, data map[string]any) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, gs.ID, eventType, data); err != nil {
		d.logger.Error("Failed to publish mission event",
			"error", err,
			"game_id", gs.ID.String(),
			"event_type", eventType)
	}
}
