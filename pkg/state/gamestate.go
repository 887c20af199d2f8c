package state

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/world-reactor/pkg/actor"
	"github.com/jwebster45206/world-reactor/pkg/environment"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
)

// MaxLogEntries caps the player log; the oldest lines are dropped first.
const MaxLogEntries = 200

// TimeOfDay is the phase of the day cycle.
type TimeOfDay string

const (
	Morning TimeOfDay = "morning"
	Day     TimeOfDay = "day"
	Evening TimeOfDay = "evening"
	Night   TimeOfDay = "night"
)

// ValidTimeOfDay reports whether t is one of the day phases.
func ValidTimeOfDay(t TimeOfDay) bool {
	return slices.Contains([]TimeOfDay{Morning, Day, Evening, Night}, t)
}

// WeatherState is the applied weather preset.
type WeatherState struct {
	PresetID      string                    `json:"preset_id,omitempty"`
	Description   string                    `json:"description,omitempty"`
	RainIntensity float64                   `json:"rain_intensity"`
	Thunder       bool                      `json:"thunder,omitempty"`
	SirenLoop     bool                      `json:"siren_loop,omitempty"`
	TimeOfDay     TimeOfDay                 `json:"time_of_day,omitempty"`
	StoryFunction environment.StoryFunction `json:"story_function,omitempty"`
	UpdatedAt     time.Time                 `json:"updated_at,omitzero"`
}

// SignageState is the variant currently shown on one sign.
type SignageState struct {
	VariantID     string                    `json:"variant_id"`
	Text          string                    `json:"text,omitempty"`
	StoryFunction environment.StoryFunction `json:"story_function,omitempty"`
	UpdatedAt     time.Time                 `json:"updated_at,omitzero"`
}

// RumorSet is the chatter a group of NPCs repeats.
type RumorSet struct {
	Lines         []string                  `json:"lines"`
	StoryFunction environment.StoryFunction `json:"story_function,omitempty"`
	SourceID      string                    `json:"source_id"`
	UpdatedAt     time.Time                 `json:"updated_at,omitzero"`
}

// NoteInstance is a spawned environmental note.
type NoteInstance struct {
	InstanceID    string                    `json:"instance_id"`
	DefinitionID  string                    `json:"definition_id"`
	AreaID        string                    `json:"area_id,omitempty"`
	Lines         []string                  `json:"lines"`
	StoryFunction environment.StoryFunction `json:"story_function,omitempty"`
	SpawnedAt     time.Time                 `json:"spawned_at"`
}

// MapItem is an item lying on the current map.
type MapItem struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Position    actor.Position `json:"position"`
}

// ZoneInfo describes the area the player is in.
type ZoneInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	DangerRating string   `json:"danger_rating,omitempty"`
	Hazards      []string `json:"hazards,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Directives   []string `json:"directives,omitempty"`
}

// MissionProgress tracks the current mission level.
type MissionProgress struct {
	LevelID        string    `json:"level_id,omitempty"`
	Name           string    `json:"name,omitempty"`
	Accomplished   bool      `json:"accomplished,omitempty"`
	AccomplishedAt time.Time `json:"accomplished_at,omitzero"`
}

// StoryletLedger is the storylet runtime history plus the items waiting to
// be shown.
type StoryletLedger struct {
	Runtime storylet.RuntimeSnapshot `json:"runtime"`
	Queue   []storylet.QueueItem     `json:"queue,omitempty"`
}

// Enqueue appends a resolved item to the display queue.
func (l *StoryletLedger) Enqueue(item storylet.QueueItem) {
	l.Queue = append(l.Queue, item)
}

// Dequeue removes the item with id, or the oldest item when id is empty.
func (l *StoryletLedger) Dequeue(id string) (storylet.QueueItem, bool) {
	for i, item := range l.Queue {
		if id == "" || item.ID == id {
			l.Queue = slices.Delete(l.Queue, i, i+1)
			return item, true
		}
	}
	return storylet.QueueItem{}, false
}

// GameState is the world the reactivity engine reads and writes.
type GameState struct {
	ID                uuid.UUID               `json:"id"`
	Locale            string                  `json:"locale"`
	Flags             environment.Flags       `json:"flags"`
	Weather           WeatherState            `json:"weather"`
	Signage           map[string]SignageState `json:"signage"`
	RumorSets         map[string]RumorSet     `json:"rumor_sets"`
	Notes             []NoteInstance          `json:"notes,omitempty"`
	NPCs              []actor.NPC             `json:"npcs,omitempty"`
	Player            *actor.PC               `json:"player,omitempty"`
	Zone              ZoneInfo                `json:"zone"`
	MapItems          []MapItem               `json:"map_items,omitempty"`
	Log               []string                `json:"log,omitempty"`
	MissionLevelIndex int                     `json:"mission_level_index"`
	Mission           MissionProgress         `json:"mission"`
	Storylets         StoryletLedger          `json:"storylets"`
	FactionReputation map[string]int          `json:"faction_reputation"`
}

// NewGameState returns a calm-city state with a fresh id.
func NewGameState() *GameState {
	return &GameState{
		ID:                uuid.New(),
		Locale:            "en",
		Flags:             environment.DefaultFlags(),
		Weather:           WeatherState{TimeOfDay: Evening},
		Signage:           make(map[string]SignageState),
		RumorSets:         make(map[string]RumorSet),
		Storylets:         StoryletLedger{Runtime: storylet.NewRuntimeSnapshot()},
		FactionReputation: make(map[string]int),
	}
}

// Snapshot returns a deep copy that shares nothing with gs.
func (gs *GameState) Snapshot() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs

	c.Signage = maps.Clone(gs.Signage)
	c.RumorSets = make(map[string]RumorSet, len(gs.RumorSets))
	for k, v := range gs.RumorSets {
		v.Lines = slices.Clone(v.Lines)
		c.RumorSets[k] = v
	}

	c.Notes = make([]NoteInstance, len(gs.Notes))
	for i, n := range gs.Notes {
		n.Lines = slices.Clone(n.Lines)
		c.Notes[i] = n
	}

	c.NPCs = make([]actor.NPC, len(gs.NPCs))
	for i, n := range gs.NPCs {
		c.NPCs[i] = n.Clone()
	}
	c.Player = gs.Player.Clone()

	c.Zone.Hazards = slices.Clone(gs.Zone.Hazards)
	c.Zone.Directives = slices.Clone(gs.Zone.Directives)
	c.MapItems = slices.Clone(gs.MapItems)
	c.Log = slices.Clone(gs.Log)
	c.FactionReputation = maps.Clone(gs.FactionReputation)

	c.Storylets.Runtime = gs.Storylets.Runtime.Clone()
	c.Storylets.Queue = make([]storylet.QueueItem, len(gs.Storylets.Queue))
	for i, item := range gs.Storylets.Queue {
		item.Roles = slices.Clone(item.Roles)
		item.Tags = slices.Clone(item.Tags)
		c.Storylets.Queue[i] = item
	}
	return &c
}

// HasNoteDefinition reports whether a note from definition id was spawned.
func (gs *GameState) HasNoteDefinition(id string) bool {
	return slices.ContainsFunc(gs.Notes, func(n NoteInstance) bool {
		return n.DefinitionID == id
	})
}

// PlayerPosition returns the player's tile, or the origin without a player.
func (gs *GameState) PlayerPosition() actor.Position {
	if gs.Player == nil || gs.Player.Spec == nil {
		return actor.Position{}
	}
	return gs.Player.Spec.Position
}

// Impact resolves the combined environmental impact for the current flags
// and zone.
func (gs *GameState) Impact() environment.CombinedImpact {
	return environment.ImpactFor(gs.Flags, gs.Zone.Hazards, gs.Zone.ID)
}
