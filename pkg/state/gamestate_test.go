package state

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-reactor/pkg/actor"
	"github.com/jwebster45206/world-reactor/pkg/environment"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
)

var t0 = time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

func testState(t *testing.T) *GameState {
	t.Helper()
	pc, err := actor.NewPCFromSpec(&actor.PCSpec{
		ID:       "player",
		Name:     "Nova",
		HP:       20,
		MaxHP:    20,
		AC:       12,
		Position: actor.Position{X: 4, Y: 7},
		Personality: actor.Personality{
			Traits: map[string]int{"earnest": 1},
		},
	})
	require.NoError(t, err)

	gs := NewGameState()
	gs.Player = pc
	gs.NPCs = []actor.NPC{
		{ID: "n-1", Name: "Lira", DialogueID: "npc_lira_vendor", Health: 12, MaxHealth: 12, Interactive: true},
		{ID: "n-2", Name: "Brant", DialogueID: "npc_courier_brant", Health: 12, MaxHealth: 12, Interactive: true},
	}
	gs.Zone = ZoneInfo{ID: "downtown", Name: "Downtown", Hazards: []string{"Smog"}, Directives: []string{"Find the relay"}}
	return gs
}

func TestNewGameState(t *testing.T) {
	gs := NewGameState()
	assert.NotEmpty(t, gs.ID.String())
	assert.Equal(t, environment.DefaultFlags(), gs.Flags)
	assert.NotNil(t, gs.Signage)
	assert.NotNil(t, gs.RumorSets)
	assert.NotNil(t, gs.Storylets.Runtime.Entries)
	assert.Equal(t, Evening, gs.Weather.TimeOfDay)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		check  func(t *testing.T, gs *GameState)
	}{
		{
			name:   "rumor set",
			action: ApplyRumorSet{GroupID: "slum-barflies", Set: RumorSet{Lines: []string{"a"}, SourceID: "rumor.x", UpdatedAt: t0}},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, "rumor.x", gs.RumorSets["slum-barflies"].SourceID)
			},
		},
		{
			name:   "ambient profile by dialogue id",
			action: SetNPCAmbientProfile{DialogueID: "npc_courier_brant", Profile: actor.AmbientProfile{Lines: []string{"psst"}, SourceID: "rumor.x"}},
			check: func(t *testing.T, gs *GameState) {
				assert.Nil(t, gs.NPCs[0].AmbientProfile)
				require.NotNil(t, gs.NPCs[1].AmbientProfile)
				assert.Equal(t, []string{"psst"}, gs.NPCs[1].AmbientProfile.Lines)
			},
		},
		{
			name:   "weather keeps time of day",
			action: ApplyWeather{Weather: WeatherState{PresetID: "weather.curfew.1", RainIntensity: 0.4, UpdatedAt: t0}},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, "weather.curfew.1", gs.Weather.PresetID)
				assert.Equal(t, Evening, gs.Weather.TimeOfDay)
			},
		},
		{
			name:   "time of day",
			action: SetTimeOfDay{TimeOfDay: Night},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, Night, gs.Weather.TimeOfDay)
			},
		},
		{
			name:   "signage",
			action: ApplySignage{SignID: "downtown.vending.primary", Signage: SignageState{VariantID: "sign.blackout.brownout"}},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, "sign.blackout.brownout", gs.Signage["downtown.vending.primary"].VariantID)
			},
		},
		{
			name:   "note",
			action: RegisterNote{Note: NoteInstance{InstanceID: "env-note::a", DefinitionID: "a"}},
			check: func(t *testing.T, gs *GameState) {
				assert.True(t, gs.HasNoteDefinition("a"))
				assert.False(t, gs.HasNoteDefinition("b"))
			},
		},
		{
			name:   "map item",
			action: AddMapItem{Item: MapItem{ID: "i-1", Name: "Found Note"}},
			check: func(t *testing.T, gs *GameState) {
				require.Len(t, gs.MapItems, 1)
			},
		},
		{
			name:   "log",
			action: AddLogMessage{Message: "hello"},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, []string{"hello"}, gs.Log)
			},
		},
		{
			name:   "flags",
			action: SetFlags{Flags: environment.Flags{GangHeat: environment.GangHeatHigh, CurfewLevel: 3}},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, 3, gs.Flags.CurfewLevel)
			},
		},
		{
			name:   "zone",
			action: SetZone{Zone: ZoneInfo{ID: "slums"}},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, "slums", gs.Zone.ID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := testState(t)
			gs.Apply(tt.action)
			tt.check(t, gs)
		})
	}
}

func TestApply_RegisterNoteReplaces(t *testing.T) {
	gs := NewGameState()
	gs.Apply(RegisterNote{Note: NoteInstance{InstanceID: "env-note::a", DefinitionID: "a", Lines: []string{"old"}}})
	gs.Apply(RegisterNote{Note: NoteInstance{InstanceID: "env-note::a", DefinitionID: "a", Lines: []string{"new"}}})
	require.Len(t, gs.Notes, 1)
	assert.Equal(t, []string{"new"}, gs.Notes[0].Lines)
}

func TestApply_NilMaps(t *testing.T) {
	gs := &GameState{}
	gs.Apply(ApplyRumorSet{GroupID: "g", Set: RumorSet{SourceID: "s"}})
	gs.Apply(ApplySignage{SignID: "s", Signage: SignageState{VariantID: "v"}})
	assert.Len(t, gs.RumorSets, 1)
	assert.Len(t, gs.Signage, 1)
}

func TestAddLog_Cap(t *testing.T) {
	gs := NewGameState()
	for i := range MaxLogEntries + 5 {
		gs.AddLog(fmt.Sprintf("line %d", i))
	}
	gs.AddLog("")

	require.Len(t, gs.Log, MaxLogEntries)
	assert.Equal(t, "line 5", gs.Log[0])
	assert.Equal(t, fmt.Sprintf("line %d", MaxLogEntries+4), gs.Log[len(gs.Log)-1])
}

func TestSinks(t *testing.T) {
	gs := testState(t)

	assert.Equal(t, 8, gs.AdjustFactionReputation("resistance", 8))
	assert.Equal(t, 3, gs.AdjustFactionReputation("resistance", -5))

	hp, err := gs.UpdateHealth(-30, false)
	require.NoError(t, err)
	assert.Equal(t, 1, hp)

	score, err := gs.AdjustPersonalityTrait("earnest", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, score)

	empty := NewGameState()
	_, err = empty.UpdateHealth(-1, false)
	assert.Error(t, err)
	_, err = empty.AdjustPersonalityTrait("earnest", 1)
	assert.Error(t, err)
}

func TestSnapshot_IsDeep(t *testing.T) {
	gs := testState(t)
	gs.Apply(ApplyRumorSet{GroupID: "g", Set: RumorSet{Lines: []string{"orig"}, SourceID: "s"}})
	gs.Apply(RegisterNote{Note: NoteInstance{InstanceID: "n", DefinitionID: "d", Lines: []string{"orig"}}})
	gs.Apply(SetNPCAmbientProfile{DialogueID: "npc_lira_vendor", Profile: actor.AmbientProfile{Lines: []string{"orig"}}})
	gs.Storylets.Enqueue(storylet.QueueItem{ID: "q", Roles: []storylet.ResolvedRole{{RoleID: "mentor"}}})
	gs.Storylets.Runtime.Entries["p"] = storylet.RuntimeEntry{StoryletID: "p", TimesTriggered: 1}

	snap := gs.Snapshot()
	require.Equal(t, gs.ID, snap.ID)

	snap.RumorSets["g"].Lines[0] = "changed"
	snap.Notes[0].Lines[0] = "changed"
	snap.NPCs[0].AmbientProfile.Lines[0] = "changed"
	snap.Zone.Hazards[0] = "changed"
	snap.Storylets.Queue[0].Roles[0].RoleID = "changed"
	snap.Storylets.Runtime.Entries["p"] = storylet.RuntimeEntry{TimesTriggered: 9}
	snap.FactionReputation["corpsec"] = -5
	_, err := snap.UpdateHealth(-5, false)
	require.NoError(t, err)

	assert.Equal(t, "orig", gs.RumorSets["g"].Lines[0])
	assert.Equal(t, "orig", gs.Notes[0].Lines[0])
	assert.Equal(t, "orig", gs.NPCs[0].AmbientProfile.Lines[0])
	assert.Equal(t, "Smog", gs.Zone.Hazards[0])
	assert.Equal(t, "mentor", gs.Storylets.Queue[0].Roles[0].RoleID)
	assert.Equal(t, 1, gs.Storylets.Runtime.Entries["p"].TimesTriggered)
	assert.NotContains(t, gs.FactionReputation, "corpsec")
	assert.Equal(t, 20, gs.Player.Health())

	var nilState *GameState
	assert.Nil(t, nilState.Snapshot())
}

func TestSnapshot_KeepsKnockedOutPlayer(t *testing.T) {
	gs := testState(t)
	hp, err := gs.UpdateHealth(-50, true)
	require.NoError(t, err)
	require.Equal(t, 0, hp)

	snap := gs.Snapshot()
	assert.Equal(t, 0, snap.Player.Health())
	assert.Equal(t, 0, gs.Player.Health())
}

func TestStoryletLedger_Dequeue(t *testing.T) {
	var l StoryletLedger
	l.Enqueue(storylet.QueueItem{ID: "a"})
	l.Enqueue(storylet.QueueItem{ID: "b"})
	l.Enqueue(storylet.QueueItem{ID: "c"})

	item, ok := l.Dequeue("b")
	require.True(t, ok)
	assert.Equal(t, "b", item.ID)

	item, ok = l.Dequeue("")
	require.True(t, ok)
	assert.Equal(t, "a", item.ID)

	_, ok = l.Dequeue("missing")
	assert.False(t, ok)
	require.Len(t, l.Queue, 1)
	assert.Equal(t, "c", l.Queue[0].ID)
}

func TestGameState_JSONRoundTrip(t *testing.T) {
	gs := testState(t)
	gs.Apply(ApplyWeather{Weather: WeatherState{PresetID: "weather.curfew.2", RainIntensity: 0.6, UpdatedAt: t0}})
	_, err := gs.UpdateHealth(-4, false)
	require.NoError(t, err)

	data, err := json.Marshal(gs)
	require.NoError(t, err)

	var back GameState
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, gs.ID, back.ID)
	assert.Equal(t, gs.Weather, back.Weather)
	require.NotNil(t, back.Player)
	assert.Equal(t, 16, back.Player.Health())
	assert.Equal(t, gs.NPCs, back.NPCs)
}

func TestGameState_Impact(t *testing.T) {
	gs := NewGameState()
	gs.Flags.CurfewLevel = 3
	assert.Equal(t, environment.ImpactFor(gs.Flags, nil, ""), gs.Impact())
	assert.NotEqual(t, environment.Neutral(), gs.Impact())
}

func TestStore(t *testing.T) {
	s := NewStore(nil)
	s.Dispatch(AddLogMessage{Message: "one"})

	snap := s.Snapshot()
	snap.AddLog("not stored")
	assert.Equal(t, []string{"one"}, s.Snapshot().Log)

	err := s.Update(func(gs *GameState) error {
		gs.MissionLevelIndex = 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Snapshot().MissionLevelIndex)

	assert.Error(t, s.Update(func(*GameState) error { return fmt.Errorf("boom") }))
}

func TestValidTimeOfDay(t *testing.T) {
	for _, tod := range []TimeOfDay{Morning, Day, Evening, Night} {
		if !ValidTimeOfDay(tod) {
			t.Errorf("ValidTimeOfDay(%q) = false", tod)
		}
	}
	if ValidTimeOfDay("dusk") {
		t.Error("ValidTimeOfDay(dusk) = true")
	}
}
