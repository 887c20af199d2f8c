package ambient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-reactor/pkg/content"
	"github.com/jwebster45206/world-reactor/pkg/environment"
	"github.com/jwebster45206/world-reactor/pkg/state"
)

var t0 = time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return t0.Add(time.Duration(seconds) * time.Second)
}

func baseSnapshot() Snapshot {
	return Snapshot{
		Flags:   environment.DefaultFlags(),
		Impact:  environment.Neutral(),
		Weather: WeatherSnapshot{TimeOfDay: state.Evening},
		Zone: ZoneSnapshot{
			ID:           "zone-1",
			Name:         "Test Zone",
			DangerRating: "low",
			Hazards:      []string{},
		},
	}
}

func TestCollect_PrimedBaselineIsQuiet(t *testing.T) {
	tr := New(Options{})
	tr.Prime(baseSnapshot())
	assert.Empty(t, tr.Collect(baseSnapshot(), at(1)))
}

func TestCollect_WithoutPrimePrimes(t *testing.T) {
	tr := New(Options{})
	assert.Nil(t, tr.Collect(baseSnapshot(), at(0)))
	assert.True(t, tr.Primed())

	next := baseSnapshot()
	next.Zone.DangerRating = "high"
	events := tr.Collect(next, at(1))
	require.Len(t, events, 1)
	assert.Equal(t, CategoryZoneDanger, events[0].Category)

	tr.Reset()
	assert.False(t, tr.Primed())
}

func TestCollect_Rumor(t *testing.T) {
	tr := New(Options{Cooldowns: map[Category]time.Duration{CategoryRumor: 0}})
	tr.Prime(baseSnapshot())

	s := baseSnapshot()
	s.Rumor = &RumorSnapshot{
		GroupID:       "gossip",
		Lines:         []string{"The courier vanished near Dock 8."},
		StoryFunction: environment.StoryWorldBuilding,
		UpdatedAt:     at(0),
	}
	events := tr.Collect(s, at(2))
	require.Len(t, events, 1)
	assert.Equal(t, CategoryRumor, events[0].Category)
	assert.Equal(t, "gossip", events[0].GroupID)
	assert.Equal(t, []string{"The courier vanished near Dock 8."}, events[0].Lines)

	// Same rumor again: nothing to say.
	assert.Empty(t, tr.Collect(s, at(3)))

	// Empty rumors never emit.
	empty := baseSnapshot()
	empty.Rumor = &RumorSnapshot{GroupID: "gossip", UpdatedAt: at(4)}
	assert.Empty(t, tr.Collect(empty, at(5)))
}

func TestCollect_Signage(t *testing.T) {
	tr := New(Options{})
	tr.Prime(baseSnapshot())

	s := baseSnapshot()
	s.Signage = &SignageSnapshot{SignID: "downtown.vending.primary", Text: "CO-LAW: half power", UpdatedAt: at(0)}
	events := tr.Collect(s, at(1))
	require.Len(t, events, 1)
	assert.Equal(t, "CO-LAW: half power", events[0].Text)

	// A new variant inside the 45s window is swallowed but becomes the
	// baseline.
	s2 := baseSnapshot()
	s2.Signage = &SignageSnapshot{SignID: "downtown.vending.primary", Text: "CO-LAW: offline", UpdatedAt: at(10)}
	assert.Empty(t, tr.Collect(s2, at(10)))
	assert.Empty(t, tr.Collect(s2, at(100)))
}

func TestCollect_WeatherCooldown(t *testing.T) {
	tr := New(Options{Cooldowns: map[Category]time.Duration{CategoryWeather: 5 * time.Second}})
	tr.Prime(baseSnapshot())

	weather := func(preset string, updated time.Time, rain float64, thunder bool) Snapshot {
		s := baseSnapshot()
		s.Weather = WeatherSnapshot{PresetID: preset, UpdatedAt: updated, RainIntensity: rain, Thunder: thunder, TimeOfDay: state.Evening}
		return s
	}

	first := tr.Collect(weather("rain", at(0), 3, false), at(1))
	second := tr.Collect(weather("storm", at(2), 5, true), at(4))
	third := tr.Collect(weather("storm", at(3), 6, true), at(7))

	require.Len(t, first, 1)
	assert.Equal(t, CategoryWeather, first[0].Category)
	assert.Empty(t, second)
	require.Len(t, third, 1)
	require.NotNil(t, third[0].Weather)
	assert.Equal(t, "storm", third[0].Weather.PresetID)
	assert.Equal(t, 6.0, third[0].Weather.RainIntensity)
}

func TestCollect_TimeOfDayOnly(t *testing.T) {
	tr := New(Options{})
	tr.Prime(baseSnapshot())

	s := baseSnapshot()
	s.Weather.TimeOfDay = state.Night
	events := tr.Collect(s, at(1))
	require.Len(t, events, 1)
	assert.Equal(t, CategoryWeather, events[0].Category)
	assert.Equal(t, state.Night, events[0].Weather.TimeOfDay)
}

func TestCollect_HazardsAndDanger(t *testing.T) {
	tr := New(Options{Cooldowns: map[Category]time.Duration{CategoryHazardChange: 0}})
	prev := baseSnapshot()
	prev.Zone.Hazards = []string{"Lingering Tear Gas"}
	tr.Prime(prev)

	cur := baseSnapshot()
	cur.Zone.DangerRating = "moderate"
	cur.Zone.Hazards = []string{"lingering tear gas", "Rooftop Snipers"}
	events := tr.Collect(cur, at(9))

	require.Len(t, events, 2)
	assert.Equal(t, CategoryZoneDanger, events[0].Category)
	assert.Equal(t, "low", events[0].PreviousDanger)
	assert.Equal(t, "moderate", events[0].DangerRating)
	assert.Empty(t, events[0].FlagChanges)

	assert.Equal(t, CategoryHazardChange, events[1].Category)
	assert.Equal(t, []string{"Rooftop Snipers"}, events[1].Added)
	assert.Equal(t, []string{}, events[1].Removed)
}

func TestCollect_FlagChangesBundle(t *testing.T) {
	tr := New(Options{})
	tr.Prime(baseSnapshot())

	s := baseSnapshot()
	s.Flags.CurfewLevel = 2
	s.Flags.BlackoutTier = environment.BlackoutRolling
	events := tr.Collect(s, at(1))

	require.Len(t, events, 1)
	assert.Equal(t, []FlagChange{
		{Flag: content.FlagCurfewLevel, Previous: "0", Current: "2"},
		{Flag: content.FlagBlackoutTier, Previous: "none", Current: "rolling"},
	}, events[0].FlagChanges)
}

func TestCollect_ZoneBrief(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   bool
	}{
		{"new zone id", func(s *Snapshot) { s.Zone.ID = "zone-2" }, true},
		{"renamed", func(s *Snapshot) { s.Zone.Name = "Renamed" }, true},
		{"summary", func(s *Snapshot) { s.Zone.Summary = "Checkpoints everywhere." }, true},
		{"directive order", func(s *Snapshot) { s.Zone.Directives = []string{"b", "a"} }, true},
		{"hazards only", func(s *Snapshot) { s.Zone.Hazards = []string{"Smog"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := baseSnapshot()
			prev.Zone.Directives = []string{"a", "b"}
			tr := New(Options{})
			tr.Prime(prev)

			cur := baseSnapshot()
			cur.Zone.Directives = []string{"a", "b"}
			tt.mutate(&cur)

			var got bool
			for _, ev := range tr.Collect(cur, at(1)) {
				if ev.Category == CategoryZoneBrief {
					got = true
					assert.Equal(t, cur.Zone.Name, ev.ZoneName)
				}
			}
			if got != tt.want {
				t.Errorf("zoneBrief emitted = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollect_CooldownsAreIndependent(t *testing.T) {
	tr := New(Options{})
	tr.Prime(baseSnapshot())

	s := baseSnapshot()
	s.Zone.DangerRating = "high"
	require.Len(t, tr.Collect(s, at(1)), 1)

	s2 := baseSnapshot()
	s2.Zone.DangerRating = "extreme"
	s2.Weather.TimeOfDay = state.Night
	events := tr.Collect(s2, at(5))
	require.Len(t, events, 1, "zoneDanger still cooling down")
	assert.Equal(t, CategoryWeather, events[0].Category)

	s3 := baseSnapshot()
	s3.Zone.DangerRating = "low"
	s3.Weather.TimeOfDay = state.Night
	events = tr.Collect(s3, at(13))
	require.Len(t, events, 1)
	assert.Equal(t, CategoryZoneDanger, events[0].Category)
}

func TestBrief(t *testing.T) {
	s := baseSnapshot()
	s.Zone.Summary = "Quiet, for now."
	s.Zone.Directives = []string{"Find the relay"}

	ev := Brief(s, at(0))
	assert.Equal(t, CategoryZoneBrief, ev.Category)
	assert.Equal(t, "Test Zone", ev.ZoneName)
	assert.Equal(t, []string{"Find the relay"}, ev.Directives)

	s.Zone.Directives[0] = "changed"
	assert.Equal(t, "Find the relay", ev.Directives[0])
}

func TestFromState(t *testing.T) {
	gs := state.NewGameState()
	gs.Flags.CurfewLevel = 3
	gs.Zone = state.ZoneInfo{ID: "downtown", Name: "Downtown", DangerRating: "high", Hazards: []string{"Smog"}}
	gs.Apply(state.ApplyRumorSet{GroupID: "slum-barflies", Set: state.RumorSet{Lines: []string{"old"}, UpdatedAt: at(1)}})
	gs.Apply(state.ApplyRumorSet{GroupID: "dock-liquor-patrons", Set: state.RumorSet{Lines: []string{"new"}, UpdatedAt: at(5)}})
	gs.Apply(state.ApplySignage{SignID: "b.sign", Signage: state.SignageState{Text: "B", UpdatedAt: at(2)}})
	gs.Apply(state.ApplySignage{SignID: "a.sign", Signage: state.SignageState{Text: "A", UpdatedAt: at(2)}})
	gs.Apply(state.ApplyWeather{Weather: state.WeatherState{PresetID: "weather.curfew.3", Thunder: true, UpdatedAt: at(3)}})

	s := FromState(gs)
	require.NotNil(t, s.Rumor)
	assert.Equal(t, "dock-liquor-patrons", s.Rumor.GroupID)
	require.NotNil(t, s.Signage)
	assert.Equal(t, "a.sign", s.Signage.SignID, "ties go to the lowest id")
	assert.Equal(t, "weather.curfew.3", s.Weather.PresetID)
	assert.Equal(t, state.Evening, s.Weather.TimeOfDay)
	assert.Equal(t, gs.Impact(), s.Impact)
	assert.Equal(t, "high", s.Zone.DangerRating)

	s.Zone.Hazards[0] = "changed"
	assert.Equal(t, "Smog", gs.Zone.Hazards[0])

	empty := FromState(state.NewGameState())
	assert.Nil(t, empty.Rumor)
	assert.Nil(t, empty.Signage)
}

func TestCollect_BaselineIsCopied(t *testing.T) {
	tr := New(Options{})
	s := baseSnapshot()
	s.Zone.Hazards = []string{"Smog"}
	s.Zone.Directives = []string{"Find the relay"}
	s.Rumor = &RumorSnapshot{GroupID: "gossip", Lines: []string{"old"}, UpdatedAt: at(0)}
	tr.Prime(s)

	// Editing the caller's slices in place must not move the baseline.
	s.Zone.Hazards[0] = "Rooftop Snipers"
	s.Zone.Directives[0] = "Lie low"
	s.Rumor.Lines[0] = "new"

	var categories []Category
	for _, ev := range tr.Collect(s, at(1)) {
		categories = append(categories, ev.Category)
	}
	assert.Equal(t, []Category{CategoryRumor, CategoryHazardChange, CategoryZoneBrief}, categories)
}
