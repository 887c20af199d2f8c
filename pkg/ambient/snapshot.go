// Package ambient turns changes in the world's ambient state into discrete,
// throttled feed events.
package ambient

import (
	"slices"
	"time"

	"github.com/jwebster45206/world-reactor/pkg/environment"
	"github.com/jwebster45206/world-reactor/pkg/state"
)

// RumorSnapshot is the most recently updated rumor set.
type RumorSnapshot struct {
	GroupID       string                    `json:"group_id"`
	Lines         []string                  `json:"lines"`
	StoryFunction environment.StoryFunction `json:"story_function,omitempty"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// SignageSnapshot is the most recently updated sign.
type SignageSnapshot struct {
	SignID        string                    `json:"sign_id"`
	Text          string                    `json:"text"`
	StoryFunction environment.StoryFunction `json:"story_function,omitempty"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

type WeatherSnapshot struct {
	PresetID      string                    `json:"preset_id,omitempty"`
	Description   string                    `json:"description,omitempty"`
	RainIntensity float64                   `json:"rain_intensity"`
	Thunder       bool                      `json:"thunder"`
	TimeOfDay     state.TimeOfDay           `json:"time_of_day,omitempty"`
	StoryFunction environment.StoryFunction `json:"story_function,omitempty"`
	UpdatedAt     time.Time                 `json:"updated_at,omitzero"`
}

type ZoneSnapshot struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	DangerRating string   `json:"danger_rating,omitempty"`
	Hazards      []string `json:"hazards"`
	Summary      string   `json:"summary,omitempty"`
	Directives   []string `json:"directives,omitempty"`
}

// Snapshot is the ambient view of the world the tracker diffs.
type Snapshot struct {
	Flags   environment.Flags          `json:"flags"`
	Impact  environment.CombinedImpact `json:"impact"`
	Rumor   *RumorSnapshot             `json:"rumor,omitempty"`
	Signage *SignageSnapshot           `json:"signage,omitempty"`
	Weather WeatherSnapshot            `json:"weather"`
	Zone    ZoneSnapshot               `json:"zone"`
}

// Clone copies s so later edits to the caller's slices don't leak in.
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.Rumor != nil {
		r := *s.Rumor
		r.Lines = slices.Clone(s.Rumor.Lines)
		c.Rumor = &r
	}
	if s.Signage != nil {
		sg := *s.Signage
		c.Signage = &sg
	}
	c.Zone.Hazards = slices.Clone(s.Zone.Hazards)
	c.Zone.Directives = slices.Clone(s.Zone.Directives)
	return c
}

// FromState builds a snapshot of gs. The rumor and signage entries are the
// most recently updated ones; ties go to the lowest id.
func FromState(gs *state.GameState) Snapshot {
	s := Snapshot{
		Flags:  gs.Flags,
		Impact: gs.Impact(),
		Weather: WeatherSnapshot{
			PresetID:      gs.Weather.PresetID,
			Description:   gs.Weather.Description,
			RainIntensity: gs.Weather.RainIntensity,
			Thunder:       gs.Weather.Thunder,
			TimeOfDay:     gs.Weather.TimeOfDay,
			StoryFunction: gs.Weather.StoryFunction,
			UpdatedAt:     gs.Weather.UpdatedAt,
		},
		Zone: ZoneSnapshot{
			ID:           gs.Zone.ID,
			Name:         gs.Zone.Name,
			DangerRating: gs.Zone.DangerRating,
			Hazards:      append([]string{}, gs.Zone.Hazards...),
			Summary:      gs.Zone.Summary,
			Directives:   append([]string(nil), gs.Zone.Directives...),
		},
	}

	for id, set := range gs.RumorSets {
		if s.Rumor != nil && !newer(set.UpdatedAt, id, s.Rumor.UpdatedAt, s.Rumor.GroupID) {
			continue
		}
		s.Rumor = &RumorSnapshot{
			GroupID:       id,
			Lines:         append([]string(nil), set.Lines...),
			StoryFunction: set.StoryFunction,
			UpdatedAt:     set.UpdatedAt,
		}
	}

	for id, sign := range gs.Signage {
		if s.Signage != nil && !newer(sign.UpdatedAt, id, s.Signage.UpdatedAt, s.Signage.SignID) {
			continue
		}
		s.Signage = &SignageSnapshot{
			SignID:        id,
			Text:          sign.Text,
			StoryFunction: sign.StoryFunction,
			UpdatedAt:     sign.UpdatedAt,
		}
	}
	return s
}

func newer(at time.Time, id string, bestAt time.Time, bestID string) bool {
	if !at.Equal(bestAt) {
		return at.After(bestAt)
	}
	return id < bestID
}
