package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jwebster45206/world-reactor/pkg/environment"
)

// FlagKey names one of the world flags content can be keyed on.
type FlagKey string

const (
	FlagGangHeat       FlagKey = "gang_heat"
	FlagCurfewLevel    FlagKey = "curfew_level"
	FlagSupplyScarcity FlagKey = "supply_scarcity"
	FlagBlackoutTier   FlagKey = "blackout_tier"
)

// FlagValue is a flag value as text. Curfew levels are written as JSON
// numbers and stored as their decimal string.
type FlagValue string

func (v *FlagValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FlagValue(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flag value must be a string or integer: %w", err)
	}
	*v = FlagValue(strconv.Itoa(n))
	return nil
}

// CurfewValue formats a curfew level as a FlagValue.
func CurfewValue(level int) FlagValue {
	return FlagValue(strconv.Itoa(level))
}

// FlagMatch keys a piece of content to a single flag value.
type FlagMatch struct {
	Flag  FlagKey   `json:"flag"`
	Value FlagValue `json:"value"`
}

// Matches reports whether flags currently hold the keyed value.
func (m FlagMatch) Matches(flags environment.Flags) bool {
	return CurrentValue(flags, m.Flag) == m.Value
}

// CurrentValue reads one flag as a FlagValue. Unknown keys yield "".
func CurrentValue(flags environment.Flags, key FlagKey) FlagValue {
	switch key {
	case FlagGangHeat:
		return FlagValue(flags.GangHeat)
	case FlagCurfewLevel:
		return CurfewValue(flags.CurfewLevel)
	case FlagSupplyScarcity:
		return FlagValue(flags.SupplyScarcity)
	case FlagBlackoutTier:
		return FlagValue(flags.BlackoutTier)
	default:
		return ""
	}
}

// Position is a tile coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RumorRotation is a set of lines a group of NPCs repeats at a gang heat level.
type RumorRotation struct {
	ID string `json:"id"`
	FlagMatch
	GroupID       string                    `json:"group_id"`
	Lines         []string                  `json:"lines"`
	StoryFunction environment.StoryFunction `json:"story_function"`
	Description   string                    `json:"description"`
}

// WeatherPreset is the weather applied for a curfew level or gang heat override.
type WeatherPreset struct {
	ID string `json:"id"`
	FlagMatch
	RainIntensity float64                   `json:"rain_intensity"`
	Thunder       bool                      `json:"thunder"`
	SirenLoop     bool                      `json:"siren_loop"`
	StoryFunction environment.StoryFunction `json:"story_function"`
	Description   string                    `json:"description"`
}

// SignageVariant is the text a sign shows for a flag value.
type SignageVariant struct {
	ID string `json:"id"`
	FlagMatch
	SignID        string                    `json:"sign_id"`
	Text          string                    `json:"text"`
	StoryFunction environment.StoryFunction `json:"story_function"`
	Description   string                    `json:"description,omitempty"`
}

// NoteDefinition is a memo dropped into the world once per run.
type NoteDefinition struct {
	ID string `json:"id"`
	FlagMatch
	Lines           []string                  `json:"lines"`
	StoryFunction   environment.StoryFunction `json:"story_function"`
	PreferredZoneID string                    `json:"preferred_zone_id,omitempty"`
	Position        *Position                 `json:"position,omitempty"`
	Description     string                    `json:"description,omitempty"`
}
