package environment

import (
	"fmt"
	"slices"
)

// GangHeatLevel is the city-wide gang activity tier.
type GangHeatLevel string

const (
	GangHeatLow  GangHeatLevel = "low"
	GangHeatMed  GangHeatLevel = "med"
	GangHeatHigh GangHeatLevel = "high"
)

// SupplyScarcityLevel is the rationing tier for shops and depots.
type SupplyScarcityLevel string

const (
	SupplyNorm     SupplyScarcityLevel = "norm"
	SupplyTight    SupplyScarcityLevel = "tight"
	SupplyRationed SupplyScarcityLevel = "rationed"
)

// BlackoutTier is the state of the power grid.
type BlackoutTier string

const (
	BlackoutNone     BlackoutTier = "none"
	BlackoutBrownout BlackoutTier = "brownout"
	BlackoutRolling  BlackoutTier = "rolling"
)

// MaxCurfewLevel is the highest curfew tier (lockdown).
const MaxCurfewLevel = 3

// StoryFunction tags what a piece of ambient content does for the story.
type StoryFunction string

const (
	StoryForeshadow    StoryFunction = "foreshadow"
	StoryMisdirect     StoryFunction = "misdirect"
	StoryPayoff        StoryFunction = "payoff"
	StoryWorldBuilding StoryFunction = "world-building"
)

// Flags are the raw world conditions everything else is derived from.
type Flags struct {
	GangHeat       GangHeatLevel       `json:"gang_heat"`
	CurfewLevel    int                 `json:"curfew_level"`
	SupplyScarcity SupplyScarcityLevel `json:"supply_scarcity"`
	BlackoutTier   BlackoutTier        `json:"blackout_tier"`
}

// DefaultFlags returns the calm-city starting flags.
func DefaultFlags() Flags {
	return Flags{
		GangHeat:       GangHeatLow,
		CurfewLevel:    0,
		SupplyScarcity: SupplyNorm,
		BlackoutTier:   BlackoutNone,
	}
}

// AllGangHeatLevels lists gang heat tiers from calmest to hottest.
var AllGangHeatLevels = []GangHeatLevel{GangHeatLow, GangHeatMed, GangHeatHigh}

// AllSupplyLevels lists scarcity tiers from normal to rationed.
var AllSupplyLevels = []SupplyScarcityLevel{SupplyNorm, SupplyTight, SupplyRationed}

// AllBlackoutTiers lists grid tiers from stable to rolling blackouts.
var AllBlackoutTiers = []BlackoutTier{BlackoutNone, BlackoutBrownout, BlackoutRolling}

// Validate reports the first flag holding a value outside its tier list.
func (f Flags) Validate() error {
	if !slices.Contains(AllGangHeatLevels, f.GangHeat) {
		return fmt.Errorf("invalid gang heat %q", f.GangHeat)
	}
	if f.CurfewLevel < 0 || f.CurfewLevel > MaxCurfewLevel {
		return fmt.Errorf("curfew level %d out of range 0-%d", f.CurfewLevel, MaxCurfewLevel)
	}
	if !slices.Contains(AllSupplyLevels, f.SupplyScarcity) {
		return fmt.Errorf("invalid supply scarcity %q", f.SupplyScarcity)
	}
	if !slices.Contains(AllBlackoutTiers, f.BlackoutTier) {
		return fmt.Errorf("invalid blackout tier %q", f.BlackoutTier)
	}
	return nil
}
