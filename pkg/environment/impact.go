package environment

// LoadoutBias is the gear profile patrols favor.
type LoadoutBias string

const (
	LoadoutLight    LoadoutBias = "light"
	LoadoutBalanced LoadoutBias = "balanced"
	LoadoutHeavy    LoadoutBias = "heavy"
	LoadoutSensor   LoadoutBias = "sensor"
)

// SafehouseAccess is how reachable faction safehouses are.
type SafehouseAccess string

const (
	SafehouseOpen       SafehouseAccess = "open"
	SafehouseRestricted SafehouseAccess = "restricted"
	SafehouseSealed     SafehouseAccess = "sealed"
)

// AdvisoryLevel is the travel warning shown to the player.
type AdvisoryLevel string

const (
	AdvisoryClear   AdvisoryLevel = "clear"
	AdvisoryCaution AdvisoryLevel = "caution"
	AdvisorySevere  AdvisoryLevel = "severe"
)

var loadoutPriority = map[LoadoutBias]int{
	LoadoutLight:    0,
	LoadoutBalanced: 1,
	LoadoutHeavy:    2,
	LoadoutSensor:   3,
}

var safehousePriority = map[SafehouseAccess]int{
	SafehouseOpen:       0,
	SafehouseRestricted: 1,
	SafehouseSealed:     2,
}

var advisoryPriority = map[AdvisoryLevel]int{
	AdvisoryClear:   0,
	AdvisoryCaution: 1,
	AdvisorySevere:  2,
}

// BehaviorImpact is the partial effect of a factor on NPC behavior.
type BehaviorImpact struct {
	SightMultiplier           *float64     `json:"sight_multiplier,omitempty"`
	ChaseMultiplier           *float64     `json:"chase_multiplier,omitempty"`
	RoutineIntervalMultiplier *float64     `json:"routine_interval_multiplier,omitempty"`
	LoadoutBias               *LoadoutBias `json:"loadout_bias,omitempty"`
}

// FactionImpact is the partial effect of a factor on faction economy.
type FactionImpact struct {
	ShopMarkupDelta              *float64         `json:"shop_markup_delta,omitempty"`
	ReinforcementDelayMultiplier *float64         `json:"reinforcement_delay_multiplier,omitempty"`
	SafehouseAccess              *SafehouseAccess `json:"safehouse_access,omitempty"`
}

// TravelImpact is the partial effect of a factor on travel.
type TravelImpact struct {
	StaminaDrainPerMinute *float64       `json:"stamina_drain_per_minute,omitempty"`
	VehicleWearMultiplier *float64       `json:"vehicle_wear_multiplier,omitempty"`
	EncounterRiskModifier *float64       `json:"encounter_risk_modifier,omitempty"`
	VisibilityMultiplier  *float64       `json:"visibility_multiplier,omitempty"`
	AdvisoryLevel         *AdvisoryLevel `json:"advisory_level,omitempty"`
}

// SystemImpact is an optional bundle of effects; nil domains mean no effect.
type SystemImpact struct {
	Behavior *BehaviorImpact `json:"behavior,omitempty"`
	Faction  *FactionImpact  `json:"faction,omitempty"`
	Travel   *TravelImpact   `json:"travel,omitempty"`
}

// IsEmpty reports whether the bundle touches no domain.
func (si SystemImpact) IsEmpty() bool {
	return si.Behavior == nil && si.Faction == nil && si.Travel == nil
}

// BehaviorState is the fully resolved behavior domain.
type BehaviorState struct {
	SightMultiplier           float64     `json:"sight_multiplier"`
	ChaseMultiplier           float64     `json:"chase_multiplier"`
	RoutineIntervalMultiplier float64     `json:"routine_interval_multiplier"`
	LoadoutBias               LoadoutBias `json:"loadout_bias"`
}

// FactionState is the fully resolved faction domain.
type FactionState struct {
	ShopMarkupDelta              float64         `json:"shop_markup_delta"`
	ReinforcementDelayMultiplier float64         `json:"reinforcement_delay_multiplier"`
	SafehouseAccess              SafehouseAccess `json:"safehouse_access"`
}

// TravelState is the fully resolved travel domain.
type TravelState struct {
	StaminaDrainPerMinute float64       `json:"stamina_drain_per_minute"`
	VehicleWearMultiplier float64       `json:"vehicle_wear_multiplier"`
	EncounterRiskModifier float64       `json:"encounter_risk_modifier"`
	AdvisoryLevel         AdvisoryLevel `json:"advisory_level"`
	VisibilityMultiplier  float64       `json:"visibility_multiplier"`
}

// CombinedImpact is the result of folding factors through the matrix.
type CombinedImpact struct {
	Behavior BehaviorState `json:"behavior"`
	Faction  FactionState  `json:"faction"`
	Travel   TravelState   `json:"travel"`
}

// Neutral returns the baseline impact every fold starts from. Loadout
// starts at balanced, not the lowest tier.
func Neutral() CombinedImpact {
	return CombinedImpact{
		Behavior: BehaviorState{
			SightMultiplier:           1,
			ChaseMultiplier:           1,
			RoutineIntervalMultiplier: 1,
			LoadoutBias:               LoadoutBalanced,
		},
		Faction: FactionState{
			ShopMarkupDelta:              0,
			ReinforcementDelayMultiplier: 1,
			SafehouseAccess:              SafehouseOpen,
		},
		Travel: TravelState{
			StaminaDrainPerMinute: 0,
			VehicleWearMultiplier: 1,
			EncounterRiskModifier: 1,
			AdvisoryLevel:         AdvisoryClear,
			VisibilityMultiplier:  1,
		},
	}
}

// Band is an inclusive clamp range.
type Band struct {
	Min float64
	Max float64
}

func (b Band) clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Clamp bands per field.
var (
	SightBand         = Band{0.35, 1.8}
	ChaseBand         = Band{0.5, 2}
	RoutineBand       = Band{0.7, 2.2}
	ReinforcementBand = Band{0.4, 1.6}
	ShopMarkupBand    = Band{-0.5, 1}
	StaminaBand       = Band{0, 12}
	VehicleWearBand   = Band{0.6, 2}
	EncounterBand     = Band{0.5, 3}
	VisibilityBand    = Band{0.2, 1}
)
