package environment

func num(v float64) *float64 { return &v }

func loadout(v LoadoutBias) *LoadoutBias { return &v }

func safehouse(v SafehouseAccess) *SafehouseAccess { return &v }

func advisory(v AdvisoryLevel) *AdvisoryLevel { return &v }

// Matrix maps every factor to its partial impact. Calm tiers map to {}.
var Matrix = map[Factor]SystemImpact{
	SmogNone: {},
	SmogLight: {
		Behavior: &BehaviorImpact{
			SightMultiplier:           num(0.9),
			ChaseMultiplier:           num(0.95),
			RoutineIntervalMultiplier: num(1.05),
		},
		Travel: &TravelImpact{
			VisibilityMultiplier:  num(0.85),
			StaminaDrainPerMinute: num(1),
			EncounterRiskModifier: num(1.1),
			AdvisoryLevel:         advisory(AdvisoryCaution),
		},
	},
	SmogHeavy: {
		Behavior: &BehaviorImpact{
			SightMultiplier:           num(0.65),
			ChaseMultiplier:           num(0.8),
			LoadoutBias:               loadout(LoadoutSensor),
			RoutineIntervalMultiplier: num(1.2),
		},
		Travel: &TravelImpact{
			VisibilityMultiplier:  num(0.55),
			StaminaDrainPerMinute: num(3),
			EncounterRiskModifier: num(1.35),
			VehicleWearMultiplier: num(1.2),
			AdvisoryLevel:         advisory(AdvisorySevere),
		},
	},

	BlackoutFactorNone: {},
	BlackoutFactorBrownout: {
		Behavior: &BehaviorImpact{
			SightMultiplier: num(0.95),
		},
		Faction: &FactionImpact{
			ShopMarkupDelta:              num(0.05),
			ReinforcementDelayMultiplier: num(1.1),
			SafehouseAccess:              safehouse(SafehouseRestricted),
		},
		Travel: &TravelImpact{
			VisibilityMultiplier: num(0.8),
			AdvisoryLevel:        advisory(AdvisoryCaution),
		},
	},
	BlackoutFactorRolling: {
		Behavior: &BehaviorImpact{
			SightMultiplier: num(0.85),
			LoadoutBias:     loadout(LoadoutSensor),
		},
		Faction: &FactionImpact{
			ShopMarkupDelta:              num(0.12),
			ReinforcementDelayMultiplier: num(0.9),
			SafehouseAccess:              safehouse(SafehouseRestricted),
		},
		Travel: &TravelImpact{
			VisibilityMultiplier:  num(0.7),
			VehicleWearMultiplier: num(1.1),
			AdvisoryLevel:         advisory(AdvisoryCaution),
		},
	},

	SurveillanceLow: {},
	SurveillanceElevated: {
		Behavior: &BehaviorImpact{
			ChaseMultiplier:           num(1.15),
			RoutineIntervalMultiplier: num(1.05),
		},
		Faction: &FactionImpact{
			ReinforcementDelayMultiplier: num(0.95),
		},
		Travel: &TravelImpact{
			EncounterRiskModifier: num(1.2),
			AdvisoryLevel:         advisory(AdvisoryCaution),
		},
	},
	SurveillanceExtreme: {
		Behavior: &BehaviorImpact{
			SightMultiplier:           num(1.1),
			ChaseMultiplier:           num(1.3),
			LoadoutBias:               loadout(LoadoutSensor),
			RoutineIntervalMultiplier: num(1.15),
		},
		Faction: &FactionImpact{
			ShopMarkupDelta:              num(0.08),
			ReinforcementDelayMultiplier: num(0.75),
			SafehouseAccess:              safehouse(SafehouseRestricted),
		},
		Travel: &TravelImpact{
			EncounterRiskModifier: num(1.4),
			AdvisoryLevel:         advisory(AdvisorySevere),
		},
	},

	RadiationNone: {},
	RadiationLocalized: {
		Behavior: &BehaviorImpact{
			RoutineIntervalMultiplier: num(1.08),
		},
		Faction: &FactionImpact{
			SafehouseAccess: safehouse(SafehouseRestricted),
		},
		Travel: &TravelImpact{
			StaminaDrainPerMinute: num(2),
			VehicleWearMultiplier: num(1.15),
			AdvisoryLevel:         advisory(AdvisoryCaution),
		},
	},
	RadiationPervasive: {
		Behavior: &BehaviorImpact{
			RoutineIntervalMultiplier: num(1.18),
			LoadoutBias:               loadout(LoadoutHeavy),
		},
		Faction: &FactionImpact{
			ShopMarkupDelta: num(0.1),
			SafehouseAccess: safehouse(SafehouseSealed),
		},
		Travel: &TravelImpact{
			StaminaDrainPerMinute: num(4),
			VehicleWearMultiplier: num(1.3),
			EncounterRiskModifier: num(1.25),
			AdvisoryLevel:         advisory(AdvisorySevere),
		},
	},

	CurfewOff: {},
	CurfewTight: {
		Behavior: &BehaviorImpact{
			ChaseMultiplier:           num(1.1),
			RoutineIntervalMultiplier: num(1.05),
		},
		Faction: &FactionImpact{
			ShopMarkupDelta:              num(0.08),
			ReinforcementDelayMultiplier: num(0.85),
			SafehouseAccess:              safehouse(SafehouseRestricted),
		},
		Travel: &TravelImpact{
			EncounterRiskModifier: num(1.25),
			AdvisoryLevel:         advisory(AdvisoryCaution),
		},
	},
	CurfewLockdown: {
		Behavior: &BehaviorImpact{
			ChaseMultiplier:           num(1.35),
			RoutineIntervalMultiplier: num(1.25),
			LoadoutBias:               loadout(LoadoutHeavy),
		},
		Faction: &FactionImpact{
			ShopMarkupDelta:              num(0.2),
			ReinforcementDelayMultiplier: num(0.65),
			SafehouseAccess:              safehouse(SafehouseSealed),
		},
		Travel: &TravelImpact{
			EncounterRiskModifier: num(1.6),
			AdvisoryLevel:         advisory(AdvisorySevere),
		},
	},
}

// ImpactOf returns the partial impact for a factor. Unknown factors yield {}.
func ImpactOf(f Factor) SystemImpact {
	return Matrix[f]
}
