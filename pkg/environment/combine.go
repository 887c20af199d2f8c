package environment

import (
	"cmp"
	"slices"
)

// Combine folds factors through the Matrix starting from Neutral.
// Multipliers multiply, deltas add, enums take the highest priority seen.
// Clamping happens once after the fold so factor order never matters.
func Combine(factors []Factor) CombinedImpact {
	out := Neutral()

	for _, f := range canonicalOrder(factors) {
		impact := ImpactOf(f)
		if impact.IsEmpty() {
			continue
		}
		foldBehavior(&out.Behavior, impact.Behavior)
		foldFaction(&out.Faction, impact.Faction)
		foldTravel(&out.Travel, impact.Travel)
	}

	return clampAll(out)
}

func foldBehavior(dst *BehaviorState, src *BehaviorImpact) {
	if src == nil {
		return
	}
	if src.SightMultiplier != nil {
		dst.SightMultiplier *= *src.SightMultiplier
	}
	if src.ChaseMultiplier != nil {
		dst.ChaseMultiplier *= *src.ChaseMultiplier
	}
	if src.RoutineIntervalMultiplier != nil {
		dst.RoutineIntervalMultiplier *= *src.RoutineIntervalMultiplier
	}
	if src.LoadoutBias != nil && loadoutPriority[*src.LoadoutBias] > loadoutPriority[dst.LoadoutBias] {
		dst.LoadoutBias = *src.LoadoutBias
	}
}

func foldFaction(dst *FactionState, src *FactionImpact) {
	if src == nil {
		return
	}
	if src.ShopMarkupDelta != nil {
		dst.ShopMarkupDelta += *src.ShopMarkupDelta
	}
	if src.ReinforcementDelayMultiplier != nil {
		dst.ReinforcementDelayMultiplier *= *src.ReinforcementDelayMultiplier
	}
	if src.SafehouseAccess != nil && safehousePriority[*src.SafehouseAccess] > safehousePriority[dst.SafehouseAccess] {
		dst.SafehouseAccess = *src.SafehouseAccess
	}
}

func foldTravel(dst *TravelState, src *TravelImpact) {
	if src == nil {
		return
	}
	if src.StaminaDrainPerMinute != nil {
		dst.StaminaDrainPerMinute += *src.StaminaDrainPerMinute
	}
	if src.VehicleWearMultiplier != nil {
		dst.VehicleWearMultiplier *= *src.VehicleWearMultiplier
	}
	if src.EncounterRiskModifier != nil {
		dst.EncounterRiskModifier *= *src.EncounterRiskModifier
	}
	if src.VisibilityMultiplier != nil {
		dst.VisibilityMultiplier *= *src.VisibilityMultiplier
	}
	if src.AdvisoryLevel != nil && advisoryPriority[*src.AdvisoryLevel] > advisoryPriority[dst.AdvisoryLevel] {
		dst.AdvisoryLevel = *src.AdvisoryLevel
	}
}

func clampAll(ci CombinedImpact) CombinedImpact {
	ci.Behavior.SightMultiplier = SightBand.clamp(ci.Behavior.SightMultiplier)
	ci.Behavior.ChaseMultiplier = ChaseBand.clamp(ci.Behavior.ChaseMultiplier)
	ci.Behavior.RoutineIntervalMultiplier = RoutineBand.clamp(ci.Behavior.RoutineIntervalMultiplier)

	ci.Faction.ShopMarkupDelta = ShopMarkupBand.clamp(ci.Faction.ShopMarkupDelta)
	ci.Faction.ReinforcementDelayMultiplier = ReinforcementBand.clamp(ci.Faction.ReinforcementDelayMultiplier)

	ci.Travel.StaminaDrainPerMinute = StaminaBand.clamp(ci.Travel.StaminaDrainPerMinute)
	ci.Travel.VehicleWearMultiplier = VehicleWearBand.clamp(ci.Travel.VehicleWearMultiplier)
	ci.Travel.EncounterRiskModifier = EncounterBand.clamp(ci.Travel.EncounterRiskModifier)
	ci.Travel.VisibilityMultiplier = VisibilityBand.clamp(ci.Travel.VisibilityMultiplier)
	return ci
}

// canonicalOrder sorts a copy of factors by their AllFactors position so
// floating point products come out bit-identical for any input order.
func canonicalOrder(factors []Factor) []Factor {
	sorted := slices.Clone(factors)
	slices.SortStableFunc(sorted, func(a, b Factor) int {
		return cmp.Compare(factorRank(a), factorRank(b))
	})
	return sorted
}

func factorRank(f Factor) int {
	if i := slices.Index(AllFactors, f); i >= 0 {
		return i
	}
	return len(AllFactors)
}
