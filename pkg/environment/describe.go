package environment

import "fmt"

// Describe summarizes the notable parts of an impact as short advisory
// lines. A neutral impact yields no lines.
func Describe(ci CombinedImpact) []string {
	var lines []string

	if ci.Travel.AdvisoryLevel != AdvisoryClear {
		lines = append(lines, fmt.Sprintf("Travel advisory: %s", ci.Travel.AdvisoryLevel))
	}
	if ci.Behavior.SightMultiplier < 1 {
		lines = append(lines, fmt.Sprintf("Patrol sight reduced to %.0f%%", ci.Behavior.SightMultiplier*100))
	} else if ci.Behavior.SightMultiplier > 1 {
		lines = append(lines, fmt.Sprintf("Patrol sight boosted to %.0f%%", ci.Behavior.SightMultiplier*100))
	}
	if ci.Behavior.ChaseMultiplier > 1 {
		lines = append(lines, fmt.Sprintf("Pursuit speed up %.0f%%", (ci.Behavior.ChaseMultiplier-1)*100))
	}
	if ci.Behavior.LoadoutBias != LoadoutBalanced {
		lines = append(lines, fmt.Sprintf("Patrols favor %s loadouts", ci.Behavior.LoadoutBias))
	}
	if ci.Faction.ShopMarkupDelta != 0 {
		lines = append(lines, fmt.Sprintf("Shop prices %+.0f%%", ci.Faction.ShopMarkupDelta*100))
	}
	if ci.Faction.SafehouseAccess != SafehouseOpen {
		lines = append(lines, fmt.Sprintf("Safehouses %s", ci.Faction.SafehouseAccess))
	}
	if ci.Travel.StaminaDrainPerMinute > 0 {
		lines = append(lines, fmt.Sprintf("Stamina drain %.1f/min", ci.Travel.StaminaDrainPerMinute))
	}
	if ci.Travel.EncounterRiskModifier > 1 {
		lines = append(lines, fmt.Sprintf("Encounter risk x%.2f", ci.Travel.EncounterRiskModifier))
	}
	if ci.Travel.VisibilityMultiplier < 1 {
		lines = append(lines, fmt.Sprintf("Visibility %.0f%%", ci.Travel.VisibilityMultiplier*100))
	}

	return lines
}
