package environment

import "strings"

var (
	heavySmogMarkers    = []string{"dense smog", "toxic smog"}
	lightSmogMarkers    = []string{"smog", "gas cloud"}
	surveillanceMarkers = []string{"camera", "drone", "surveillance", "riot squad"}
	localRadMarkers     = []string{"radiation pocket", "reactor"}
	pervasiveRadMarkers = []string{"radiation", "toxic sludge"}
	radiatedZoneMarkers = []string{"industrial", "wasteland"}
)

// Resolve derives exactly one factor per category from the world flags,
// the zone's hazard descriptions and its id. Output is in Categories order.
func Resolve(flags Flags, zoneHazards []string, zoneID string) []Factor {
	hazards := make([]string, 0, len(zoneHazards))
	for _, h := range zoneHazards {
		hazards = append(hazards, strings.ToLower(h))
	}

	return []Factor{
		resolveSmog(hazards),
		resolveBlackout(flags.BlackoutTier),
		resolveSurveillance(flags, hazards),
		resolveRadiation(hazards, strings.ToLower(zoneID)),
		resolveCurfew(flags.CurfewLevel),
	}
}

// ImpactFor resolves and combines in one step.
func ImpactFor(flags Flags, zoneHazards []string, zoneID string) CombinedImpact {
	return Combine(Resolve(flags, zoneHazards, zoneID))
}

func anyMentions(hazards []string, markers []string) bool {
	for _, h := range hazards {
		for _, m := range markers {
			if strings.Contains(h, m) {
				return true
			}
		}
	}
	return false
}

func resolveSmog(hazards []string) Factor {
	switch {
	case anyMentions(hazards, heavySmogMarkers):
		return SmogHeavy
	case anyMentions(hazards, lightSmogMarkers):
		return SmogLight
	default:
		return SmogNone
	}
}

func resolveBlackout(tier BlackoutTier) Factor {
	switch tier {
	case BlackoutBrownout:
		return BlackoutFactorBrownout
	case BlackoutRolling:
		return BlackoutFactorRolling
	default:
		return BlackoutFactorNone
	}
}

func resolveSurveillance(flags Flags, hazards []string) Factor {
	if flags.GangHeat == GangHeatHigh || flags.CurfewLevel >= MaxCurfewLevel || anyMentions(hazards, surveillanceMarkers) {
		return SurveillanceExtreme
	}
	if flags.GangHeat != GangHeatLow || flags.CurfewLevel >= 1 {
		return SurveillanceElevated
	}
	return SurveillanceLow
}

func resolveRadiation(hazards []string, zoneID string) Factor {
	switch {
	case anyMentions(hazards, localRadMarkers):
		return RadiationLocalized
	case anyMentions(hazards, pervasiveRadMarkers):
		return RadiationPervasive
	}
	for _, m := range radiatedZoneMarkers {
		if strings.Contains(zoneID, m) {
			return RadiationLocalized
		}
	}
	return RadiationNone
}

func resolveCurfew(level int) Factor {
	switch {
	case level >= MaxCurfewLevel:
		return CurfewLockdown
	case level >= 1:
		return CurfewTight
	default:
		return CurfewOff
	}
}
