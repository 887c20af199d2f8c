package environment

import (
	"slices"
	"strings"
)

// Category is one of the five environmental factor families.
type Category string

const (
	CategorySmog         Category = "smog"
	CategoryBlackout     Category = "blackout"
	CategorySurveillance Category = "surveillance"
	CategoryRadiation    Category = "radiation"
	CategoryCurfew       Category = "curfew"
)

// Categories lists every category in resolver output order.
var Categories = []Category{
	CategorySmog,
	CategoryBlackout,
	CategorySurveillance,
	CategoryRadiation,
	CategoryCurfew,
}

// Factor is a tagged "<category>:<tier>" value such as "curfew:lockdown".
type Factor string

const (
	SmogNone  Factor = "smog:none"
	SmogLight Factor = "smog:light"
	SmogHeavy Factor = "smog:heavy"

	BlackoutFactorNone     Factor = "blackout:none"
	BlackoutFactorBrownout Factor = "blackout:brownout"
	BlackoutFactorRolling  Factor = "blackout:rolling"

	SurveillanceLow      Factor = "surveillance:low"
	SurveillanceElevated Factor = "surveillance:elevated"
	SurveillanceExtreme  Factor = "surveillance:extreme"

	RadiationNone      Factor = "radiation:none"
	RadiationLocalized Factor = "radiation:localized"
	RadiationPervasive Factor = "radiation:pervasive"

	CurfewOff      Factor = "curfew:off"
	CurfewTight    Factor = "curfew:tight"
	CurfewLockdown Factor = "curfew:lockdown"
)

// AllFactors is every valid factor, grouped by category.
var AllFactors = []Factor{
	SmogNone, SmogLight, SmogHeavy,
	BlackoutFactorNone, BlackoutFactorBrownout, BlackoutFactorRolling,
	SurveillanceLow, SurveillanceElevated, SurveillanceExtreme,
	RadiationNone, RadiationLocalized, RadiationPervasive,
	CurfewOff, CurfewTight, CurfewLockdown,
}

// NewFactor joins a category and tier.
func NewFactor(c Category, tier string) Factor {
	return Factor(string(c) + ":" + tier)
}

// Category returns the family part of the factor.
func (f Factor) Category() Category {
	c, _, _ := strings.Cut(string(f), ":")
	return Category(c)
}

// Tier returns the severity part of the factor.
func (f Factor) Tier() string {
	_, t, _ := strings.Cut(string(f), ":")
	return t
}

// IsKnown reports whether f is one of AllFactors.
func (f Factor) IsKnown() bool {
	return slices.Contains(AllFactors, f)
}
