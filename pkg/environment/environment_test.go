package environment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineNeutral(t *testing.T) {
	t.Run("empty factor list", func(t *testing.T) {
		assert.Equal(t, Neutral(), Combine(nil))
	})

	t.Run("calm tiers only", func(t *testing.T) {
		calm := []Factor{SmogNone, BlackoutFactorNone, SurveillanceLow, RadiationNone, CurfewOff}
		assert.Equal(t, Neutral(), Combine(calm))
	})

	t.Run("unknown factor contributes nothing", func(t *testing.T) {
		assert.Equal(t, Neutral(), Combine([]Factor{"acid:rain"}))
	})

	t.Run("neutral loadout is balanced", func(t *testing.T) {
		assert.Equal(t, LoadoutBalanced, Neutral().Behavior.LoadoutBias)
	})
}

func TestCombineSingleFactor(t *testing.T) {
	got := Combine([]Factor{CurfewTight})

	assert.InDelta(t, 1.1, got.Behavior.ChaseMultiplier, 1e-9)
	assert.InDelta(t, 0.08, got.Faction.ShopMarkupDelta, 1e-9)
	assert.Equal(t, SafehouseRestricted, got.Faction.SafehouseAccess)
	assert.Equal(t, AdvisoryCaution, got.Travel.AdvisoryLevel)
	assert.Equal(t, LoadoutBalanced, got.Behavior.LoadoutBias)
}

func TestCombinePriorityFields(t *testing.T) {
	got := Combine([]Factor{SmogHeavy, CurfewLockdown, RadiationLocalized})

	if got.Behavior.LoadoutBias != LoadoutSensor {
		t.Errorf("expected sensor loadout to outrank heavy, got %s", got.Behavior.LoadoutBias)
	}
	if got.Faction.SafehouseAccess != SafehouseSealed {
		t.Errorf("expected sealed safehouses, got %s", got.Faction.SafehouseAccess)
	}
	if got.Travel.AdvisoryLevel != AdvisorySevere {
		t.Errorf("expected severe advisory, got %s", got.Travel.AdvisoryLevel)
	}
}

func TestCombineOrderIndependent(t *testing.T) {
	base := []Factor{
		SmogLight, BlackoutFactorRolling, SurveillanceElevated,
		RadiationLocalized, CurfewTight, SmogHeavy, CurfewLockdown,
	}
	want := Combine(base)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]Factor(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		require.Equal(t, want, Combine(shuffled), "permutation %v", shuffled)
	}
}

func TestCombineClamping(t *testing.T) {
	extreme := []Factor{SmogHeavy, BlackoutFactorRolling, SurveillanceExtreme, RadiationPervasive, CurfewLockdown}

	// stack the extreme set several times to push every field past its band
	var stacked []Factor
	for i := 0; i < 6; i++ {
		stacked = append(stacked, extreme...)
	}

	for _, factors := range [][]Factor{extreme, stacked} {
		got := Combine(factors)

		checks := []struct {
			name string
			band Band
			val  float64
		}{
			{"sight", SightBand, got.Behavior.SightMultiplier},
			{"chase", ChaseBand, got.Behavior.ChaseMultiplier},
			{"routine", RoutineBand, got.Behavior.RoutineIntervalMultiplier},
			{"reinforcement", ReinforcementBand, got.Faction.ReinforcementDelayMultiplier},
			{"markup", ShopMarkupBand, got.Faction.ShopMarkupDelta},
			{"stamina", StaminaBand, got.Travel.StaminaDrainPerMinute},
			{"vehicle wear", VehicleWearBand, got.Travel.VehicleWearMultiplier},
			{"encounter", EncounterBand, got.Travel.EncounterRiskModifier},
			{"visibility", VisibilityBand, got.Travel.VisibilityMultiplier},
		}
		for _, c := range checks {
			if c.val < c.band.Min || c.val > c.band.Max {
				t.Errorf("%s %.4f outside [%.2f, %.2f]", c.name, c.val, c.band.Min, c.band.Max)
			}
		}
	}

	got := Combine(stacked)
	assert.Equal(t, StaminaBand.Max, got.Travel.StaminaDrainPerMinute)
	assert.Equal(t, EncounterBand.Max, got.Travel.EncounterRiskModifier)
	assert.Equal(t, VisibilityBand.Min, got.Travel.VisibilityMultiplier)
	assert.Equal(t, ShopMarkupBand.Max, got.Faction.ShopMarkupDelta)
}

func TestMatrixCoversAllFactors(t *testing.T) {
	for _, f := range AllFactors {
		if _, ok := Matrix[f]; !ok {
			t.Errorf("matrix missing entry for %s", f)
		}
	}
	for _, calm := range []Factor{SmogNone, BlackoutFactorNone, SurveillanceLow, RadiationNone, CurfewOff} {
		if !Matrix[calm].IsEmpty() {
			t.Errorf("expected %s to map to an empty bundle", calm)
		}
	}
}

func TestFactorParts(t *testing.T) {
	f := NewFactor(CategoryCurfew, "lockdown")
	assert.Equal(t, CurfewLockdown, f)
	assert.Equal(t, CategoryCurfew, f.Category())
	assert.Equal(t, "lockdown", f.Tier())
	assert.True(t, f.IsKnown())
	assert.False(t, Factor("curfew:martial").IsKnown())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		flags   Flags
		hazards []string
		zoneID  string
		want    []Factor
	}{
		{
			name:  "calm city",
			flags: DefaultFlags(),
			want:  []Factor{SmogNone, BlackoutFactorNone, SurveillanceLow, RadiationNone, CurfewOff},
		},
		{
			name: "brownout with drones and reactor",
			flags: Flags{
				CurfewLevel:    2,
				BlackoutTier:   BlackoutBrownout,
				GangHeat:       GangHeatMed,
				SupplyScarcity: SupplyTight,
			},
			hazards: []string{
				"Open radiation pockets around collapsed reactors",
				"Autonomous patrol drones scanning alleys",
			},
			want: []Factor{SmogNone, BlackoutFactorBrownout, SurveillanceExtreme, RadiationLocalized, CurfewTight},
		},
		{
			name:    "dense smog beats light smog",
			flags:   DefaultFlags(),
			hazards: []string{"Gas cloud drifting", "DENSE SMOG over the docks"},
			want:    []Factor{SmogHeavy, BlackoutFactorNone, SurveillanceLow, RadiationNone, CurfewOff},
		},
		{
			name:    "light smog from gas cloud",
			flags:   DefaultFlags(),
			hazards: []string{"A gas cloud hangs low"},
			want:    []Factor{SmogLight, BlackoutFactorNone, SurveillanceLow, RadiationNone, CurfewOff},
		},
		{
			name:    "pervasive radiation from sludge",
			flags:   Flags{GangHeat: GangHeatMed, BlackoutTier: BlackoutRolling},
			hazards: []string{"Toxic sludge pools"},
			want:    []Factor{SmogNone, BlackoutFactorRolling, SurveillanceElevated, RadiationPervasive, CurfewOff},
		},
		{
			name:   "industrial zone forces localized radiation",
			flags:  Flags{GangHeat: GangHeatLow, CurfewLevel: 1},
			zoneID: "Industrial-Yards",
			want:   []Factor{SmogNone, BlackoutFactorNone, SurveillanceElevated, RadiationLocalized, CurfewTight},
		},
		{
			name:    "hazard radiation wins over zone id",
			flags:   DefaultFlags(),
			hazards: []string{"Radiation everywhere"},
			zoneID:  "wasteland",
			want:    []Factor{SmogNone, BlackoutFactorNone, SurveillanceLow, RadiationPervasive, CurfewOff},
		},
		{
			name:  "lockdown implies extreme surveillance",
			flags: Flags{GangHeat: GangHeatLow, CurfewLevel: 3, BlackoutTier: "flicker"},
			want:  []Factor{SmogNone, BlackoutFactorNone, SurveillanceExtreme, RadiationNone, CurfewLockdown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.flags, tt.hazards, tt.zoneID))
		})
	}
}

func TestResolveCompleteness(t *testing.T) {
	hazardSets := [][]string{
		nil,
		{"dense smog"},
		{"smog", "riot squad"},
		{"reactor leak", "camera grid"},
		{"toxic sludge", "gas cloud"},
	}
	zones := []string{"", "downtown", "industrial", "wasteland-edge"}

	for _, heat := range AllGangHeatLevels {
		for curfew := 0; curfew <= MaxCurfewLevel; curfew++ {
			for _, supply := range AllSupplyLevels {
				for _, tier := range AllBlackoutTiers {
					for _, hz := range hazardSets {
						for _, zone := range zones {
							flags := Flags{GangHeat: heat, CurfewLevel: curfew, SupplyScarcity: supply, BlackoutTier: tier}
							got := Resolve(flags, hz, zone)
							require.Len(t, got, len(Categories))
							for i, f := range got {
								require.True(t, f.IsKnown(), "unknown factor %s", f)
								require.Equal(t, Categories[i], f.Category())
							}
						}
					}
				}
			}
		}
	}
}

func TestImpactFor(t *testing.T) {
	flags := Flags{GangHeat: GangHeatHigh, CurfewLevel: 3, BlackoutTier: BlackoutRolling}
	got := ImpactFor(flags, []string{"toxic smog"}, "industrial")

	assert.Equal(t, Combine(Resolve(flags, []string{"toxic smog"}, "industrial")), got)
	assert.Equal(t, AdvisorySevere, got.Travel.AdvisoryLevel)
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(Neutral()))

	lines := Describe(Combine([]Factor{CurfewLockdown}))
	assert.Contains(t, lines, "Travel advisory: severe")
	assert.Contains(t, lines, "Safehouses sealed")
	assert.Contains(t, lines, "Patrols favor heavy loadouts")
}

func TestFlagsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *Flags)
		wantErr string
	}{
		{"defaults", func(f *Flags) {}, ""},
		{"lockdown", func(f *Flags) { f.CurfewLevel = MaxCurfewLevel }, ""},
		{"curfew too high", func(f *Flags) { f.CurfewLevel = 4 }, "curfew level 4"},
		{"negative curfew", func(f *Flags) { f.CurfewLevel = -1 }, "curfew level -1"},
		{"unknown heat", func(f *Flags) { f.GangHeat = "medium" }, `invalid gang heat "medium"`},
		{"unknown supply", func(f *Flags) { f.SupplyScarcity = "" }, "invalid supply scarcity"},
		{"unknown blackout", func(f *Flags) { f.BlackoutTier = "total" }, "invalid blackout tier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFlags()
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
