package actor

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/jwebster45206/d20"
)

// Skills are the operative's seven core attributes.
type Skills struct {
	Strength     int `json:"strength"`
	Perception   int `json:"perception"`
	Endurance    int `json:"endurance"`
	Charisma     int `json:"charisma"`
	Intelligence int `json:"intelligence"`
	Agility      int `json:"agility"`
	Luck         int `json:"luck"`
}

var coreSkills = []string{"strength", "perception", "endurance", "charisma", "intelligence", "agility", "luck"}

// ToAttributes converts Skills to a map for d20.Actor compatibility
func (s *Skills) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"perception":   s.Perception,
		"endurance":    s.Endurance,
		"charisma":     s.Charisma,
		"intelligence": s.Intelligence,
		"agility":      s.Agility,
		"luck":         s.Luck,
	}
}

// Personality is the player's alignment and accumulated trait scores.
type Personality struct {
	Alignment string         `json:"alignment,omitempty"`
	Traits    map[string]int `json:"traits,omitempty"`
}

// Position is a tile coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PCSpec is the serializable form of the player character.
type PCSpec struct {
	ID              string         `json:"id"`
	Name            string         `json:"name,omitempty"`
	BackgroundID    string         `json:"background_id,omitempty"`
	Perks           []string       `json:"perks,omitempty"`
	Personality     Personality    `json:"personality,omitempty"`
	Skills          Skills         `json:"skills,omitempty"`
	HP              int            `json:"hp"`
	MaxHP           int            `json:"max_hp,omitempty"`
	AC              int            `json:"ac,omitempty"`
	CombatModifiers map[string]int `json:"combat_modifiers,omitempty"`
	Attributes      map[string]int `json:"attributes,omitempty"`
	Position        Position       `json:"position"`
}

// PC is the runtime player. Health lives on the d20 actor.
type PC struct {
	Spec  *PCSpec
	Actor *d20.Actor
}

// NewPCFromSpec creates a PC and builds its d20.Actor.
func NewPCFromSpec(spec *PCSpec) (*PC, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}

	// A zero HP in a fresh spec means full health.
	actor, err := buildActor(spec, spec.HP > 0)
	if err != nil {
		return nil, err
	}
	return &PC{Spec: spec, Actor: actor}, nil
}

// buildActor starts the actor at max HP and applies spec.HP when hpSet,
// including 0 for a knocked-out player.
func buildActor(spec *PCSpec, hpSet bool) (*d20.Actor, error) {
	allAttrs := spec.Skills.ToAttributes()
	maps.Copy(allAttrs, spec.Attributes)

	actor, err := d20.NewActor(spec.ID).
		WithHP(spec.MaxHP).
		WithAC(spec.AC).
		WithAttributes(allAttrs).
		WithCombatModifiers(spec.CombatModifiers).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if hpSet && spec.HP != spec.MaxHP {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return actor, nil
}

// Health returns current HP.
func (pc *PC) Health() int {
	if pc.Actor == nil {
		return pc.Spec.HP
	}
	return pc.Actor.HP()
}

// MaxHealth returns maximum HP.
func (pc *PC) MaxHealth() int {
	if pc.Actor == nil {
		return pc.Spec.MaxHP
	}
	return pc.Actor.MaxHP()
}

// HasPerks reports whether any perk has been taken.
func (pc *PC) HasPerks() bool {
	return len(pc.Spec.Perks) > 0
}

// ApplyHealthDelta changes HP by delta, clamped to [0, max]. Without
// allowKO the result never drops below 1. It returns the new HP.
func (pc *PC) ApplyHealthDelta(delta int, allowKO bool) (int, error) {
	floor := 1
	if allowKO {
		floor = 0
	}
	maxHP := pc.MaxHealth()
	next := min(max(pc.Health()+delta, floor), maxHP)

	if pc.Actor == nil {
		pc.Spec.HP = next
		return next, nil
	}
	if err := pc.Actor.SetHP(next); err != nil {
		return pc.Health(), fmt.Errorf("failed to set HP: %w", err)
	}
	pc.Spec.HP = next
	return next, nil
}

// AdjustTrait adds delta to a personality trait and returns the new score.
func (pc *PC) AdjustTrait(trait string, delta int) int {
	if pc.Spec.Personality.Traits == nil {
		pc.Spec.Personality.Traits = make(map[string]int)
	}
	pc.Spec.Personality.Traits[trait] += delta
	return pc.Spec.Personality.Traits[trait]
}

// Clone deep-copies the PC, rebuilding the d20 actor at the current HP.
func (pc *PC) Clone() *PC {
	if pc == nil {
		return nil
	}
	spec := *pc.Spec
	spec.Perks = slices.Clone(pc.Spec.Perks)
	spec.Personality.Traits = maps.Clone(pc.Spec.Personality.Traits)
	spec.CombatModifiers = maps.Clone(pc.Spec.CombatModifiers)
	spec.Attributes = maps.Clone(pc.Spec.Attributes)
	spec.HP = pc.Health()

	clone := &PC{Spec: &spec}
	if actor, err := buildActor(&spec, pc.Actor != nil || spec.HP > 0); err == nil {
		clone.Actor = actor
	}
	return clone
}

type pcSpecFields PCSpec

// pcJSON is PCSpec with HP read back from the actor. HP is a pointer so a
// missing field (full health) differs from 0 (knocked out).
type pcJSON struct {
	pcSpecFields
	HP *int `json:"hp"`
}

// MarshalJSON writes the spec with the actor's current HP.
func (pc *PC) MarshalJSON() ([]byte, error) {
	if pc == nil {
		return []byte("null"), nil
	}
	out := pcJSON{pcSpecFields: pcSpecFields(*pc.Spec)}
	hp := pc.Spec.HP
	if pc.Actor != nil {
		hp = pc.Actor.HP()
		out.MaxHP = pc.Actor.MaxHP()
		out.AC = pc.Actor.AC()

		attrs := make(map[string]int)
		for key := range pc.Spec.Attributes {
			if slices.Contains(coreSkills, key) {
				continue
			}
			if val, ok := pc.Actor.Attribute(key); ok {
				attrs[key] = val
			}
		}
		if len(attrs) > 0 {
			out.Attributes = attrs
		}
	}
	out.HP = &hp
	return json.Marshal(out)
}

// UnmarshalJSON reads a spec and rebuilds the actor. Without an hp field
// the player starts at max HP.
func (pc *PC) UnmarshalJSON(data []byte) error {
	var in pcJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to unmarshal PC spec: %w", err)
	}
	spec := PCSpec(in.pcSpecFields)
	spec.HP = spec.MaxHP
	if in.HP != nil {
		spec.HP = *in.HP
	}

	actor, err := buildActor(&spec, true)
	if err != nil {
		return fmt.Errorf("failed to rebuild actor: %w", err)
	}
	pc.Spec = &spec
	pc.Actor = actor
	return nil
}
