package storylet

import (
	"encoding/json"
	"fmt"
)

// Effect is a change an outcome makes to the world. The set of effects is
// closed; consumers switch over the concrete types.
type Effect interface {
	effectType() string
}

// LogEffect appends a localized line to the player log.
type LogEffect struct {
	LogKey   string `json:"log_key"`
	Severity string `json:"severity,omitempty"`
}

// FactionEffect shifts reputation with a faction.
type FactionEffect struct {
	FactionID string `json:"faction_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason,omitempty"`
}

// HealthEffect changes player health. Without AllowKO the player keeps at
// least 1 HP.
type HealthEffect struct {
	Delta   int  `json:"delta"`
	AllowKO bool `json:"allow_ko,omitempty"`
}

// TraitEffect shifts a personality trait on the target.
type TraitEffect struct {
	Target EffectTarget `json:"target"`
	Trait  string       `json:"trait"`
	Delta  int          `json:"delta"`
}

func (LogEffect) effectType() string     { return "log" }
func (FactionEffect) effectType() string { return "faction" }
func (HealthEffect) effectType() string  { return "player_health" }
func (TraitEffect) effectType() string   { return "trait_delta" }

// EffectTarget is either the player or the actor cast in a role.
type EffectTarget struct {
	RoleID string
}

// PlayerTarget is the target that means the player.
var PlayerTarget = EffectTarget{}

func (t EffectTarget) IsPlayer() bool { return t.RoleID == "" }

// UnmarshalJSON accepts "player" or {"role_id": "..."}.
func (t *EffectTarget) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "player" {
			return fmt.Errorf("unknown effect target %q", s)
		}
		*t = PlayerTarget
		return nil
	}
	var ref struct {
		RoleID string `json:"role_id"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("effect target must be \"player\" or a role reference: %w", err)
	}
	if ref.RoleID == "" {
		return fmt.Errorf("effect target role_id is empty")
	}
	t.RoleID = ref.RoleID
	return nil
}

func (t EffectTarget) MarshalJSON() ([]byte, error) {
	if t.IsPlayer() {
		return json.Marshal("player")
	}
	return json.Marshal(struct {
		RoleID string `json:"role_id"`
	}{t.RoleID})
}

// Effects is an ordered effect list.
type Effects []Effect

// UnmarshalJSON decodes each element by its "type" field.
func (es *Effects) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	out := make(Effects, 0, len(raws))
	for i, raw := range raws {
		var tag typeTag
		if err := json.Unmarshal(raw, &tag); err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
		e, err := decodeEffect(tag.Type, raw)
		if err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
		out = append(out, e)
	}
	*es = out
	return nil
}

func decodeEffect(kind string, raw json.RawMessage) (Effect, error) {
	switch kind {
	case "log":
		return decodeInto[LogEffect](raw)
	case "faction":
		return decodeInto[FactionEffect](raw)
	case "player_health":
		return decodeInto[HealthEffect](raw)
	case "trait_delta":
		return decodeInto[TraitEffect](raw)
	default:
		return nil, fmt.Errorf("unknown effect type %q", kind)
	}
}

// MarshalJSON writes each element with its "type" field.
func (es Effects) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(es))
	for _, e := range es {
		raw, err := withType(e.effectType(), e)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}
