package storylet

import (
	"encoding/json"
	"fmt"
)

// Condition gates a branch on the cast roles or the trigger context.
type Condition interface {
	Matches(roles map[string]Actor, ctx TriggerContext) bool
	conditionType() string
}

// RoleTrait requires the actor in RoleID to carry Trait.
type RoleTrait struct {
	RoleID string `json:"role_id"`
	Trait  string `json:"trait"`
}

// RoleTag requires the actor in RoleID to carry Tag.
type RoleTag struct {
	RoleID string `json:"role_id"`
	Tag    string `json:"tag"`
}

// RoleRelationship requires the actor in RoleID to have Relationship.
type RoleRelationship struct {
	RoleID       string       `json:"role_id"`
	Relationship Relationship `json:"relationship"`
}

// RoleStatus requires the actor in RoleID to be in Status. Only "wounded"
// is recognised.
type RoleStatus struct {
	RoleID string `json:"role_id"`
	Status string `json:"status"`
}

// ContextTag requires the trigger context to carry Tag.
type ContextTag struct {
	Tag Tag `json:"tag"`
}

// ContextArc requires the trigger context to be in Arc.
type ContextArc struct {
	Arc Arc `json:"arc"`
}

const StatusWounded = "wounded"

func (c RoleTrait) Matches(roles map[string]Actor, _ TriggerContext) bool {
	a, ok := roles[c.RoleID]
	return ok && a.HasTrait(c.Trait)
}

func (c RoleTag) Matches(roles map[string]Actor, _ TriggerContext) bool {
	a, ok := roles[c.RoleID]
	return ok && a.HasTag(c.Tag)
}

func (c RoleRelationship) Matches(roles map[string]Actor, _ TriggerContext) bool {
	a, ok := roles[c.RoleID]
	return ok && a.Relationship == c.Relationship
}

func (c RoleStatus) Matches(roles map[string]Actor, _ TriggerContext) bool {
	if c.Status != StatusWounded {
		return false
	}
	a, ok := roles[c.RoleID]
	return ok && a.Wounded
}

func (c ContextTag) Matches(_ map[string]Actor, ctx TriggerContext) bool {
	return ctx.HasTag(c.Tag)
}

func (c ContextArc) Matches(_ map[string]Actor, ctx TriggerContext) bool {
	return ctx.Arc == c.Arc
}

func (RoleTrait) conditionType() string        { return "role_trait" }
func (RoleTag) conditionType() string          { return "role_tag" }
func (RoleRelationship) conditionType() string { return "role_relationship" }
func (RoleStatus) conditionType() string       { return "role_status" }
func (ContextTag) conditionType() string       { return "context_tag" }
func (ContextArc) conditionType() string       { return "context_arc" }

// RoleRef returns the role a condition inspects, if any.
func RoleRef(c Condition) (string, bool) {
	switch c := c.(type) {
	case RoleTrait:
		return c.RoleID, true
	case RoleTag:
		return c.RoleID, true
	case RoleRelationship:
		return c.RoleID, true
	case RoleStatus:
		return c.RoleID, true
	}
	return "", false
}

// Conditions is a list of conditions that must all hold.
type Conditions []Condition

// Matches reports whether every condition holds. An empty list matches.
func (cs Conditions) Matches(roles map[string]Actor, ctx TriggerContext) bool {
	for _, c := range cs {
		if !c.Matches(roles, ctx) {
			return false
		}
	}
	return true
}

type typeTag struct {
	Type string `json:"type"`
}

// UnmarshalJSON decodes each element by its "type" field.
func (cs *Conditions) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	out := make(Conditions, 0, len(raws))
	for i, raw := range raws {
		var tag typeTag
		if err := json.Unmarshal(raw, &tag); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
		c, err := decodeCondition(tag.Type, raw)
		if err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
		out = append(out, c)
	}
	*cs = out
	return nil
}

func decodeCondition(kind string, raw json.RawMessage) (Condition, error) {
	switch kind {
	case "role_trait":
		return decodeInto[RoleTrait](raw)
	case "role_tag":
		return decodeInto[RoleTag](raw)
	case "role_relationship":
		return decodeInto[RoleRelationship](raw)
	case "role_status":
		return decodeInto[RoleStatus](raw)
	case "context_tag":
		return decodeInto[ContextTag](raw)
	case "context_arc":
		return decodeInto[ContextArc](raw)
	default:
		return nil, fmt.Errorf("unknown condition type %q", kind)
	}
}

// MarshalJSON writes each element with its "type" field.
func (cs Conditions) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(cs))
	for _, c := range cs {
		raw, err := withType(c.conditionType(), c)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

func decodeInto[T any](raw json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}

// withType marshals v and prepends a "type" field.
func withType(kind string, v any) (json.RawMessage, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	fields["type"], _ = json.Marshal(kind)
	return json.Marshal(fields)
}
