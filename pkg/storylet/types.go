// Package storylet casts and resolves one-off narrative events ("plays")
// from a content library against the current actor pool.
package storylet

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Arc is the act of the campaign a play belongs to.
type Arc string

const (
	ArcSetup      Arc = "act1_setup"
	ArcEscalation Arc = "act2_escalation"
	ArcFinale     Arc = "act3_finale"
)

// TriggerType is the gameplay event that can start a storylet.
type TriggerType string

const (
	TriggerMissionCompletion TriggerType = "missionCompletion"
	TriggerPatrolAmbush      TriggerType = "patrolAmbush"
	TriggerCampfireRest      TriggerType = "campfireRest"
)

// Tag labels plays, outcomes and trigger contexts.
type Tag string

const (
	TagAmbush       Tag = "ambush"
	TagRelationship Tag = "relationship"
	TagInjury       Tag = "injury"
	TagResistance   Tag = "resistance"
	TagCorpsec      Tag = "corpsec"
	TagRest         Tag = "rest"
	TagMemory       Tag = "memory"
	TagLoyalty      Tag = "loyalty"
	TagOmen         Tag = "omen"
)

// TriggerDescriptor is one way a play can be started.
type TriggerDescriptor struct {
	Type      TriggerType `json:"type"`
	Tags      []Tag       `json:"tags,omitempty"`
	Intensity string      `json:"intensity,omitempty"`
}

// Cooldown keeps a play from repeating too soon.
type Cooldown struct {
	Duration    time.Duration `json:"duration"`
	PerLocation bool          `json:"per_location,omitempty"`
}

// UnmarshalJSON accepts the duration as a Go duration string ("20m") or as
// integer milliseconds.
func (c *Cooldown) UnmarshalJSON(data []byte) error {
	var aux struct {
		Duration    json.RawMessage `json:"duration"`
		PerLocation bool            `json:"per_location"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.PerLocation = aux.PerLocation
	c.Duration = 0
	if len(aux.Duration) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(aux.Duration, &s); err == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid cooldown duration %q: %w", s, err)
		}
		c.Duration = d
		return nil
	}
	var ms int64
	if err := json.Unmarshal(aux.Duration, &ms); err != nil {
		return fmt.Errorf("cooldown duration must be a string or milliseconds: %w", err)
	}
	c.Duration = time.Duration(ms) * time.Millisecond
	return nil
}

// MarshalJSON writes the duration as a Go duration string.
func (c Cooldown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Duration    string `json:"duration"`
		PerLocation bool   `json:"per_location,omitempty"`
	}{c.Duration.String(), c.PerLocation})
}

// ActorKind is what sort of entity an actor is.
type ActorKind string

const (
	KindPlayer    ActorKind = "player"
	KindCompanion ActorKind = "companion"
	KindContact   ActorKind = "contact"
	KindNPC       ActorKind = "npc"
)

// Relationship is how an actor stands with the player.
type Relationship string

const (
	RelationshipBonded   Relationship = "bonded"
	RelationshipRival    Relationship = "rival"
	RelationshipWitness  Relationship = "witness"
	RelationshipAlly     Relationship = "ally"
	RelationshipStranger Relationship = "stranger"
)

// Actor is a candidate for a role. Actors are values built fresh for each
// evaluation and never mutated by the engine.
type Actor struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Kind         ActorKind    `json:"kind"`
	Tags         []string     `json:"tags"`
	Traits       []string     `json:"traits"`
	FactionID    string       `json:"faction_id,omitempty"`
	Wounded      bool         `json:"wounded,omitempty"`
	Relationship Relationship `json:"relationship,omitempty"`
	BackgroundID string       `json:"background_id,omitempty"`
}

func (a Actor) HasTag(tag string) bool     { return slices.Contains(a.Tags, tag) }
func (a Actor) HasTrait(trait string) bool { return slices.Contains(a.Traits, trait) }

// Role is a slot a play needs filled.
type Role struct {
	ID              string   `json:"id"`
	TitleKey        string   `json:"title_key,omitempty"`
	PreferredTags   []string `json:"preferred_tags,omitempty"`
	RequiredTags    []string `json:"required_tags,omitempty"`
	ForbiddenTags   []string `json:"forbidden_tags,omitempty"`
	RequiredTraits  []string `json:"required_traits,omitempty"`
	ForbiddenTraits []string `json:"forbidden_traits,omitempty"`
	// AllowWounded only excludes wounded actors when explicitly false.
	AllowWounded     *bool `json:"allow_wounded,omitempty"`
	FallbackToPlayer bool  `json:"fallback_to_player,omitempty"`
}

func (r Role) rejectsWounded() bool {
	return r.AllowWounded != nil && !*r.AllowWounded
}

// Outcome is what a branch does when chosen.
type Outcome struct {
	ID              string  `json:"id"`
	LocalizationKey string  `json:"localization_key"`
	VariantKey      string  `json:"variant_key,omitempty"`
	Effects         Effects `json:"effects"`
	Tags            []Tag   `json:"tags,omitempty"`
}

// Branch is one possible resolution of a play.
type Branch struct {
	ID         string     `json:"id"`
	Weight     *float64   `json:"weight,omitempty"`
	Conditions Conditions `json:"conditions,omitempty"`
	Outcome    Outcome    `json:"outcome"`
}

// EffectiveWeight is the branch weight, defaulting to 1.
func (b Branch) EffectiveWeight() float64 {
	if b.Weight == nil {
		return 1
	}
	return *b.Weight
}

// Play is a narrative template.
type Play struct {
	ID          string              `json:"id"`
	Arc         Arc                 `json:"arc"`
	TitleKey    string              `json:"title_key"`
	SynopsisKey string              `json:"synopsis_key"`
	Tags        []Tag               `json:"tags,omitempty"`
	Triggers    []TriggerDescriptor `json:"triggers"`
	Roles       []Role              `json:"roles"`
	Branches    []Branch            `json:"branches"`
	Cooldown    Cooldown            `json:"cooldown"`
	Weight      *float64            `json:"weight,omitempty"`
}

// EffectiveWeight is the play weight, defaulting to 1.
func (p Play) EffectiveWeight() float64 {
	if p.Weight == nil {
		return 1
	}
	return *p.Weight
}

// TriggerContext describes the gameplay event being evaluated.
type TriggerContext struct {
	Type       TriggerType `json:"type"`
	Arc        Arc         `json:"arc"`
	Timestamp  time.Time   `json:"timestamp"`
	LocationID string      `json:"location_id,omitempty"`
	MissionID  string      `json:"mission_id,omitempty"`
	Tags       []Tag       `json:"tags,omitempty"`
}

// HasTag reports whether the context carries tag.
func (c TriggerContext) HasTag(tag Tag) bool {
	return slices.Contains(c.Tags, tag)
}

// Resolution is a fully cast and resolved storylet.
type Resolution struct {
	StoryletID        string           `json:"storylet_id"`
	Play              Play             `json:"play"`
	Branch            Branch           `json:"branch"`
	Outcome           Outcome          `json:"outcome"`
	Roles             map[string]Actor `json:"roles"`
	Context           TriggerContext   `json:"context"`
	Timestamp         time.Time        `json:"timestamp"`
	CooldownExpiresAt time.Time        `json:"cooldown_expires_at"`
	Score             float64          `json:"score"`
}

// RuntimeEntry is the trigger history of one play.
type RuntimeEntry struct {
	StoryletID        string    `json:"storylet_id"`
	LastTriggeredAt   time.Time `json:"last_triggered_at,omitzero"`
	CooldownExpiresAt time.Time `json:"cooldown_expires_at,omitzero"`
	TimesTriggered    int       `json:"times_triggered"`
}

// RuntimeSnapshot is all the state the engine needs between evaluations.
type RuntimeSnapshot struct {
	Entries            map[string]RuntimeEntry `json:"entries"`
	LastSeenByLocation map[string]string       `json:"last_seen_by_location"`
}

// NewRuntimeSnapshot returns an empty snapshot.
func NewRuntimeSnapshot() RuntimeSnapshot {
	return RuntimeSnapshot{
		Entries:            make(map[string]RuntimeEntry),
		LastSeenByLocation: make(map[string]string),
	}
}

// Clone copies the snapshot maps.
func (r RuntimeSnapshot) Clone() RuntimeSnapshot {
	out := NewRuntimeSnapshot()
	maps.Copy(out.Entries, r.Entries)
	maps.Copy(out.LastSeenByLocation, r.LastSeenByLocation)
	return out
}

// Record stores a resolution's bookkeeping: trigger time, cooldown expiry,
// count and, when the resolution has a location, the last play seen there.
func (r *RuntimeSnapshot) Record(res *Resolution) {
	if r.Entries == nil {
		r.Entries = make(map[string]RuntimeEntry)
	}
	if r.LastSeenByLocation == nil {
		r.LastSeenByLocation = make(map[string]string)
	}
	entry := r.Entries[res.StoryletID]
	entry.StoryletID = res.StoryletID
	entry.LastTriggeredAt = res.Timestamp
	entry.CooldownExpiresAt = res.CooldownExpiresAt
	entry.TimesTriggered++
	r.Entries[res.StoryletID] = entry

	if res.Context.LocationID != "" {
		r.LastSeenByLocation[res.Context.LocationID] = res.StoryletID
	}
}

// ResolvedRole is a cast role as shown to the player.
type ResolvedRole struct {
	RoleID       string       `json:"role_id"`
	RoleName     string       `json:"role_name"`
	ActorID      string       `json:"actor_id"`
	ActorName    string       `json:"actor_name"`
	Relationship Relationship `json:"relationship,omitempty"`
}

// QueueItem is a resolved storylet ready for display.
type QueueItem struct {
	ID          string         `json:"id"`
	StoryletID  string         `json:"storylet_id"`
	BranchID    string         `json:"branch_id"`
	Title       string         `json:"title"`
	Synopsis    string         `json:"synopsis"`
	Narrative   string         `json:"narrative"`
	Epilogue    string         `json:"epilogue,omitempty"`
	LogLine     string         `json:"log_line,omitempty"`
	Roles       []ResolvedRole `json:"roles"`
	TriggeredAt time.Time      `json:"triggered_at"`
	Locale      string         `json:"locale"`
	OutcomeKey  string         `json:"outcome_key"`
	VariantKey  string         `json:"variant_key,omitempty"`
	Tags        []Tag          `json:"tags,omitempty"`
}
