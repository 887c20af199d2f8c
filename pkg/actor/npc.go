package actor

import (
	"slices"
	"time"

	"github.com/jwebster45206/world-reactor/pkg/environment"
)

// AmbientProfile is the line set an NPC echoes when touched.
type AmbientProfile struct {
	Lines         []string                  `json:"lines"`
	StoryFunction environment.StoryFunction `json:"story_function"`
	SourceID      string                    `json:"source_id"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// Clone deep-copies the profile.
func (p *AmbientProfile) Clone() *AmbientProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Lines = slices.Clone(p.Lines)
	return &c
}

// NPC is a non-player character placed in the current area.
type NPC struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	DialogueID     string          `json:"dialogue_id,omitempty"`
	Health         int             `json:"health"`
	MaxHealth      int             `json:"max_health"`
	Interactive    bool            `json:"interactive,omitempty"`
	Position       Position        `json:"position"`
	AmbientProfile *AmbientProfile `json:"ambient_profile,omitempty"`
}

// ActorID is the dialogue id when set, else the NPC id.
func (n NPC) ActorID() string {
	if n.DialogueID != "" {
		return n.DialogueID
	}
	return n.ID
}

// Wounded reports whether the NPC is below full health.
func (n NPC) Wounded() bool {
	return n.Health < n.MaxHealth
}

// Clone deep-copies the NPC.
func (n NPC) Clone() NPC {
	n.AmbientProfile = n.AmbientProfile.Clone()
	return n
}
