package storylet

import (
	"slices"

	"github.com/jwebster45206/world-reactor/pkg/actor"
)

const (
	factionResistance = "resistance"
	factionCorpsec    = "corpsec"

	// The player counts as wounded below this share of max health.
	playerWoundedRatio = 0.65
	defaultPlayerName  = "Operative"
	defaultPlayerTrait = "earnest"
)

// recurringContacts are always available for casting, whether or not they
// are placed in the current area.
var recurringContacts = []Actor{
	{
		ID:           "npc_lira_vendor",
		Name:         "Lira the Smuggler",
		Kind:         KindContact,
		Tags:         []string{"resistance", "strategist", "ally", "bonded", "quartermaster"},
		Traits:       []string{"resistance", "strategist", "bonded"},
		FactionID:    factionResistance,
		Relationship: RelationshipBonded,
	},
	{
		ID:           "npc_archivist_naila",
		Name:         "Archivist Naila",
		Kind:         KindContact,
		Tags:         []string{"resistance", "scholar", "ally"},
		Traits:       []string{"scholar", "resistance"},
		FactionID:    factionResistance,
		Relationship: RelationshipAlly,
	},
	{
		ID:           "npc_courier_brant",
		Name:         "Courier Brant",
		Kind:         KindContact,
		Tags:         []string{"resistance", "runner", "ally"},
		Traits:       []string{"runner", "ally"},
		FactionID:    factionResistance,
		Relationship: RelationshipAlly,
	},
	{
		ID:           "npc_firebrand_juno",
		Name:         "Firebrand Juno",
		Kind:         KindContact,
		Tags:         []string{"resistance", "agitator", "ally", "witness"},
		Traits:       []string{"agitator"},
		FactionID:    factionResistance,
		Relationship: RelationshipAlly,
	},
	{
		ID:           "npc_seraph_warden",
		Name:         "Seraph Warden",
		Kind:         KindContact,
		Tags:         []string{"corpsec", "warden", "rival"},
		Traits:       []string{"corpsec", "rival"},
		FactionID:    factionCorpsec,
		Relationship: RelationshipRival,
	},
	{
		ID:           "npc_drone_handler_kesh",
		Name:         "Drone Handler Kesh",
		Kind:         KindContact,
		Tags:         []string{"resistance", "tech", "ally"},
		Traits:       []string{"technician"},
		FactionID:    factionResistance,
		Relationship: RelationshipAlly,
	},
}

type npcOverride struct {
	tags         []string
	traits       []string
	relationship Relationship
	factionID    string
}

// npcOverrides enrich placed NPCs by dialogue id.
var npcOverrides = map[string]npcOverride{
	"npc_lira_vendor":        {[]string{"resistance", "ally", "quartermaster", "bonded"}, []string{"strategist", "bonded"}, RelationshipBonded, factionResistance},
	"npc_archivist_naila":    {[]string{"resistance", "ally", "scholar"}, []string{"scholar"}, RelationshipAlly, factionResistance},
	"npc_courier_brant":      {[]string{"resistance", "ally", "runner"}, []string{"runner"}, RelationshipAlly, factionResistance},
	"npc_firebrand_juno":     {[]string{"resistance", "ally", "agitator"}, []string{"agitator"}, RelationshipAlly, factionResistance},
	"npc_seraph_warden":      {[]string{"corpsec", "rival", "warden"}, []string{"corpsec", "rival"}, RelationshipRival, factionCorpsec},
	"npc_drone_handler_kesh": {[]string{"resistance", "ally", "tech"}, []string{"technician"}, RelationshipAlly, factionResistance},
	"npc_medic_yara":         {[]string{"resistance", "ally", "medic"}, []string{"medic"}, RelationshipAlly, factionResistance},
	"npc_captain_reyna":      {[]string{"resistance", "ally", "commander"}, []string{"commander"}, RelationshipAlly, factionResistance},
}

// RecurringContacts returns a copy of the always-available contacts.
func RecurringContacts() []Actor {
	out := make([]Actor, len(recurringContacts))
	for i, c := range recurringContacts {
		out[i] = cloneActor(c)
	}
	return out
}

type actorRegistry struct {
	order []string
	byID  map[string]*Actor
}

func (r *actorRegistry) ensure(a Actor) {
	if _, ok := r.byID[a.ID]; ok {
		return
	}
	c := cloneActor(a)
	r.byID[a.ID] = &c
	r.order = append(r.order, a.ID)
}

// merge unions tags and traits into an existing actor, or adds it.
func (r *actorRegistry) merge(a Actor) {
	existing, ok := r.byID[a.ID]
	if !ok {
		r.ensure(a)
		return
	}
	existing.Tags = union(existing.Tags, a.Tags)
	existing.Traits = union(existing.Traits, a.Traits)
	existing.Wounded = existing.Wounded || a.Wounded
}

// BuildActorPool assembles casting candidates: recurring contacts, then the
// player, then placed NPCs not already known. Placed NPCs that match a
// known id are merged into it. player may be nil.
func BuildActorPool(player *actor.PC, npcs []actor.NPC) []Actor {
	reg := &actorRegistry{byID: make(map[string]*Actor)}
	for _, c := range recurringContacts {
		reg.ensure(c)
	}

	if player != nil && player.Spec != nil {
		reg.ensure(PlayerActor(player))
	}

	for _, npc := range npcs {
		id := npc.ActorID()
		if id == "" {
			continue
		}
		reg.merge(npcActor(id, npc))
	}

	out := make([]Actor, 0, len(reg.order))
	for _, id := range reg.order {
		out = append(out, *reg.byID[id])
	}
	return out
}

// PlayerActor converts the player record into a casting candidate.
func PlayerActor(pc *actor.PC) Actor {
	spec := pc.Spec
	name := spec.Name
	if name == "" {
		name = defaultPlayerName
	}
	trait := spec.Personality.Alignment
	if trait == "" {
		trait = defaultPlayerTrait
	}

	a := Actor{
		ID:           spec.ID,
		Name:         name,
		Kind:         KindPlayer,
		Tags:         []string{"player", "operative", "ally"},
		Traits:       []string{trait},
		FactionID:    factionResistance,
		Relationship: RelationshipAlly,
		BackgroundID: spec.BackgroundID,
	}
	if maxHP := pc.MaxHealth(); maxHP > 0 {
		a.Wounded = float64(pc.Health()) < float64(maxHP)*playerWoundedRatio
	}
	if spec.BackgroundID != "" {
		a.Tags = append(a.Tags, spec.BackgroundID)
	}
	if pc.HasPerks() {
		a.Tags = append(a.Tags, "perked")
	}
	return a
}

func npcActor(id string, npc actor.NPC) Actor {
	a := Actor{
		ID:           id,
		Name:         npc.Name,
		Kind:         KindNPC,
		Tags:         []string{"npc", "witness"},
		Traits:       []string{},
		Wounded:      npc.Wounded(),
		Relationship: RelationshipWitness,
	}
	if npc.Interactive {
		a.Kind = KindContact
		a.Tags[1] = "ally"
		a.Relationship = RelationshipAlly
	}

	if o, ok := npcOverrides[id]; ok {
		a.Tags = union(a.Tags, o.tags)
		a.Traits = union(a.Traits, o.traits)
		if o.relationship != "" {
			a.Relationship = o.relationship
		}
		if o.factionID != "" {
			a.FactionID = o.factionID
		}
	}
	return a
}

func cloneActor(a Actor) Actor {
	a.Tags = slices.Clone(a.Tags)
	a.Traits = slices.Clone(a.Traits)
	return a
}

// union appends the members of add missing from base, keeping order.
func union(base, add []string) []string {
	for _, v := range add {
		if !slices.Contains(base, v) {
			base = append(base, v)
		}
	}
	return base
}
