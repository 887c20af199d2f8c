package storylet

import (
	"math"
	"slices"
	"time"
)

// Scoring weights for casting and play selection.
const (
	preferredTagBonus     = 2.0
	relationshipBonus     = 1.5
	playerSideRolePenalty = 0.25
	fallbackScoreFloor    = 0.5
	repeatPenalty         = 0.75
)

// ProtagonistRole is the role the player is expected to fill.
const ProtagonistRole = "protagonist"

// EvaluationParams is the input to Evaluate. LocationID defaults to the
// trigger's location.
type EvaluationParams struct {
	Plays      []Play
	Runtime    RuntimeSnapshot
	Trigger    TriggerContext
	ActorPool  []Actor
	LocationID string
	Now        time.Time
}

// Evaluate picks the best play for a trigger, casts its roles and resolves
// a branch. It returns nil when no play qualifies. Evaluate is pure: the
// same inputs always give the same result.
func Evaluate(p EvaluationParams) *Resolution {
	var best *Resolution
	bestScore := math.Inf(-1)
	location := p.LocationID
	if location == "" {
		location = p.Trigger.LocationID
	}

	for _, play := range p.Plays {
		if play.Arc != p.Trigger.Arc || !matchesTrigger(play, p.Trigger) {
			continue
		}
		if cooldownActive(p.Runtime, play, location, p.Now) {
			continue
		}

		cast, ok := castRoles(play, p.ActorPool)
		if !ok {
			continue
		}
		branch, ok := resolveBranch(play, cast.roles, p.Trigger)
		if !ok {
			continue
		}

		score := play.EffectiveWeight() + cast.score + branch.EffectiveWeight()
		if entry, ok := p.Runtime.Entries[play.ID]; ok {
			score -= float64(entry.TimesTriggered) * repeatPenalty
		}
		if score <= bestScore {
			continue
		}

		bestScore = score
		best = &Resolution{
			StoryletID:        play.ID,
			Play:              play,
			Branch:            branch,
			Outcome:           branch.Outcome,
			Roles:             cast.roles,
			Context:           p.Trigger,
			Timestamp:         p.Now,
			CooldownExpiresAt: p.Now.Add(play.Cooldown.Duration),
			Score:             score,
		}
	}
	return best
}

func matchesTrigger(play Play, ctx TriggerContext) bool {
	for _, t := range play.Triggers {
		if t.Type != ctx.Type {
			continue
		}
		if allTagsIn(t.Tags, ctx.Tags) {
			return true
		}
	}
	return false
}

func allTagsIn(want, have []Tag) bool {
	for _, tag := range want {
		if !slices.Contains(have, tag) {
			return false
		}
	}
	return true
}

// cooldownActive reports whether the play is still locked, globally or at
// the location where it was last seen. The location lock shares the play's
// expiry.
func cooldownActive(rt RuntimeSnapshot, play Play, locationID string, now time.Time) bool {
	entry, ok := rt.Entries[play.ID]
	if ok && entry.CooldownExpiresAt.After(now) {
		return true
	}
	if play.Cooldown.PerLocation && locationID != "" {
		if rt.LastSeenByLocation[locationID] == play.ID && ok && entry.CooldownExpiresAt.After(now) {
			return true
		}
	}
	return false
}

type castResult struct {
	roles map[string]Actor
	score float64
}

// castRoles fills roles in declaration order, greedily taking the highest
// scoring eligible actor for each. Non-player actors fill at most one role.
func castRoles(play Play, pool []Actor) (castResult, bool) {
	res := castResult{roles: make(map[string]Actor, len(play.Roles))}
	used := make(map[string]bool)

	var player *Actor
	for i := range pool {
		if pool[i].Kind == KindPlayer {
			player = &pool[i]
			break
		}
	}

	for _, role := range play.Roles {
		var (
			picked    *Actor
			bestScore float64
		)
		for i := range pool {
			a := &pool[i]
			if a.Kind != KindPlayer && used[a.ID] {
				continue
			}
			score, ok := scoreActor(role, *a)
			if !ok {
				continue
			}
			if picked == nil || score > bestScore {
				picked, bestScore = a, score
			}
		}

		if picked == nil && role.FallbackToPlayer && player != nil {
			if score, ok := scoreActor(role, *player); ok {
				picked, bestScore = player, max(fallbackScoreFloor, score)
			}
		}
		if picked == nil {
			return castResult{}, false
		}

		res.roles[role.ID] = *picked
		res.score += bestScore
		if picked.Kind != KindPlayer {
			used[picked.ID] = true
		}
	}
	return res, true
}

// scoreActor rates how well an actor fits a role. ok is false when the
// actor is disqualified.
func scoreActor(role Role, a Actor) (score float64, ok bool) {
	for _, tag := range role.RequiredTags {
		if !a.HasTag(tag) {
			return 0, false
		}
	}
	for _, tag := range role.ForbiddenTags {
		if a.HasTag(tag) {
			return 0, false
		}
	}
	for _, trait := range role.RequiredTraits {
		if !a.HasTrait(trait) {
			return 0, false
		}
	}
	for _, trait := range role.ForbiddenTraits {
		if a.HasTrait(trait) {
			return 0, false
		}
	}
	if a.Wounded && role.rejectsWounded() {
		return 0, false
	}

	score = 1
	for _, tag := range role.PreferredTags {
		if a.HasTag(tag) {
			score += preferredTagBonus
		}
	}
	score += float64(len(role.RequiredTraits))
	if a.Relationship != "" && slices.Contains(role.PreferredTags, string(a.Relationship)) {
		score += relationshipBonus
	}
	if a.Kind == KindPlayer && role.ID != ProtagonistRole {
		score -= playerSideRolePenalty
	}
	return score, true
}

// resolveBranch picks the heaviest matching branch, the first on ties. When
// nothing matches it falls back to the first branch.
func resolveBranch(play Play, roles map[string]Actor, ctx TriggerContext) (Branch, bool) {
	if len(play.Branches) == 0 {
		return Branch{}, false
	}

	selected := -1
	bestWeight := math.Inf(-1)
	for i, b := range play.Branches {
		if !b.Conditions.Matches(roles, ctx) {
			continue
		}
		if w := b.EffectiveWeight(); selected < 0 || w > bestWeight {
			selected, bestWeight = i, w
		}
	}
	if selected < 0 {
		selected = 0
	}
	return play.Branches[selected], true
}

// DeriveArc maps a mission level index to its act.
func DeriveArc(missionLevelIndex int) Arc {
	switch {
	case missionLevelIndex <= 0:
		return ArcSetup
	case missionLevelIndex == 1:
		return ArcEscalation
	default:
		return ArcFinale
	}
}
