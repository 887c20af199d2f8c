// Package director turns gameplay moments into storylets: it builds the
// trigger context from game state, runs the storylet engine, applies the
// chosen outcome's effects and queues the localized result for display.
package director

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/world-reactor/pkg/content"
	"github.com/jwebster45206/world-reactor/pkg/state"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
)

// injuryThreshold is the health fraction below which a trigger carries the
// injury tag.
const injuryThreshold = 0.7

// defaultFactionReason is recorded when a faction effect names no reason.
const defaultFactionReason = "storylet"

// NarrativeQueue receives resolved storylets for an external display feed.
type NarrativeQueue interface {
	Push(ctx context.Context, gameID uuid.UUID, item storylet.QueueItem) error
}

// EventPublisher broadcasts mission progression events.
type EventPublisher interface {
	Publish(ctx context.Context, gameID uuid.UUID, eventType string, data map[string]any) error
}

// TriggerRequest is a gameplay moment that may produce a storylet.
type TriggerRequest struct {
	Type       storylet.TriggerType
	LocationID string
	MissionID  string
	Tags       []storylet.Tag
}

// Director resolves storylets against a game state.
type Director struct {
	library   *storylet.Library
	catalog   *content.Catalog
	queue     NarrativeQueue
	publisher EventPublisher
	logger    *slog.Logger
	newID     func() string
}

// Option configures a Director.
type Option func(*Director)

// WithQueue pushes every resolved storylet to q as well as the game state.
func WithQueue(q NarrativeQueue) Option {
	return func(d *Director) { d.queue = q }
}

// WithPublisher broadcasts mission events through p.
func WithPublisher(p EventPublisher) Option {
	return func(d *Director) { d.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Director) { d.logger = l }
}

// WithIDFunc replaces the queue item id generator.
func WithIDFunc(fn func() string) Option {
	return func(d *Director) { d.newID = fn }
}

// New returns a Director over library, reading text from catalog. Nil
// arguments select the embedded defaults.
func New(library *storylet.Library, catalog *content.Catalog, opts ...Option) *Director {
	if catalog == nil {
		catalog = content.Default()
	}
	if library == nil {
		library = storylet.Default()
	}
	d := &Director{
		library: library,
		catalog: catalog,
		logger:  slog.Default(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// TriggerStorylet evaluates the library for req and, when a play qualifies,
// applies its outcome to gs, records the runtime and queues the result. It
// returns nil without error when nothing qualifies. The caller must hold
// exclusive access to gs.
func (d *Director) TriggerStorylet(ctx context.Context, gs *state.GameState, req TriggerRequest, now time.Time) (*storylet.QueueItem, error) {
	if gs == nil {
		return nil, errors.New("director: nil game state")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := d.logger.With("game_id", gs.ID.String(), "trigger", string(req.Type))

	trigger := buildTriggerContext(gs, req, now)
	res := storylet.Evaluate(storylet.EvaluationParams{
		Plays:      d.library.Plays(),
		Runtime:    gs.Storylets.Runtime.Clone(),
		Trigger:    trigger,
		ActorPool:  storylet.BuildActorPool(gs.Player, gs.NPCs),
		LocationID: req.LocationID,
		Now:        now,
	})
	if res == nil {
		log.Debug("No storylet qualified", "arc", trigger.Arc, "tags", trigger.Tags)
		return nil, nil
	}

	log = log.With("storylet_id", res.StoryletID, "branch_id", res.Branch.ID)
	strs := d.catalog.Strings(gs.Locale)

	d.applyEffects(gs, res, strs, log)

	item := d.buildQueueItem(gs, res, strs, log)
	gs.Storylets.Runtime.Record(res)
	gs.Storylets.Enqueue(item)

	log.Info("Storylet resolved", "score", res.Score, "item_id", item.ID)

	if d.queue != nil {
		if err := d.queue.Push(ctx, gs.ID, item); err != nil {
			log.Error("Failed to push storylet to narrative queue", "error", err)
		}
	}
	return &item, nil
}

// Dequeue removes a queued storylet from gs, the oldest when id is empty.
func (d *Director) Dequeue(gs *state.GameState, id string) (storylet.QueueItem, bool) {
	return gs.Storylets.Dequeue(id)
}

func buildTriggerContext(gs *state.GameState, req TriggerRequest, now time.Time) storylet.TriggerContext {
	locationID := req.LocationID
	if locationID == "" {
		locationID = gs.Zone.ID
	}

	var tags []storylet.Tag
	add := func(t storylet.Tag) {
		if !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	for _, t := range req.Tags {
		add(t)
	}
	switch req.Type {
	case storylet.TriggerMissionCompletion:
		// Every mission is a resistance operation.
		add(storylet.TagResistance)
	case storylet.TriggerPatrolAmbush:
		add(storylet.TagAmbush)
	case storylet.TriggerCampfireRest:
		add(storylet.TagRest)
		add(storylet.TagRelationship)
	}
	if pc := gs.Player; pc != nil && pc.Spec != nil {
		if maxHP := pc.MaxHealth(); maxHP > 0 && float64(pc.Health()) < float64(maxHP)*injuryThreshold {
			add(storylet.TagInjury)
		}
	}

	return storylet.TriggerContext{
		Type:       req.Type,
		Arc:        storylet.DeriveArc(gs.MissionLevelIndex),
		Timestamp:  now,
		LocationID: locationID,
		MissionID:  req.MissionID,
		Tags:       tags,
	}
}

func roleTokens(res *storylet.Resolution) map[string]string {
	tokens := make(map[string]string, len(res.Roles))
	for roleID, a := range res.Roles {
		tokens[roleID] = a.Name
	}
	return tokens
}

func (d *Director) applyEffects(gs *state.GameState, res *storylet.Resolution, strs *content.Strings, log *slog.Logger) {
	tokens := roleTokens(res)

	for _, effect := range res.Outcome.Effects {
		switch e := effect.(type) {
		case storylet.LogEffect:
			gs.AddLog(content.ApplyTemplate(logText(strs, res.Play, e.LogKey), tokens))

		case storylet.FactionEffect:
			reason := e.Reason
			if reason == "" {
				reason = defaultFactionReason
			}
			standing := gs.AdjustFactionReputation(e.FactionID, e.Delta)
			log.Debug("Faction reputation adjusted",
				"faction_id", e.FactionID,
				"delta", e.Delta,
				"standing", standing,
				"reason", reason,
				"source", res.StoryletID)

		case storylet.HealthEffect:
			hp, err := gs.UpdateHealth(e.Delta, e.AllowKO)
			if err != nil {
				log.Warn("Skipped storylet health effect", "error", err)
				continue
			}
			log.Debug("Player health adjusted", "delta", e.Delta, "hp", hp)

		case storylet.TraitEffect:
			if !e.Target.IsPlayer() {
				log.Debug("Skipped trait effect on non-player role", "role_id", e.Target.RoleID, "trait", e.Trait)
				continue
			}
			score, err := gs.AdjustPersonalityTrait(e.Trait, e.Delta)
			if err != nil {
				log.Warn("Skipped storylet trait effect", "error", err)
				continue
			}
			log.Debug("Player trait adjusted", "trait", e.Trait, "delta", e.Delta, "score", score, "source", res.StoryletID)

		default:
			panic(fmt.Sprintf("director: unhandled effect %T", effect))
		}
	}
}

// logText resolves a log effect key: the localized log line, then the
// play's localized title, then the play's title key, then the key itself.
func logText(strs *content.Strings, play storylet.Play, key string) string {
	if line, ok := strs.Log(key); ok {
		return line
	}
	if ps, ok := strs.Play(play.ID); ok && ps.Title != "" {
		return ps.Title
	}
	if play.TitleKey != "" {
		return play.TitleKey
	}
	return key
}

func (d *Director) buildQueueItem(gs *state.GameState, res *storylet.Resolution, strs *content.Strings, log *slog.Logger) storylet.QueueItem {
	tokens := roleTokens(res)

	item := storylet.QueueItem{
		ID:          d.newID(),
		StoryletID:  res.StoryletID,
		BranchID:    res.Branch.ID,
		Title:       content.FallbackTitle(res.Play.ID),
		TriggeredAt: res.Timestamp,
		Locale:      d.catalog.MatchLocale(gs.Locale),
		OutcomeKey:  res.Outcome.LocalizationKey,
		VariantKey:  res.Outcome.VariantKey,
		Tags:        append([]storylet.Tag(nil), res.Outcome.Tags...),
	}

	ps, ok := strs.Play(res.StoryletID)
	if !ok {
		log.Warn("Missing locale text for storylet", "locale", item.Locale)
	} else {
		if ps.Title != "" {
			item.Title = ps.Title
		}
		item.Synopsis = ps.Synopsis

		outcome, ok := ps.Outcomes[res.Branch.ID]
		if !ok {
			log.Warn("Missing locale text for storylet outcome", "locale", item.Locale)
		} else {
			text := outcome.Resolve(res.Outcome.VariantKey)
			item.Narrative = content.ApplyTemplate(text.Narrative, tokens)
			item.Epilogue = content.ApplyTemplate(text.Epilogue, tokens)
			item.LogLine = content.ApplyTemplate(text.LogLine, tokens)
		}
	}

	for _, role := range res.Play.Roles {
		a, ok := res.Roles[role.ID]
		if !ok {
			continue
		}
		item.Roles = append(item.Roles, storylet.ResolvedRole{
			RoleID:       role.ID,
			RoleName:     strs.RoleName(res.StoryletID, role.ID),
			ActorID:      a.ID,
			ActorName:    a.Name,
			Relationship: a.Relationship,
		})
	}
	return item
}
