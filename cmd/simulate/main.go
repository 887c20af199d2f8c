// Command simulate plays a scripted evening in the city and prints what the
// world does in response: fired triggers, the ambient feed, storylets and
// the player log.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/world-reactor/internal/config"
	"github.com/jwebster45206/world-reactor/internal/logger"
	"github.com/jwebster45206/world-reactor/internal/services/events"
	"github.com/jwebster45206/world-reactor/internal/services/queue"
	"github.com/jwebster45206/world-reactor/internal/worker"
	"github.com/jwebster45206/world-reactor/pkg/actor"
	"github.com/jwebster45206/world-reactor/pkg/ambient"
	"github.com/jwebster45206/world-reactor/pkg/content"
	"github.com/jwebster45206/world-reactor/pkg/director"
	"github.com/jwebster45206/world-reactor/pkg/environment"
	"github.com/jwebster45206/world-reactor/pkg/state"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
	"github.com/jwebster45206/world-reactor/pkg/worldtriggers"
)

// step is one scripted beat: an optional change, then a tick.
type step struct {
	label  string
	after  time.Duration
	change func(ctx context.Context, w *worker.Worker) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger.SetupWriter(cfg, os.Stderr)

	c, err := content.Load(cfg.ContentDir)
	if err != nil {
		log.Fatal(err)
	}
	lib, err := storylet.FromCatalog(c)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	feed := &printFeed{out: os.Stdout}
	var dirOpts []director.Option

	if cfg.RedisURL != "" {
		client, err := queue.NewClient(ctx, cfg.RedisURL, nil)
		if err != nil {
			log.Fatal(err)
		}
		defer client.Close()
		broadcaster := events.NewBroadcaster(client.GetRedisClient(), nil)
		feed.next = broadcaster
		dirOpts = append(dirOpts,
			director.WithQueue(queue.NewNarrativeQueue(client, nil)),
			director.WithPublisher(broadcaster))
	}

	store, err := newGame(cfg.Locale)
	if err != nil {
		log.Fatal(err)
	}

	reg := worldtriggers.NewRegistry()
	worldtriggers.Register(reg, c)

	clock := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	w := worker.New(store, reg, director.New(lib, c, dirOpts...),
		worker.WithFeed(feed),
		worker.WithAmbient(cfg.AmbientOptions()),
		worker.WithClock(func() time.Time { return clock }))

	for _, s := range script() {
		clock = clock.Add(s.after)
		fmt.Printf("\n== %s  [%s]\n", s.label, clock.Format("15:04:05"))
		if s.change != nil {
			if err := s.change(ctx, w); err != nil {
				log.Fatal(err)
			}
		}
		if _, err := w.Tick(ctx, clock); err != nil {
			log.Fatal(err)
		}
	}

	gs := store.Snapshot()
	fmt.Println("\n== Player log")
	for _, line := range gs.Log {
		fmt.Println("  " + line)
	}
	fmt.Println("\n== Conditions")
	for _, line := range environment.Describe(gs.Impact()) {
		fmt.Println("  " + line)
	}
	fmt.Printf("\n== Storylet queue (%d)\n", len(gs.Storylets.Queue))
	for _, item := range gs.Storylets.Queue {
		play := lib.MustPlay(item.StoryletID)
		fmt.Printf("  %s / %s [%s]\n    %s\n", item.Title, item.BranchID, play.Arc, item.Narrative)
		branch, err := lib.Branch(item.StoryletID, item.BranchID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %v\n", err)
			continue
		}
		for _, effect := range branch.Outcome.Effects {
			fmt.Printf("    effect: %+v\n", effect)
		}
	}
}

func script() []step {
	setFlags := func(mutate func(f *environment.Flags)) func(context.Context, *worker.Worker) error {
		return func(_ context.Context, w *worker.Worker) error {
			f := w.Flags()
			mutate(&f)
			w.Dispatch(state.SetFlags{Flags: f})
			return nil
		}
	}
	trigger := func(req director.TriggerRequest) func(context.Context, *worker.Worker) error {
		return func(ctx context.Context, w *worker.Worker) error {
			item, err := w.TriggerStorylet(ctx, req)
			if err == nil && item == nil {
				fmt.Println("  (no storylet qualified)")
			}
			return err
		}
	}

	return []step{
		{label: "Calm evening"},
		{label: "Gang heat rises", after: 45 * time.Second, change: setFlags(func(f *environment.Flags) {
			f.GangHeat = environment.GangHeatMed
		})},
		{label: "Curfew tier 2", after: time.Minute, change: setFlags(func(f *environment.Flags) {
			f.CurfewLevel = 2
		})},
		{label: "Brownout, supplies tighten", after: time.Minute, change: setFlags(func(f *environment.Flags) {
			f.BlackoutTier = environment.BlackoutBrownout
			f.SupplyScarcity = environment.SupplyTight
		})},
		{label: "Nightfall", after: time.Minute, change: func(_ context.Context, w *worker.Worker) error {
			w.Dispatch(state.SetTimeOfDay{TimeOfDay: state.Night})
			return nil
		}},
		{label: "Tear gas clears, snipers move in", after: 20 * time.Second, change: func(_ context.Context, w *worker.Worker) error {
			z := w.Zone()
			z.DangerRating = "high"
			z.Hazards = []string{"Rooftop Snipers"}
			w.Dispatch(state.SetZone{Zone: z})
			return nil
		}},
		{label: "Camp by the canal", after: 30 * time.Second, change: trigger(director.TriggerRequest{
			Type: storylet.TriggerCampfireRest,
		})},
		{label: "Mission accomplished", after: time.Minute, change: func(ctx context.Context, w *worker.Worker) error {
			_, err := w.MissionAccomplished(ctx, director.MissionEvent{Level: 0, LevelID: "mission_0", Name: "Supply Run"})
			return err
		}},
		{label: "Lockdown", after: time.Minute, change: setFlags(func(f *environment.Flags) {
			f.CurfewLevel = environment.MaxCurfewLevel
			f.GangHeat = environment.GangHeatHigh
		})},
	}
}

func newGame(locale string) (*state.Store, error) {
	pc, err := actor.NewPCFromSpec(&actor.PCSpec{
		ID:           "player",
		Name:         "Nova",
		BackgroundID: "corpsec_defector",
		HP:           14,
		MaxHP:        24,
		AC:           13,
		Position:     actor.Position{X: 12, Y: 9},
	})
	if err != nil {
		return nil, err
	}

	gs := state.NewGameState()
	gs.Locale = locale
	gs.Player = pc
	gs.Zone = state.ZoneInfo{
		ID:           "slums",
		Name:         "The Slums",
		DangerRating: "moderate",
		Hazards:      []string{"Lingering Tear Gas"},
		Summary:      "Neon over wet concrete. Coyote tags on every shutter.",
		Directives:   []string{"Reach the canal safehouse", "Keep Lira's crates out of CorpSec hands"},
	}
	gs.NPCs = []actor.NPC{
		{ID: "npc_lira_vendor", Name: "Lira the Smuggler", DialogueID: "npc_lira_vendor", Health: 12, MaxHealth: 12, Interactive: true},
		{ID: "npc_courier_brant", Name: "Brant", DialogueID: "npc_courier_brant", Health: 10, MaxHealth: 10, Interactive: true},
		{ID: "npc_captain_reyna", Name: "Captain Reyna", DialogueID: "npc_captain_reyna", Health: 16, MaxHealth: 16},
	}
	return state.NewStore(gs), nil
}

// printFeed writes the feed to out and forwards it to next when set.
type printFeed struct {
	out  io.Writer
	next worker.Feed
}

func (f *printFeed) PublishAmbient(ctx context.Context, gameID uuid.UUID, ev ambient.Event) error {
	fmt.Fprintf(f.out, "  [%s] %s\n", ev.Category, describe(ev))
	if f.next != nil {
		return f.next.PublishAmbient(ctx, gameID, ev)
	}
	return nil
}

func (f *printFeed) PublishTriggersFired(ctx context.Context, gameID uuid.UUID, ids []string) error {
	for _, id := range ids {
		fmt.Fprintf(f.out, "  fired %s\n", id)
	}
	if f.next != nil {
		return f.next.PublishTriggersFired(ctx, gameID, ids)
	}
	return nil
}

func (f *printFeed) PublishStoryletResolved(ctx context.Context, gameID uuid.UUID, item storylet.QueueItem) error {
	fmt.Fprintf(f.out, "  storylet %s (%s)\n", item.Title, item.BranchID)
	if f.next != nil {
		return f.next.PublishStoryletResolved(ctx, gameID, item)
	}
	return nil
}

func describe(ev ambient.Event) string {
	switch ev.Category {
	case ambient.CategoryRumor:
		return fmt.Sprintf("%s: %q", ev.GroupID, ev.Lines[0])
	case ambient.CategorySignage:
		return fmt.Sprintf("%s: %s", ev.SignID, ev.Text)
	case ambient.CategoryWeather:
		return fmt.Sprintf("%s (%s, rain %.1f)", ev.Weather.Description, ev.Weather.TimeOfDay, ev.Weather.RainIntensity)
	case ambient.CategoryZoneDanger:
		changes := make([]string, 0, len(ev.FlagChanges))
		for _, c := range ev.FlagChanges {
			changes = append(changes, fmt.Sprintf("%s %s->%s", c.Flag, c.Previous, c.Current))
		}
		return fmt.Sprintf("%s danger %s [%s]", ev.ZoneName, ev.DangerRating, strings.Join(changes, ", "))
	case ambient.CategoryHazardChange:
		return fmt.Sprintf("+%v -%v", ev.Added, ev.Removed)
	case ambient.CategoryZoneBrief:
		return fmt.Sprintf("%s: %s", ev.ZoneName, ev.Summary)
	default:
		return string(ev.Category)
	}
}
