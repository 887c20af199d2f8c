package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/world-reactor/pkg/ambient"
	"github.com/jwebster45206/world-reactor/pkg/director"
	"github.com/jwebster45206/world-reactor/pkg/environment"
	"github.com/jwebster45206/world-reactor/pkg/state"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
	"github.com/jwebster45206/world-reactor/pkg/worldtriggers"
)

const (
	defaultInterval = time.Second
	lockTTL         = 30 * time.Second
)

// Feed receives what the worker produces each tick. events.Broadcaster
// implements it.
type Feed interface {
	PublishAmbient(ctx context.Context, gameID uuid.UUID, ev ambient.Event) error
	PublishTriggersFired(ctx context.Context, gameID uuid.UUID, ids []string) error
	PublishStoryletResolved(ctx context.Context, gameID uuid.UUID, item storylet.QueueItem) error
}

// TickResult reports one tick.
type TickResult struct {
	Fired   []string
	Ambient []ambient.Event
	Skipped bool
}

// Worker drives one game: it ticks the world triggers on an interval, turns
// the resulting state changes into ambient feed events and routes gameplay
// events to the director.
type Worker struct {
	id          string
	gameID      uuid.UUID
	store       *state.Store
	registry    *worldtriggers.Registry
	director    *director.Director
	feed        Feed
	redisClient *redis.Client
	interval    time.Duration
	now         func() time.Time
	log         *slog.Logger

	mu      sync.Mutex
	tracker *ambient.Tracker

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Worker.
type Option func(*Worker)

func WithID(id string) Option { return func(w *Worker) { w.id = id } }

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithAmbient replaces the ambient tracker options.
func WithAmbient(opts ambient.Options) Option {
	return func(w *Worker) { w.tracker = ambient.New(opts) }
}

func WithFeed(f Feed) Option { return func(w *Worker) { w.feed = f } }

// WithRedisLock makes every tick take the game's Redis lock first, so two
// worker processes never tick the same game.
func WithRedisLock(rdb *redis.Client) Option {
	return func(w *Worker) { w.redisClient = rdb }
}

func WithLogger(l *slog.Logger) Option { return func(w *Worker) { w.log = l } }

func WithClock(now func() time.Time) Option { return func(w *Worker) { w.now = now } }

// New creates a worker for the game held by store.
func New(store *state.Store, registry *worldtriggers.Registry, dir *director.Director, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		gameID:   store.Snapshot().ID,
		store:    store,
		registry: registry,
		director: dir,
		interval: defaultInterval,
		now:      time.Now,
		log:      slog.Default(),
		tracker:  ambient.New(ambient.Options{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.id == "" {
		w.id = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	w.log = w.log.With("worker_id", w.id, "game_id", w.gameID.String())
	return w
}

// Start ticks until Stop is called.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down")
			return nil
		case <-ticker.C:
			if _, err := w.Tick(w.ctx, w.now()); err != nil {
				// Keep ticking; the next interval retries.
				w.log.Error("Error running tick", "error", err)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested")
	w.cancel()
}

// Tick runs the world triggers once and collects the ambient events they
// caused. The first tick primes the tracker and reports a zone brief.
func (w *Worker) Tick(ctx context.Context, now time.Time) (TickResult, error) {
	if w.redisClient != nil {
		locked, err := w.acquireGameLock(ctx)
		if err != nil {
			return TickResult{}, fmt.Errorf("failed to acquire game lock: %w", err)
		}
		if !locked {
			w.log.Debug("Game locked by another worker, skipping tick")
			return TickResult{Skipped: true}, nil
		}
		defer w.releaseGameLock(ctx)
	}

	res := TickResult{
		Fired: w.registry.Tick(w.store.Dispatch, w.store.Snapshot, now),
	}

	snap := ambient.FromState(w.store.Snapshot())
	w.mu.Lock()
	if !w.tracker.Primed() {
		w.tracker.Prime(snap)
		res.Ambient = []ambient.Event{ambient.Brief(snap, now)}
	} else {
		res.Ambient = w.tracker.Collect(snap, now)
	}
	w.mu.Unlock()

	if len(res.Fired) > 0 {
		w.log.Debug("World triggers fired", "trigger_ids", res.Fired)
	}
	w.publish(ctx, res)
	return res, nil
}

func (w *Worker) publish(ctx context.Context, res TickResult) {
	if w.feed == nil {
		return
	}
	if len(res.Fired) > 0 {
		if err := w.feed.PublishTriggersFired(ctx, w.gameID, res.Fired); err != nil {
			w.log.Error("Failed to publish fired triggers", "error", err)
		}
	}
	for _, ev := range res.Ambient {
		if err := w.feed.PublishAmbient(ctx, w.gameID, ev); err != nil {
			w.log.Error("Failed to publish ambient event", "error", err, "category", ev.Category)
		}
	}
}

// ResetAmbient drops the tracker baseline, so the next tick re-primes and
// opens with a fresh zone brief. Use it when the player changes level.
func (w *Worker) ResetAmbient() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracker.Reset()
}

// Dispatch applies a gameplay action, such as a flag change, to the state.
func (w *Worker) Dispatch(a state.Action) {
	w.store.Dispatch(a)
}

// State returns a copy of the game state.
func (w *Worker) State() *state.GameState {
	return w.store.Snapshot()
}

// Flags returns the current world flags.
func (w *Worker) Flags() environment.Flags {
	return w.store.Snapshot().Flags
}

// Zone returns the player's current zone.
func (w *Worker) Zone() state.ZoneInfo {
	return w.store.Snapshot().Zone
}

// TriggerStorylet resolves a storylet against the live state.
func (w *Worker) TriggerStorylet(ctx context.Context, req director.TriggerRequest) (*storylet.QueueItem, error) {
	var item *storylet.QueueItem
	err := w.store.Update(func(gs *state.GameState) error {
		var err error
		item, err = w.director.TriggerStorylet(ctx, gs, req, w.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	w.announce(ctx, item)
	return item, nil
}

// MissionAccomplished records the finished mission and resolves its
// storylet.
func (w *Worker) MissionAccomplished(ctx context.Context, ev director.MissionEvent) (*storylet.QueueItem, error) {
	var item *storylet.QueueItem
	err := w.store.Update(func(gs *state.GameState) error {
		var err error
		item, err = w.director.MissionAccomplished(ctx, gs, ev, w.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	w.announce(ctx, item)
	return item, nil
}

// RequestLevelAdvance forwards a level advance request.
func (w *Worker) RequestLevelAdvance(ctx context.Context, ev director.LevelAdvanceEvent) error {
	return w.director.RequestLevelAdvance(ctx, w.store.Snapshot(), ev)
}

// Dequeue removes a displayed storylet from the queue.
func (w *Worker) Dequeue(id string) (storylet.QueueItem, bool) {
	var (
		item storylet.QueueItem
		ok   bool
	)
	_ = w.store.Update(func(gs *state.GameState) error {
		item, ok = w.director.Dequeue(gs, id)
		return nil
	})
	return item, ok
}

func (w *Worker) announce(ctx context.Context, item *storylet.QueueItem) {
	if item == nil || w.feed == nil {
		return
	}
	if err := w.feed.PublishStoryletResolved(ctx, w.gameID, *item); err != nil {
		w.log.Error("Failed to publish storylet", "error", err, "storylet_id", item.StoryletID)
	}
}

func (w *Worker) lockKey() string {
	return fmt.Sprintf("game-lock:%s", w.gameID.String())
}

// acquireGameLock attempts to acquire the game's lock
// Returns true if lock was acquired, false if already locked
func (w *Worker) acquireGameLock(ctx context.Context) (bool, error) {
	return w.redisClient.SetNX(ctx, w.lockKey(), w.id, lockTTL).Result()
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// releaseGameLock releases the lock if this worker still owns it
func (w *Worker) releaseGameLock(ctx context.Context) {
	if err := releaseScript.Run(ctx, w.redisClient, []string{w.lockKey()}, w.id).Err(); err != nil {
		w.log.Error("Failed to release game lock", "error", err)
	}
}
