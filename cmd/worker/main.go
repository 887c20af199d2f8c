package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/world-reactor/internal/config"
	"github.com/jwebster45206/world-reactor/internal/handlers"
	"github.com/jwebster45206/world-reactor/internal/logger"
	"github.com/jwebster45206/world-reactor/internal/middleware"
	"github.com/jwebster45206/world-reactor/internal/services/events"
	"github.com/jwebster45206/world-reactor/internal/services/queue"
	"github.com/jwebster45206/world-reactor/internal/worker"
	"github.com/jwebster45206/world-reactor/pkg/content"
	"github.com/jwebster45206/world-reactor/pkg/director"
	"github.com/jwebster45206/world-reactor/pkg/state"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
	"github.com/jwebster45206/world-reactor/pkg/worldtriggers"
)

var _ handlers.Game = (*worker.Worker)(nil)

// redisPinger adapts a go-redis client to handlers.Pinger.
type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	if cfg.RedisURL == "" {
		log.Error("REDIS_URL is required to run the worker")
		os.Exit(1)
	}

	log.Info("Starting World Reactor Worker",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"tick_interval", cfg.TickInterval.String())

	catalog, err := content.Load(cfg.ContentDir)
	if err != nil {
		log.Error("Failed to load content", "error", err, "dir", cfg.ContentDir)
		os.Exit(1)
	}
	library, err := storylet.FromCatalog(catalog)
	if err != nil {
		log.Error("Failed to load storylets", "error", err)
		os.Exit(1)
	}
	log.Info("Content loaded", "storylets", len(library.Plays()), "locales", catalog.Locales())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	queueClient, err := queue.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()

	broadcaster := events.NewBroadcaster(queueClient.GetRedisClient(), log)
	dir := director.New(library, catalog,
		director.WithQueue(queue.NewNarrativeQueue(queueClient, log)),
		director.WithPublisher(broadcaster),
		director.WithLogger(log))

	gs := state.NewGameState()
	gs.Locale = catalog.MatchLocale(cfg.Locale)
	store := state.NewStore(gs)

	registry := worldtriggers.NewRegistry()
	worldtriggers.Register(registry, catalog)

	w := worker.New(store, registry, dir,
		worker.WithID(os.Getenv("WORKER_ID")),
		worker.WithInterval(cfg.TickInterval),
		worker.WithAmbient(cfg.AmbientOptions()),
		worker.WithFeed(broadcaster),
		worker.WithRedisLock(queueClient.GetRedisClient()),
		worker.WithLogger(log))

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started", "game_id", gs.ID.String(), "channel", events.Channel(gs.ID))

	rdb := queueClient.GetRedisClient()
	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(map[string]handlers.Pinger{"redis": redisPinger{rdb}}, log))

	worldHandler := handlers.NewWorldHandler(w, log)
	mux.Handle("/v1/world", worldHandler)
	mux.Handle("/v1/world/", worldHandler)

	storyletHandler := handlers.NewStoryletHandler(w, log)
	mux.Handle("/v1/storylets/", storyletHandler)
	mux.Handle("/v1/missions/", storyletHandler)

	mux.Handle("/v1/events/", handlers.NewEventsHandler(rdb, log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(mux, log),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /v1/events streams until the client leaves.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	log.Info("Worker shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	w.Stop()

	log.Info("Worker exited")
}
