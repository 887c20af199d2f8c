package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/world-reactor/internal/services/events"
)

const defaultKeepalive = 30 * time.Second

// EventsHandler streams a game's feed over Server-Sent Events.
type EventsHandler struct {
	redisClient *redis.Client
	logger      *slog.Logger
	keepalive   time.Duration
}

func NewEventsHandler(redisClient *redis.Client, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		redisClient: redisClient,
		logger:      logger,
		keepalive:   defaultKeepalive,
	}
}

// ServeHTTP streams ambient events, fired world triggers and resolved
// storylets for one game.
// GET /v1/events/{gameID}?types=ambient,storylet.resolved
// Without types every event is forwarded.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	gameID, ok := parseEventsPath(r.URL.Path)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/events/{gameID}")
		return
	}
	wanted := parseTypes(r.URL.Query().Get("types"))

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if flusher != nil {
		flusher.Flush()
	}

	channel := events.Channel(gameID)
	pubsub := h.redisClient.Subscribe(r.Context(), channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()
	msgs := pubsub.Channel()

	log := h.logger.With("game_id", gameID.String())
	log.Info("SSE client connected", "channel", channel, "types", wanted)

	stream := &sseStream{w: w, flusher: flusher}
	if err := stream.send("connected", map[string]any{"game_id": gameID.String()}); err != nil {
		log.Error("Failed to write SSE event", "error", err)
		return
	}

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info("SSE client disconnected", "sent", stream.seq)
			return

		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			if len(wanted) > 0 && !wanted[event.Type] {
				continue
			}
			if err := stream.send(string(event.Type), event.Data); err != nil {
				log.Error("Failed to write SSE event", "error", err, "event_type", event.Type)
				return
			}

		case <-keepalive.C:
			if err := stream.comment("keepalive"); err != nil {
				log.Error("Failed to write keepalive", "error", err)
				return
			}
		}
	}
}

func parseEventsPath(path string) (uuid.UUID, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "v1" || parts[1] != "events" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func parseTypes(raw string) map[events.EventType]bool {
	if raw == "" {
		return nil
	}
	out := make(map[events.EventType]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out[events.EventType(t)] = true
		}
	}
	return out
}

// sseStream numbers events so clients can tell whether they missed any.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

func (s *sseStream) send(eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, eventType, payload); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *sseStream) comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *sseStream) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
