package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/world-reactor/pkg/ambient"
	"github.com/jwebster45206/world-reactor/pkg/director"
	"github.com/jwebster45206/world-reactor/pkg/environment"
	"github.com/jwebster45206/world-reactor/pkg/state"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
)

// Game is the running game the API controls. worker.Worker implements it.
type Game interface {
	State() *state.GameState
	Dispatch(a state.Action)
	TriggerStorylet(ctx context.Context, req director.TriggerRequest) (*storylet.QueueItem, error)
	MissionAccomplished(ctx context.Context, ev director.MissionEvent) (*storylet.QueueItem, error)
	RequestLevelAdvance(ctx context.Context, ev director.LevelAdvanceEvent) error
	Dequeue(id string) (storylet.QueueItem, bool)
}

// WorldResponse is the game state plus the derived ambient view.
type WorldResponse struct {
	State   *state.GameState `json:"state"`
	Ambient ambient.Snapshot `json:"ambient"`
	Summary []string         `json:"summary"`
}

type WorldHandler struct {
	game   Game
	logger *slog.Logger
}

func NewWorldHandler(game Game, logger *slog.Logger) *WorldHandler {
	return &WorldHandler{
		game:   game,
		logger: logger,
	}
}

// ServeHTTP handles world state operations
// Routes:
// GET /v1/world          - Read state and ambient snapshot
// PUT /v1/world/flags    - Replace the world flags
// PUT /v1/world/zone     - Move the player to a zone
// PUT /v1/world/time     - Set the time of day
func (h *WorldHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/world"), "/")

	switch {
	case path == "" && r.Method == http.MethodGet:
		gs := h.game.State()
		writeJSON(w, h.logger, http.StatusOK, WorldResponse{
			State:   gs,
			Ambient: ambient.FromState(gs),
			Summary: environment.Describe(gs.Impact()),
		})

	case path == "flags" && r.Method == http.MethodPut:
		var flags environment.Flags
		if !h.decode(w, r, &flags) {
			return
		}
		if err := flags.Validate(); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.game.Dispatch(state.SetFlags{Flags: flags})
		h.logger.Info("World flags set", "flags", flags)
		writeJSON(w, h.logger, http.StatusOK, flags)

	case path == "zone" && r.Method == http.MethodPut:
		var zone state.ZoneInfo
		if !h.decode(w, r, &zone) {
			return
		}
		if zone.ID == "" {
			writeError(w, h.logger, http.StatusBadRequest, "zone id is required")
			return
		}
		h.game.Dispatch(state.SetZone{Zone: zone})
		h.logger.Info("Zone set", "zone_id", zone.ID)
		writeJSON(w, h.logger, http.StatusOK, zone)

	case path == "time" && r.Method == http.MethodPut:
		var req struct {
			TimeOfDay state.TimeOfDay `json:"time_of_day"`
		}
		if !h.decode(w, r, &req) {
			return
		}
		if !state.ValidTimeOfDay(req.TimeOfDay) {
			writeError(w, h.logger, http.StatusBadRequest, "invalid time_of_day")
			return
		}
		h.game.Dispatch(state.SetTimeOfDay{TimeOfDay: req.TimeOfDay})
		writeJSON(w, h.logger, http.StatusOK, req)

	case path == "" || path == "flags" || path == "zone" || path == "time":
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")

	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *WorldHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
