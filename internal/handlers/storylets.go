package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/world-reactor/pkg/director"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
)

var triggerTypes = []storylet.TriggerType{
	storylet.TriggerMissionCompletion,
	storylet.TriggerPatrolAmbush,
	storylet.TriggerCampfireRest,
}

// TriggerStoryletRequest is the body of POST /v1/storylets/trigger.
type TriggerStoryletRequest struct {
	Type       storylet.TriggerType `json:"type"`
	LocationID string               `json:"location_id,omitempty"`
	MissionID  string               `json:"mission_id,omitempty"`
	Tags       []storylet.Tag       `json:"tags,omitempty"`
}

// MissionRequest is the body of the mission endpoints.
type MissionRequest struct {
	Level       int    `json:"level"`
	LevelID     string `json:"level_id"`
	Name        string `json:"name,omitempty"`
	NextLevel   int    `json:"next_level,omitempty"`
	NextLevelID string `json:"next_level_id,omitempty"`
}

type StoryletHandler struct {
	game   Game
	logger *slog.Logger
}

func NewStoryletHandler(game Game, logger *slog.Logger) *StoryletHandler {
	return &StoryletHandler{
		game:   game,
		logger: logger,
	}
}

// ServeHTTP handles narrative operations
// Routes:
// POST   /v1/storylets/trigger      - Resolve a storylet for a gameplay event
// GET    /v1/storylets/queue        - List the display queue
// DELETE /v1/storylets/queue/{id}   - Remove a displayed item
// POST   /v1/missions/accomplished  - Mark the mission done
// POST   /v1/missions/advance       - Request the next level
func (h *StoryletHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")

	switch {
	case path == "v1/storylets/trigger" && r.Method == http.MethodPost:
		h.handleTrigger(w, r)
	case path == "v1/storylets/queue" && r.Method == http.MethodGet:
		writeJSON(w, h.logger, http.StatusOK, h.game.State().Storylets.Queue)
	case strings.HasPrefix(path, "v1/storylets/queue/") && r.Method == http.MethodDelete:
		id := strings.TrimPrefix(path, "v1/storylets/queue/")
		item, ok := h.game.Dequeue(id)
		if !ok {
			writeError(w, h.logger, http.StatusNotFound, "Queue item not found")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, item)
	case path == "v1/missions/accomplished" && r.Method == http.MethodPost:
		h.handleMissionAccomplished(w, r)
	case path == "v1/missions/advance" && r.Method == http.MethodPost:
		h.handleAdvance(w, r)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *StoryletHandler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerStoryletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validTrigger(req.Type) {
		writeError(w, h.logger, http.StatusBadRequest, "Unknown trigger type")
		return
	}

	item, err := h.game.TriggerStorylet(r.Context(), director.TriggerRequest{
		Type:       req.Type,
		LocationID: req.LocationID,
		MissionID:  req.MissionID,
		Tags:       req.Tags,
	})
	h.respondItem(w, r, item, err)
}

func (h *StoryletHandler) handleMissionAccomplished(w http.ResponseWriter, r *http.Request) {
	var req MissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LevelID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "level_id is required")
		return
	}
	item, err := h.game.MissionAccomplished(r.Context(), director.MissionEvent{
		Level:   req.Level,
		LevelID: req.LevelID,
		Name:    req.Name,
	})
	h.respondItem(w, r, item, err)
}

func (h *StoryletHandler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req MissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	err := h.game.RequestLevelAdvance(r.Context(), director.LevelAdvanceEvent{
		MissionEvent: director.MissionEvent{Level: req.Level, LevelID: req.LevelID, Name: req.Name},
		NextLevel:    req.NextLevel,
		NextLevelID:  req.NextLevelID,
	})
	if err != nil {
		h.logger.Error("Failed to request level advance", "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Failed to publish level advance")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// respondItem writes the resolved item, or 204 when nothing qualified.
func (h *StoryletHandler) respondItem(w http.ResponseWriter, r *http.Request, item *storylet.QueueItem, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, r.Context().Err()) {
			status = http.StatusRequestTimeout
		}
		h.logger.Error("Failed to resolve storylet", "error", err, "path", r.URL.Path)
		writeError(w, h.logger, status, "Failed to resolve storylet")
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, item)
}

func validTrigger(t storylet.TriggerType) bool {
	for _, v := range triggerTypes {
		if v == t {
			return true
		}
	}
	return false
}
