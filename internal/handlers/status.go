// Package handlers serves the status API of a running fleet.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/fleet"
	"github.com/ukydev/geo-payloads/internal/middleware"
)

// FleetStatus defines the fleet queries the status API needs
type FleetStatus interface {
	Statuses() []fleet.Status
	Status(id int) (fleet.Status, bool)
}

// ErrorResponse is the JSON body of failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// AgentsResponse is the JSON response structure for GET /agents
type AgentsResponse struct {
	Agents []fleet.Status `json:"agents"`
	Count  int            `json:"count"`
}

// StatusHandler handles HTTP requests for agent status
type StatusHandler struct {
	fleet   FleetStatus
	started time.Time
}

// NewStatusHandler creates a new handler for the given fleet
func NewStatusHandler(f FleetStatus) *StatusHandler {
	return &StatusHandler{fleet: f, started: time.Now().UTC()}
}

// Routes mounts the status endpoints on a chi router.
func (h *StatusHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.NewRateLimiter(120, time.Minute).Handler)
	r.Get("/health", h.Health)
	r.Get("/agents", h.ListAgents)
	r.Get("/agents/{id}", h.GetAgent)
	return r
}

// Health handles GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"agents":  len(h.fleet.Statuses()),
		"started": h.started,
	})
}

// ListAgents handles GET /agents
func (h *StatusHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents := h.fleet.Statuses()
	writeJSON(w, http.StatusOK, AgentsResponse{Agents: agents, Count: len(agents)})
}

// GetAgent handles GET /agents/{id}
func (h *StatusHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid agent id"})
		return
	}
	st, ok := h.fleet.Status(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Agent not found"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}
