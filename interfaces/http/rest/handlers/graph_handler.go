package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"finagotchi-backend/application/services"
	"finagotchi-backend/pkg/common"
)

// GraphHandler handles standalone graph view requests
type GraphHandler struct {
	graphs *services.GraphService
	logger *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(graphs *services.GraphService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{graphs: graphs, logger: logger}
}

// Neighborhood handles GET /graph/neighborhood
func (h *GraphHandler) Neighborhood(w http.ResponseWriter, r *http.Request) {
	entityID := r.URL.Query().Get("entity_id")
	if entityID == "" {
		respondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "entity_id is required")
		return
	}

	depth := 2
	if raw := r.URL.Query().Get("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "depth must be a positive integer")
			return
		}
		depth = parsed
	}

	respondJSON(w, http.StatusOK, h.graphs.Neighborhood(r.Context(), entityID, depth))
}

// Sample handles GET /graph/sample
func (h *GraphHandler) Sample(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.graphs.Sample(r.Context()))
}
