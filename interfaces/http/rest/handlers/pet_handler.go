package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"finagotchi-backend/application/services"
	"finagotchi-backend/pkg/common"
	apperrors "finagotchi-backend/pkg/errors"
)

// PetHandler handles pet state and export requests
type PetHandler struct {
	pets             *services.PetService
	defaultSubjectID string
	logger           *zap.Logger
}

// NewPetHandler creates a new pet handler
func NewPetHandler(pets *services.PetService, defaultSubjectID string, logger *zap.Logger) *PetHandler {
	return &PetHandler{pets: pets, defaultSubjectID: defaultSubjectID, logger: logger}
}

func (h *PetHandler) subjectID(r *http.Request) string {
	if id := r.URL.Query().Get("pet_id"); id != "" {
		return id
	}
	return h.defaultSubjectID
}

// Get handles GET /pet
func (h *PetHandler) Get(w http.ResponseWriter, r *http.Request) {
	subjectID := h.subjectID(r)
	snapshot, err := h.pets.Snapshot(r.Context(), subjectID)
	if err != nil {
		h.logger.Error("Failed to load pet snapshot",
			zap.Error(err),
			zap.String("subjectID", subjectID),
		)
		respondError(w, apperrors.HTTPStatus(err), common.StandardErrorCodes.InternalError, "Failed to load pet state")
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// Export handles GET /export/pet
func (h *PetHandler) Export(w http.ResponseWriter, r *http.Request) {
	subjectID := h.subjectID(r)
	bundle, err := h.pets.Export(r.Context(), subjectID)
	if err != nil {
		h.logger.Error("Failed to export history",
			zap.Error(err),
			zap.String("subjectID", subjectID),
		)
		respondError(w, apperrors.HTTPStatus(err), common.StandardErrorCodes.InternalError, "Failed to export history")
		return
	}
	respondJSON(w, http.StatusOK, bundle)
}

// ExportJSONL handles GET /export/pet.jsonl, one export row per line
func (h *PetHandler) ExportJSONL(w http.ResponseWriter, r *http.Request) {
	subjectID := h.subjectID(r)
	bundle, err := h.pets.Export(r.Context(), subjectID)
	if err != nil {
		h.logger.Error("Failed to export history",
			zap.Error(err),
			zap.String("subjectID", subjectID),
		)
		respondError(w, apperrors.HTTPStatus(err), common.StandardErrorCodes.InternalError, "Failed to export history")
		return
	}

	w.Header().Set("Content-Type", "application/jsonl")
	w.WriteHeader(http.StatusOK)
	encoder := json.NewEncoder(w)
	for _, row := range bundle.Rows {
		if err := encoder.Encode(row); err != nil {
			h.logger.Warn("Failed to stream export row", zap.Error(err))
			return
		}
	}
}
