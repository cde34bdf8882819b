package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"finagotchi-backend/application/services"
)

// DilemmaHandler handles dilemma generation requests
type DilemmaHandler struct {
	dilemmas *services.DilemmaService
	logger   *zap.Logger
}

// NewDilemmaHandler creates a new dilemma handler
func NewDilemmaHandler(dilemmas *services.DilemmaService, logger *zap.Logger) *DilemmaHandler {
	return &DilemmaHandler{dilemmas: dilemmas, logger: logger}
}

// Next handles GET /dilemma/next. Generation failures already degrade
// to the static bank inside the service, so this never errors.
func (h *DilemmaHandler) Next(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.dilemmas.Next(r.Context()))
}
