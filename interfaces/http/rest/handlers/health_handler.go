package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
)

// HealthHandler reports liveness and readiness
type HealthHandler struct {
	retriever ports.Retriever
	model     ports.LanguageModel
	logger    *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(retriever ports.Retriever, model ports.LanguageModel, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{retriever: retriever, model: model, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   fmt.Sprintf("%d", time.Now().Unix()),
	})
}

// Ready handles GET /ready: the vector store and both models must
// respond for the service to report ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ok := true
	details := map[string]any{}

	if err := h.retriever.Ready(r.Context()); err != nil {
		ok = false
		details["qdrant"] = false
		details["qdrant_error"] = err.Error()
	} else {
		details["qdrant"] = true
	}

	if _, err := h.model.Chat(r.Context(), []ports.ChatMessage{{Role: "system", Content: "Reply with OK."}}); err != nil {
		ok = false
		details["chat"] = false
	} else {
		details["chat"] = true
	}

	if _, err := h.model.Embed(r.Context(), "ping"); err != nil {
		ok = false
		details["embed"] = false
	} else {
		details["embed"] = true
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, map[string]any{"ok": ok, "details": details})
}
