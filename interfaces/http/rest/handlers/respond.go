package handlers

import (
	"encoding/json"
	"net/http"

	"finagotchi-backend/pkg/common"
)

const maxBodyBytes = 1 << 20

// respondJSON writes a payload as-is. Response shapes are part of the
// client contract, so success payloads are not wrapped in an envelope.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	common.RespondError(w, status, code, message)
}

// decodeBody parses and size-limits a JSON request body.
func decodeBody(r *http.Request, v any) error {
	return common.ParseJSONBody(r, v, maxBodyBytes)
}
