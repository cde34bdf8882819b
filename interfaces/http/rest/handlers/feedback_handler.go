package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"finagotchi-backend/application/services"
	"finagotchi-backend/pkg/common"
	apperrors "finagotchi-backend/pkg/errors"
	"finagotchi-backend/pkg/utils"
)

// FeedbackHandler handles feedback requests
type FeedbackHandler struct {
	feedback *services.FeedbackService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedback *services.FeedbackService, validate *validator.Validate, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, validate: validate, logger: logger}
}

// Apply handles POST /feedback
func (h *FeedbackHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req services.FeedbackRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, utils.ValidationMessage(err))
		return
	}

	result, err := h.feedback.Apply(r.Context(), req)
	if err != nil {
		h.logger.Error("Feedback flow failed",
			zap.Error(err),
			zap.String("interactionID", req.InteractionID),
			zap.String("action", req.Action),
		)
		respondError(w, apperrors.HTTPStatus(err), common.StandardErrorCodes.InternalError, "Failed to apply feedback")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
