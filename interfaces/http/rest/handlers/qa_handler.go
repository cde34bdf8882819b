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

// QAHandler handles question answering requests
type QAHandler struct {
	qa       *services.QAService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewQAHandler creates a new QA handler
func NewQAHandler(qa *services.QAService, validate *validator.Validate, logger *zap.Logger) *QAHandler {
	return &QAHandler{qa: qa, validate: validate, logger: logger}
}

// Answer handles POST /qa
func (h *QAHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req services.QARequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, utils.ValidationMessage(err))
		return
	}

	result, err := h.qa.Answer(r.Context(), req)
	if err != nil {
		h.logger.Error("QA flow failed",
			zap.Error(err),
			zap.String("subjectID", req.SubjectID),
		)
		respondError(w, apperrors.HTTPStatus(err), common.StandardErrorCodes.InternalError, "Failed to answer question")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
