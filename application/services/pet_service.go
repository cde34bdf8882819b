package services

import (
	"context"

	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/domain/pet"
	apperrors "finagotchi-backend/pkg/errors"
)

const recentInteractionLimit = 10

// PetSnapshot is the current pet state plus recent activity.
type PetSnapshot struct {
	Stats  pet.Stats                  `json:"pet_stats"`
	Path   string                     `json:"path"`
	Recent []ports.InteractionSummary `json:"recent_interactions"`
}

// ExportBundle is a subject's full history ready for distillation.
type ExportBundle struct {
	SubjectID string           `json:"pet_id"`
	Rows      []map[string]any `json:"rows"`
}

// PetService reads pet state and exports interaction history.
type PetService struct {
	subjects ports.SubjectRepository
	machine  *pet.Machine
	logger   *zap.Logger
}

// NewPetService creates a new pet service.
func NewPetService(subjects ports.SubjectRepository, machine *pet.Machine, logger *zap.Logger) *PetService {
	return &PetService{subjects: subjects, machine: machine, logger: logger}
}

// Snapshot returns the subject's pet state and its most recent
// interactions, creating default state for new subjects.
func (s *PetService) Snapshot(ctx context.Context, subjectID string) (*PetSnapshot, error) {
	state, err := s.subjects.GetOrCreateState(ctx, subjectID, s.machine.NewState(subjectID))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load pet state", err)
	}
	recent, err := s.subjects.ListInteractions(ctx, subjectID, recentInteractionLimit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list interactions", err)
	}
	return &PetSnapshot{Stats: state.Stats, Path: state.Path, Recent: recent}, nil
}

// Export assembles the subject's full interaction history in insertion
// order, with the complete overlay edge log attached to every row the
// way downstream distillation tooling expects it.
func (s *PetService) Export(ctx context.Context, subjectID string) (*ExportBundle, error) {
	raw, err := s.subjects.ExportAll(ctx, subjectID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to export history", err)
	}

	var overlay []map[string]any
	for _, row := range raw {
		if row.Kind != "overlay_edge" {
			continue
		}
		entry := make(map[string]any, len(row.Payload)+1)
		for k, v := range row.Payload {
			entry[k] = v
		}
		entry["timestamp"] = row.CreatedAt
		overlay = append(overlay, entry)
	}

	rows := make([]map[string]any, 0, len(raw))
	for _, row := range raw {
		if row.Kind != "interaction" {
			continue
		}
		rows = append(rows, map[string]any{
			"question":      row.Payload["question"],
			"evidence":      row.Payload["evidence"],
			"decision":      row.Payload["decision"],
			"rationale":     row.Payload["rationale"],
			"confidence":    row.Payload["confidence"],
			"overlay_edges": overlay,
			"timestamp":     row.CreatedAt,
		})
	}

	return &ExportBundle{SubjectID: subjectID, Rows: rows}, nil
}
