package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/domain/events"
	"finagotchi-backend/domain/graph"
	"finagotchi-backend/domain/pet"
	apperrors "finagotchi-backend/pkg/errors"
)

// FeedbackRequest is one user verdict on a prior interaction.
type FeedbackRequest struct {
	InteractionID string `json:"interaction_id" validate:"required"`
	Action        string `json:"action" validate:"required,oneof=approve flag reject escalate"`
	Rationale     string `json:"rationale"`
}

// FeedbackResult reports the updated pet state and the overlay edges
// this feedback produced.
type FeedbackResult struct {
	PetStats     pet.Stats    `json:"pet_stats"`
	UpdatedStats pet.Stats    `json:"updated_pet_stats"`
	OverlayDelta graph.Bundle `json:"overlay_graph_delta"`
	NewPath      string       `json:"new_path,omitempty"`
}

// FeedbackService applies user feedback to pet state and the overlay
// graph, publishing an event when the pet evolves.
type FeedbackService struct {
	subjects  ports.SubjectRepository
	machine   *pet.Machine
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(
	subjects ports.SubjectRepository,
	machine *pet.Machine,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *FeedbackService {
	return &FeedbackService{
		subjects:  subjects,
		machine:   machine,
		publisher: publisher,
		logger:    logger,
	}
}

// Apply resolves the interaction to its subject, applies the action's
// stat deltas, promotes the pet when a threshold is crossed, and appends
// a feedback overlay edge when a rationale was given. An unknown
// interaction id falls back to the default subject rather than failing.
func (s *FeedbackService) Apply(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error) {
	subjectID, err := s.subjects.ResolveSubjectForInteraction(ctx, req.InteractionID)
	if err != nil {
		s.logger.Warn("Interaction lookup failed",
			zap.Error(err),
			zap.String("interactionID", req.InteractionID),
		)
	}
	if subjectID == "" {
		subjectID = "default"
	}

	state, err := s.subjects.GetOrCreateState(ctx, subjectID, s.machine.NewState(subjectID))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load pet state", err)
	}

	s.machine.Apply(&state, req.Action)

	oldPath := state.Path
	newPath := s.machine.NextPath(state)
	if newPath != "" {
		state.Path = newPath
	}

	if err := s.subjects.SaveState(ctx, state); err != nil {
		return nil, apperrors.NewInternalError("failed to save pet state", err)
	}

	if err := s.publisher.Publish(ctx, events.NewFeedbackReceived(subjectID, req.InteractionID, req.Action)); err != nil {
		s.logger.Warn("Failed to publish feedback event",
			zap.Error(err),
			zap.String("subjectID", subjectID),
		)
	}

	if newPath != "" {
		score := 0
		for _, v := range state.Stats {
			score += v
		}
		event := events.NewPetEvolved(subjectID, oldPath, newPath, score)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish evolution event",
				zap.Error(err),
				zap.String("subjectID", subjectID),
				zap.String("newPath", newPath),
			)
		}
	}

	var inputs []ports.OverlayEdgeInput
	if req.Rationale != "" {
		inputs = append(inputs, ports.OverlayEdgeInput{
			Src:    "feedback",
			Rel:    strings.ToUpper(req.Action),
			Dst:    "latest",
			Weight: 1.0,
			Meta:   map[string]any{"note": req.Rationale},
		})
	}
	var saved []graph.Edge
	if len(inputs) > 0 {
		saved, err = s.subjects.AppendOverlayEdges(ctx, subjectID, inputs)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to append overlay edges", err)
		}
	}

	return &FeedbackResult{
		PetStats:     state.Stats,
		UpdatedStats: state.Stats,
		OverlayDelta: overlayDelta(saved),
		NewPath:      newPath,
	}, nil
}

// overlayDelta renders the persisted edges as a graph bundle, deriving
// placeholder nodes for each referenced endpoint.
func overlayDelta(edges []graph.Edge) graph.Bundle {
	if len(edges) == 0 {
		return graph.Bundle{}
	}
	return graph.Bundle{
		Nodes: graph.NodesFromEdges(edges),
		Edges: edges,
	}
}
