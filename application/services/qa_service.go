package services

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/domain/evidence"
	"finagotchi-backend/domain/graph"
	"finagotchi-backend/domain/pet"
	apperrors "finagotchi-backend/pkg/errors"
)

const (
	neighborhoodDepth = 2
	overlayGraphLimit = 50
	snippetLen        = 400
)

const decisionSystemPrompt = "You are a finance/ops auditor agent. Analyze the evidence and return a JSON decision.\n" +
	"Example response:\n" +
	`{"decision":"flag","confidence":0.7,"rationale":"Amount exceeds vendor average by 3x.","evidence_ids":[],"overlay_edges":[]}` + "\n\n" +
	"Rules:\n" +
	"- decision must be one of: approve, flag, reject, escalate\n" +
	"- confidence is 0.0 to 1.0\n" +
	"- rationale is a brief explanation (1-2 sentences)\n" +
	"- Return ONLY valid JSON, no other text"

// QARequest is one question to answer against the evidence store.
type QARequest struct {
	SubjectID   string   `json:"pet_id"`
	Question    string   `json:"question" validate:"required"`
	Context     string   `json:"context"`
	EvidenceIDs []string `json:"evidence_ids"`
}

// QAResult is the full answer payload: the decision, the evidence it
// was based on, and the three graph views.
type QAResult struct {
	Answer        evidence.Decision `json:"answer_json"`
	Evidence      []evidence.Item   `json:"evidence_bundle"`
	Neighborhood  graph.Bundle      `json:"neighborhood_graph"`
	Overlay       graph.Bundle      `json:"overlay_graph"`
	Combined      graph.Bundle      `json:"graph_combined"`
	PetStats      pet.Stats         `json:"pet_stats"`
	InteractionID string            `json:"interaction_id"`
}

// QAService answers finance/ops questions over retrieved evidence and
// records every interaction against the subject's pet.
type QAService struct {
	subjects   ports.SubjectRepository
	graphStore ports.GraphStore
	retriever  ports.Retriever
	model      ports.LanguageModel
	machine    *pet.Machine
	logger     *zap.Logger
}

// NewQAService creates a new QA service.
func NewQAService(
	subjects ports.SubjectRepository,
	graphStore ports.GraphStore,
	retriever ports.Retriever,
	model ports.LanguageModel,
	machine *pet.Machine,
	logger *zap.Logger,
) *QAService {
	return &QAService{
		subjects:   subjects,
		graphStore: graphStore,
		retriever:  retriever,
		model:      model,
		machine:    machine,
		logger:     logger,
	}
}

// Answer runs the full QA flow: gather evidence, extract anchors, decide
// via the model (guarded when the evidence carries no finance signal),
// persist the interaction and any model-proposed overlay edges, then
// assemble the neighborhood, overlay and combined graph views.
//
// Model and retrieval failures degrade to a conservative default; only
// persistence failures surface as errors.
func (s *QAService) Answer(ctx context.Context, req QARequest) (*QAResult, error) {
	subjectID := req.SubjectID
	if subjectID == "" {
		subjectID = "default"
	}

	state, err := s.subjects.GetOrCreateState(ctx, subjectID, s.machine.NewState(subjectID))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load pet state", err)
	}

	items := s.gatherEvidence(ctx, req)
	anchors := evidence.ExtractAnchors(items)

	answer := s.decide(ctx, req.Question, items)
	answer.EvidenceIDs = evidenceIDs(items)

	interactionID, err := s.subjects.RecordInteraction(ctx, subjectID, req.Question, items, answer)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to record interaction", err)
	}

	if len(answer.OverlayEdges) > 0 {
		if _, err := s.subjects.AppendOverlayEdges(ctx, subjectID, overlayInputs(answer.OverlayEdges)); err != nil {
			return nil, apperrors.NewInternalError("failed to append overlay edges", err)
		}
	}

	overlay, err := s.subjects.OverlayGraph(ctx, subjectID, overlayGraphLimit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load overlay graph", err)
	}

	neighborhood := s.graphStore.Neighborhood(ctx, anchors, neighborhoodDepth)
	if neighborhood.Empty() {
		neighborhood = graph.FromEvidence(items, anchors)
	}

	neighborhood = graph.Normalize(neighborhood)
	overlay = graph.Normalize(overlay)

	return &QAResult{
		Answer:        answer,
		Evidence:      items,
		Neighborhood:  neighborhood,
		Overlay:       overlay,
		Combined:      graph.Combine(neighborhood, overlay),
		PetStats:      state.Stats,
		InteractionID: interactionID,
	}, nil
}

// gatherEvidence fetches the requested evidence ids and enriches them
// with a supplementary semantic search, deduplicated by item id. All
// retrieval failures degrade to whatever was gathered so far.
func (s *QAService) gatherEvidence(ctx context.Context, req QARequest) []evidence.Item {
	var items []evidence.Item
	seen := make(map[string]struct{})

	if len(req.EvidenceIDs) > 0 {
		fetched, err := s.retriever.RetrieveByIDs(ctx, req.EvidenceIDs)
		if err != nil {
			s.logger.Warn("Evidence fetch by ids failed", zap.Error(err))
		}
		for _, item := range fetched {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			items = append(items, item)
		}
	}

	query := req.Context
	if query == "" {
		query = req.Question
	}
	found, err := s.retriever.Search(ctx, query, 0)
	if err != nil {
		s.logger.Warn("Evidence search failed", zap.Error(err))
		return items
	}
	for _, item := range found {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}
	return items
}

// decide asks the model for a structured decision. When none of the
// evidence carries a finance signal the model is not consulted and a
// low-confidence flag is returned instead. A model failure also
// degrades to the default flag decision.
func (s *QAService) decide(ctx context.Context, question string, items []evidence.Item) evidence.Decision {
	hasSignal := false
	for _, item := range items {
		if item.HasFinanceSignal() {
			hasSignal = true
			break
		}
	}
	if !hasSignal {
		return evidence.Decision{
			Decision:   "flag",
			Confidence: 0.2,
			Rationale:  "No finance/ops evidence found for this question. Flagging for review.",
		}
	}

	snippets := ""
	for i, item := range items {
		if i > 0 {
			snippets += "\n\n"
		}
		snippets += fmt.Sprintf("[%s] %s", item.ID, truncateText(item.Text, snippetLen))
	}
	raw, err := s.model.ChatJSON(ctx, []ports.ChatMessage{
		{Role: "system", Content: decisionSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Question: %s\n\nEvidence:\n%s\n\nAnalyze the evidence and return your JSON decision.", question, snippets)},
	})
	if err != nil {
		s.logger.Warn("Model decision failed, degrading to flag", zap.Error(err))
		return evidence.Decision{
			Decision:   "flag",
			Confidence: 0.2,
			Rationale:  "Model unavailable. Flagging for review.",
		}
	}
	return decisionFromRaw(raw)
}

// decisionFromRaw maps the model's loose JSON into a Decision, tolerant
// of missing or mistyped fields.
func decisionFromRaw(raw map[string]any) evidence.Decision {
	d := evidence.Decision{
		Decision:   "flag",
		Confidence: 0.5,
	}
	if v, ok := raw["decision"].(string); ok && v != "" {
		d.Decision = v
	}
	d.Confidence = coerceConfidence(raw["confidence"])
	if v, ok := raw["rationale"].(string); ok {
		d.Rationale = v
	}
	if list, ok := raw["overlay_edges"].([]any); ok {
		for _, entry := range list {
			if edge, ok := entry.(map[string]any); ok {
				d.OverlayEdges = append(d.OverlayEdges, edge)
			}
		}
	}
	return d
}

// coerceConfidence accepts numbers and numeric strings, defaulting to
// 0.5 for anything else.
func coerceConfidence(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return 0.5
}

func overlayInputs(edges []map[string]any) []ports.OverlayEdgeInput {
	inputs := make([]ports.OverlayEdgeInput, 0, len(edges))
	for _, edge := range edges {
		input := ports.OverlayEdgeInput{
			Src:    evidence.Stringify(edge["src"]),
			Rel:    evidence.Stringify(edge["rel"]),
			Dst:    evidence.Stringify(edge["dst"]),
			Weight: 1.0,
		}
		if w, ok := edge["weight"].(float64); ok {
			input.Weight = w
		}
		if meta, ok := edge["meta"].(map[string]any); ok {
			input.Meta = meta
		}
		inputs = append(inputs, input)
	}
	return inputs
}

func evidenceIDs(items []evidence.Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
