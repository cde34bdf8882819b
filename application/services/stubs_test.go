package services

import (
	"context"
	"fmt"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/domain/events"
	"finagotchi-backend/domain/evidence"
	"finagotchi-backend/domain/graph"
	"finagotchi-backend/domain/pet"
)

// In-memory port stubs shared by the service tests.

type stubSubjects struct {
	state    pet.State
	stateErr error
	saveErr  error
	saved    []pet.State

	recordedID       string
	recordErr        error
	recordedQuestion string
	recordedItems    []evidence.Item
	recordedDecision evidence.Decision

	resolved   string
	resolveErr error

	appended      []ports.OverlayEdgeInput
	appendSubject string
	appendErr     error

	overlay    graph.Bundle
	overlayErr error

	interactions []ports.InteractionSummary
	exportRows   []ports.ExportRow
}

func (s *stubSubjects) GetOrCreateState(ctx context.Context, subjectID string, fresh pet.State) (pet.State, error) {
	if s.stateErr != nil {
		return pet.State{}, s.stateErr
	}
	if s.state.SubjectID == "" {
		return fresh, nil
	}
	return s.state, nil
}

func (s *stubSubjects) SaveState(ctx context.Context, state pet.State) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, state)
	return nil
}

func (s *stubSubjects) RecordInteraction(ctx context.Context, subjectID, question string, items []evidence.Item, decision evidence.Decision) (string, error) {
	if s.recordErr != nil {
		return "", s.recordErr
	}
	s.recordedQuestion = question
	s.recordedItems = items
	s.recordedDecision = decision
	if s.recordedID == "" {
		s.recordedID = "int-1"
	}
	return s.recordedID, nil
}

func (s *stubSubjects) ResolveSubjectForInteraction(ctx context.Context, interactionID string) (string, error) {
	return s.resolved, s.resolveErr
}

// AppendOverlayEdges assigns stored ids the way the repository does, so
// callers can be checked against the persisted views.
func (s *stubSubjects) AppendOverlayEdges(ctx context.Context, subjectID string, edges []ports.OverlayEdgeInput) ([]graph.Edge, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.appendSubject = subjectID
	saved := make([]graph.Edge, 0, len(edges))
	for _, edge := range edges {
		s.appended = append(s.appended, edge)
		saved = append(saved, graph.Edge{
			ID:        fmt.Sprintf("stored-edge-%d", len(s.appended)),
			Source:    edge.Src,
			Target:    edge.Dst,
			Label:     edge.Rel,
			Weight:    edge.Weight,
			Meta:      edge.Meta,
			IsOverlay: true,
		})
	}
	return saved, nil
}

func (s *stubSubjects) OverlayGraph(ctx context.Context, subjectID string, limit int) (graph.Bundle, error) {
	return s.overlay, s.overlayErr
}

func (s *stubSubjects) ListInteractions(ctx context.Context, subjectID string, limit int) ([]ports.InteractionSummary, error) {
	return s.interactions, nil
}

func (s *stubSubjects) ExportAll(ctx context.Context, subjectID string) ([]ports.ExportRow, error) {
	return s.exportRows, nil
}

type stubGraphStore struct {
	bundle graph.Bundle
	depth  int
}

func (s *stubGraphStore) Neighborhood(ctx context.Context, anchors evidence.AnchorSet, depth int) graph.Bundle {
	s.depth = depth
	return s.bundle
}

type stubRetriever struct {
	searchItems []evidence.Item
	searchErr   error
	byID        map[string]evidence.Item
	byIDErr     error
	readyErr    error
	lastQuery   string
}

func (s *stubRetriever) Search(ctx context.Context, query string, topK int) ([]evidence.Item, error) {
	s.lastQuery = query
	return s.searchItems, s.searchErr
}

func (s *stubRetriever) RetrieveByIDs(ctx context.Context, ids []string) ([]evidence.Item, error) {
	if s.byIDErr != nil {
		return nil, s.byIDErr
	}
	var items []evidence.Item
	for _, id := range ids {
		if item, ok := s.byID[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *stubRetriever) Ready(ctx context.Context) error {
	return s.readyErr
}

type stubModel struct {
	raw         map[string]any
	chatJSONErr error
	chatResp    string
	chatErr     error
	jsonCalls   int
	chatCalls   int
}

func (s *stubModel) Chat(ctx context.Context, messages []ports.ChatMessage) (string, error) {
	s.chatCalls++
	return s.chatResp, s.chatErr
}

func (s *stubModel) ChatJSON(ctx context.Context, messages []ports.ChatMessage) (map[string]any, error) {
	s.jsonCalls++
	if s.chatJSONErr != nil {
		return nil, s.chatJSONErr
	}
	return s.raw, nil
}

func (s *stubModel) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type stubPublisher struct {
	published []events.DomainEvent
	err       error
}

func (s *stubPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, event)
	return nil
}
