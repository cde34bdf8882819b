package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finagotchi-backend/domain/events"
	"finagotchi-backend/domain/pet"
)

func newFeedbackService(subjects *stubSubjects, publisher *stubPublisher) *FeedbackService {
	return NewFeedbackService(subjects, pet.NewMachine(pet.DefaultConfig()), publisher, zap.NewNop())
}

func TestFeedbackApplyUpdatesStats(t *testing.T) {
	subjects := &stubSubjects{resolved: "pet-1", state: pet.State{
		SubjectID: "pet-1",
		Stats:     pet.Stats{"risk": 50, "compliance": 50, "thriftiness": 50, "anomaly_sensitivity": 50},
		Path:      "Baby Auditor",
	}}
	svc := newFeedbackService(subjects, &stubPublisher{})

	result, err := svc.Apply(context.Background(), FeedbackRequest{InteractionID: "int-1", Action: "flag"})
	require.NoError(t, err)

	assert.Equal(t, 52, result.PetStats["risk"])
	assert.Equal(t, 51, result.PetStats["compliance"])
	assert.Equal(t, result.PetStats, result.UpdatedStats)
	assert.Empty(t, result.NewPath)

	require.Len(t, subjects.saved, 1)
	assert.Equal(t, "pet-1", subjects.saved[0].SubjectID)
	assert.Equal(t, 52, subjects.saved[0].Stats["risk"])
}

func TestFeedbackApplyUnknownInteractionFallsBack(t *testing.T) {
	subjects := &stubSubjects{resolved: ""}
	svc := newFeedbackService(subjects, &stubPublisher{})

	_, err := svc.Apply(context.Background(), FeedbackRequest{InteractionID: "nope", Action: "approve"})
	require.NoError(t, err)

	require.Len(t, subjects.saved, 1)
	assert.Equal(t, "default", subjects.saved[0].SubjectID)
}

func TestFeedbackApplyLookupErrorFallsBack(t *testing.T) {
	subjects := &stubSubjects{resolveErr: errors.New("index unavailable")}
	svc := newFeedbackService(subjects, &stubPublisher{})

	_, err := svc.Apply(context.Background(), FeedbackRequest{InteractionID: "int-1", Action: "approve"})
	require.NoError(t, err, "lookup failures degrade to the default subject")

	require.Len(t, subjects.saved, 1)
	assert.Equal(t, "default", subjects.saved[0].SubjectID)
}

func TestFeedbackApplyEvolution(t *testing.T) {
	subjects := &stubSubjects{resolved: "pet-1", state: pet.State{
		SubjectID: "pet-1",
		Stats:     pet.Stats{"risk": 55, "compliance": 54, "thriftiness": 55, "anomaly_sensitivity": 55},
		Path:      "Baby Auditor",
	}}
	publisher := &stubPublisher{}
	svc := newFeedbackService(subjects, publisher)

	// flag adds risk+2 compliance+1, crossing the 220 threshold.
	result, err := svc.Apply(context.Background(), FeedbackRequest{InteractionID: "int-1", Action: "flag"})
	require.NoError(t, err)

	assert.Equal(t, "Steady Analyst", result.NewPath)
	assert.Equal(t, "Steady Analyst", subjects.saved[0].Path)

	require.Len(t, publisher.published, 2)
	received, ok := publisher.published[0].(events.FeedbackReceived)
	require.True(t, ok)
	assert.Equal(t, "feedback.received", received.EventType())
	assert.Equal(t, "flag", received.Action)

	evolved, ok := publisher.published[1].(events.PetEvolved)
	require.True(t, ok)
	assert.Equal(t, "pet.evolved", evolved.EventType())
	assert.Equal(t, "pet-1", evolved.AggregateID())
	assert.Equal(t, "Baby Auditor", evolved.OldPath)
	assert.Equal(t, "Steady Analyst", evolved.NewPath)
	assert.Equal(t, 222, evolved.Score)
}

func TestFeedbackApplyPublishFailureIsSoft(t *testing.T) {
	subjects := &stubSubjects{resolved: "pet-1", state: pet.State{
		SubjectID: "pet-1",
		Stats:     pet.Stats{"risk": 60, "compliance": 60, "thriftiness": 60, "anomaly_sensitivity": 60},
		Path:      "Steady Analyst",
	}}
	publisher := &stubPublisher{err: errors.New("event bus down")}
	svc := newFeedbackService(subjects, publisher)

	result, err := svc.Apply(context.Background(), FeedbackRequest{InteractionID: "int-1", Action: "approve"})
	require.NoError(t, err, "publish failures must not fail the request")
	assert.Equal(t, "Vigilant Auditor", result.NewPath)
}

func TestFeedbackApplyRationaleEdge(t *testing.T) {
	subjects := &stubSubjects{resolved: "pet-1", state: pet.State{
		SubjectID: "pet-1",
		Stats:     pet.Stats{"risk": 50, "compliance": 50, "thriftiness": 50, "anomaly_sensitivity": 50},
		Path:      "Baby Auditor",
	}}
	svc := newFeedbackService(subjects, &stubPublisher{})

	result, err := svc.Apply(context.Background(), FeedbackRequest{
		InteractionID: "int-1",
		Action:        "reject",
		Rationale:     "duplicate of INV-3",
	})
	require.NoError(t, err)

	require.Len(t, subjects.appended, 1)
	edge := subjects.appended[0]
	assert.Equal(t, "feedback", edge.Src)
	assert.Equal(t, "REJECT", edge.Rel)
	assert.Equal(t, "latest", edge.Dst)
	assert.Equal(t, 1.0, edge.Weight)
	assert.Equal(t, "duplicate of INV-3", edge.Meta["note"])

	// The delta reuses the stored edge view, id included, rather than
	// rebuilding one caller-side.
	require.Len(t, result.OverlayDelta.Edges, 1)
	assert.Equal(t, "stored-edge-1", result.OverlayDelta.Edges[0].ID)
	assert.Equal(t, "feedback", result.OverlayDelta.Edges[0].Source)
	assert.Equal(t, "REJECT", result.OverlayDelta.Edges[0].Label)
	assert.Equal(t, "latest", result.OverlayDelta.Edges[0].Target)
	assert.True(t, result.OverlayDelta.Edges[0].IsOverlay)
	assert.Len(t, result.OverlayDelta.Nodes, 2)
}

func TestFeedbackApplyNoRationaleNoEdge(t *testing.T) {
	subjects := &stubSubjects{resolved: "pet-1", state: pet.State{
		SubjectID: "pet-1",
		Stats:     pet.Stats{"risk": 50, "compliance": 50, "thriftiness": 50, "anomaly_sensitivity": 50},
		Path:      "Baby Auditor",
	}}
	svc := newFeedbackService(subjects, &stubPublisher{})

	result, err := svc.Apply(context.Background(), FeedbackRequest{InteractionID: "int-1", Action: "approve"})
	require.NoError(t, err)

	assert.Empty(t, subjects.appended)
	assert.Empty(t, result.OverlayDelta.Edges)
}

func TestFeedbackApplySaveFailureIsHard(t *testing.T) {
	subjects := &stubSubjects{resolved: "pet-1", saveErr: errors.New("dynamo throttled")}
	svc := newFeedbackService(subjects, &stubPublisher{})

	_, err := svc.Apply(context.Background(), FeedbackRequest{InteractionID: "int-1", Action: "approve"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save pet state")
}
