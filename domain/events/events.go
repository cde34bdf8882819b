package events

import "time"

// DomainEvent is implemented by every event the application publishes.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// baseEvent carries the fields common to all events.
type baseEvent struct {
	eventType   string
	aggregateID string
	occurredAt  time.Time
}

func (e baseEvent) EventType() string     { return e.eventType }
func (e baseEvent) AggregateID() string   { return e.aggregateID }
func (e baseEvent) OccurredAt() time.Time { return e.occurredAt }

// PetEvolved fires when a subject's pet is promoted to a new path.
type PetEvolved struct {
	baseEvent
	SubjectID string `json:"subjectId"`
	OldPath   string `json:"oldPath"`
	NewPath   string `json:"newPath"`
	Score     int    `json:"score"`
}

// NewPetEvolved creates a PetEvolved event.
func NewPetEvolved(subjectID, oldPath, newPath string, score int) PetEvolved {
	return PetEvolved{
		baseEvent: baseEvent{
			eventType:   "pet.evolved",
			aggregateID: subjectID,
			occurredAt:  time.Now(),
		},
		SubjectID: subjectID,
		OldPath:   oldPath,
		NewPath:   newPath,
		Score:     score,
	}
}

// FeedbackReceived fires when feedback on an interaction is applied.
type FeedbackReceived struct {
	baseEvent
	SubjectID     string `json:"subjectId"`
	InteractionID string `json:"interactionId"`
	Action        string `json:"action"`
}

// NewFeedbackReceived creates a FeedbackReceived event.
func NewFeedbackReceived(subjectID, interactionID, action string) FeedbackReceived {
	return FeedbackReceived{
		baseEvent: baseEvent{
			eventType:   "feedback.received",
			aggregateID: subjectID,
			occurredAt:  time.Now(),
		},
		SubjectID:     subjectID,
		InteractionID: interactionID,
		Action:        action,
	}
}
