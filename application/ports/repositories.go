package ports

import (
	"context"

	"finagotchi-backend/domain/events"
	"finagotchi-backend/domain/evidence"
	"finagotchi-backend/domain/graph"
	"finagotchi-backend/domain/pet"
)

// SubjectRepository defines the interface for subject persistence: pet
// state, the interaction log, and the append-only overlay edge log.
// This is a port in hexagonal architecture - the application doesn't
// know about the implementation.
type SubjectRepository interface {
	// GetOrCreateState loads the subject's pet state, creating it with
	// the supplied default when the subject is new.
	GetOrCreateState(ctx context.Context, subjectID string, fresh pet.State) (pet.State, error)

	// SaveState persists the subject's pet state.
	SaveState(ctx context.Context, state pet.State) error

	// RecordInteraction appends one question/decision interaction, with
	// the evidence it was based on, to the subject's history and returns
	// the interaction id.
	RecordInteraction(ctx context.Context, subjectID string, question string, items []evidence.Item, decision evidence.Decision) (string, error)

	// ResolveSubjectForInteraction looks up which subject an interaction
	// id belongs to. Returns "" when the interaction is unknown.
	ResolveSubjectForInteraction(ctx context.Context, interactionID string) (string, error)

	// AppendOverlayEdges appends overlay edges to the subject's log and
	// returns the persisted views, carrying the stored edge ids. Records
	// are never updated or deleted once written.
	AppendOverlayEdges(ctx context.Context, subjectID string, edges []OverlayEdgeInput) ([]graph.Edge, error)

	// OverlayGraph returns the subject's most recent overlay edges as a
	// graph bundle, newest first, capped at limit.
	OverlayGraph(ctx context.Context, subjectID string, limit int) (graph.Bundle, error)

	// ListInteractions returns the subject's most recent interactions,
	// newest first, capped at limit.
	ListInteractions(ctx context.Context, subjectID string, limit int) ([]InteractionSummary, error)

	// ExportAll streams the subject's full history in insertion order.
	ExportAll(ctx context.Context, subjectID string) ([]ExportRow, error)
}

// OverlayEdgeInput is one edge to append to the overlay log.
type OverlayEdgeInput struct {
	Src    string
	Rel    string
	Dst    string
	Weight float64
	Meta   map[string]any
}

// InteractionSummary is one row of a subject's interaction history.
type InteractionSummary struct {
	ID        string            `json:"id"`
	Question  string            `json:"question"`
	Decision  evidence.Decision `json:"decision"`
	CreatedAt string            `json:"created_at"`
}

// ExportRow is one record of a subject's exported history. Kind is
// "interaction" or "overlay_edge".
type ExportRow struct {
	Kind      string         `json:"kind"`
	CreatedAt string         `json:"created_at"`
	Payload   map[string]any `json:"payload"`
}

// GraphStore defines the interface for the external graph database.
// Implementations never fail outward: connectivity problems, timeouts
// and unconfigured deployments all surface as an empty bundle.
type GraphStore interface {
	// Neighborhood expands the anchor values into a subgraph up to the
	// given depth.
	Neighborhood(ctx context.Context, anchors evidence.AnchorSet, depth int) graph.Bundle
}

// Retriever defines the interface for the vector evidence store.
type Retriever interface {
	// Search returns the evidence items most similar to the query.
	Search(ctx context.Context, query string, topK int) ([]evidence.Item, error)

	// RetrieveByIDs fetches specific evidence items by id. Unknown ids
	// are skipped, not errors.
	RetrieveByIDs(ctx context.Context, ids []string) ([]evidence.Item, error)

	// Ready reports whether the store is reachable.
	Ready(ctx context.Context) error
}

// ChatMessage is one turn of a model conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// LanguageModel defines the interface for the reasoning model.
type LanguageModel interface {
	// Chat runs a plain completion over the messages.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)

	// ChatJSON runs a completion expected to yield a single JSON object
	// and decodes it, repairing malformed output once before failing.
	ChatJSON(ctx context.Context, messages []ChatMessage) (map[string]any, error)

	// Embed converts text into an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EventPublisher defines the interface for publishing domain events.
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error
}
