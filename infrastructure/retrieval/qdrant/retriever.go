package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/domain/evidence"
	"finagotchi-backend/infrastructure/config"
)

// Payload keys probed, in order, for an item's display text.
var textKeys = []string{"text", "content", "chunk", "body"}

const fallbackTextLen = 800

// Retriever implements ports.Retriever against a Qdrant collection.
// Queries embed through the language model before searching.
type Retriever struct {
	client     *qdrant.Client
	collection string
	topK       int
	model      ports.LanguageModel
	logger     *zap.Logger
}

// NewRetriever creates a new Retriever
func NewRetriever(cfg *config.Config, model ports.LanguageModel, logger *zap.Logger) (*Retriever, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.QdrantHost,
		Port:   cfg.QdrantPort,
		APIKey: cfg.QdrantAPIKey,
		UseTLS: cfg.QdrantUseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &Retriever{
		client:     client,
		collection: cfg.QdrantCollection,
		topK:       cfg.QdrantTopK,
		model:      model,
		logger:     logger,
	}, nil
}

// Search embeds the query and returns the nearest evidence items.
// A non-positive topK uses the configured default.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]evidence.Item, error) {
	if topK <= 0 {
		topK = r.topK
	}
	vector, err := r.model.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	limit := uint64(topK)
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search collection: %w", err)
	}

	items := make([]evidence.Item, 0, len(points))
	for _, point := range points {
		items = append(items, r.toItem(pointIDString(point.Id), point.Payload))
	}
	return items, nil
}

// RetrieveByIDs fetches specific points. Ids may be prefixed evidence
// ids or bare point ids; unknown ids are skipped.
func (r *Retriever) RetrieveByIDs(ctx context.Context, ids []string) ([]evidence.Item, error) {
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, r.pointID(id))
	}
	if len(pointIDs) == 0 {
		return nil, nil
	}

	points, err := r.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: r.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve points: %w", err)
	}

	items := make([]evidence.Item, 0, len(points))
	for _, point := range points {
		items = append(items, r.toItem(pointIDString(point.Id), point.Payload))
	}
	return items, nil
}

// Ready reports whether the collection is reachable.
func (r *Retriever) Ready(ctx context.Context) error {
	exists, err := r.client.CollectionExists(ctx, r.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return fmt.Errorf("collection %q does not exist", r.collection)
	}
	return nil
}

// toItem converts a point payload into an evidence item. The item id is
// namespaced so downstream logs identify the source collection.
func (r *Retriever) toItem(pointID string, payload map[string]*qdrant.Value) evidence.Item {
	meta := make(map[string]any, len(payload))
	for key, value := range payload {
		meta[key] = valueToAny(value)
	}
	return evidence.Item{
		ID:   fmt.Sprintf("qdrant:%s:%s", r.collection, pointID),
		Text: payloadText(meta),
		Meta: meta,
	}
}

// pointID parses an evidence id back into a Qdrant point id, stripping
// the collection prefix when present. Pure digits become a numeric id.
func (r *Retriever) pointID(id string) *qdrant.PointId {
	prefix := fmt.Sprintf("qdrant:%s:", r.collection)
	id = strings.TrimPrefix(id, prefix)
	if num, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdrant.NewIDNum(num)
	}
	return qdrant.NewID(id)
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// payloadText probes the known text keys, falling back to a truncated
// JSON rendering of the whole payload.
func payloadText(meta map[string]any) string {
	for _, key := range textKeys {
		if v, ok := meta[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return ""
	}
	text := string(encoded)
	if len(text) > fallbackTextLen {
		text = text[:fallbackTextLen]
	}
	return text
}

// valueToAny unwraps a Qdrant payload value into plain Go types.
func valueToAny(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return float64(kind.IntegerValue)
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		fields := make(map[string]any, len(kind.StructValue.GetFields()))
		for key, field := range kind.StructValue.GetFields() {
			fields[key] = valueToAny(field)
		}
		return fields
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, 0, len(values))
		for _, entry := range values {
			list = append(list, valueToAny(entry))
		}
		return list
	default:
		return nil
	}
}

var _ ports.Retriever = (*Retriever)(nil)
