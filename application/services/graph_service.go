package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/domain/evidence"
	"finagotchi-backend/domain/graph"
	"finagotchi-backend/infrastructure/cache"
)

const (
	sampleQuery    = "invoice vendor payment"
	sampleCacheKey = "graph:sample"
	sampleCacheTTL = 60 * time.Second
)

// GraphService serves standalone graph views outside the QA flow.
type GraphService struct {
	graphStore ports.GraphStore
	retriever  ports.Retriever
	cache      *cache.Memory
	logger     *zap.Logger
}

// NewGraphService creates a new graph service. The cache may be nil to
// disable sample caching.
func NewGraphService(graphStore ports.GraphStore, retriever ports.Retriever, sampleCache *cache.Memory, logger *zap.Logger) *GraphService {
	return &GraphService{graphStore: graphStore, retriever: retriever, cache: sampleCache, logger: logger}
}

// Neighborhood expands a single vendor entity id into its subgraph.
func (s *GraphService) Neighborhood(ctx context.Context, entityID string, depth int) graph.Bundle {
	anchors := evidence.NewAnchorSet()
	anchors.Add(evidence.KindVendor, entityID)
	return graph.Normalize(s.graphStore.Neighborhood(ctx, anchors, depth))
}

// Sample returns a small graph built from a canned evidence search, for
// quick UI smoke checks. Results are cached briefly since the query
// never changes. Falls back to the heuristic synthesizer when the graph
// store yields nothing.
func (s *GraphService) Sample(ctx context.Context) graph.Bundle {
	if s.cache != nil {
		if cached, ok := s.cache.Get(sampleCacheKey); ok {
			if bundle, ok := cached.(graph.Bundle); ok {
				return bundle
			}
		}
	}

	items, err := s.retriever.Search(ctx, sampleQuery, 0)
	if err != nil {
		s.logger.Warn("Sample evidence search failed", zap.Error(err))
	}
	anchors := evidence.ExtractAnchors(items)
	bundle := s.graphStore.Neighborhood(ctx, anchors, 1)
	if bundle.Empty() {
		bundle = graph.FromEvidence(items, anchors)
	}
	bundle = graph.Normalize(bundle)

	if s.cache != nil && !bundle.Empty() {
		s.cache.Set(sampleCacheKey, bundle, sampleCacheTTL)
	}
	return bundle
}
