package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/domain/evidence"
	"finagotchi-backend/domain/graph"
	"finagotchi-backend/infrastructure/config"
)

// Per-query caps keeping neighborhood expansion bounded.
const (
	maxAnchorValues = 50
	maxChunkAnchors = 20
	maxFanOut       = 50
)

// Adapter implements ports.GraphStore against Neo4j. It never fails
// outward: an unconfigured deployment, an unreachable server or a
// malformed result all degrade to an empty bundle so callers can fall
// back to the heuristic synthesizer.
type Adapter struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewAdapter connects to Neo4j using the configured URI. When the URI
// is empty or the server is unreachable the adapter starts disabled and
// serves empty bundles.
func NewAdapter(cfg *config.Config, logger *zap.Logger) *Adapter {
	a := &Adapter{
		database: cfg.Neo4jDatabase,
		timeout:  time.Duration(cfg.Neo4jTimeoutSeconds) * time.Second,
		logger:   logger,
	}
	if cfg.Neo4jURI == "" {
		logger.Info("Graph store not configured, running without neighborhood expansion")
		return a
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		logger.Warn("Graph store driver init failed, running disabled", zap.Error(err))
		return a
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		logger.Warn("Graph store unreachable, running disabled", zap.Error(err))
		_ = driver.Close(ctx)
		return a
	}

	a.driver = driver
	return a
}

// Enabled reports whether a live connection is held.
func (a *Adapter) Enabled() bool {
	return a.driver != nil
}

// Close releases the driver.
func (a *Adapter) Close(ctx context.Context) error {
	if a.driver == nil {
		return nil
	}
	return a.driver.Close(ctx)
}

// Neighborhood expands the anchors into their surrounding subgraph.
// Vendor and transaction anchors walk the Vendor-ISSUED-Invoice-
// CONTAINS-SKU chain; when that walk resolves nothing, chunk anchors
// walk Chunk-MENTIONS-Entity as a fallback. Any failure yields an
// empty bundle.
func (a *Adapter) Neighborhood(ctx context.Context, anchors evidence.AnchorSet, depth int) graph.Bundle {
	if a.driver == nil {
		return graph.Bundle{}
	}

	vendors := capValues(anchors.Values(evidence.KindVendor), maxAnchorValues)
	transactions := capValues(anchors.Values(evidence.KindTransaction), maxAnchorValues)
	chunks := capValues(anchors.Values(evidence.KindChunk), maxChunkAnchors)
	if len(vendors) == 0 && len(transactions) == 0 && len(chunks) == 0 {
		return graph.Bundle{}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	session := a.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: a.database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		b := newBundleBuilder()
		err := expand(b,
			func() error {
				if len(vendors) == 0 && len(transactions) == 0 {
					return nil
				}
				return a.financeChain(ctx, tx, b, vendors, transactions, depth)
			},
			func() error {
				if len(chunks) == 0 {
					return nil
				}
				return a.chunkMentions(ctx, tx, b, chunks)
			},
		)
		if err != nil {
			return nil, err
		}
		return b.bundle(), nil
	})
	if err != nil {
		a.logger.Warn("Neighborhood query failed, degrading to empty bundle", zap.Error(err))
		return graph.Bundle{}
	}

	bundle, ok := result.(graph.Bundle)
	if !ok {
		return graph.Bundle{}
	}
	return bundle
}

// financeChain walks Vendor-[:ISSUED]->Invoice-[:CONTAINS]->SKU from
// either end: matched vendors expand to their invoices, matched
// invoices expand to their vendor and line items. The second hop to
// SKUs is skipped when depth is 1.
func (a *Adapter) financeChain(ctx context.Context, tx neo4j.ManagedTransaction, b *bundleBuilder, vendors, transactions []string, depth int) error {
	const query = `
		MATCH (v:Vendor)-[:ISSUED]->(i:Invoice)
		WHERE v.id IN $vendors
		   OR i.id IN $transactions
		   OR i.invoice_number IN $transactions
		OPTIONAL MATCH (i)-[:CONTAINS]->(s:SKU)
		RETURN v.id AS vendor,
		       i.id AS invoice,
		       i.invoice_number AS invoiceNumber,
		       i.total AS total,
		       i.due_date AS dueDate,
		       collect(DISTINCT s.id)[..$fanOut] AS skus
		LIMIT $fanOut`

	records, err := tx.Run(ctx, query, map[string]any{
		"vendors":      vendors,
		"transactions": transactions,
		"fanOut":       maxFanOut,
	})
	if err != nil {
		return err
	}
	for records.Next(ctx) {
		record := records.Record()
		vendor := stringValue(record, "vendor")
		invoice := stringValue(record, "invoice")
		if invoice == "" {
			invoice = stringValue(record, "invoiceNumber")
		}
		if vendor == "" || invoice == "" {
			continue
		}

		vendorID := fmt.Sprintf("vendor:%s", vendor)
		invoiceID := fmt.Sprintf("invoice:%s", invoice)
		b.addNode(graph.Node{
			ID:    vendorID,
			Label: fmt.Sprintf("Vendor %s", vendor),
			Group: "vendor",
		})
		b.addNode(graph.Node{
			ID:    invoiceID,
			Label: invoiceLabel(invoice, stringValue(record, "total"), stringValue(record, "dueDate")),
			Group: "transaction",
		})
		b.addEdge(graph.Edge{Source: vendorID, Target: invoiceID, Label: "ISSUED", Weight: 1.0})

		if depth < 2 {
			continue
		}
		if skus, ok := record.Get("skus"); ok {
			for _, raw := range asList(skus) {
				sku := evidence.Stringify(raw)
				if sku == "" {
					continue
				}
				skuID := fmt.Sprintf("sku:%s", sku)
				b.addNode(graph.Node{ID: skuID, Label: sku, Group: "sku"})
				b.addEdge(graph.Edge{Source: invoiceID, Target: skuID, Label: "CONTAINS", Weight: 1.0})
			}
		}
	}
	return records.Err()
}

// expand runs the finance walk first. The chunk expansion is a
// fallback, taken only when the primary walk resolved no nodes.
func expand(b *bundleBuilder, finance, chunks func() error) error {
	if err := finance(); err != nil {
		return err
	}
	if len(b.nodes) > 0 {
		return nil
	}
	return chunks()
}

// chunkMentions expands chunk anchors to the entities they mention.
func (a *Adapter) chunkMentions(ctx context.Context, tx neo4j.ManagedTransaction, b *bundleBuilder, chunks []string) error {
	const query = `
		MATCH (c:Chunk)-[:MENTIONS]->(e:Entity)
		WHERE c.id IN $chunks
		RETURN c.id AS chunk, collect(DISTINCT e.name)[..$fanOut] AS entities`

	records, err := tx.Run(ctx, query, map[string]any{
		"chunks": chunks,
		"fanOut": maxFanOut,
	})
	if err != nil {
		return err
	}
	for records.Next(ctx) {
		record := records.Record()
		chunk := stringValue(record, "chunk")
		if chunk == "" {
			continue
		}
		chunkID := fmt.Sprintf("chunk:%s", chunk)
		b.addNode(graph.Node{
			ID:    chunkID,
			Label: truncate(chunk, 18),
			Group: "chunk",
		})
		entities, ok := record.Get("entities")
		if !ok {
			continue
		}
		for _, raw := range asList(entities) {
			entity := evidence.Stringify(raw)
			if entity == "" {
				continue
			}
			entityID := fmt.Sprintf("entity:%s", entity)
			b.addNode(graph.Node{ID: entityID, Label: entity, Group: "entity"})
			b.addEdge(graph.Edge{Source: chunkID, Target: entityID, Label: "MENTIONS", Weight: 1.0})
		}
	}
	return records.Err()
}

// invoiceLabel renders "INV-7 | $3200", then "INV-7 | due 2024-03-01",
// then the bare invoice id.
func invoiceLabel(invoice, total, dueDate string) string {
	switch {
	case total != "":
		return fmt.Sprintf("%s | $%s", invoice, total)
	case dueDate != "":
		return fmt.Sprintf("%s | due %s", invoice, dueDate)
	default:
		return invoice
	}
}

func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok {
		return ""
	}
	return evidence.Stringify(v)
}

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

func capValues(values []string, max int) []string {
	if len(values) > max {
		return values[:max]
	}
	return values
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// bundleBuilder dedups nodes and edges across the two query passes.
type bundleBuilder struct {
	nodes     []graph.Node
	edges     []graph.Edge
	nodeIndex map[string]struct{}
	edgeIndex map[string]struct{}
}

func newBundleBuilder() *bundleBuilder {
	return &bundleBuilder{
		nodeIndex: make(map[string]struct{}),
		edgeIndex: make(map[string]struct{}),
	}
}

func (b *bundleBuilder) addNode(n graph.Node) {
	if _, ok := b.nodeIndex[n.ID]; ok {
		return
	}
	b.nodeIndex[n.ID] = struct{}{}
	b.nodes = append(b.nodes, n)
}

func (b *bundleBuilder) addEdge(e graph.Edge) {
	e.ID = fmt.Sprintf("%s->%s:%s", e.Source, e.Label, e.Target)
	if _, ok := b.edgeIndex[e.ID]; ok {
		return
	}
	b.edgeIndex[e.ID] = struct{}{}
	b.edges = append(b.edges, e)
}

func (b *bundleBuilder) bundle() graph.Bundle {
	return graph.Bundle{Nodes: b.nodes, Edges: b.edges}
}

var _ ports.GraphStore = (*Adapter)(nil)
