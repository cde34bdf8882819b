package graph

import (
	"fmt"

	"finagotchi-backend/domain/evidence"
)

// Maximum label length before truncation for raw identifiers.
const labelTruncateLen = 18

// FromEvidence builds a graph bundle directly from evidence metadata and
// anchors. It is the fallback used when the external graph store yields
// nothing: pure, deterministic, and never failing on well-formed input.
// Nodes that end up with no incident edge are pruned, so the result
// shows relationships rather than an unconnected entity list.
func FromEvidence(items []evidence.Item, anchors evidence.AnchorSet) Bundle {
	b := newBuilder()

	for _, item := range items {
		if item.ID == "" {
			continue
		}
		b.addNode(evidenceNode(item))
	}

	for _, kind := range evidence.Kinds {
		for _, value := range anchors.Values(kind) {
			b.addNode(anchorNode(kind, value))
		}
	}

	for _, item := range items {
		if item.ID == "" {
			continue
		}
		for _, kind := range evidence.Kinds {
			for _, value := range anchors.Values(kind) {
				if !evidence.MatchesAnchor(item, kind, value) {
					continue
				}
				b.addEdge(Edge{
					Source: item.ID,
					Target: anchorID(kind, value),
					Label:  "MENTIONS",
					Weight: 1.0,
				})
			}
		}
	}

	for _, item := range items {
		combined := combinedView(item)
		if combined == nil {
			continue
		}
		vendors := anchorsInRecord(combined, evidence.KindVendor, anchors)
		transactions := anchorsInRecord(combined, evidence.KindTransaction, anchors)
		for _, vendor := range vendors {
			for _, txn := range transactions {
				b.addEdge(Edge{
					Source: anchorID(evidence.KindVendor, vendor),
					Target: anchorID(evidence.KindTransaction, txn),
					Label:  "ISSUED",
					Weight: 1.0,
				})
			}
		}
		for _, sku := range recordSKUAnchors(combined, anchors) {
			for _, txn := range transactions {
				b.addEdge(Edge{
					Source: anchorID(evidence.KindTransaction, txn),
					Target: anchorID(evidence.KindSKU, sku),
					Label:  "CONTAINS",
					Weight: 1.0,
				})
			}
		}
	}

	return b.pruned()
}

// anchorID yields the stable node id for an anchor. Callers re-fetching
// the same (kind, value) pair always get the same id.
func anchorID(kind, value string) string {
	return fmt.Sprintf("%s:%s", kind, value)
}

func evidenceNode(item evidence.Item) Node {
	label := truncate(item.ID, labelTruncateLen)
	group := "evidence"
	parsed := item.Parsed()
	if parsed != nil {
		invoice := evidence.Stringify(firstPresent(parsed, "invoice_number", "transaction_id"))
		if invoice != "" {
			group = "transaction"
		}
		total := evidence.Stringify(parsed["total"])
		due := evidence.Stringify(firstPresent(parsed, "due_date", "date"))
		vendor := evidence.Stringify(firstPresent(parsed, "vendor_id", "vendor"))
		switch {
		case invoice != "" && total != "":
			label = fmt.Sprintf("%s | $%s", invoice, total)
		case invoice != "" && due != "":
			label = fmt.Sprintf("%s | due %s", invoice, due)
		case invoice != "":
			label = invoice
		case vendor != "" && total != "":
			label = fmt.Sprintf("V%s | $%s", vendor, total)
		}
	}
	return Node{
		ID:    item.ID,
		Label: label,
		Group: group,
		Type:  group,
		Meta:  item.Meta,
	}
}

func anchorNode(kind, value string) Node {
	group, nodeType := "entity", "entity"
	label := truncate(value, labelTruncateLen)
	switch kind {
	case evidence.KindVendor:
		group, nodeType = "vendor", "vendor"
		label = fmt.Sprintf("Vendor %s", value)
	case evidence.KindTransaction:
		group, nodeType = "transaction", "transaction"
		label = value
	case evidence.KindSKU:
		group, nodeType = "sku", "entity"
		label = value
	case evidence.KindChunk:
		group, nodeType = "chunk", "entity"
	}
	return Node{
		ID:    anchorID(kind, value),
		Label: label,
		Group: group,
		Type:  nodeType,
		Meta:  map[string]any{"kind": kind},
	}
}

// combinedView merges an item's top-level meta with its parsed record,
// parsed fields winning, so co-occurrence checks see one flat record.
func combinedView(item evidence.Item) map[string]any {
	parsed := item.Parsed()
	if item.Meta == nil && parsed == nil {
		return nil
	}
	combined := make(map[string]any, len(item.Meta)+len(parsed))
	for k, v := range item.Meta {
		combined[k] = v
	}
	for k, v := range parsed {
		combined[k] = v
	}
	return combined
}

// anchorsInRecord returns, in anchor order, the values of the given kind
// that appear in the record under any synonym key.
func anchorsInRecord(record map[string]any, kind string, anchors evidence.AnchorSet) []string {
	var found []string
	item := evidence.Item{Meta: record}
	for _, value := range anchors.Values(kind) {
		if evidence.MatchesAnchor(item, kind, value) {
			found = append(found, value)
		}
	}
	return found
}

// recordSKUAnchors returns the SKU anchor values present in the record's
// items list or sku fields.
func recordSKUAnchors(record map[string]any, anchors evidence.AnchorSet) []string {
	return anchorsInRecord(record, evidence.KindSKU, anchors)
}

func firstPresent(record map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := record[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// builder accumulates nodes and edges with identity dedup, then prunes
// disconnected nodes.
type builder struct {
	nodes     []Node
	nodeIndex map[string]struct{}
	edges     []Edge
	edgeIndex map[string]struct{}
	incident  map[string]int
}

func newBuilder() *builder {
	return &builder{
		nodeIndex: make(map[string]struct{}),
		edgeIndex: make(map[string]struct{}),
		incident:  make(map[string]int),
	}
}

func (b *builder) addNode(n Node) {
	if n.ID == "" {
		return
	}
	if _, ok := b.nodeIndex[n.ID]; ok {
		return
	}
	b.nodeIndex[n.ID] = struct{}{}
	b.nodes = append(b.nodes, n)
}

// addEdge assigns the identity "{source}->{label}:{target}" and drops
// duplicates within the same build.
func (b *builder) addEdge(e Edge) {
	e.ID = fmt.Sprintf("%s->%s:%s", e.Source, e.Label, e.Target)
	if _, ok := b.edgeIndex[e.ID]; ok {
		return
	}
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	b.edgeIndex[e.ID] = struct{}{}
	b.edges = append(b.edges, e)
	b.incident[e.Source]++
	b.incident[e.Target]++
}

func (b *builder) pruned() Bundle {
	kept := make([]Node, 0, len(b.nodes))
	for _, n := range b.nodes {
		if b.incident[n.ID] > 0 {
			kept = append(kept, n)
		}
	}
	return Bundle{Nodes: kept, Edges: b.edges}
}
