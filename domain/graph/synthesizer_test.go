package graph

import (
	"testing"

	"finagotchi-backend/domain/evidence"
)

func invoiceItem(id, vendor, invoice string, total any) evidence.Item {
	return evidence.Item{
		ID:   id,
		Text: "invoice text",
		Meta: map[string]any{
			"parsed": map[string]any{
				"vendor_id":      vendor,
				"invoice_number": invoice,
				"total":          total,
			},
		},
	}
}

func TestFromEvidenceStableNodeIDs(t *testing.T) {
	items := []evidence.Item{invoiceItem("e1", "6", "INV-6", float64(3200))}
	anchors := evidence.ExtractAnchors(items)

	first := FromEvidence(items, anchors)
	second := FromEvidence(items, anchors)

	ids := func(b Bundle) map[string]bool {
		set := make(map[string]bool)
		for _, n := range b.Nodes {
			set[n.ID] = true
		}
		return set
	}
	firstIDs, secondIDs := ids(first), ids(second)
	if len(firstIDs) != len(secondIDs) {
		t.Fatalf("node sets differ across builds: %v vs %v", firstIDs, secondIDs)
	}
	for id := range firstIDs {
		if !secondIDs[id] {
			t.Errorf("node id %q missing on rebuild", id)
		}
	}
	if !firstIDs["vendor_id:6"] {
		t.Error("expected anchor node id vendor_id:6")
	}
	if !firstIDs["transaction_id:INV-6"] {
		t.Error("expected anchor node id transaction_id:INV-6")
	}
}

func TestFromEvidenceIssuedEdge(t *testing.T) {
	items := []evidence.Item{invoiceItem("e1", "6", "INV-6", float64(3200))}
	anchors := evidence.ExtractAnchors(items)

	bundle := FromEvidence(items, anchors)

	var issued []Edge
	for _, e := range bundle.Edges {
		if e.Label == "ISSUED" {
			issued = append(issued, e)
		}
	}
	if len(issued) != 1 {
		t.Fatalf("expected exactly one ISSUED edge, got %d", len(issued))
	}
	e := issued[0]
	if e.Source != "vendor_id:6" || e.Target != "transaction_id:INV-6" {
		t.Errorf("unexpected ISSUED endpoints %s -> %s", e.Source, e.Target)
	}
	if e.ID != "vendor_id:6->ISSUED:transaction_id:INV-6" {
		t.Errorf("unexpected edge identity %q", e.ID)
	}
}

func TestFromEvidenceContainsEdges(t *testing.T) {
	items := []evidence.Item{
		{
			ID: "e1",
			Meta: map[string]any{
				"parsed": map[string]any{
					"invoice_number": "INV-1",
					"items":          []any{map[string]any{"sku": "SKU-9"}},
				},
			},
		},
	}
	anchors := evidence.ExtractAnchors(items)

	bundle := FromEvidence(items, anchors)

	found := false
	for _, e := range bundle.Edges {
		if e.Label == "CONTAINS" && e.Source == "transaction_id:INV-1" && e.Target == "sku:SKU-9" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected CONTAINS edge from invoice to SKU, edges: %v", bundle.Edges)
	}
}

func TestFromEvidencePrunesDisconnectedNodes(t *testing.T) {
	items := []evidence.Item{
		invoiceItem("e1", "6", "INV-6", float64(100)),
		{ID: "lonely", Text: "no metadata at all"},
	}
	anchors := evidence.ExtractAnchors(items)

	bundle := FromEvidence(items, anchors)

	degree := make(map[string]int)
	for _, e := range bundle.Edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	for _, n := range bundle.Nodes {
		if degree[n.ID] == 0 {
			t.Errorf("node %q has no incident edge and should have been pruned", n.ID)
		}
	}
	for _, n := range bundle.Nodes {
		if n.ID == "lonely" {
			t.Error("evidence item with no anchors must not survive pruning")
		}
	}
}

func TestFromEvidenceMentionsRequiresActualReference(t *testing.T) {
	items := []evidence.Item{
		invoiceItem("e1", "6", "INV-6", float64(100)),
		invoiceItem("e2", "7", "INV-7", float64(200)),
	}
	anchors := evidence.ExtractAnchors(items)

	bundle := FromEvidence(items, anchors)

	for _, e := range bundle.Edges {
		if e.Label != "MENTIONS" {
			continue
		}
		if e.Source == "e1" && e.Target == "vendor_id:7" {
			t.Error("e1 does not reference vendor 7 and must not mention it")
		}
		if e.Source == "e2" && e.Target == "vendor_id:6" {
			t.Error("e2 does not reference vendor 6 and must not mention it")
		}
	}
}

func TestFromEvidenceLabels(t *testing.T) {
	t.Run("invoice with total", func(t *testing.T) {
		bundle := FromEvidence(
			[]evidence.Item{invoiceItem("e1", "6", "INV-6", float64(3200))},
			evidence.ExtractAnchors([]evidence.Item{invoiceItem("e1", "6", "INV-6", float64(3200))}),
		)
		assertLabel(t, bundle, "e1", "INV-6 | $3200")
	})

	t.Run("invoice with due date only", func(t *testing.T) {
		items := []evidence.Item{{
			ID: "e1",
			Meta: map[string]any{
				"parsed": map[string]any{"invoice_number": "INV-6", "due_date": "2024-03-01"},
			},
		}}
		bundle := FromEvidence(items, evidence.ExtractAnchors(items))
		assertLabel(t, bundle, "e1", "INV-6 | due 2024-03-01")
	})

	t.Run("vendor node label", func(t *testing.T) {
		items := []evidence.Item{invoiceItem("e1", "6", "INV-6", float64(10))}
		bundle := FromEvidence(items, evidence.ExtractAnchors(items))
		assertLabel(t, bundle, "vendor_id:6", "Vendor 6")
	})
}

func assertLabel(t *testing.T, b Bundle, nodeID, want string) {
	t.Helper()
	for _, n := range b.Nodes {
		if n.ID == nodeID {
			if n.Label != want {
				t.Errorf("node %q label = %q, want %q", nodeID, n.Label, want)
			}
			return
		}
	}
	t.Errorf("node %q not found", nodeID)
}
