package graph

import "testing"

func TestNormalize(t *testing.T) {
	bundle := Bundle{
		Nodes: []Node{
			{ID: "a", Group: "vendor", Meta: map[string]any{"k": "v"}},
			{ID: "b", Group: "sku", Type: "entity", Properties: map[string]any{"p": 1}},
		},
		Edges: []Edge{{Source: "a", Target: "b", Label: "ISSUED"}},
	}

	got := Normalize(bundle)

	if got.Nodes[0].Type != "vendor" {
		t.Errorf("expected type to default to group, got %q", got.Nodes[0].Type)
	}
	if got.Nodes[0].Properties["k"] != "v" {
		t.Error("expected properties to default to meta")
	}
	if got.Nodes[1].Type != "entity" {
		t.Error("an explicit type must be preserved")
	}
	if len(got.Edges) != 1 {
		t.Errorf("expected edges to carry through, got %d", len(got.Edges))
	}

	// The input must stay untouched.
	if bundle.Nodes[0].Type != "" {
		t.Error("Normalize mutated its input")
	}
}

func TestCombine(t *testing.T) {
	a := Bundle{Nodes: []Node{{ID: "x"}}, Edges: []Edge{{Source: "x", Target: "y"}}}
	b := Bundle{Nodes: []Node{{ID: "y"}, {ID: "x"}}}

	got := Combine(a, b)

	if len(got.Nodes) != 3 {
		t.Errorf("expected concatenated nodes including duplicates, got %d", len(got.Nodes))
	}
	if len(got.Edges) != 1 {
		t.Errorf("expected 1 edge, got %d", len(got.Edges))
	}
}

func TestEmpty(t *testing.T) {
	if !(Bundle{}).Empty() {
		t.Error("zero bundle must be empty")
	}
	withEdgeOnly := Bundle{Edges: []Edge{{Source: "a", Target: "b"}}}
	if !withEdgeOnly.Empty() {
		t.Error("emptiness is decided by nodes, not edges")
	}
	if (Bundle{Nodes: []Node{{ID: "a"}}}).Empty() {
		t.Error("bundle with a node is not empty")
	}
}

func TestNodesFromEdges(t *testing.T) {
	edges := []Edge{
		{Source: "feedback", Target: "latest"},
		{Source: "feedback", Target: "other"},
	}

	nodes := NodesFromEdges(edges)

	if len(nodes) != 3 {
		t.Fatalf("expected 3 unique endpoint nodes, got %d", len(nodes))
	}
	if nodes[0].ID != "feedback" || nodes[1].ID != "latest" || nodes[2].ID != "other" {
		t.Errorf("expected first-seen order, got %v", nodes)
	}
	for _, n := range nodes {
		if n.Group != "overlay" || n.Type != "overlay" {
			t.Errorf("expected overlay placeholders, got %+v", n)
		}
	}
}
