package graph

// Node is one vertex in a presentation graph bundle. ID is the join key
// across sources: the same anchor always resolves to the same node id so
// the display layer can deduplicate by identity.
type Node struct {
	ID         string         `json:"id"`
	Label      string         `json:"label,omitempty"`
	Group      string         `json:"group,omitempty"`
	Type       string         `json:"type,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Edge connects two node ids. IsOverlay marks feedback-derived edges.
type Edge struct {
	ID        string         `json:"id,omitempty"`
	Source    string         `json:"source"`
	Target    string         `json:"target"`
	Label     string         `json:"label,omitempty"`
	Weight    float64        `json:"weight,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	IsOverlay bool           `json:"isOverlay,omitempty"`
}

// Bundle is a self-contained node/edge set handed to the display layer.
type Bundle struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty reports whether the bundle resolved no nodes. An empty bundle
// from the graph store is the signal to fall back to the heuristic
// synthesizer.
func (b Bundle) Empty() bool {
	return len(b.Nodes) == 0
}

// Normalize folds the shape variance between graph sources into one
// canonical form: type defaults to group and properties default to meta
// when absent. Applied once at ingress; the union type never travels
// deeper into the system.
func Normalize(b Bundle) Bundle {
	nodes := make([]Node, len(b.Nodes))
	for i, n := range b.Nodes {
		if n.Type == "" {
			n.Type = n.Group
		}
		if n.Properties == nil {
			n.Properties = n.Meta
		}
		nodes[i] = n
	}
	edges := make([]Edge, len(b.Edges))
	copy(edges, b.Edges)
	return Bundle{Nodes: nodes, Edges: edges}
}

// Combine unions two normalized bundles by concatenation. Duplicate ids
// across the neighborhood and overlay graphs may coexist; the display
// layer keys by id when strict dedup is wanted.
func Combine(a, b Bundle) Bundle {
	combined := Bundle{
		Nodes: make([]Node, 0, len(a.Nodes)+len(b.Nodes)),
		Edges: make([]Edge, 0, len(a.Edges)+len(b.Edges)),
	}
	combined.Nodes = append(combined.Nodes, a.Nodes...)
	combined.Nodes = append(combined.Nodes, b.Nodes...)
	combined.Edges = append(combined.Edges, a.Edges...)
	combined.Edges = append(combined.Edges, b.Edges...)
	return combined
}

// NodesFromEdges derives placeholder overlay nodes for every endpoint
// referenced by the given edges, deduplicated and in first-seen order.
func NodesFromEdges(edges []Edge) []Node {
	seen := make(map[string]struct{}, len(edges)*2)
	var nodes []Node
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		nodes = append(nodes, Node{ID: id, Label: id, Group: "overlay", Type: "overlay"})
	}
	for _, e := range edges {
		add(e.Source)
		add(e.Target)
	}
	return nodes
}
