package neo4j

import (
	"errors"
	"testing"

	"finagotchi-backend/domain/graph"
)

func TestExpandSkipsChunkFallbackWhenPrimaryResolves(t *testing.T) {
	b := newBundleBuilder()
	chunksCalled := false

	err := expand(b,
		func() error {
			b.addNode(graph.Node{ID: "vendor:V1", Group: "vendor"})
			return nil
		},
		func() error {
			chunksCalled = true
			return nil
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunksCalled {
		t.Error("chunk expansion should not run when the finance walk resolved nodes")
	}
}

func TestExpandFallsBackWhenPrimaryEmpty(t *testing.T) {
	b := newBundleBuilder()
	chunksCalled := false

	err := expand(b,
		func() error { return nil },
		func() error {
			chunksCalled = true
			b.addNode(graph.Node{ID: "chunk:c1", Group: "chunk"})
			return nil
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !chunksCalled {
		t.Error("chunk expansion should run when the finance walk resolved nothing")
	}
	if len(b.bundle().Nodes) != 1 {
		t.Errorf("nodes = %d, want 1", len(b.bundle().Nodes))
	}
}

func TestExpandPropagatesFinanceError(t *testing.T) {
	b := newBundleBuilder()
	boom := errors.New("boom")

	err := expand(b,
		func() error { return boom },
		func() error {
			t.Error("chunk expansion should not run after a finance walk error")
			return nil
		},
	)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
