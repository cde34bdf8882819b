package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finagotchi-backend/domain/evidence"
)

func TestDilemmaNextGeneratesFromEvidence(t *testing.T) {
	retriever := &stubRetriever{searchItems: []evidence.Item{
		{ID: "e1", Text: "Invoice INV-6 from vendor 6 for $3200."},
	}}
	model := &stubModel{chatResp: `"Vendor 6 invoiced $3200, twice the usual. Approve or flag?"`}
	svc := NewDilemmaService(retriever, model, zap.NewNop())

	d := svc.Next(context.Background())

	assert.True(t, strings.HasPrefix(d.ID, "generated_"), "id = %q", d.ID)
	assert.Equal(t, "Vendor 6 invoiced $3200, twice the usual. Approve or flag?", d.Question)
	assert.Contains(t, d.Context, "Invoice INV-6")
	assert.Equal(t, []string{"e1"}, d.EvidenceIDs)
}

func TestDilemmaNextTruncatesLongEvidence(t *testing.T) {
	retriever := &stubRetriever{searchItems: []evidence.Item{
		{ID: "e1", Text: strings.Repeat("x", 1000)},
	}}
	model := &stubModel{chatResp: "Approve or flag?"}
	svc := NewDilemmaService(retriever, model, zap.NewNop())

	d := svc.Next(context.Background())

	assert.Len(t, d.Context, dilemmaContextLen)
}

func TestDilemmaNextStaticFallbackRoundRobin(t *testing.T) {
	retriever := &stubRetriever{searchErr: errors.New("qdrant down")}
	svc := NewDilemmaService(retriever, &stubModel{}, zap.NewNop())

	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, svc.Next(context.Background()).ID)
	}

	want := []string{"vendor_discount_risk", "duplicate_invoice", "amount_outlier", "vendor_discount_risk"}
	require.Equal(t, want, ids, "static bank must cycle round-robin")
}

func TestDilemmaNextModelFailureFallsBack(t *testing.T) {
	retriever := &stubRetriever{searchItems: []evidence.Item{{ID: "e1", Text: "evidence"}}}
	model := &stubModel{chatErr: errors.New("connection refused")}
	svc := NewDilemmaService(retriever, model, zap.NewNop())

	d := svc.Next(context.Background())

	assert.Equal(t, "vendor_discount_risk", d.ID)
	assert.Empty(t, d.EvidenceIDs)
}

func TestDilemmaNextEmptyEvidenceFallsBack(t *testing.T) {
	svc := NewDilemmaService(&stubRetriever{}, &stubModel{}, zap.NewNop())

	d := svc.Next(context.Background())

	assert.Equal(t, "vendor_discount_risk", d.ID)
}
