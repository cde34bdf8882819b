package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
)

const dilemmaContextLen = 300

// Seed queries used to sample diverse evidence for dilemma generation.
var seedQueries = []string{
	"invoice vendor payment due",
	"purchase order expense transaction",
	"vendor discount bulk pricing",
	"overdue invoice late payment",
	"high amount transaction review",
	"duplicate invoice matching amounts",
	"new vendor procurement order",
	"expense claim reimbursement receipt",
}

const dilemmaSystemPrompt = "You are a finance/ops scenario writer for a training game. " +
	"Given real financial evidence, write a short 1-2 sentence dilemma " +
	"that a finance agent must decide on. Reference specific details " +
	"from the evidence (vendor IDs, amounts, dates, SKUs). " +
	"End with a clear question. Keep it under 60 words. " +
	"Output ONLY the dilemma text, nothing else."

// Static fallback dilemmas served round-robin when evidence sampling or
// generation fails.
var staticDilemmas = []Dilemma{
	{
		ID: "vendor_discount_risk",
		Question: "Vendor 6 offers a 10% discount but has late payments in recent months. " +
			"Approve this invoice or flag for audit?",
	},
	{
		ID: "duplicate_invoice",
		Question: "Two invoices appear nearly identical for the same SKU and amount. " +
			"Should we reject one or escalate for review?",
	},
	{
		ID: "amount_outlier",
		Question: "A transaction amount is 3x higher than this vendor's usual spend. " +
			"Approve or flag as anomaly?",
	},
}

// Dilemma is one generated or canned scenario for the player to judge.
type Dilemma struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Context     string   `json:"context,omitempty"`
	EvidenceIDs []string `json:"evidence_ids,omitempty"`
}

// DilemmaService generates decision scenarios from sampled evidence.
type DilemmaService struct {
	retriever ports.Retriever
	model     ports.LanguageModel
	logger    *zap.Logger

	mu     sync.Mutex
	cursor int
}

// NewDilemmaService creates a new dilemma service.
func NewDilemmaService(retriever ports.Retriever, model ports.LanguageModel, logger *zap.Logger) *DilemmaService {
	return &DilemmaService{retriever: retriever, model: model, logger: logger}
}

// Next samples evidence with a random seed query and asks the model to
// write a contextual dilemma from it. Any failure along the way falls
// back to the static bank.
func (s *DilemmaService) Next(ctx context.Context) Dilemma {
	seed := seedQueries[rand.Intn(len(seedQueries))]

	items, err := s.retriever.Search(ctx, seed, 0)
	if err != nil || len(items) == 0 {
		if err != nil {
			s.logger.Warn("Dilemma evidence sampling failed, falling back to static", zap.Error(err))
		}
		return s.static()
	}

	rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if len(items) > 2 {
		items = items[:2]
	}

	var contextLines []string
	var evidenceIDs []string
	for _, item := range items {
		contextLines = append(contextLines, truncateText(item.Text, dilemmaContextLen))
		evidenceIDs = append(evidenceIDs, item.ID)
	}
	evidenceContext := strings.Join(contextLines, "\n")

	question, err := s.model.Chat(ctx, []ports.ChatMessage{
		{Role: "system", Content: dilemmaSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Evidence:\n%s\n\nWrite a dilemma:", evidenceContext)},
	})
	if err != nil {
		s.logger.Warn("Dilemma generation failed, falling back to static", zap.Error(err))
		return s.static()
	}
	question = strings.Trim(strings.TrimSpace(question), `"`)

	return Dilemma{
		ID:          fmt.Sprintf("generated_%04d", rand.Intn(9000)+1000),
		Question:    question,
		Context:     evidenceContext,
		EvidenceIDs: evidenceIDs,
	}
}

// static serves the canned bank round-robin.
func (s *DilemmaService) static() Dilemma {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := staticDilemmas[s.cursor%len(staticDilemmas)]
	s.cursor++
	return item
}
