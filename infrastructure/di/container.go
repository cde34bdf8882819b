package di

import (
	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/application/services"
	"finagotchi-backend/infrastructure/config"
	"finagotchi-backend/pkg/auth"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Subjects  ports.SubjectRepository
	Graph     ports.GraphStore
	Retriever ports.Retriever
	Model     ports.LanguageModel
	Publisher ports.EventPublisher
	Limiter   auth.RateLimiter
	QA        *services.QAService
	Feedback  *services.FeedbackService
	Pets      *services.PetService
	Dilemmas  *services.DilemmaService
	Graphs    *services.GraphService
}
