package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/application/services"
	"finagotchi-backend/infrastructure/config"
	"finagotchi-backend/interfaces/http/rest/handlers"
	"finagotchi-backend/interfaces/http/rest/middleware"
	"finagotchi-backend/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg       *config.Config
	qa        *services.QAService
	feedback  *services.FeedbackService
	pets      *services.PetService
	dilemmas  *services.DilemmaService
	graphs    *services.GraphService
	retriever ports.Retriever
	model     ports.LanguageModel
	limiter   auth.RateLimiter
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	qa *services.QAService,
	feedback *services.FeedbackService,
	pets *services.PetService,
	dilemmas *services.DilemmaService,
	graphs *services.GraphService,
	retriever ports.Retriever,
	model ports.LanguageModel,
	limiter auth.RateLimiter,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:       cfg,
		qa:        qa,
		feedback:  feedback,
		pets:      pets,
		dilemmas:  dilemmas,
		graphs:    graphs,
		retriever: retriever,
		model:     model,
		limiter:   limiter,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	validate := validator.New()

	qaHandler := handlers.NewQAHandler(rt.qa, validate, rt.logger)
	feedbackHandler := handlers.NewFeedbackHandler(rt.feedback, validate, rt.logger)
	petHandler := handlers.NewPetHandler(rt.pets, rt.cfg.DefaultSubjectID, rt.logger)
	dilemmaHandler := handlers.NewDilemmaHandler(rt.dilemmas, rt.logger)
	graphHandler := handlers.NewGraphHandler(rt.graphs, rt.logger)
	healthHandler := handlers.NewHealthHandler(rt.retriever, rt.model, rt.logger)

	// Health endpoints stay outside authentication
	router.Get("/health", healthHandler.Health)
	router.Get("/ready", healthHandler.Ready)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rt.limiter, rt.logger))
		r.Use(middleware.Authenticate(rt.cfg.JWTSecret, rt.cfg.JWTIssuer, rt.cfg.AuthEnabled))

		r.Post("/qa", qaHandler.Answer)
		r.Post("/feedback", feedbackHandler.Apply)
		r.Get("/pet", petHandler.Get)
		r.Get("/dilemma/next", dilemmaHandler.Next)
		r.Get("/graph/neighborhood", graphHandler.Neighborhood)
		r.Get("/graph/sample", graphHandler.Sample)
		r.Get("/export/pet", petHandler.Export)
		r.Get("/export/pet.jsonl", petHandler.ExportJSONL)
	})

	return router
}
