package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finagotchi-backend/infrastructure/config"
	"finagotchi-backend/infrastructure/di"
	"finagotchi-backend/interfaces/http/rest"
	"finagotchi-backend/pkg/observability"
)

// Global variables for Lambda lifecycle management
var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	// container holds the dependency injection container
	container *di.Container

	// coldStart tracks whether this is a cold start invocation
	coldStart = true

	// coldStartTime records when the cold start began
	coldStartTime time.Time

	// tracer wraps request handling in X-Ray subsegments
	tracer = observability.NewTracer("finagotchi")
)

// init runs during cold start
func init() {
	coldStartTime = time.Now()
	log.Println("Lambda cold start initiated")

	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Create router
	router := rest.NewRouter(
		cfg,
		container.QA,
		container.Feedback,
		container.Pets,
		container.Dilemmas,
		container.Graphs,
		container.Retriever,
		container.Model,
		container.Limiter,
		container.Logger,
	)

	// Setup routes
	handler := router.Setup()

	// Create Lambda adapter - need to type assert to *chi.Mux
	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	coldStartDuration := time.Since(coldStartTime)
	log.Printf("Lambda cold start completed in %v", coldStartDuration)
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var response events.APIGatewayV2HTTPResponse
	err := tracer.Capture(ctx, "proxy", func(ctx context.Context) error {
		var proxyErr error
		response, proxyErr = chiLambda.ProxyWithContextV2(ctx, req)
		return proxyErr
	})

	if response.Headers == nil {
		response.Headers = make(map[string]string)
	}

	if coldStart {
		response.Headers["X-Cold-Start"] = "true"
		response.Headers["X-Cold-Start-Duration"] = time.Since(coldStartTime).String()
		coldStart = false
	} else {
		response.Headers["X-Cold-Start"] = "false"
	}

	if req.RequestContext.RequestID != "" {
		response.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if container != nil && container.Logger != nil && response.StatusCode >= 400 {
		container.Logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.Int("status_code", response.StatusCode),
			zap.String("body", response.Body),
		)
	}

	return response, err
}

// main is the entry point for the Lambda function
func main() {
	lambda.Start(Handler)
}
