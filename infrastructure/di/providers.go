package di

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/application/services"
	"finagotchi-backend/domain/pet"
	"finagotchi-backend/infrastructure/cache"
	"finagotchi-backend/infrastructure/config"
	neo4jstore "finagotchi-backend/infrastructure/graphstore/neo4j"
	openaillm "finagotchi-backend/infrastructure/llm/openai"
	"finagotchi-backend/infrastructure/messaging/eventbridge"
	"finagotchi-backend/infrastructure/persistence/dynamodb"
	qdrantstore "finagotchi-backend/infrastructure/retrieval/qdrant"
	"finagotchi-backend/pkg/auth"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvidePetMachine creates the pet state machine with stock defaults
func ProvidePetMachine() *pet.Machine {
	return pet.NewMachine(pet.DefaultConfig())
}

// ProvideSubjectRepository creates the subject repository
func ProvideSubjectRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SubjectRepository {
	return dynamodb.NewSubjectRepository(
		client,
		cfg.DynamoDBTable,
		cfg.GSI1IndexName,
		logger,
	)
}

// ProvideLanguageModel creates the language model client
func ProvideLanguageModel(cfg *config.Config, logger *zap.Logger) ports.LanguageModel {
	return openaillm.NewClient(cfg, logger)
}

// ProvideRetriever creates the vector store retriever
func ProvideRetriever(cfg *config.Config, model ports.LanguageModel, logger *zap.Logger) (ports.Retriever, error) {
	return qdrantstore.NewRetriever(cfg, model, logger)
}

// ProvideGraphStore creates the graph store adapter. An unconfigured or
// unreachable graph store still yields a working adapter that serves
// empty bundles.
func ProvideGraphStore(cfg *config.Config, logger *zap.Logger) ports.GraphStore {
	return neo4jstore.NewAdapter(cfg, logger)
}

// ProvideEventPublisher creates an event publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewEventBridgePublisher(
		client,
		cfg.EventBusName,
		logger,
	)
}

// ProvideQAService creates the QA service
func ProvideQAService(
	subjects ports.SubjectRepository,
	graphStore ports.GraphStore,
	retriever ports.Retriever,
	model ports.LanguageModel,
	machine *pet.Machine,
	logger *zap.Logger,
) *services.QAService {
	return services.NewQAService(subjects, graphStore, retriever, model, machine, logger)
}

// ProvideFeedbackService creates the feedback service
func ProvideFeedbackService(
	subjects ports.SubjectRepository,
	machine *pet.Machine,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.FeedbackService {
	return services.NewFeedbackService(subjects, machine, publisher, logger)
}

// ProvidePetService creates the pet service
func ProvidePetService(subjects ports.SubjectRepository, machine *pet.Machine, logger *zap.Logger) *services.PetService {
	return services.NewPetService(subjects, machine, logger)
}

// ProvideDilemmaService creates the dilemma service
func ProvideDilemmaService(retriever ports.Retriever, model ports.LanguageModel, logger *zap.Logger) *services.DilemmaService {
	return services.NewDilemmaService(retriever, model, logger)
}

// ProvideSampleCache creates the in-memory cache for graph samples
func ProvideSampleCache() *cache.Memory {
	return cache.NewMemory()
}

// ProvideGraphService creates the graph service
func ProvideGraphService(graphStore ports.GraphStore, retriever ports.Retriever, sampleCache *cache.Memory, logger *zap.Logger) *services.GraphService {
	return services.NewGraphService(graphStore, retriever, sampleCache, logger)
}

// ProvideRateLimiter creates the per-IP rate limiter. Lambda deployments
// need the DynamoDB-backed limiter so counts survive across invocations;
// the API server keeps counts in memory. A zero limit disables limiting.
func ProvideRateLimiter(cfg *config.Config, client *awsdynamodb.Client) auth.RateLimiter {
	if cfg.RateLimitPerMinute <= 0 {
		return nil
	}
	if cfg.IsLambda {
		return auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, cfg.RateLimitPerMinute)
	}
	return auth.NewTokenBucketLimiter(cfg.RateLimitPerMinute, time.Minute/time.Duration(cfg.RateLimitPerMinute))
}
