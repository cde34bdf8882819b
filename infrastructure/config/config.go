package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	GSI1IndexName string // GSI1 - interaction id to subject lookups
	EventBusName  string

	// Lambda configuration
	IsLambda bool

	// Graph store configuration
	Neo4jURI            string
	Neo4jUser           string
	Neo4jPassword       string
	Neo4jDatabase       string
	Neo4jTimeoutSeconds int

	// Vector store configuration
	QdrantHost       string
	QdrantPort       int
	QdrantAPIKey     string
	QdrantUseTLS     bool
	QdrantCollection string
	QdrantTopK       int

	// Model configuration
	LLMChatBaseURL  string
	LLMChatModel    string
	LLMEmbedBaseURL string
	LLMEmbedModel   string
	LLMAPIKey       string

	// Game configuration
	DefaultSubjectID string

	// Authentication
	JWTSecret   string
	JWTIssuer   string
	AuthEnabled bool

	// Logging and features
	LogLevel   string
	EnableCORS bool

	// Rate limiting, requests per minute per IP. Zero disables.
	RateLimitPerMinute int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "finagotchi")),
		GSI1IndexName: getEnv("GSI1_INDEX_NAME", "InteractionIndex"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "finagotchi-events"),

		// Lambda configuration
		IsLambda: getEnvBool("IS_LAMBDA", false),

		// Graph store
		Neo4jURI:            getEnv("NEO4J_URI", ""),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase:       getEnv("NEO4J_DATABASE", "neo4j"),
		Neo4jTimeoutSeconds: getEnvInt("NEO4J_TIMEOUT_SECONDS", 3),

		// Vector store
		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantUseTLS:     getEnvBool("QDRANT_USE_TLS", false),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "finagotchi_chunks"),
		QdrantTopK:       getEnvInt("QDRANT_TOP_K", 6),

		// Models (OpenAI-compatible endpoints, local or hosted)
		LLMChatBaseURL:  getEnv("LLM_CHAT_BASE_URL", "http://localhost:8081/v1"),
		LLMChatModel:    getEnv("LLM_CHAT_MODEL", "qwen2.5-7b-instruct"),
		LLMEmbedBaseURL: getEnv("LLM_EMBED_BASE_URL", "http://localhost:8082/v1"),
		LLMEmbedModel:   getEnv("LLM_EMBED_MODEL", "nomic-embed-text"),
		LLMAPIKey:       getEnv("LLM_API_KEY", "local"),

		// Game
		DefaultSubjectID: getEnv("DEFAULT_SUBJECT_ID", "default"),

		// Authentication
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "finagotchi-backend"),
		AuthEnabled: getEnvBool("AUTH_ENABLED", false),

		// Logging and features
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),

		// Rate limiting
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
		if c.AuthEnabled && c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when auth is enabled in production")
		}
	}
	if c.QdrantTopK <= 0 {
		return fmt.Errorf("QDRANT_TOP_K must be positive")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
