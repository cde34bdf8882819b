package openai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/infrastructure/config"
)

const chatTemperature = 0.2

// Client implements ports.LanguageModel against OpenAI-compatible
// endpoints. Chat and embeddings may point at different servers, which
// is the usual shape for local model hosting.
type Client struct {
	chat       *openai.Client
	embed      *openai.Client
	chatModel  string
	embedModel string
	logger     *zap.Logger
}

// NewClient creates a new Client
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	chatConfig := openai.DefaultConfig(cfg.LLMAPIKey)
	chatConfig.BaseURL = cfg.LLMChatBaseURL

	embedConfig := openai.DefaultConfig(cfg.LLMAPIKey)
	embedConfig.BaseURL = cfg.LLMEmbedBaseURL

	return &Client{
		chat:       openai.NewClientWithConfig(chatConfig),
		embed:      openai.NewClientWithConfig(embedConfig),
		chatModel:  cfg.LLMChatModel,
		embedModel: cfg.LLMEmbedModel,
		logger:     logger,
	}
}

func toOpenAIMessages(messages []ports.ChatMessage) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}
	return converted
}

// Chat runs a completion and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, messages []ports.ChatMessage) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    toOpenAIMessages(messages),
		Temperature: chatTemperature,
	}
	response, err := c.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return response.Choices[0].Message.Content, nil
}

// ChatJSON runs a completion expected to yield one JSON object. When
// the model returns prose instead, a single repair round asks it to
// reformat its own answer as strict JSON.
func (c *Client) ChatJSON(ctx context.Context, messages []ports.ChatMessage) (map[string]any, error) {
	content, err := c.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(content), &decoded); err == nil {
		return decoded, nil
	}

	c.logger.Debug("Model returned non-JSON content, attempting repair")
	repair := append(append([]ports.ChatMessage{}, messages...),
		ports.ChatMessage{Role: "system", Content: "Convert the previous answer into strict JSON only. No extra text."},
		ports.ChatMessage{Role: "user", Content: content},
	)
	fixed, err := c.Chat(ctx, repair)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fixed), &decoded); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}
	return decoded, nil
}

// Embed converts text into an embedding vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	response, err := c.embed.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return response.Data[0].Embedding, nil
}

var _ ports.LanguageModel = (*Client)(nil)
