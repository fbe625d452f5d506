package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMService is the LLM service interface.
type LLMService interface {
	// Chat performs synchronous chat.
	Chat(ctx context.Context, messages []Message) (string, error)
}

// ChatOption overrides request parameters for a single Chat call.
type ChatOption func(*openai.ChatCompletionRequest)

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float32) ChatOption {
	return func(r *openai.ChatCompletionRequest) {
		r.Temperature = t
	}
}

type llmService struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	opts        []ChatOption
}

// NewLLMService creates a new LLMService. DeepSeek and OpenAI share the
// OpenAI chat completion protocol.
func NewLLMService(cfg *LLMConfig, opts ...ChatOption) (LLMService, error) {
	switch cfg.Provider {
	case "deepseek", "openai":
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &llmService{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		opts:        opts,
	}, nil
}

func (s *llmService) Chat(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	}
	for _, opt := range s.opts {
		opt(&req)
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("LLM request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from LLM")
	}

	return resp.Choices[0].Message.Content, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

// SystemPrompt builds a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// FormatMessages formats messages for prompt templates.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := make([]Message, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}

// MockLLMService answers with a fixed function. Used by tests and offline mode.
type MockLLMService struct {
	ChatFunc func(ctx context.Context, messages []Message) (string, error)
}

// Chat implements LLMService.
func (m *MockLLMService) Chat(ctx context.Context, messages []Message) (string, error) {
	if m.ChatFunc == nil {
		return "", errors.New("mock LLM has no ChatFunc")
	}
	return m.ChatFunc(ctx, messages)
}

var _ LLMService = (*MockLLMService)(nil)
