package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shvkateryna/internship/internal/profile"
)

func TestNewConfigFromProfile_OpenAI(t *testing.T) {
	prof := &profile.Profile{
		AIEnabled:             true,
		AIEmbeddingProvider:   "openai",
		AIEmbeddingModel:      "text-embedding-ada-002",
		AIEmbeddingDimensions: 1536,
		AIOpenAIAPIKey:        "test-key",
		AIOpenAIBaseURL:       "https://api.openai.com/v1",
		AILLMProvider:         "openai",
		AILLMModel:            "gpt-4o-mini",
	}

	cfg := NewConfigFromProfile(prof)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "test-key", cfg.Embedding.APIKey)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfigFromProfile_DeepSeek(t *testing.T) {
	prof := &profile.Profile{
		AIEnabled:           true,
		AIEmbeddingProvider: "hash",
		AILLMProvider:       "deepseek",
		AILLMModel:          "deepseek-chat",
		AIDeepSeekAPIKey:    "deepseek-key",
		AIDeepSeekBaseURL:   "https://api.deepseek.com",
	}

	cfg := NewConfigFromProfile(prof)

	assert.Equal(t, "deepseek-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://api.deepseek.com", cfg.LLM.BaseURL)
	assert.Empty(t, cfg.Embedding.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfigFromProfile_Disabled(t *testing.T) {
	cfg := NewConfigFromProfile(&profile.Profile{AIEmbeddingProvider: "hash"})

	assert.False(t, cfg.Enabled)
	assert.Empty(t, cfg.LLM.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing embedding provider", Config{}, true},
		{"openai embedding without key", Config{Embedding: EmbeddingConfig{Provider: "openai"}}, true},
		{"hash embedding offline", Config{Embedding: EmbeddingConfig{Provider: "hash"}}, false},
		{"llm enabled without provider", Config{Enabled: true, Embedding: EmbeddingConfig{Provider: "hash"}}, true},
		{"llm enabled without key", Config{Enabled: true, Embedding: EmbeddingConfig{Provider: "hash"}, LLM: LLMConfig{Provider: "openai"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
