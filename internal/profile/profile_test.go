package profile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileEnvVars = []string{
	"ASSISTANT_AI_ENABLED",
	"ASSISTANT_AI_EMBEDDING_PROVIDER",
	"ASSISTANT_AI_OPENAI_API_KEY",
	"OPENAI_API_KEY",
	"ASSISTANT_TOP_K",
	"ASSISTANT_HISTORY_TTL_SECONDS",
	"CHAT_TTL_SECONDS",
	"ASSISTANT_TELEGRAM_TOKEN",
	"TELEGRAM_BOT_TOKEN",
	"ASSISTANT_SCORE_THRESHOLD",
	"ASSISTANT_CORPUS_PATH",
}

func clearProfileEnv(t *testing.T) {
	t.Helper()
	for _, key := range profileEnvVars {
		t.Setenv(key, "")
	}
}

func TestProfileDefaults(t *testing.T) {
	clearProfileEnv(t)

	p := &Profile{}
	p.FromEnv()

	assert.False(t, p.AIEnabled)
	assert.Equal(t, "openai", p.AIEmbeddingProvider)
	assert.Equal(t, "openai", p.AILLMProvider)
	assert.Equal(t, "https://api.openai.com/v1", p.AIOpenAIBaseURL)
	assert.Equal(t, "text-embedding-ada-002", p.AIEmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", p.AILLMModel)
	assert.Equal(t, 6, p.TopK)
	assert.Equal(t, 4000, p.MaxContextChars)
	assert.InDelta(t, 0.2, p.ScoreThreshold, 1e-9)
	assert.Equal(t, 200, p.HistoryTTLSeconds)
	assert.Equal(t, 20, p.MaxConcurrentAsks)
	assert.Equal(t, 30*time.Second, p.ToolTimeout)
	assert.Equal(t, 128, p.TranslateMaxInputChars)
	assert.Equal(t, "gpt-4o-mini", p.TranslateModel)
	assert.Equal(t, "flat", p.VectorBackend)
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		field    func(*Profile) any
		expected any
	}{
		{
			name:     "new key wins",
			env:      map[string]string{"ASSISTANT_AI_OPENAI_API_KEY": "new", "OPENAI_API_KEY": "legacy"},
			field:    func(p *Profile) any { return p.AIOpenAIAPIKey },
			expected: "new",
		},
		{
			name:     "legacy openai key",
			env:      map[string]string{"OPENAI_API_KEY": "legacy"},
			field:    func(p *Profile) any { return p.AIOpenAIAPIKey },
			expected: "legacy",
		},
		{
			name:     "legacy chat ttl",
			env:      map[string]string{"CHAT_TTL_SECONDS": "90"},
			field:    func(p *Profile) any { return p.HistoryTTLSeconds },
			expected: 90,
		},
		{
			name:     "legacy telegram token",
			env:      map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc"},
			field:    func(p *Profile) any { return p.TelegramToken },
			expected: "123:abc",
		},
		{
			name:     "top k",
			env:      map[string]string{"ASSISTANT_TOP_K": "3"},
			field:    func(p *Profile) any { return p.TopK },
			expected: 3,
		},
		{
			name:     "invalid int falls back to default",
			env:      map[string]string{"ASSISTANT_TOP_K": "many"},
			field:    func(p *Profile) any { return p.TopK },
			expected: 6,
		},
		{
			name:     "score threshold",
			env:      map[string]string{"ASSISTANT_SCORE_THRESHOLD": "0.5"},
			field:    func(p *Profile) any { return p.ScoreThreshold },
			expected: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProfileEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			p := &Profile{}
			p.FromEnv()
			assert.Equal(t, tt.expected, tt.field(p))
		})
	}
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		expected bool
	}{
		{"disabled", Profile{AIEnabled: false, AIOpenAIAPIKey: "k"}, false},
		{"openai without key", Profile{AIEnabled: true, AILLMProvider: "openai"}, false},
		{"openai with key", Profile{AIEnabled: true, AILLMProvider: "openai", AIOpenAIAPIKey: "k"}, true},
		{"deepseek with key", Profile{AIEnabled: true, AILLMProvider: "deepseek", AIDeepSeekAPIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.profile.IsAIEnabled())
		})
	}
}

func TestValidate(t *testing.T) {
	clearProfileEnv(t)

	newProfile := func() *Profile {
		p := &Profile{Data: t.TempDir()}
		p.FromEnv()
		return p
	}

	t.Run("defaults", func(t *testing.T) {
		p := newProfile()
		require.NoError(t, p.Validate())

		assert.Equal(t, "demo", p.Mode)
		assert.Equal(t, "memory", p.Driver)
		assert.Equal(t, filepath.Join(p.Data, "about_me.txt"), p.CorpusPath)
	})

	t.Run("sqlite dsn derived from mode", func(t *testing.T) {
		p := newProfile()
		p.Mode = "dev"
		p.Driver = "sqlite"
		require.NoError(t, p.Validate())
		assert.Equal(t, filepath.Join(p.Data, "assistant_dev.db"), p.DSN)
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		p := newProfile()
		p.Driver = "postgres"
		assert.Error(t, p.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		p := newProfile()
		p.Driver = "redis"
		assert.Error(t, p.Validate())
	})

	t.Run("missing data dir", func(t *testing.T) {
		p := newProfile()
		p.Data = filepath.Join(p.Data, "does-not-exist")
		assert.Error(t, p.Validate())
	})

	t.Run("overlap must be smaller than chunk", func(t *testing.T) {
		p := newProfile()
		p.ChunkOverlap = p.ChunkSize
		assert.Error(t, p.Validate())
	})

	t.Run("history ttl must be positive", func(t *testing.T) {
		p := newProfile()
		p.HistoryTTLSeconds = 0
		assert.Error(t, p.Validate())
	})

	t.Run("history ttl duration", func(t *testing.T) {
		p := newProfile()
		assert.Equal(t, 200*time.Second, p.HistoryTTL())
	})
}
