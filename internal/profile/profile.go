package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the assistant.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the HTTP server
	Addr string
	// Port is the binding port for the HTTP server
	Port int
	// Data is the data directory
	Data string
	// Driver is the session history driver (memory, sqlite or postgres)
	Driver string
	// DSN points to where session history is stored for sqlite/postgres
	DSN string
	// Version is the current version of the assistant
	Version string
	// LogLevel is one of debug, info, warn, error
	LogLevel string
	// LogFormat is text or json
	LogFormat string

	// AI configuration
	AIEnabled             bool   // ASSISTANT_AI_ENABLED
	AIEmbeddingProvider   string // ASSISTANT_AI_EMBEDDING_PROVIDER (default: openai; "hash" runs offline)
	AILLMProvider         string // ASSISTANT_AI_LLM_PROVIDER (default: openai)
	AIOpenAIAPIKey        string // ASSISTANT_AI_OPENAI_API_KEY (legacy: OPENAI_API_KEY)
	AIOpenAIBaseURL       string // ASSISTANT_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AIDeepSeekAPIKey      string // ASSISTANT_AI_DEEPSEEK_API_KEY
	AIDeepSeekBaseURL     string // ASSISTANT_AI_DEEPSEEK_BASE_URL (default: https://api.deepseek.com)
	AIEmbeddingModel      string // ASSISTANT_AI_EMBEDDING_MODEL (default: text-embedding-ada-002)
	AIEmbeddingDimensions int    // ASSISTANT_AI_EMBEDDING_DIMENSIONS (default: 1536)
	AILLMModel            string // ASSISTANT_AI_LLM_MODEL (default: gpt-4o-mini)

	// Retrieval configuration
	CorpusPath      string  // ASSISTANT_CORPUS_PATH (default: <data>/about_me.txt)
	TopK            int     // ASSISTANT_TOP_K (default: 6)
	MaxContextChars int     // ASSISTANT_MAX_CONTEXT_CHARS (default: 4000)
	ScoreThreshold  float64 // ASSISTANT_SCORE_THRESHOLD (default: 0.2)
	ChunkSize       int     // ASSISTANT_CHUNK_SIZE (default: 500)
	ChunkOverlap    int     // ASSISTANT_CHUNK_OVERLAP (default: 50)
	VectorBackend   string  // ASSISTANT_VECTOR_BACKEND (flat or chromem)

	// Session and routing configuration
	HistoryTTLSeconds  int           // ASSISTANT_HISTORY_TTL_SECONDS (legacy: CHAT_TTL_SECONDS, default: 200)
	MaxHistoryMessages int           // ASSISTANT_MAX_HISTORY_MESSAGES (default: 20)
	RoutingRulesPath   string        // ASSISTANT_ROUTING_RULES (yaml file, optional)
	MaxConcurrentAsks  int           // ASSISTANT_MAX_CONCURRENT_ASKS (default: 20)
	ToolTimeout        time.Duration // ASSISTANT_TOOL_TIMEOUT (default: 30s)

	// Translation configuration
	TranslateMaxInputChars int    // ASSISTANT_TRANSLATE_MAX_INPUT_CHARS (default: 128)
	TranslateModel         string // ASSISTANT_TRANSLATE_MODEL (default: AILLMModel)

	// Telegram gateway configuration
	TelegramToken      string // ASSISTANT_TELEGRAM_TOKEN (legacy: TELEGRAM_BOT_TOKEN)
	TelegramWebhookURL string // ASSISTANT_TELEGRAM_WEBHOOK_URL (empty: long polling)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and the chosen providers have credentials.
func (p *Profile) IsAIEnabled() bool {
	if !p.AIEnabled {
		return false
	}
	switch p.AILLMProvider {
	case "deepseek":
		return p.AIDeepSeekAPIKey != ""
	default:
		return p.AIOpenAIAPIKey != ""
	}
}

// HistoryTTL returns the session expiry as a duration.
func (p *Profile) HistoryTTL() time.Duration {
	return time.Duration(p.HistoryTTLSeconds) * time.Second
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
// Supports ASSISTANT_* keys and the variable names used by the older
// multi-service deployment (OPENAI_API_KEY, CHAT_TTL_SECONDS, TELEGRAM_BOT_TOKEN).
func (p *Profile) FromEnv() {
	getEnvWithFallback := func(newKey, legacyKey string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		if legacyKey == "" {
			return ""
		}
		return os.Getenv(legacyKey)
	}

	getIntEnv := func(key, legacyKey string, defaultValue int) int {
		raw := getEnvWithFallback(key, legacyKey)
		if raw == "" {
			return defaultValue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			slog.Warn("ignoring invalid integer env value", slog.String("key", key), slog.String("value", raw))
			return defaultValue
		}
		return n
	}

	getFloatEnv := func(key string, defaultValue float64) float64 {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			slog.Warn("ignoring invalid float env value", slog.String("key", key), slog.String("value", raw))
			return defaultValue
		}
		return f
	}

	p.AIEnabled = getEnvWithFallback("ASSISTANT_AI_ENABLED", "") == "true"
	p.AIEmbeddingProvider = getEnvOrDefault("ASSISTANT_AI_EMBEDDING_PROVIDER", "openai")
	p.AILLMProvider = getEnvOrDefault("ASSISTANT_AI_LLM_PROVIDER", "openai")
	p.AIOpenAIAPIKey = getEnvWithFallback("ASSISTANT_AI_OPENAI_API_KEY", "OPENAI_API_KEY")
	p.AIOpenAIBaseURL = getEnvOrDefault("ASSISTANT_AI_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.AIDeepSeekAPIKey = os.Getenv("ASSISTANT_AI_DEEPSEEK_API_KEY")
	p.AIDeepSeekBaseURL = getEnvOrDefault("ASSISTANT_AI_DEEPSEEK_BASE_URL", "https://api.deepseek.com")
	p.AIEmbeddingModel = getEnvOrDefault("ASSISTANT_AI_EMBEDDING_MODEL", "text-embedding-ada-002")
	p.AIEmbeddingDimensions = getIntEnv("ASSISTANT_AI_EMBEDDING_DIMENSIONS", "", 1536)
	p.AILLMModel = getEnvOrDefault("ASSISTANT_AI_LLM_MODEL", "gpt-4o-mini")

	p.CorpusPath = getEnvOrDefault("ASSISTANT_CORPUS_PATH", p.CorpusPath)
	p.TopK = getIntEnv("ASSISTANT_TOP_K", "", 6)
	p.MaxContextChars = getIntEnv("ASSISTANT_MAX_CONTEXT_CHARS", "", 4000)
	p.ScoreThreshold = getFloatEnv("ASSISTANT_SCORE_THRESHOLD", 0.2)
	p.ChunkSize = getIntEnv("ASSISTANT_CHUNK_SIZE", "", 500)
	p.ChunkOverlap = getIntEnv("ASSISTANT_CHUNK_OVERLAP", "", 50)
	p.VectorBackend = getEnvOrDefault("ASSISTANT_VECTOR_BACKEND", "flat")

	p.HistoryTTLSeconds = getIntEnv("ASSISTANT_HISTORY_TTL_SECONDS", "CHAT_TTL_SECONDS", 200)
	p.MaxHistoryMessages = getIntEnv("ASSISTANT_MAX_HISTORY_MESSAGES", "", 20)
	p.RoutingRulesPath = getEnvOrDefault("ASSISTANT_ROUTING_RULES", p.RoutingRulesPath)
	p.MaxConcurrentAsks = getIntEnv("ASSISTANT_MAX_CONCURRENT_ASKS", "", 20)
	p.ToolTimeout = time.Duration(getIntEnv("ASSISTANT_TOOL_TIMEOUT_SECONDS", "", 30)) * time.Second

	p.TranslateMaxInputChars = getIntEnv("ASSISTANT_TRANSLATE_MAX_INPUT_CHARS", "", 128)
	p.TranslateModel = getEnvOrDefault("ASSISTANT_TRANSLATE_MODEL", p.AILLMModel)

	p.TelegramToken = getEnvWithFallback("ASSISTANT_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	p.TelegramWebhookURL = os.Getenv("ASSISTANT_TELEGRAM_WEBHOOK_URL")

	if p.LogLevel == "" {
		p.LogLevel = getEnvWithFallback("ASSISTANT_LOG_LEVEL", "LOG_LEVEL")
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and fills defaults that depend on other fields.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "", "memory":
		p.Driver = "memory"
	case "sqlite":
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("assistant_%s.db", p.Mode))
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres driver requires a DSN")
		}
	default:
		return errors.Errorf("unknown session driver %q: expected memory, sqlite or postgres", p.Driver)
	}

	if p.CorpusPath == "" {
		p.CorpusPath = filepath.Join(dataDir, "about_me.txt")
	}
	if p.VectorBackend != "flat" && p.VectorBackend != "chromem" {
		return errors.Errorf("unknown vector backend %q", p.VectorBackend)
	}

	if p.TopK <= 0 {
		return errors.Errorf("top_k must be positive, got %d", p.TopK)
	}
	if p.MaxContextChars <= 0 {
		return errors.Errorf("max_context_chars must be positive, got %d", p.MaxContextChars)
	}
	if p.HistoryTTLSeconds <= 0 {
		return errors.Errorf("history_ttl_seconds must be positive, got %d", p.HistoryTTLSeconds)
	}
	if p.ChunkOverlap >= p.ChunkSize {
		return errors.Errorf("chunk overlap %d must be smaller than chunk size %d", p.ChunkOverlap, p.ChunkSize)
	}
	if p.MaxConcurrentAsks <= 0 {
		p.MaxConcurrentAsks = 20
	}
	if p.ToolTimeout <= 0 {
		p.ToolTimeout = 30 * time.Second
	}

	return nil
}
