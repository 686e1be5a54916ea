package config

import (
	"strings"
	"time"

	"crewdesk/pkg/config"
	"crewdesk/pkg/database"
)

// Config stores environment configuration for the crewdesk service.
type Config struct {
	Port                string
	DatabaseURL         string
	LLMProvider         string
	LLMModel            string
	LLMAPIKey           string
	LLMAPIURL           string
	LLMMaxTokens        int
	LLMTimeout          time.Duration
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingAPIURL     string
	EmbeddingDimensions int
	AllowedOrigins      []string
	HistoryLimit        int
	SearchLimit         int
	AutoLearn           bool
	UsersFile           string
	JWTSecret           string
	SessionTTL          time.Duration
}

// RequiresAPIKey reports whether the configured LLM provider needs an API
// key. Ollama runs locally and authenticates with nothing.
func (c Config) RequiresAPIKey() bool {
	return strings.ToLower(c.LLMProvider) != "ollama"
}

// LoadConfig loads the crewdesk configuration from environment variables.
// DATABASE_URL wins when set; otherwise the URL is composed from the
// individual DB_* variables. An empty result means no database is
// configured, which is a supported degraded mode.
func LoadConfig() Config {
	databaseURL := database.NormalizeURL(config.GetEnv("DATABASE_URL", ""))
	if databaseURL == "" {
		databaseURL = database.ComposeURL(
			config.GetEnv("DB_HOST", ""),
			config.GetEnv("DB_USER", ""),
			config.GetEnv("DB_PASSWORD", ""),
			config.GetEnv("DB_NAME", ""),
			config.GetEnv("DB_PORT", ""),
		)
	}

	return Config{
		Port:                config.GetEnv("PORT", "8000"),
		DatabaseURL:         databaseURL,
		LLMProvider:         config.GetEnv("LLM_PROVIDER", "groq"),
		LLMModel:            config.GetEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMAPIKey:           config.GetEnv("LLM_API_KEY", config.GetEnv("GROQ_API_KEY", "")),
		LLMAPIURL:           config.GetEnv("LLM_API_URL", ""),
		LLMMaxTokens:        config.GetEnvInt("LLM_MAX_TOKENS", 4096),
		LLMTimeout:          config.GetEnvDuration("LLM_TIMEOUT", 60*time.Second),
		EmbeddingProvider:   config.GetEnv("EMBEDDING_PROVIDER", "openai"),
		EmbeddingModel:      config.GetEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingAPIKey:     config.GetEnv("EMBEDDING_API_KEY", config.GetEnv("OPENAI_API_KEY", "")),
		EmbeddingAPIURL:     config.GetEnv("EMBEDDING_API_URL", ""),
		EmbeddingDimensions: config.GetEnvInt("EMBEDDING_DIMENSIONS", 0),
		AllowedOrigins:      config.GetEnvList("ALLOWED_ORIGINS"),
		HistoryLimit:        config.GetEnvInt("HISTORY_LIMIT", 10),
		SearchLimit:         config.GetEnvInt("KNOWLEDGE_SEARCH_LIMIT", 5),
		AutoLearn:           config.GetEnvBool("KNOWLEDGE_AUTO_LEARN", false),
		UsersFile:           config.GetEnv("USERS_FILE", "users.json"),
		JWTSecret:           config.GetEnv("JWT_SECRET", ""),
		SessionTTL:          config.GetEnvDuration("SESSION_TTL", 12*time.Hour),
	}
}
