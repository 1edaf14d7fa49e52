package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Rag      RagConfig
	Session  SessionConfig
	Ingest   IngestConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	// Connection is a postgres DSN. Empty selects the in-process vector index.
	Connection string
	// AutoMigrate creates the pgvector extension and the chunk table on start.
	AutoMigrate bool
}

type AIConfig struct {
	EmbeddingProvider   string // "ollama", "openai", "gemini" or "local"
	EmbeddingModel      string
	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingDimensions int // local provider only
	EmbeddingCacheTTL   time.Duration

	LLMProvider string // "ollama", "openai" or "huggingface"
	LLMModel    string
	LLMBaseURL  string
	LLMAPIKey   string
}

type RagConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	MinChunkSize       int
	TopK               int
	GroundingWindow    int
	Temperature        float64
	MaxTokens          int
	MaxContextMessages int
	InsertBatchSize    int

	EmbeddingRatePerSecond float64
	EmbeddingBurst         int
	EmbeddingConcurrency   int

	RetryAttempts        uint
	RetryInitialInterval time.Duration
}

type SessionConfig struct {
	// TTL of zero keeps sessions until they are deleted.
	TTL time.Duration
}

type IngestConfig struct {
	Topic    string
	WatchDir string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/legal-rag.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection:  getEnv("DB_CONNECTION_STRING", ""),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Ai: AIConfig{
			EmbeddingProvider:   strings.ToLower(getEnv("EMBEDDING_PROVIDER", "local")),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", ""),
			EmbeddingBaseURL:    getEnv("EMBEDDING_BASE_URL", ""),
			EmbeddingAPIKey:     getEnv("EMBEDDING_API_KEY", ""),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 384),
			EmbeddingCacheTTL:   getEnvAsDuration("EMBEDDING_CACHE_TTL", time.Hour),
			LLMProvider:         strings.ToLower(getEnv("LLM_PROVIDER", "ollama")),
			LLMModel:            getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:          getEnv("LLM_BASE_URL", "http://localhost:11434"),
			LLMAPIKey:           getEnv("LLM_API_KEY", ""),
		},
		Rag: RagConfig{
			ChunkSize:              getEnvAsInt("RAG_CHUNK_SIZE", 1500),
			ChunkOverlap:           getEnvAsInt("RAG_CHUNK_OVERLAP", 300),
			MinChunkSize:           getEnvAsInt("RAG_MIN_CHUNK_SIZE", 200),
			TopK:                   getEnvAsInt("RAG_TOP_K", 5),
			GroundingWindow:        getEnvAsInt("RAG_GROUNDING_WINDOW", 3),
			Temperature:            getEnvAsFloat("RAG_TEMPERATURE", 0.2),
			MaxTokens:              getEnvAsInt("RAG_MAX_TOKENS", 500),
			MaxContextMessages:     getEnvAsInt("RAG_MAX_CONTEXT_MESSAGES", 10),
			InsertBatchSize:        getEnvAsInt("RAG_INSERT_BATCH_SIZE", 100),
			EmbeddingRatePerSecond: getEnvAsFloat("EMBEDDING_RATE_PER_SECOND", 10),
			EmbeddingBurst:         getEnvAsInt("EMBEDDING_BURST", 5),
			EmbeddingConcurrency:   getEnvAsInt("EMBEDDING_CONCURRENCY", 4),
			RetryAttempts:          uint(getEnvAsInt("UPSTREAM_RETRY_ATTEMPTS", 2)),
			RetryInitialInterval:   getEnvAsDuration("UPSTREAM_RETRY_INTERVAL", 500*time.Millisecond),
		},
		Session: SessionConfig{
			TTL: getEnvAsDuration("SESSION_TTL", 0),
		},
		Ingest: IngestConfig{
			Topic:    getEnv("INGEST_TOPIC_NAME", "INGEST_LEGAL_DOCUMENT"),
			WatchDir: getEnv("INGEST_WATCH_DIR", "data/extracted"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s", "2h") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
