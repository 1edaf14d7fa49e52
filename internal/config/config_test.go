package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"RAG_CHUNK_SIZE", "RAG_TEMPERATURE", "SESSION_TTL", "EMBEDDING_PROVIDER", "DB_AUTO_MIGRATE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 1500, cfg.Rag.ChunkSize)
	assert.Equal(t, 300, cfg.Rag.ChunkOverlap)
	assert.Equal(t, 200, cfg.Rag.MinChunkSize)
	assert.Equal(t, 3, cfg.Rag.GroundingWindow)
	assert.Equal(t, 0.2, cfg.Rag.Temperature)
	assert.Equal(t, 500, cfg.Rag.MaxTokens)
	assert.Equal(t, time.Duration(0), cfg.Session.TTL)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RAG_CHUNK_SIZE", "800")
	t.Setenv("RAG_TEMPERATURE", "0.5")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("EMBEDDING_PROVIDER", "OpenAI")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg := Load()

	assert.Equal(t, 800, cfg.Rag.ChunkSize)
	assert.Equal(t, 0.5, cfg.Rag.Temperature)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "openai", cfg.Ai.EmbeddingProvider)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "90s", 90 * time.Second},
		{"bare seconds", "30", 30 * time.Second},
		{"garbage falls back", "soon", time.Minute},
		{"empty falls back", "", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", time.Minute))
		})
	}
}
