package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"legal-rag-be/internal/bootstrap"
	"legal-rag-be/internal/config"
	"legal-rag-be/internal/dto"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama answers /api/chat and records how many messages each call sent.
type fakeOllama struct {
	mu    sync.Mutex
	sizes []int
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.sizes = append(f.sizes, len(req.Messages))
	f.mu.Unlock()

	_ = json.NewEncoder(w).Encode(map[string]any{
		"model":   "llama3",
		"message": map[string]string{"role": "assistant", "content": "The contract may be specifically enforced [Source 1]."},
		"done":    true,
	})
}

func testConfig(llmURL string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Port: "0", Environment: "test", CorsAllowedOrigins: "*"},
		Ai: config.AIConfig{
			EmbeddingProvider:   "local",
			EmbeddingDimensions: 128,
			EmbeddingCacheTTL:   time.Minute,
			LLMProvider:         "ollama",
			LLMModel:            "llama3",
			LLMBaseURL:          llmURL,
		},
		Rag: config.RagConfig{
			ChunkSize:            400,
			ChunkOverlap:         80,
			MinChunkSize:         40,
			TopK:                 5,
			GroundingWindow:      3,
			Temperature:          0.2,
			MaxTokens:            500,
			MaxContextMessages:   10,
			InsertBatchSize:      50,
			EmbeddingConcurrency: 2,
			RetryAttempts:        1,
		},
		Ingest: config.IngestConfig{Topic: "INGEST_TEST"},
	}
}

func newTestServer(t *testing.T) (*fiber.App, *fakeOllama) {
	t.Helper()
	ollama := &fakeOllama{}
	upstream := httptest.NewServer(ollama)
	t.Cleanup(upstream.Close)

	container, err := bootstrap.NewContainer(nil, testConfig(upstream.URL), bootstrap.Options{Logger: logger.NewNopLogger()})
	require.NoError(t, err)
	t.Cleanup(container.Close)

	return New(testConfig(upstream.URL), container).GetApp(), ollama
}

func call(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, "GET", "/health", nil)
	require.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestIngestThenAskAcrossTurns(t *testing.T) {
	app, ollama := newTestServer(t)

	judgment := strings.Repeat("Rahima Begum vs Abdul Hamid. Civil Appeal No. 45 of 2011. "+
		"The contract for sale of land was specifically enforced by the High Court Division. ", 12)

	resp := call(t, app, "POST", "/api/document/v1", dto.IngestDocumentRequest{Filename: "rahima.pdf", Text: judgment})
	require.Equal(t, 201, resp.StatusCode)

	resp = call(t, app, "GET", "/api/status", nil)
	require.Equal(t, 200, resp.StatusCode)
	var status serverutils.BaseResponse[dto.IndexStatsResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, 1, status.Data.TotalDocuments)
	assert.Positive(t, status.Data.TotalChunks)

	resp = call(t, app, "POST", "/api/chatbot/v1/ask", dto.AskRequest{Question: "Was the contract for sale of land enforced?"})
	require.Equal(t, 200, resp.StatusCode)
	var first serverutils.BaseResponse[dto.AskResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))
	require.NotEmpty(t, first.Data.SessionId)
	require.NotEmpty(t, first.Data.Sources)
	assert.LessOrEqual(t, len(first.Data.Sources), 3)
	assert.True(t, strings.HasPrefix(first.Data.Sources[0].Location, "rahima.pdf:chunk_"))
	assert.Contains(t, first.Data.Formatted, "**Sources:**")

	resp = call(t, app, "POST", "/api/chatbot/v1/ask", dto.AskRequest{
		Question:  "Which court decided it?",
		SessionId: first.Data.SessionId,
	})
	require.Equal(t, 200, resp.StatusCode)

	resp = call(t, app, "GET", "/api/chatbot/v1/sessions/"+first.Data.SessionId+"/summary", nil)
	require.Equal(t, 200, resp.StatusCode)
	var summary serverutils.BaseResponse[dto.SessionSummaryResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 4, summary.Data.MessageCount)
	assert.Equal(t, 2, summary.Data.QuestionCount)
	assert.Equal(t, "Legal Q&A", summary.Data.Title)

	// system + question on the first turn; system + two history messages + question on the second.
	ollama.mu.Lock()
	assert.Equal(t, []int{2, 4}, ollama.sizes)
	ollama.mu.Unlock()
}

func TestAskUnknownSession(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, "POST", "/api/chatbot/v1/ask", dto.AskRequest{
		Question:  "Anything?",
		SessionId: "6f1c1a52-7d64-4bd8-9a57-2f1a5f0c7d11",
	})
	assert.Equal(t, 404, resp.StatusCode)
}
