package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"legal-rag-be/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"session not found", fmt.Errorf("%w: abc", entity.ErrSessionNotFound), 404},
		{"document not found", entity.ErrDocumentNotFound, 404},
		{"invalid argument", fmt.Errorf("%w: empty query", entity.ErrInvalidArgument), 400},
		{"validation", &ValidationError{Fields: map[string]string{"AskRequest.Question": "required"}}, 400},
		{"malformed json", &json.SyntaxError{Offset: 1}, 400},
		{"retrieval", &entity.RetrievalError{Query: "q", Err: errors.New("boom")}, 503},
		{"completion down", fmt.Errorf("%w: ollama", entity.ErrCompletionService), 503},
		{"index down", entity.ErrIndexUnavailable, 503},
		{"completion rejected", fmt.Errorf("%w: openai status 401", entity.ErrCompletionRejected), 502},
		{"implicit session failure", &entity.AnswerError{SessionId: "s1", Err: entity.ErrCompletionService}, 503},
		{"fiber error", fiber.ErrUpgradeRequired, 426},
		{"unknown", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

type sampleRequest struct {
	Question string `json:"question" validate:"required,max=10"`
	TopK     int    `json:"top_k" validate:"omitempty,min=1,max=20"`
}

func TestValidateRequest(t *testing.T) {
	require.NoError(t, ValidateRequest(sampleRequest{Question: "why"}))

	err := ValidateRequest(sampleRequest{TopK: 99})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["sampleRequest.Question"])
	assert.Equal(t, "max", verr.Fields["sampleRequest.TopK"])
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(ctx *fiber.Ctx) error {
		return fmt.Errorf("%w: abc", entity.ErrSessionNotFound)
	})
	app.Get("/panicky", func(ctx *fiber.Ctx) error {
		return errors.New("connection reset by peer")
	})
	app.Get("/ok", func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("fine", 42))
	})

	t.Run("not found envelope", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)

		var body BaseResponse[any]
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.False(t, body.Success)
		assert.Equal(t, 404, body.Code)
		assert.Contains(t, body.Message, "session not found")
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/panicky", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)

		var body BaseResponse[any]
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Internal server error", body.Message)
	})

	t.Run("success passes through", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body BaseResponse[int]
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, 42, body.Data)
	})
}

func TestErrorResponseFor(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
		wantData    any
	}{
		{"unknown is hidden", errors.New("pq: password authentication failed"), 500, "Internal server error", nil},
		{"rejection body is hidden", fmt.Errorf("%w: openai status 401: invalid key sk-123", entity.ErrCompletionRejected), 502, "completion request rejected", nil},
		{"not found is shown", fmt.Errorf("%w: abc", entity.ErrSessionNotFound), 404, "session not found: abc", nil},
		{
			"implicit session id is reported",
			&entity.AnswerError{SessionId: "s1", Err: fmt.Errorf("%w: timeout", entity.ErrCompletionService)},
			503,
			"answer in session s1: completion service unavailable: timeout",
			fiber.Map{"session_id": "s1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ErrorResponseFor(tt.err)
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantCode, res.Code)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.Equal(t, tt.wantData, res.Data)
		})
	}
}
