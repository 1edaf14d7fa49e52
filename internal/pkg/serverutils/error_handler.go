package serverutils

import (
	"encoding/json"
	"errors"

	"legal-rag-be/internal/entity"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into a BaseResponse
// with the matching HTTP status.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		res := ErrorResponseFor(err)
		return ctx.Status(res.Code).JSON(res)
	}
}

// ErrorResponseFor builds the error envelope for err. Messages of unmapped
// errors and upstream rejections are not exposed. A failed ask that created
// its own session reports the session id in data.
func ErrorResponseFor(err error) BaseResponse[any] {
	code := StatusFor(err)
	message := err.Error()
	switch code {
	case fiber.StatusInternalServerError:
		message = "Internal server error"
	case fiber.StatusBadGateway:
		message = entity.ErrCompletionRejected.Error()
	}

	res := ErrorResponse(code, message)
	var answerErr *entity.AnswerError
	if errors.As(err, &answerErr) {
		res.Data = fiber.Map{"session_id": answerErr.SessionId}
	}
	return res
}

// StatusFor maps the domain error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	var (
		validationErr *ValidationError
		retrievalErr  *entity.RetrievalError
		syntaxErr     *json.SyntaxError
		typeErr       *json.UnmarshalTypeError
		fiberErr      *fiber.Error
	)

	switch {
	case errors.Is(err, entity.ErrSessionNotFound), errors.Is(err, entity.ErrDocumentNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, entity.ErrInvalidArgument),
		errors.As(err, &validationErr),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr):
		return fiber.StatusBadRequest
	case errors.Is(err, entity.ErrCompletionRejected):
		return fiber.StatusBadGateway
	case errors.As(err, &retrievalErr), entity.IsRetryable(err):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
