package entity

import (
	"errors"
	"fmt"
)

var (
	ErrEmbeddingService   = errors.New("embedding service unavailable")
	ErrCompletionService  = errors.New("completion service unavailable")
	// ErrCompletionRejected is a completion failure that retrying will not fix,
	// such as a rejected credential or a malformed request.
	ErrCompletionRejected = errors.New("completion request rejected")
	ErrIndexUnavailable   = errors.New("vector index unavailable")
	ErrSessionNotFound    = errors.New("session not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// IngestionError marks a document that could not be ingested. Batch ingestion
// records it and moves on to the next document.
type IngestionError struct {
	Filename string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Filename, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// RetrievalError means the embedding provider or the index failed while
// answering a query. It is distinct from an empty result set.
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// AnswerError carries the id of the session an ask created implicitly, so a
// caller can retry or delete it after a failed turn.
type AnswerError struct {
	SessionId string
	Err       error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("answer in session %s: %v", e.SessionId, e.Err)
}

func (e *AnswerError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err stems from a transient upstream failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrEmbeddingService) ||
		errors.Is(err, ErrCompletionService) ||
		errors.Is(err, ErrIndexUnavailable)
}
