package docqa

import (
	"errors"
	"fmt"
)

// Sentinel errors for API failures. Use errors.Is() to check; the full
// APIError remains available via errors.As().
var (
	ErrNotFound              = errors.New("docqa: not found")
	ErrCollectionNotFound    = errors.New("docqa: collection not found")
	ErrInvalidRequest        = errors.New("docqa: invalid request")
	ErrUnauthorized          = errors.New("docqa: unauthorized")
	ErrEmbedderNotConfigured = errors.New("docqa: embedder not configured")
	ErrEmbeddingProvider     = errors.New("docqa: embedding provider error")
	ErrStoreUnavailable      = errors.New("docqa: store unavailable")
)

// codeSentinels maps wire error codes to sentinels.
var codeSentinels = map[string]error{
	"not_found":                ErrNotFound,
	"collection_not_found":     ErrCollectionNotFound,
	"bad_request":              ErrInvalidRequest,
	"validation_failed":        ErrInvalidRequest,
	"duplicate_id":             ErrInvalidRequest,
	"unauthorized":             ErrUnauthorized,
	"embedder_not_configured":  ErrEmbedderNotConfigured,
	"embedding_provider_error": ErrEmbeddingProvider,
	"store_unavailable":        ErrStoreUnavailable,
}

// APIError is a structured error returned by the service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("docqa: %s (%s, http %d)", e.Message, e.Code, e.Status)
}

// Unwrap maps the wire code to a sentinel so errors.Is works across the
// client boundary.
func (e *APIError) Unwrap() error {
	if s, ok := codeSentinels[e.Code]; ok {
		return s
	}
	return nil
}
