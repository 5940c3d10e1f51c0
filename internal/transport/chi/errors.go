package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelStatus maps domain sentinels to HTTP status and stable error codes.
var sentinelStatus = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrCollectionNotFound, http.StatusNotFound, "collection_not_found"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrDuplicateID, http.StatusBadRequest, "duplicate_id"},
	{domain.ErrInvalidConfig, http.StatusBadRequest, "validation_failed"},
	{domain.ErrEmbedderNotConfigured, http.StatusNotImplemented, "embedder_not_configured"},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"},
	{domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
}

// handleDomainError maps a usecase error to a response. Sentinel messages are
// safe to return; anything else is an opaque internal error.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, m := range sentinelStatus {
		if errors.Is(err, m.sentinel) {
			s.logger.Warn("domain error", zap.Error(err))
			writeError(w, m.status, m.code, m.sentinel.Error())
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
