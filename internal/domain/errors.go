package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrCollectionNotFound signals a missing collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDuplicateID signals a repeated record id within one ingestion batch.
	ErrDuplicateID = errors.New("duplicate record id")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbedderNotConfigured signals that no embedding provider was wired in.
	ErrEmbedderNotConfigured = errors.New("embedder not configured")
	// ErrStoreUnavailable signals that the backing vector store cannot be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")
	// ErrInvalidConfig signals a rejected configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")
)
