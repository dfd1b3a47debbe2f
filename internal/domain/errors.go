package domain

import "errors"

var (
	// ErrInvalidRequest signals a malformed caller request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrProviderFailure signals that a search provider failed or returned a non-success status.
	ErrProviderFailure = errors.New("search provider failure")
	// ErrEmbeddingUnavailable signals that the embedding engine could not be initialized or used.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrInvalidRouting signals a routing configuration without a catch-all rule.
	ErrInvalidRouting = errors.New("invalid routing configuration")
	// ErrUnknownProfile signals a reference to a model profile that is not configured.
	ErrUnknownProfile = errors.New("unknown model profile")
)
