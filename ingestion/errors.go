package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a pipeline is created without a store.
	ErrStoreRequired = errors.New("index store is required")

	// ErrAIProviderRequired is returned when a pipeline is created without an
	// AI provider.
	ErrAIProviderRequired = errors.New("AI provider is required")

	// ErrEmptyDocument is returned when the parsed document contains no text.
	ErrEmptyDocument = errors.New("document contains no text")
)
