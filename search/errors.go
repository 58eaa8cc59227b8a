package search

import "errors"

var (
	// ErrStoreRequired is returned when a retriever is created without a store.
	ErrStoreRequired = errors.New("index store is required")

	// ErrEmptyQuery is returned when the request carries no query text.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrWrongVectorDims is returned when the query vector's dimension does
	// not match the embedding space of the index.
	ErrWrongVectorDims = errors.New("query vector has wrong dimensions")

	// ErrInvalidTopK is returned when the requested result count is outside
	// the accepted range.
	ErrInvalidTopK = errors.New("top_k out of range")
)
