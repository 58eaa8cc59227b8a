package storage

import (
	"context"

	"github.com/poiesic/passagedb/core"
)

// Filters restricts a query to a subset of the passage collection. The
// predicates are conjunctive: a passage must match every non-empty field.
// A zero Filters value applies no restriction.
//
// Both query modes of an IndexStore apply Filters identically: a passage
// excluded from the lexical result set by a filter is excluded from the
// vector result set by the same filter, and vice versa.
type Filters struct {
	// Categories restricts results to passages in any of these categories.
	Categories []core.Category

	// DocumentIDs restricts results to passages of any of these documents.
	DocumentIDs []string
}

// Empty reports whether the filters apply no restriction.
func (f Filters) Empty() bool {
	return len(f.Categories) == 0 && len(f.DocumentIDs) == 0
}

// LexicalHit is one result of a lexical query: the passage plus the
// highlighted fragments the term-frequency engine produced for it.
type LexicalHit struct {
	Passage    *core.Passage
	Highlights []string
}

// ItemFailure identifies one passage that could not be indexed during a
// bulk write, with the reason.
type ItemFailure struct {
	PassageID string
	Err       error
}

// BulkResult reports the outcome of a bulk passage write. Partial success
// is a valid, non-fatal outcome: Indexed may be less than Attempted, with
// one ItemFailure per rejected passage.
type BulkResult struct {
	Attempted int
	Indexed   int
	Failures  []ItemFailure
}

// IndexStore manages the two collections of the passage index: document
// metadata and passages. The passage collection is indexed twice, for
// term-frequency search over text and nearest-neighbor search over
// embeddings. Implementations must be safe for concurrent use; the store
// holds no per-request state.
type IndexStore interface {
	// EnsureSchema idempotently creates both collections and their indexes
	// if absent. Safe to call on every process start; never overwrites an
	// existing collection's configuration.
	EnsureSchema(ctx context.Context) error

	// PutDocument upserts a document's metadata by DocumentID.
	// The write overwrites in full; there is no partial merge.
	PutDocument(ctx context.Context, doc *core.Document) error

	// PutPassagesBulk writes passages in a single batch. Individual item
	// failures are reported in the BulkResult but do not abort the batch.
	// The error return is reserved for whole-batch failures (store
	// unavailable, transaction failure). Callers batch tens to low hundreds
	// of passages per call; the store does not chunk further.
	PutPassagesBulk(ctx context.Context, passages []*core.Passage) (*BulkResult, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, documentID string) (*core.Document, error)

	// ListDocuments retrieves up to limit documents, most recently ingested
	// first. A limit <= 0 applies the default of 100.
	ListDocuments(ctx context.Context, limit int) ([]*core.Document, error)

	// GetPassagesByDocument retrieves all passages of a document, in span
	// order. Returns an empty slice for an unknown document.
	GetPassagesByDocument(ctx context.Context, documentID string) ([]*core.Passage, error)

	// LexicalQuery runs a term-frequency search over passage text.
	// Results are ordered best-first by the engine's relevance ranking and
	// limited to limit, each with its highlighted fragments.
	LexicalQuery(ctx context.Context, text string, f Filters, limit int) ([]*LexicalHit, error)

	// VectorQuery runs a nearest-neighbor search over passage embeddings.
	// Results are ordered by similarity to vector and limited to limit.
	// Filters semantics are identical to LexicalQuery.
	VectorQuery(ctx context.Context, vector []float32, f Filters, limit int) ([]*core.Passage, error)

	// Close closes the store and releases resources.
	Close() error
}
