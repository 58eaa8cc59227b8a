package ai

import (
	"context"

	"github.com/poiesic/passagedb/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector has exactly core.EmbeddingDims elements.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts, 1:1. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// PassageExtractor proposes candidate passages from a document's extracted text.
// Implementations must be thread-safe for concurrent use.
type PassageExtractor interface {
	// ExtractPassages analyzes the full text of a document and returns the
	// candidate passages it contains, each with a category label and an
	// approximate character offset. Candidates are untrusted: any field may
	// be absent or malformed, and offsets are hints that the ingestion
	// post-processor reconciles against the source text.
	// Returns an empty slice if no passages are found.
	ExtractPassages(ctx context.Context, text string) ([]core.CandidatePassage, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// PassageExtractor instances, ensuring they share configuration and
// resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// PassageExtractor returns the passage extraction service.
	// The returned PassageExtractor is safe for concurrent use.
	PassageExtractor() PassageExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
