package mock

import (
	"github.com/poiesic/passagedb/ai"
)

// MockProvider is a test double for ai.AIProvider that serves mock services.
type MockProvider struct {
	embedder  *MockEmbedder
	extractor *MockPassageExtractor
}

// NewMockProvider creates a provider backed by mock services.
// Returns the interface since it is the primary entry point; use
// GetMockEmbedder/GetMockExtractor to reach the concrete types for
// assertions and behavior injection.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		extractor: NewMockPassageExtractor(),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// PassageExtractor returns the mock extraction service.
func (p *MockProvider) PassageExtractor() ai.PassageExtractor {
	return p.extractor
}

// GetMockEmbedder returns the concrete mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockExtractor returns the concrete mock extractor for test assertions.
func (p *MockProvider) GetMockExtractor() *MockPassageExtractor {
	return p.extractor
}

// Close is a no-op for mocks.
func (p *MockProvider) Close() error {
	return nil
}
