package mock

import (
	"context"
	"strings"

	"github.com/poiesic/passagedb/core"
)

// MockPassageExtractor is a test double for ai.PassageExtractor.
// It allows custom behavior injection via function fields.
type MockPassageExtractor struct {
	// ExtractPassagesFunc is called by ExtractPassages if set.
	// If nil, uses default paragraph-splitting behavior.
	ExtractPassagesFunc func(ctx context.Context, text string) ([]core.CandidatePassage, error)

	callCount int
}

// NewMockPassageExtractor creates a mock extractor with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockPassageExtractor() *MockPassageExtractor {
	return &MockPassageExtractor{}
}

// ExtractPassages splits the text into paragraphs and returns each paragraph
// as one candidate of category "other" with an exact offset hint. This keeps
// pipeline tests deterministic without an LLM.
func (m *MockPassageExtractor) ExtractPassages(ctx context.Context, text string) ([]core.CandidatePassage, error) {
	m.callCount++

	if m.ExtractPassagesFunc != nil {
		return m.ExtractPassagesFunc(ctx, text)
	}

	var candidates []core.CandidatePassage
	offset := 0
	for _, para := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(para)
		if trimmed != "" {
			candidates = append(candidates, core.CandidatePassage{
				Category:        string(core.CategoryOther),
				Text:            trimmed,
				PageNumber:      1,
				CharOffsetStart: offset + strings.Index(para, trimmed),
				Confidence:      0.9,
			})
		}
		offset += len(para) + 2
	}
	return candidates, nil
}

// CallCount returns the number of times ExtractPassages was called.
func (m *MockPassageExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockPassageExtractor) Reset() {
	m.callCount = 0
	m.ExtractPassagesFunc = nil
}
