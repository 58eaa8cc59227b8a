// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidatePassage validates a Passage according to domain rules.
//
// Validation rules:
//   - PassageID and DocumentID must not be empty
//   - Text must not be empty
//   - 0 <= CharStart <= CharEnd
//   - PageNumber must be at least 1
//   - Embedding, when present, must be exactly EmbeddingDims long
//
// Confidence is not validated here: it is clamped at the ingestion
// boundary, never rejected.
func ValidatePassage(p *Passage) error {
	if p == nil {
		return fmt.Errorf("%w: passage is nil", ErrInvalidPassage)
	}
	if p.PassageID == "" || p.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyID)
	}
	if p.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyText)
	}
	if p.CharStart < 0 || p.CharStart > p.CharEnd {
		return fmt.Errorf("%w: %w: [%d, %d)", ErrInvalidPassage, ErrInvalidSpan, p.CharStart, p.CharEnd)
	}
	if p.PageNumber < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrInvalidPageCount)
	}
	if len(p.Embedding) != 0 && len(p.Embedding) != EmbeddingDims {
		return fmt.Errorf("%w: %w: got %d, want %d",
			ErrInvalidPassage, ErrWrongEmbeddingDims, len(p.Embedding), EmbeddingDims)
	}
	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - DocumentID and Filename must not be empty
//   - PageCount must be at least 1
//   - PassageCount and SourceLength must not be negative
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if d.DocumentID == "" || d.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyID)
	}
	if d.PageCount < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidPageCount)
	}
	if d.PassageCount < 0 || d.SourceLength < 0 {
		return fmt.Errorf("%w: negative count", ErrInvalidDocument)
	}
	return nil
}

// ClampConfidence forces a confidence value into [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// NormalizeCandidate applies the defaulting rules for untrusted extractor
// output: unknown categories map to CategoryOther, an absent page number
// defaults to 1, confidence is clamped to [0, 1], and surrounding
// whitespace is stripped from the text.
//
// Returns ErrMalformedCandidate when the candidate has no usable text.
func NormalizeCandidate(c CandidatePassage) (CandidatePassage, error) {
	c.Text = strings.TrimSpace(c.Text)
	if c.Text == "" {
		return c, fmt.Errorf("%w: empty text", ErrMalformedCandidate)
	}
	c.Category = string(CategoryFromString(c.Category))
	if c.PageNumber < 1 {
		c.PageNumber = 1
	}
	c.Confidence = ClampConfidence(c.Confidence)
	return c, nil
}

// UniqueCategories returns the sorted set of categories present in passages.
func UniqueCategories(passages []*Passage) []Category {
	seen := make(map[Category]bool, len(passages))
	for _, p := range passages {
		if p != nil {
			seen[p.Category] = true
		}
	}
	out := make([]Category, 0, len(seen))
	for _, c := range Categories() {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}
