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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPassage() *Passage {
	return &Passage{
		PassageID:  "p-1",
		DocumentID: "d-1",
		Category:   CategoryIndemnity,
		Text:       "some passage text",
		PageNumber: 1,
		CharStart:  0,
		CharEnd:    17,
		Confidence: 0.9,
		Embedding:  make([]float32, EmbeddingDims),
	}
}

func TestValidatePassage(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidatePassage(validPassage()))
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidatePassage(nil), ErrInvalidPassage)
	})

	t.Run("empty ids", func(t *testing.T) {
		p := validPassage()
		p.PassageID = ""
		assert.ErrorIs(t, ValidatePassage(p), ErrEmptyID)

		p = validPassage()
		p.DocumentID = ""
		assert.ErrorIs(t, ValidatePassage(p), ErrEmptyID)
	})

	t.Run("empty text", func(t *testing.T) {
		p := validPassage()
		p.Text = ""
		assert.ErrorIs(t, ValidatePassage(p), ErrEmptyText)
	})

	t.Run("inverted span", func(t *testing.T) {
		p := validPassage()
		p.CharStart = 10
		p.CharEnd = 5
		assert.ErrorIs(t, ValidatePassage(p), ErrInvalidSpan)
	})

	t.Run("negative start", func(t *testing.T) {
		p := validPassage()
		p.CharStart = -1
		assert.ErrorIs(t, ValidatePassage(p), ErrInvalidSpan)
	})

	t.Run("wrong embedding dims", func(t *testing.T) {
		p := validPassage()
		p.Embedding = make([]float32, 12)
		assert.ErrorIs(t, ValidatePassage(p), ErrWrongEmbeddingDims)
	})

	t.Run("empty embedding allowed pre-encoding", func(t *testing.T) {
		p := validPassage()
		p.Embedding = nil
		assert.NoError(t, ValidatePassage(p))
	})
}

func TestValidateDocument(t *testing.T) {
	doc := &Document{
		DocumentID: "d-1",
		Filename:   "contract.txt",
		IngestedAt: time.Now().UTC(),
		PageCount:  3,
	}
	assert.NoError(t, ValidateDocument(doc))

	t.Run("zero pages rejected", func(t *testing.T) {
		d := *doc
		d.PageCount = 0
		assert.ErrorIs(t, ValidateDocument(&d), ErrInvalidPageCount)
	})

	t.Run("zero passages allowed", func(t *testing.T) {
		d := *doc
		d.PassageCount = 0
		assert.NoError(t, ValidateDocument(&d))
	})
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.5))
	assert.Equal(t, 1.0, ClampConfidence(1.5))
	assert.Equal(t, 0.8, ClampConfidence(0.8))
}

func TestNormalizeCandidate(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		c, err := NormalizeCandidate(CandidatePassage{
			Category:   "limitation of liability",
			Text:       "  padded text  ",
			PageNumber: 0,
			Confidence: 1.7,
		})
		require.NoError(t, err)
		assert.Equal(t, "other", c.Category)
		assert.Equal(t, "padded text", c.Text)
		assert.Equal(t, 1, c.PageNumber)
		assert.Equal(t, 1.0, c.Confidence)
	})

	t.Run("known category preserved", func(t *testing.T) {
		c, err := NormalizeCandidate(CandidatePassage{Category: "termination", Text: "t", Confidence: 0.5})
		require.NoError(t, err)
		assert.Equal(t, "termination", c.Category)
	})

	t.Run("empty text is malformed", func(t *testing.T) {
		_, err := NormalizeCandidate(CandidatePassage{Text: "   "})
		assert.ErrorIs(t, err, ErrMalformedCandidate)
	})
}
