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

import "errors"

// Domain validation errors
var (
	// ErrInvalidPassage indicates a Passage failed validation.
	ErrInvalidPassage = errors.New("invalid passage")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyID indicates a required identifier field is empty.
	ErrEmptyID = errors.New("identifier cannot be empty")

	// ErrInvalidSpan indicates a character span with start > end or start < 0.
	ErrInvalidSpan = errors.New("invalid character span")

	// ErrInvalidPageCount indicates a page count below 1.
	ErrInvalidPageCount = errors.New("page count must be at least 1")

	// ErrWrongEmbeddingDims indicates an embedding whose length does not
	// match EmbeddingDims.
	ErrWrongEmbeddingDims = errors.New("embedding has wrong dimensions")

	// ErrMalformedCandidate indicates an extracted candidate passage that
	// cannot be normalized (for example, empty text). Malformed candidates
	// are skipped with a warning, never fatal to ingestion.
	ErrMalformedCandidate = errors.New("malformed candidate passage")
)
