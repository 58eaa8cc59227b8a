package core

import (
	"time"
)

// EmbeddingDims is the fixed length of every passage embedding vector.
// It matches the output dimension of the embedding model; every vector
// stored in the index must have exactly this length.
const EmbeddingDims = 384

// Category classifies a passage into one of a fixed set of labels.
// Unrecognized labels map to CategoryOther, never to an error.
type Category string

const (
	CategoryIndemnity       Category = "indemnity"
	CategoryLiabilityCap    Category = "liability_cap"
	CategoryTermination     Category = "termination"
	CategoryConfidentiality Category = "confidentiality"
	CategoryIPAssignment    Category = "ip_assignment"
	CategoryGoverningLaw    Category = "governing_law"
	CategoryDataProtection  Category = "data_protection"
	CategoryForceMajeure    Category = "force_majeure"
	CategoryOther           Category = "other"
)

// Categories returns all valid category values.
func Categories() []Category {
	return []Category{
		CategoryIndemnity,
		CategoryLiabilityCap,
		CategoryTermination,
		CategoryConfidentiality,
		CategoryIPAssignment,
		CategoryGoverningLaw,
		CategoryDataProtection,
		CategoryForceMajeure,
		CategoryOther,
	}
}

// CategoryFromString maps a raw label to a Category.
// Unknown labels fall back to CategoryOther.
func CategoryFromString(s string) Category {
	c := Category(s)
	for _, valid := range Categories() {
		if c == valid {
			return c
		}
	}
	return CategoryOther
}

// Document holds the metadata for one ingested file.
// All fields are immutable once written except PassageCount and
// CategoriesFound, which are set exactly once at ingestion completion.
type Document struct {
	DocumentID      string
	Filename        string
	IngestedAt      time.Time
	PageCount       int // >= 1
	PassageCount    int
	CategoriesFound []Category
	SourceLength    int // character count of the extracted text
}

// Passage is one indexed excerpt of a document. Passages are created in
// batch during ingestion post-processing and are immutable thereafter.
//
// CharStart/CharEnd form a half-open span into the parent document's
// extracted text. When offset resolution succeeded, slicing that span from
// the source reproduces Text exactly; when resolution fell back to the
// caller's hint the span is unverified and callers must not rely on
// slice-equality.
type Passage struct {
	PassageID    string
	DocumentID   string
	Category     Category
	Text         string
	SectionLabel string
	PageNumber   int // >= 1
	CharStart    int
	CharEnd      int
	Confidence   float64   // clamped to [0, 1]
	Embedding    []float32 // exactly EmbeddingDims long
}

// CandidatePassage is the untrusted shape produced by the LLM extractor.
// Any field may be absent or malformed; ingestion normalizes candidates
// into Passages, defaulting and clamping as needed.
type CandidatePassage struct {
	Category        string
	Text            string
	SectionLabel    string
	PageNumber      int     // 0 means absent, defaults to 1
	CharOffsetStart int     // approximate hint, 0 when absent
	Confidence      float64 // clamped to [0, 1]
}

// RankedHit wraps a passage with its fusion score for one query.
// Scores are non-negative, have no fixed upper bound, and are not
// comparable across queries. Hits are created fresh per query and
// never persisted.
type RankedHit struct {
	Passage     *Passage
	FusionScore float64
	Highlights  []string
}
