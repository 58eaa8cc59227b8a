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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/passagedb/ai"
	"github.com/poiesic/passagedb/core"
	"github.com/poiesic/passagedb/storage"
)

// defaultEmbedBatchSize is the number of passage texts sent to the embedder
// in one request.
const defaultEmbedBatchSize = 32

// Pipeline orchestrates document ingestion: parsing, passage extraction,
// normalization, offset resolution, embedding, and indexing.
type Pipeline struct {
	store          storage.IndexStore
	embedder       ai.Embedder
	extractor      ai.PassageExtractor
	parser         Parser
	embeddingPool  *ants.Pool
	embedBatchSize int
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithParser sets the document parser.
// Default is TextParser.
func WithParser(parser Parser) Option {
	return func(p *Pipeline) error {
		if parser == nil {
			parser = TextParser{}
		}
		p.parser = parser
		return nil
	}
}

// WithEmbedBatchSize sets the number of texts embedded per request.
// Default is 32.
func WithEmbedBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = defaultEmbedBatchSize
		}
		p.embedBatchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store storage.IndexStore, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:          store,
		embedder:       provider.Embedder(),
		extractor:      provider.PassageExtractor(),
		parser:         TextParser{},
		embeddingPool:  pool,
		embedBatchSize: defaultEmbedBatchSize,
		logger:         slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestDocument parses and indexes one document. Malformed extraction
// candidates are skipped with a warning; per-passage indexing failures are
// logged and reflected in the document's PassageCount but do not fail the
// ingestion. A document from which nothing could be extracted is still
// recorded, with a PassageCount of zero.
func (p *Pipeline) IngestDocument(ctx context.Context, raw []byte, filename string) (*core.Document, error) {
	text, pageCount, err := p.parser.Parse(raw, filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}
	if pageCount < 1 {
		pageCount = 1
	}

	documentID := uuid.NewString()
	p.logger.Info("ingesting document", "documentID", documentID, "filename", filename, "pages", pageCount)

	candidates, err := p.extractor.ExtractPassages(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract passages from %s: %w", filename, err)
	}

	passages := p.buildPassages(documentID, text, pageCount, candidates)

	if len(passages) > 0 {
		if err := p.embedPassages(ctx, passages); err != nil {
			return nil, err
		}
	}

	doc := &core.Document{
		DocumentID:   documentID,
		Filename:     filename,
		IngestedAt:   time.Now().UTC(),
		PageCount:    pageCount,
		SourceLength: len(text),
	}

	if len(passages) > 0 {
		result, err := p.store.PutPassagesBulk(ctx, passages)
		if err != nil {
			return nil, fmt.Errorf("index passages of %s: %w", filename, err)
		}
		doc.PassageCount = result.Indexed
		doc.CategoriesFound = core.UniqueCategories(indexedPassages(passages, result))
		if len(result.Failures) > 0 {
			p.logger.Warn("some passages were not indexed",
				"documentID", documentID,
				"attempted", result.Attempted,
				"indexed", result.Indexed)
		}
	}

	if err := p.store.PutDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("record document %s: %w", filename, err)
	}

	p.logger.Info("document ingested",
		"documentID", documentID,
		"passages", doc.PassageCount,
		"categories", len(doc.CategoriesFound))

	return doc, nil
}

// buildPassages normalizes extraction candidates and resolves their spans
// against the source text. Malformed candidates are skipped with a warning.
func (p *Pipeline) buildPassages(documentID, text string, pageCount int, candidates []core.CandidatePassage) []*core.Passage {
	passages := make([]*core.Passage, 0, len(candidates))
	for i, cand := range candidates {
		normalized, err := core.NormalizeCandidate(cand)
		if err != nil {
			p.logger.Warn("skipping malformed candidate", "index", i, "err", err)
			continue
		}

		start, end := core.ResolveSpan(text, normalized.Text, normalized.CharOffsetStart)

		page := normalized.PageNumber
		if pageCount > 1 {
			// The resolved offset is authoritative for multi-page sources.
			page = pageNumberAt(text, start)
		}

		passages = append(passages, &core.Passage{
			PassageID:    uuid.NewString(),
			DocumentID:   documentID,
			Category:     core.CategoryFromString(normalized.Category),
			Text:         normalized.Text,
			SectionLabel: normalized.SectionLabel,
			PageNumber:   page,
			CharStart:    start,
			CharEnd:      end,
			Confidence:   normalized.Confidence,
		})
	}
	return passages
}

// embedPassages fills the Embedding field of every passage, batching the
// texts and running batches concurrently on the worker pool. Passage order
// is preserved; a failure of any batch fails the whole call.
func (p *Pipeline) embedPassages(ctx context.Context, passages []*core.Passage) error {
	texts := make([]string, len(passages))
	for i, pass := range passages {
		texts[i] = pass.Text
	}

	embeddings := make([][]float32, len(texts))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for offset := 0; offset < len(texts); offset += p.embedBatchSize {
		batchStart := offset
		batchEnd := offset + p.embedBatchSize
		if batchEnd > len(texts) {
			batchEnd = len(texts)
		}

		wg.Add(1)
		submitErr := p.embeddingPool.Submit(func() {
			defer wg.Done()

			batch := texts[batchStart:batchEnd]
			vectors, err := p.embedder.EmbedTexts(ctx, batch)
			if err == nil && len(vectors) != len(batch) {
				err = fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(vectors))
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(embeddings[batchStart:batchEnd], vectors)
		})
		if submitErr != nil {
			wg.Done()
			return fmt.Errorf("submit embedding batch: %w", submitErr)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("embed passages: %w", firstErr)
	}

	for i := range passages {
		passages[i].Embedding = embeddings[i]
	}
	return nil
}

// indexedPassages filters out the passages the bulk write rejected.
func indexedPassages(passages []*core.Passage, result *storage.BulkResult) []*core.Passage {
	if len(result.Failures) == 0 {
		return passages
	}
	failed := make(map[string]bool, len(result.Failures))
	for _, f := range result.Failures {
		failed[f.PassageID] = true
	}
	kept := make([]*core.Passage, 0, len(passages))
	for _, p := range passages {
		if !failed[p.PassageID] {
			kept = append(kept, p)
		}
	}
	return kept
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
