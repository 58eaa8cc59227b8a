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

// Package passagedb indexes legal document passages and retrieves them with
// hybrid lexical and vector search.
package passagedb

import (
	"context"
	"log/slog"

	"github.com/poiesic/passagedb/ai"
	"github.com/poiesic/passagedb/ai/openai"
	"github.com/poiesic/passagedb/core"
	"github.com/poiesic/passagedb/ingestion"
	"github.com/poiesic/passagedb/search"
	"github.com/poiesic/passagedb/storage"
	"github.com/poiesic/passagedb/storage/sqlite"
)

// DB bundles an index store and an AI provider behind one handle.
type DB struct {
	store    *sqlite.Store
	provider ai.AIProvider
	logger   *slog.Logger
}

// DBOption configures a DB.
type DBOption func(*dbOptions)

type dbOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
}

// WithAIConfig sets the AI service configuration used to build the default
// provider.
func WithAIConfig(cfg *ai.Config) DBOption {
	return func(o *dbOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithAIProvider supplies a prebuilt AI provider, bypassing the default
// OpenAI-compatible one. Tests use this with the ai/mock provider.
func WithAIProvider(provider ai.AIProvider) DBOption {
	return func(o *dbOptions) {
		o.provider = provider
	}
}

// Open opens or creates a database at the given file path and applies the
// schema.
func Open(path string, opts ...DBOption) (*DB, error) {
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	return newDB(store, opts...)
}

// OpenMemory creates an in-memory database, used by tests and the seeder.
func OpenMemory(opts ...DBOption) (*DB, error) {
	store, err := sqlite.OpenMemory()
	if err != nil {
		return nil, err
	}
	return newDB(store, opts...)
}

func newDB(store *sqlite.Store, opts ...DBOption) (*DB, error) {
	options := &dbOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := store.EnsureSchema(context.Background()); err != nil {
		store.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	return &DB{
		store:    store,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// Store returns the underlying index store.
func (db *DB) Store() storage.IndexStore {
	return db.store
}

// NewIngestionPipeline creates an ingestion pipeline over this database.
func (db *DB) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.store, db.provider, opts...)
}

// NewRetriever creates a hybrid retriever over this database.
func (db *DB) NewRetriever(opts ...search.Option) (*search.Retriever, error) {
	return search.NewRetriever(db.store, opts...)
}

// Search embeds the query text and runs a hybrid retrieval with it. The
// same text feeds both the lexical arm and, via the embedder, the vector
// arm.
func (db *DB) Search(ctx context.Context, queryText string, filters storage.Filters, topK int) ([]*core.RankedHit, error) {
	vector, err := db.provider.Embedder().EmbedText(ctx, queryText)
	if err != nil {
		db.logger.Error("error embedding query", "err", err)
		return nil, err
	}

	retriever, err := db.NewRetriever()
	if err != nil {
		return nil, err
	}
	return retriever.Search(ctx, search.SearchRequest{
		QueryText:   queryText,
		QueryVector: vector,
		Filters:     filters,
		TopK:        topK,
	})
}

// GetDocument retrieves a document's metadata by ID.
func (db *DB) GetDocument(ctx context.Context, documentID string) (*core.Document, error) {
	return db.store.GetDocument(ctx, documentID)
}

// ListDocuments retrieves up to limit documents, most recently ingested
// first. A limit <= 0 applies the default of 100.
func (db *DB) ListDocuments(ctx context.Context, limit int) ([]*core.Document, error) {
	return db.store.ListDocuments(ctx, limit)
}

// GetPassages retrieves all passages of a document in span order.
func (db *DB) GetPassages(ctx context.Context, documentID string) ([]*core.Passage, error) {
	return db.store.GetPassagesByDocument(ctx, documentID)
}

// Close closes the AI provider and the store.
func (db *DB) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	return db.store.Close()
}
