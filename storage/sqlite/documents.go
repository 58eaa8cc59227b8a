package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/passagedb/core"
	"github.com/poiesic/passagedb/storage"
)

// defaultListLimit caps ListDocuments when the caller passes no limit.
const defaultListLimit = 100

// PutDocument upserts a document by its ID, overwriting in full.
func (s *Store) PutDocument(ctx context.Context, doc *core.Document) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}

	categories, err := json.Marshal(doc.CategoriesFound)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents
			(document_id, filename, ingested_at, page_count, passage_count, categories_found, source_length)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.DocumentID,
		doc.Filename,
		doc.IngestedAt.UTC().Format(time.RFC3339Nano),
		doc.PageCount,
		doc.PassageCount,
		string(categories),
		doc.SourceLength,
	)
	if err != nil {
		return fmt.Errorf("%w: put document: %w", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
// Returns storage.ErrNotFound if the document doesn't exist.
func (s *Store) GetDocument(ctx context.Context, documentID string) (*core.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT document_id, filename, ingested_at, page_count, passage_count, categories_found, source_length
		 FROM documents WHERE document_id = ?`, documentID)

	doc, err := s.scanDocument(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %q", storage.ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get document: %w", storage.ErrStoreUnavailable, err)
	}
	return doc, nil
}

// ListDocuments retrieves up to limit documents, most recently ingested first.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]*core.Document, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, filename, ingested_at, page_count, passage_count, categories_found, source_length
		 FROM documents ORDER BY ingested_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %w", storage.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*core.Document, 0, limit)
	for rows.Next() {
		doc, err := s.scanDocument(rows.Scan)
		if err != nil {
			s.logger.Warn("skipping malformed document record", "err", err)
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents: %w", storage.ErrStoreUnavailable, err)
	}
	return docs, nil
}

func (s *Store) scanDocument(scan func(dest ...any) error) (*core.Document, error) {
	var doc core.Document
	var ingestedAt, categories string

	if err := scan(&doc.DocumentID, &doc.Filename, &ingestedAt, &doc.PageCount,
		&doc.PassageCount, &categories, &doc.SourceLength); err != nil {
		return nil, err
	}
	if doc.DocumentID == "" || doc.Filename == "" {
		return nil, fmt.Errorf("%w: missing document fields", storage.ErrMalformedRecord)
	}

	ts, err := time.Parse(time.RFC3339Nano, ingestedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: ingested_at %q", storage.ErrMalformedRecord, ingestedAt)
	}
	doc.IngestedAt = ts

	if err := json.Unmarshal([]byte(categories), &doc.CategoriesFound); err != nil {
		return nil, fmt.Errorf("%w: categories_found: %w", storage.ErrMalformedRecord, err)
	}
	return &doc, nil
}
