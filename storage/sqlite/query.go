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

package sqlite

import (
	"context"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/poiesic/passagedb/core"
	"github.com/poiesic/passagedb/storage"
)

// defaultQueryLimit caps queries when the caller passes no limit.
const defaultQueryLimit = 10

// filterClause renders Filters into a SQL fragment against the aliased
// passages table p, plus the bound arguments. Both query modes build their
// WHERE predicate through this one function, which is what guarantees the
// identical-filter-semantics contract.
func filterClause(f storage.Filters) (string, []any) {
	var sb strings.Builder
	var args []any

	if len(f.Categories) > 0 {
		sb.WriteString(" AND p.category IN (")
		sb.WriteString(placeholders(len(f.Categories)))
		sb.WriteString(")")
		for _, c := range f.Categories {
			args = append(args, string(c))
		}
	}
	if len(f.DocumentIDs) > 0 {
		sb.WriteString(" AND p.document_id IN (")
		sb.WriteString(placeholders(len(f.DocumentIDs)))
		sb.WriteString(")")
		for _, id := range f.DocumentIDs {
			args = append(args, id)
		}
	}

	return sb.String(), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// LexicalQuery runs a term-frequency search over passage text via FTS5.
// Results are ordered best-first by BM25 rank. A query with no searchable
// terms returns an empty result, not an error.
func (s *Store) LexicalQuery(ctx context.Context, text string, f storage.Filters, limit int) ([]*storage.LexicalHit, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	match := ftsMatchExpr(text)
	if match == "" {
		return []*storage.LexicalHit{}, nil
	}

	where, filterArgs := filterClause(f)
	query := `SELECT p.passage_id, p.document_id, p.category, p.text,
			p.section_label, p.page_number, p.char_start, p.char_end,
			p.confidence,
			snippet(passages_fts, 0, '<mark>', '</mark>', '…', 32)
		 FROM passages_fts
		 JOIN passages p ON p.rowid = passages_fts.rowid
		 WHERE passages_fts MATCH ?` + where + `
		 ORDER BY passages_fts.rank
		 LIMIT ?`

	args := append([]any{match}, filterArgs...)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: lexical query: %w", storage.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]*storage.LexicalHit, 0, limit)
	for rows.Next() {
		var p core.Passage
		var category, snippet string
		if err := rows.Scan(&p.PassageID, &p.DocumentID, &category, &p.Text,
			&p.SectionLabel, &p.PageNumber, &p.CharStart, &p.CharEnd,
			&p.Confidence, &snippet); err != nil {
			s.logger.Warn("skipping malformed passage record", "err", err)
			continue
		}
		p.Category = core.CategoryFromString(category)

		hit := &storage.LexicalHit{Passage: &p}
		if snippet != "" {
			hit.Highlights = []string{snippet}
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: lexical query: %w", storage.ErrStoreUnavailable, err)
	}
	return hits, nil
}

// VectorQuery runs a nearest-neighbor search over passage embeddings via
// sqlite-vec. The KNN scan cannot see the passage columns, so when filters
// are present it over-fetches neighbors and the outer join narrows them
// down; with very selective filters the result may undershoot limit.
func (s *Store) VectorQuery(ctx context.Context, vector []float32, f storage.Filters, limit int) ([]*core.Passage, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if len(vector) != s.dims {
		return nil, fmt.Errorf("%w: vector has %d dims, index has %d", storage.ErrInvalidQuery, len(vector), s.dims)
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize query vector: %w", storage.ErrInvalidQuery, err)
	}

	k := limit
	if !f.Empty() {
		k = limit * 4
	}

	where, filterArgs := filterClause(f)
	query := `WITH knn AS (
			SELECT passage_id, distance
			FROM passage_vectors
			WHERE embedding MATCH ? AND k = ?
			ORDER BY distance
		)
		SELECT p.passage_id, p.document_id, p.category, p.text,
			p.section_label, p.page_number, p.char_start, p.char_end,
			p.confidence
		FROM knn
		JOIN passages p ON p.passage_id = knn.passage_id
		WHERE 1=1` + where + `
		ORDER BY knn.distance
		LIMIT ?`

	args := append([]any{blob, k}, filterArgs...)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: vector query: %w", storage.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	passages := make([]*core.Passage, 0, limit)
	for rows.Next() {
		var p core.Passage
		var category string
		if err := rows.Scan(&p.PassageID, &p.DocumentID, &category, &p.Text,
			&p.SectionLabel, &p.PageNumber, &p.CharStart, &p.CharEnd,
			&p.Confidence); err != nil {
			s.logger.Warn("skipping malformed passage record", "err", err)
			continue
		}
		p.Category = core.CategoryFromString(category)
		passages = append(passages, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: vector query: %w", storage.ErrStoreUnavailable, err)
	}
	return passages, nil
}
