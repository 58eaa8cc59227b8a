package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/poiesic/passagedb/core"
	"github.com/poiesic/passagedb/storage"
)

// passagesByDocumentCap bounds GetPassagesByDocument; no real document
// produces more.
const passagesByDocumentCap = 500

// PutPassagesBulk writes passages in one transaction. Passages that fail
// validation or insertion are reported in the BulkResult and logged, but do
// not abort the batch. The error return is reserved for whole-batch
// failures.
func (s *Store) PutPassagesBulk(ctx context.Context, passages []*core.Passage) (*storage.BulkResult, error) {
	result := &storage.BulkResult{Attempted: len(passages)}
	if len(passages) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin bulk write: %w", storage.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	passageStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO passages
			(passage_id, document_id, category, text, section_label, page_number,
			 char_start, char_end, confidence, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare bulk write: %w", storage.ErrStoreUnavailable, err)
	}
	defer func() { _ = passageStmt.Close() }()

	vecDelStmt, err := tx.PrepareContext(ctx,
		`DELETE FROM passage_vectors WHERE passage_id = ?`)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare bulk write: %w", storage.ErrStoreUnavailable, err)
	}
	defer func() { _ = vecDelStmt.Close() }()

	vecInsStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO passage_vectors (embedding, passage_id) VALUES (?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare bulk write: %w", storage.ErrStoreUnavailable, err)
	}
	defer func() { _ = vecInsStmt.Close() }()

	for i, p := range passages {
		if err := s.validateForIndex(p); err != nil {
			result.Failures = append(result.Failures, itemFailure(p, i, err))
			continue
		}

		blob, err := sqlite_vec.SerializeFloat32(p.Embedding)
		if err != nil {
			result.Failures = append(result.Failures, itemFailure(p, i, err))
			continue
		}

		if _, err := passageStmt.ExecContext(ctx,
			p.PassageID, p.DocumentID, string(p.Category), p.Text, p.SectionLabel,
			p.PageNumber, p.CharStart, p.CharEnd, p.Confidence, blob); err != nil {
			result.Failures = append(result.Failures, itemFailure(p, i, err))
			continue
		}

		if _, err := vecDelStmt.ExecContext(ctx, p.PassageID); err != nil {
			result.Failures = append(result.Failures, itemFailure(p, i, err))
			continue
		}
		if _, err := vecInsStmt.ExecContext(ctx, blob, p.PassageID); err != nil {
			// Keep both indexes aligned: a passage without a vector row
			// would be invisible to vector queries.
			_, _ = tx.ExecContext(ctx, `DELETE FROM passages WHERE passage_id = ?`, p.PassageID)
			result.Failures = append(result.Failures, itemFailure(p, i, err))
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit bulk write: %w", storage.ErrStoreUnavailable, err)
	}

	result.Indexed = result.Attempted - len(result.Failures)
	for _, f := range result.Failures {
		s.logger.Warn("bulk index item failed", "passageID", f.PassageID, "err", f.Err)
	}
	return result, nil
}

// validateForIndex applies the domain rules plus the index-time requirement
// that every stored passage carries an embedding of exactly the store's
// dimension.
func (s *Store) validateForIndex(p *core.Passage) error {
	if err := core.ValidatePassage(p); err != nil {
		return err
	}
	if len(p.Embedding) != s.dims {
		return fmt.Errorf("%w: got %d, want %d", core.ErrWrongEmbeddingDims, len(p.Embedding), s.dims)
	}
	return nil
}

func itemFailure(p *core.Passage, i int, err error) storage.ItemFailure {
	id := fmt.Sprintf("item %d", i)
	if p != nil && p.PassageID != "" {
		id = p.PassageID
	}
	return storage.ItemFailure{PassageID: id, Err: err}
}

// GetPassagesByDocument retrieves all passages of a document in span order.
// Returns an empty slice for an unknown document.
func (s *Store) GetPassagesByDocument(ctx context.Context, documentID string) ([]*core.Passage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT passage_id, document_id, category, text, section_label, page_number,
			char_start, char_end, confidence, embedding
		 FROM passages WHERE document_id = ?
		 ORDER BY char_start, passage_id
		 LIMIT ?`, documentID, passagesByDocumentCap)
	if err != nil {
		return nil, fmt.Errorf("%w: get passages: %w", storage.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var passages []*core.Passage
	for rows.Next() {
		var p core.Passage
		var category string
		var blob []byte
		if err := rows.Scan(&p.PassageID, &p.DocumentID, &category, &p.Text,
			&p.SectionLabel, &p.PageNumber, &p.CharStart, &p.CharEnd,
			&p.Confidence, &blob); err != nil {
			s.logger.Warn("skipping malformed passage record", "err", err)
			continue
		}
		if p.PassageID == "" || p.Text == "" {
			s.logger.Warn("skipping malformed passage record", "passageID", p.PassageID)
			continue
		}
		p.Category = core.CategoryFromString(category)
		p.Embedding = decodeVector(blob)
		passages = append(passages, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: get passages: %w", storage.ErrStoreUnavailable, err)
	}
	if passages == nil {
		passages = []*core.Passage{}
	}
	return passages, nil
}

// decodeVector reverses sqlite_vec.SerializeFloat32: a little-endian
// float32 array.
func decodeVector(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
