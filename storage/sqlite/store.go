package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/poiesic/passagedb/core"
	"github.com/poiesic/passagedb/storage"
)

// Store implements storage.IndexStore on SQLite, using the FTS5 extension
// as the term-frequency engine and the sqlite-vec extension as the
// nearest-neighbor engine. Both engines index the same passages table, so
// filter predicates apply identically to either query mode.
type Store struct {
	db     *sql.DB
	dims   int
	logger *slog.Logger
}

var _ storage.IndexStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// Open opens or creates a store at the given file path.
// Call EnsureSchema before first use.
func Open(path string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return open(path, opts...)
}

// OpenMemory creates a private in-memory store, used by tests and the
// seeder. Each call yields an independent database.
func OpenMemory(opts ...Option) (*Store, error) {
	// A named shared-cache database so every pooled connection sees the
	// same in-memory store.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	return open(dsn, opts...)
}

func open(dsn string, opts ...Option) (*Store, error) {
	sqlite_vec.Auto()

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}

	s := &Store{
		db:     db,
		dims:   core.EmbeddingDims,
		logger: slog.Default().With("component", "sqlite-store"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := s.applyPragmas(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=10000",
		// INSERT OR REPLACE must fire the FTS5 sync triggers for the
		// replaced row as well.
		"PRAGMA recursive_triggers=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%w: set pragma: %w", storage.ErrStoreUnavailable, err)
		}
	}
	return nil
}

// EnsureSchema idempotently creates both collections, the lexical index and
// the vector index. Every statement is IF NOT EXISTS: calling this on every
// process start is safe and never alters an existing collection.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			document_id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			ingested_at TEXT NOT NULL,
			page_count INTEGER NOT NULL DEFAULT 1,
			passage_count INTEGER NOT NULL DEFAULT 0,
			categories_found TEXT NOT NULL DEFAULT '[]',
			source_length INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_ingested_at ON documents(ingested_at)`,
		`CREATE TABLE IF NOT EXISTS passages (
			passage_id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			category TEXT NOT NULL,
			text TEXT NOT NULL,
			section_label TEXT NOT NULL DEFAULT '',
			page_number INTEGER NOT NULL DEFAULT 1,
			char_start INTEGER NOT NULL,
			char_end INTEGER NOT NULL,
			confidence REAL NOT NULL,
			embedding BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passages_document ON passages(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_passages_category ON passages(category)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS passages_fts USING fts5(
			text,
			content='passages',
			content_rowid='rowid'
		)`,
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS passage_vectors USING vec0(
			embedding float[%d] distance_metric=cosine,
			passage_id TEXT
		)`, s.dims),
		// Sync triggers keep the external-content FTS5 table aligned with
		// the passages table.
		`CREATE TRIGGER IF NOT EXISTS passages_ai AFTER INSERT ON passages BEGIN
			INSERT INTO passages_fts(rowid, text) VALUES (NEW.rowid, NEW.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS passages_ad AFTER DELETE ON passages BEGIN
			INSERT INTO passages_fts(passages_fts, rowid, text)
			VALUES ('delete', OLD.rowid, OLD.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS passages_au AFTER UPDATE ON passages BEGIN
			INSERT INTO passages_fts(passages_fts, rowid, text)
			VALUES ('delete', OLD.rowid, OLD.text);
			INSERT INTO passages_fts(rowid, text) VALUES (NEW.rowid, NEW.text);
		END`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %w", storage.ErrStoreUnavailable, err)
		}
	}
	return nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}
