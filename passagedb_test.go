package passagedb

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/passagedb/ai/mock"
	"github.com/poiesic/passagedb/core"
	"github.com/poiesic/passagedb/storage"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory(WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen(t *testing.T) {
	t.Run("create new database file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "contracts", "index.db")
		db, err := Open(path, WithAIProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.Store())
	})

	t.Run("in-memory database", func(t *testing.T) {
		db := openTestDB(t)
		assert.NotNil(t, db.Store())
	})
}

func TestDB_FactoryMethods(t *testing.T) {
	db := openTestDB(t)

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := db.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create retriever", func(t *testing.T) {
		retriever, err := db.NewRetriever()
		require.NoError(t, err)
		require.NotNil(t, retriever)
	})
}

func TestDB_IngestAndSearch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	source := "The supplier shall indemnify the customer against all third party claims.\n\n" +
		"This agreement is governed by the laws of Ireland.\n\n" +
		"Each party shall keep the other party's information confidential."

	doc, err := pipeline.IngestDocument(ctx, []byte(source), "msa.txt")
	require.NoError(t, err)
	require.Equal(t, 3, doc.PassageCount)

	t.Run("search finds lexical matches", func(t *testing.T) {
		hits, err := db.Search(ctx, "indemnify third party claims", storage.Filters{}, 5)
		require.NoError(t, err)
		require.NotEmpty(t, hits)

		var found *core.RankedHit
		for _, h := range hits {
			if strings.Contains(h.Passage.Text, "indemnify") {
				found = h
				break
			}
		}
		require.NotNil(t, found)
		assert.NotEmpty(t, found.Highlights)
		assert.Greater(t, found.FusionScore, 0.0)
	})

	t.Run("document filter restricts results", func(t *testing.T) {
		hits, err := db.Search(ctx, "indemnify", storage.Filters{DocumentIDs: []string{"absent"}}, 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("lookup operations", func(t *testing.T) {
		got, err := db.GetDocument(ctx, doc.DocumentID)
		require.NoError(t, err)
		assert.Equal(t, "msa.txt", got.Filename)

		docs, err := db.ListDocuments(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, docs, 1)

		passages, err := db.GetPassages(ctx, doc.DocumentID)
		require.NoError(t, err)
		assert.Len(t, passages, 3)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := db.GetDocument(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestDB_SearchValidation(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Search(context.Background(), "query", storage.Filters{}, 0)
	assert.Error(t, err)
}

func TestDB_CategoryFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	provider := db.provider.(*mock.MockProvider)
	provider.GetMockExtractor().ExtractPassagesFunc = func(_ context.Context, text string) ([]core.CandidatePassage, error) {
		return []core.CandidatePassage{
			{Category: "indemnity", Text: "The supplier shall indemnify the customer.", CharOffsetStart: 0, Confidence: 0.9},
			{Category: "termination", Text: "Either party may terminate on notice.", CharOffsetStart: 44, Confidence: 0.9},
		}, nil
	}

	source := "The supplier shall indemnify the customer.\n\nEither party may terminate on notice."
	doc, err := pipeline.IngestDocument(ctx, []byte(source), "two-clauses.txt")
	require.NoError(t, err)
	require.Equal(t, 2, doc.PassageCount)
	assert.Equal(t,
		[]core.Category{core.CategoryIndemnity, core.CategoryTermination},
		doc.CategoriesFound)

	hits, err := db.Search(ctx, "supplier customer terminate",
		storage.Filters{Categories: []core.Category{core.CategoryIndemnity}}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, core.CategoryIndemnity, hits[0].Passage.Category)
}
