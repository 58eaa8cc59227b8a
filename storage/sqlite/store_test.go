package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/passagedb/core"
	"github.com/poiesic/passagedb/storage"
)

// testVector builds a valid embedding whose first component varies by seed,
// so nearest-neighbor ordering in tests is predictable under cosine
// distance.
func testVector(seed float32) []float32 {
	v := make([]float32, core.EmbeddingDims)
	v[0] = seed
	v[1] = 1.0
	return v
}

func testPassage(id, docID string, category core.Category, text string, seed float32) *core.Passage {
	return &core.Passage{
		PassageID:  id,
		DocumentID: docID,
		Category:   category,
		Text:       text,
		PageNumber: 1,
		CharStart:  0,
		CharEnd:    len(text),
		Confidence: 0.9,
		Embedding:  testVector(seed),
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// The schema was applied once by NewMemoryStore. Apply it twice more.
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("Second EnsureSchema failed: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("Third EnsureSchema failed: %v", err)
	}

	// Data written before a repeated EnsureSchema must survive it.
	p := testPassage("p1", "doc1", core.CategoryIndemnity, "The supplier shall indemnify the customer.", 0.5)
	if _, err := store.PutPassagesBulk(ctx, []*core.Passage{p}); err != nil {
		t.Fatalf("Failed to put passage: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema after write failed: %v", err)
	}
	got, err := store.GetPassagesByDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("Failed to get passages: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 passage after repeated EnsureSchema, got %d", len(got))
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	doc := &core.Document{
		DocumentID:      "doc1",
		Filename:        "msa.txt",
		IngestedAt:      time.Now().UTC(),
		PageCount:       3,
		PassageCount:    12,
		CategoriesFound: []core.Category{core.CategoryIndemnity, core.CategoryTermination},
		SourceLength:    4096,
	}
	if err := store.PutDocument(ctx, doc); err != nil {
		t.Fatalf("Failed to put document: %v", err)
	}

	got, err := store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if got.Filename != "msa.txt" {
		t.Fatalf("Expected 'msa.txt', got '%s'", got.Filename)
	}
	if got.PassageCount != 12 {
		t.Fatalf("Expected 12 passages, got %d", got.PassageCount)
	}
	if len(got.CategoriesFound) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(got.CategoriesFound))
	}

	// Upsert overwrites in full.
	doc.PassageCount = 15
	doc.CategoriesFound = []core.Category{core.CategoryIndemnity}
	if err := store.PutDocument(ctx, doc); err != nil {
		t.Fatalf("Failed to upsert document: %v", err)
	}
	got, err = store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("Failed to get document after upsert: %v", err)
	}
	if got.PassageCount != 15 || len(got.CategoriesFound) != 1 {
		t.Fatalf("Upsert did not overwrite: count=%d categories=%d", got.PassageCount, len(got.CategoriesFound))
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	_, err = store.GetDocument(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListDocumentsOrdering(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		doc := &core.Document{
			DocumentID: id,
			Filename:   id + ".txt",
			IngestedAt: base.Add(time.Duration(i) * time.Hour),
			PageCount:  1,
		}
		if err := store.PutDocument(ctx, doc); err != nil {
			t.Fatalf("Failed to put document %s: %v", id, err)
		}
	}

	docs, err := store.ListDocuments(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[0].DocumentID != "new" || docs[1].DocumentID != "mid" {
		t.Fatalf("Expected [new, mid], got [%s, %s]", docs[0].DocumentID, docs[1].DocumentID)
	}
}

func TestPutPassagesBulkPartialFailure(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	passages := make([]*core.Passage, 0, 10)
	for i := 0; i < 10; i++ {
		p := testPassage(
			string(rune('a'+i)), "doc1", core.CategoryOther,
			"Clause text number "+string(rune('a'+i)), float32(i)*0.1,
		)
		passages = append(passages, p)
	}
	// Two malformed items: one with empty text, one with wrong embedding dims.
	passages[3].Text = ""
	passages[7].Embedding = []float32{0.1, 0.2}

	result, err := store.PutPassagesBulk(ctx, passages)
	if err != nil {
		t.Fatalf("Bulk write returned batch-level error: %v", err)
	}
	if result.Attempted != 10 {
		t.Fatalf("Expected 10 attempted, got %d", result.Attempted)
	}
	if result.Indexed != 8 {
		t.Fatalf("Expected 8 indexed, got %d", result.Indexed)
	}
	if len(result.Failures) != 2 {
		t.Fatalf("Expected 2 failures, got %d", len(result.Failures))
	}

	// The eight valid passages must actually be queryable.
	got, err := store.GetPassagesByDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("Failed to get passages: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("Expected 8 stored passages, got %d", len(got))
	}
}

func TestPutPassagesBulkEmpty(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	result, err := store.PutPassagesBulk(context.Background(), nil)
	if err != nil {
		t.Fatalf("Empty bulk write failed: %v", err)
	}
	if result.Attempted != 0 || result.Indexed != 0 || len(result.Failures) != 0 {
		t.Fatalf("Expected empty result, got %+v", result)
	}
}

func TestGetPassagesByDocumentSpanOrder(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	p1 := testPassage("p1", "doc1", core.CategoryOther, "later passage", 0.1)
	p1.CharStart, p1.CharEnd = 500, 513
	p2 := testPassage("p2", "doc1", core.CategoryOther, "earlier passage", 0.2)
	p2.CharStart, p2.CharEnd = 10, 25
	p3 := testPassage("p3", "doc2", core.CategoryOther, "other document", 0.3)

	if _, err := store.PutPassagesBulk(ctx, []*core.Passage{p1, p2, p3}); err != nil {
		t.Fatalf("Failed to put passages: %v", err)
	}

	got, err := store.GetPassagesByDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("Failed to get passages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 passages, got %d", len(got))
	}
	if got[0].PassageID != "p2" || got[1].PassageID != "p1" {
		t.Fatalf("Expected span order [p2, p1], got [%s, %s]", got[0].PassageID, got[1].PassageID)
	}
	if len(got[0].Embedding) != core.EmbeddingDims {
		t.Fatalf("Expected %d-dim embedding, got %d", core.EmbeddingDims, len(got[0].Embedding))
	}

	missing, err := store.GetPassagesByDocument(ctx, "nope")
	if err != nil {
		t.Fatalf("Unknown document should not error: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("Expected empty result for unknown document, got %d", len(missing))
	}
}

func TestLexicalQuery(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	passages := []*core.Passage{
		testPassage("p1", "doc1", core.CategoryIndemnity,
			"The supplier shall indemnify and hold harmless the customer against all claims.", 0.1),
		testPassage("p2", "doc1", core.CategoryLiabilityCap,
			"Aggregate liability is capped at the fees paid in the preceding twelve months.", 0.2),
		testPassage("p3", "doc2", core.CategoryIndemnity,
			"Customer will indemnify supplier for third party claims arising from customer data.", 0.3),
	}
	if _, err := store.PutPassagesBulk(ctx, passages); err != nil {
		t.Fatalf("Failed to put passages: %v", err)
	}

	hits, err := store.LexicalQuery(ctx, "indemnify claims", storage.Filters{}, 10)
	if err != nil {
		t.Fatalf("Lexical query failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
	for _, h := range hits {
		if h.Passage.Category != core.CategoryIndemnity {
			t.Fatalf("Unexpected hit %s with category %s", h.Passage.PassageID, h.Passage.Category)
		}
		if len(h.Highlights) == 0 {
			t.Fatalf("Expected highlights for hit %s", h.Passage.PassageID)
		}
	}

	// A query of nothing but stop words is an empty result, not an error.
	hits, err = store.LexicalQuery(ctx, "the of and", storage.Filters{}, 10)
	if err != nil {
		t.Fatalf("Stop-word query failed: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Expected no hits for stop-word query, got %d", len(hits))
	}
}

func TestVectorQuery(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Seeds give distinct cosine angles against the query vector.
	passages := []*core.Passage{
		testPassage("near", "doc1", core.CategoryOther, "closest passage", 1.0),
		testPassage("mid", "doc1", core.CategoryOther, "middle passage", 0.5),
		testPassage("far", "doc2", core.CategoryOther, "distant passage", -1.0),
	}
	if _, err := store.PutPassagesBulk(ctx, passages); err != nil {
		t.Fatalf("Failed to put passages: %v", err)
	}

	got, err := store.VectorQuery(ctx, testVector(1.0), storage.Filters{}, 2)
	if err != nil {
		t.Fatalf("Vector query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(got))
	}
	if got[0].PassageID != "near" || got[1].PassageID != "mid" {
		t.Fatalf("Expected [near, mid], got [%s, %s]", got[0].PassageID, got[1].PassageID)
	}
}

func TestVectorQueryWrongDims(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	_, err = store.VectorQuery(context.Background(), []float32{0.1, 0.2}, storage.Filters{}, 5)
	if !errors.Is(err, storage.ErrInvalidQuery) {
		t.Fatalf("Expected ErrInvalidQuery, got %v", err)
	}
}

// TestFilterConsistency verifies that the same filters carve out the same
// subset of the passage collection in both query modes.
func TestFilterConsistency(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	passages := []*core.Passage{
		testPassage("p1", "doc1", core.CategoryIndemnity, "supplier shall indemnify customer", 0.9),
		testPassage("p2", "doc1", core.CategoryTermination, "either party may terminate and seek indemnify relief", 0.8),
		testPassage("p3", "doc2", core.CategoryIndemnity, "customer shall indemnify supplier", 0.7),
	}
	if _, err := store.PutPassagesBulk(ctx, passages); err != nil {
		t.Fatalf("Failed to put passages: %v", err)
	}

	filters := storage.Filters{
		Categories:  []core.Category{core.CategoryIndemnity},
		DocumentIDs: []string{"doc1"},
	}

	lexHits, err := store.LexicalQuery(ctx, "indemnify", filters, 10)
	if err != nil {
		t.Fatalf("Lexical query failed: %v", err)
	}
	vecHits, err := store.VectorQuery(ctx, testVector(0.9), filters, 10)
	if err != nil {
		t.Fatalf("Vector query failed: %v", err)
	}

	if len(lexHits) != 1 || lexHits[0].Passage.PassageID != "p1" {
		t.Fatalf("Lexical filters wrong: got %d hits", len(lexHits))
	}
	if len(vecHits) != 1 || vecHits[0].PassageID != "p1" {
		t.Fatalf("Vector filters wrong: got %d hits", len(vecHits))
	}
}

func TestPassageUpsertReplacesIndexes(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	p := testPassage("p1", "doc1", core.CategoryConfidentiality, "original confidential wording", 0.4)
	if _, err := store.PutPassagesBulk(ctx, []*core.Passage{p}); err != nil {
		t.Fatalf("Failed to put passage: %v", err)
	}

	p.Text = "replacement nondisclosure wording"
	p.CharEnd = len(p.Text)
	if _, err := store.PutPassagesBulk(ctx, []*core.Passage{p}); err != nil {
		t.Fatalf("Failed to re-put passage: %v", err)
	}

	// Old text must no longer match; new text must.
	hits, err := store.LexicalQuery(ctx, "original confidential", storage.Filters{}, 10)
	if err != nil {
		t.Fatalf("Lexical query failed: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Stale lexical index: old text still matches (%d hits)", len(hits))
	}
	hits, err = store.LexicalQuery(ctx, "replacement nondisclosure", storage.Filters{}, 10)
	if err != nil {
		t.Fatalf("Lexical query failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Expected 1 hit on new text, got %d", len(hits))
	}

	got, err := store.GetPassagesByDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("Failed to get passages: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Upsert duplicated the passage: got %d rows", len(got))
	}
}
