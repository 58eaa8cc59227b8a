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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/passagedb/core"
	"github.com/poiesic/passagedb/storage"
)

const (
	// rrfK is the rank-smoothing constant of reciprocal rank fusion. 60 is
	// the value from the original RRF paper and works well untouched.
	rrfK = 60

	// fetchFactor over-fetches each arm so that passages ranked deep in one
	// list can still surface after fusion.
	fetchFactor = 5

	// maxTopK bounds a single retrieval request.
	maxTopK = 100
)

// SearchRequest describes one hybrid retrieval.
type SearchRequest struct {
	// QueryText feeds the lexical arm. Required.
	QueryText string

	// QueryVector feeds the vector arm. Required, with exactly
	// core.EmbeddingDims components.
	QueryVector []float32

	// Filters restricts both arms identically. Optional.
	Filters storage.Filters

	// TopK is the number of fused results to return, in [1, 100].
	TopK int
}

// Retriever runs hybrid retrieval: a lexical and a vector query over the
// same index, fused into one ranking by reciprocal rank fusion.
type Retriever struct {
	store  storage.IndexStore
	logger *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever over the given store.
func NewRetriever(store storage.IndexStore, opts ...Option) (*Retriever, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	r := &Retriever{
		store:  store,
		logger: slog.Default().With("component", "retriever"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Search runs both retrieval arms and fuses their rankings.
// Returns up to req.TopK hits, best first.
func (r *Retriever) Search(ctx context.Context, req SearchRequest) ([]*core.RankedHit, error) {
	return r.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs a hybrid retrieval with monitoring. The monitor
// receives callbacks at each stage of the process.
//
// The two arms run concurrently. A failure of either arm fails the whole
// retrieval: a silently degraded single-arm ranking would be
// indistinguishable from a hybrid one to the caller.
func (r *Retriever) SearchWithMonitor(ctx context.Context, req SearchRequest, monitor RetrievalMonitor) ([]*core.RankedHit, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	monitor.Start(req.QueryText)

	fetchLimit := req.TopK * fetchFactor

	var lexical []*storage.LexicalHit
	var vector []*core.Passage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.store.LexicalQuery(gctx, req.QueryText, req.Filters, fetchLimit)
		if err != nil {
			return fmt.Errorf("lexical arm: %w", err)
		}
		lexical = hits
		return nil
	})
	g.Go(func() error {
		passages, err := r.store.VectorQuery(gctx, req.QueryVector, req.Filters, fetchLimit)
		if err != nil {
			return fmt.Errorf("vector arm: %w", err)
		}
		vector = passages
		return nil
	})
	if err := g.Wait(); err != nil {
		r.logger.Error("retrieval arm failed", "query", req.QueryText, "err", err)
		return nil, err
	}

	monitor.AfterLexicalQuery(lexicalIDs(lexical))
	monitor.AfterVectorQuery(passageIDs(vector))

	fused := fuse(lexical, vector)
	monitor.AfterFusion(fused)

	if len(fused) > req.TopK {
		fused = fused[:req.TopK]
	}
	monitor.Finish(fused)

	r.logger.Debug("hybrid retrieval complete",
		"query", req.QueryText,
		"lexicalHits", len(lexical),
		"vectorHits", len(vector),
		"returned", len(fused))

	return fused, nil
}

func validateRequest(req SearchRequest) error {
	if req.TopK < 1 || req.TopK > maxTopK {
		return fmt.Errorf("%w: %d", ErrInvalidTopK, req.TopK)
	}
	if req.QueryText == "" {
		return ErrEmptyQuery
	}
	if len(req.QueryVector) != core.EmbeddingDims {
		return fmt.Errorf("%w: got %d, want %d", ErrWrongVectorDims, len(req.QueryVector), core.EmbeddingDims)
	}
	return nil
}

// fusedHit accumulates RRF state for one passage across both arms.
type fusedHit struct {
	hit *core.RankedHit
	// seen is the first-seen position in the lexical-then-vector merge
	// order; it breaks score ties deterministically.
	seen int
}

// fuse combines the two rankings by reciprocal rank fusion: each passage
// scores the sum of 1/(rrfK + rank + 1) over the lists it appears in. The
// passage metadata comes from whichever arm saw it first, with the lexical
// arm consulted first; highlights come from the lexical arm only.
func fuse(lexical []*storage.LexicalHit, vector []*core.Passage) []*core.RankedHit {
	byID := make(map[string]*fusedHit, len(lexical)+len(vector))
	order := make([]string, 0, len(lexical)+len(vector))

	for rank, lh := range lexical {
		f := &fusedHit{
			hit: &core.RankedHit{
				Passage:    lh.Passage,
				Highlights: lh.Highlights,
			},
			seen: len(order),
		}
		f.hit.FusionScore = rrfScore(rank)
		byID[lh.Passage.PassageID] = f
		order = append(order, lh.Passage.PassageID)
	}

	for rank, p := range vector {
		if f, ok := byID[p.PassageID]; ok {
			f.hit.FusionScore += rrfScore(rank)
			continue
		}
		f := &fusedHit{
			hit:  &core.RankedHit{Passage: p, FusionScore: rrfScore(rank)},
			seen: len(order),
		}
		byID[p.PassageID] = f
		order = append(order, p.PassageID)
	}

	fused := make([]*fusedHit, 0, len(order))
	for _, id := range order {
		fused = append(fused, byID[id])
	}
	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].hit.FusionScore != fused[j].hit.FusionScore {
			return fused[i].hit.FusionScore > fused[j].hit.FusionScore
		}
		return fused[i].seen < fused[j].seen
	})

	hits := make([]*core.RankedHit, len(fused))
	for i, f := range fused {
		hits[i] = f.hit
	}
	return hits
}

func rrfScore(rank int) float64 {
	return 1.0 / float64(rrfK+rank+1)
}

func lexicalIDs(hits []*storage.LexicalHit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.Passage.PassageID
	}
	return ids
}

func passageIDs(passages []*core.Passage) []string {
	ids := make([]string, len(passages))
	for i, p := range passages {
		ids[i] = p.PassageID
	}
	return ids
}
