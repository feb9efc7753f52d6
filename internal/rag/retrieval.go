package rag

import (
	"context"
	"fmt"
	"sort"
)

// HybridRetriever fuses BM25 keyword hits and dense similarity hits
// into one ranked, deduplicated result list. Retrieval is read-only
// with respect to index state and safe to run concurrently with
// ingestion.
type HybridRetriever struct {
	sparse   *SparseIndex
	dense    DenseIndex
	embedder Embedder
	cfg      Config
}

// NewHybridRetriever creates a retriever over the two indices.
func NewHybridRetriever(sparse *SparseIndex, dense DenseIndex, embedder Embedder, cfg Config) (*HybridRetriever, error) {
	if sparse == nil {
		return nil, fmt.Errorf("sparse index cannot be nil")
	}
	if dense == nil {
		return nil, fmt.Errorf("dense index cannot be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HybridRetriever{
		sparse:   sparse,
		dense:    dense,
		embedder: embedder,
		cfg:      cfg,
	}, nil
}

// Retrieve runs the hybrid query with the configured fusion weights.
// A non-positive k falls back to the configured default.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, k int) (RetrievalContext, error) {
	return r.RetrieveWeighted(ctx, query, k, r.cfg.FusionWeightSparse, r.cfg.FusionWeightDense)
}

// RetrieveWeighted runs the hybrid query with caller-supplied fusion
// weights. If query embedding fails the whole retrieval aborts rather
// than silently degrading to keyword-only results.
func (r *HybridRetriever) RetrieveWeighted(ctx context.Context, query string, k int, wSparse, wDense float64) (RetrievalContext, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if k <= 0 {
		k = r.cfg.TopK
	}
	if wSparse < 0 || wDense < 0 || wSparse+wDense <= 0 {
		return nil, fmt.Errorf("%w: fusion weights must be non-negative and sum positively", ErrInvalidConfig)
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no embedding generated for query", ErrEmbeddingProvider)
	}
	queryVector := vectors[0]

	fetch := k * r.cfg.OverFetchFactor

	// Query both indices in parallel; the sparse side never errors.
	var (
		sparseHits []SparseHit
		denseHits  []DenseHit
		denseErr   error
		done       = make(chan struct{})
	)
	go func() {
		defer close(done)
		denseHits, denseErr = r.dense.Search(ctx, queryVector, fetch)
	}()
	sparseHits = r.sparse.Search(Tokenize(query), fetch)
	<-done
	if denseErr != nil {
		return nil, fmt.Errorf("dense search failed: %w", denseErr)
	}

	var fused []ScoredChunk
	switch r.cfg.Fusion {
	case FusionRRF:
		fused = fuseRRF(sparseHits, denseHits)
	default:
		fused = fuseWeighted(sparseHits, denseHits, wSparse, wDense)
	}

	results := make(RetrievalContext, 0, len(fused))
	for _, sc := range fused {
		if len(results) >= k {
			break
		}
		chunk, ok := r.sparse.Get(sc.Chunk.ID)
		if !ok {
			// Both indices hold every committed chunk; a miss means a
			// concurrent delete raced this query. Skip the stale hit.
			continue
		}
		sc.Chunk = chunk
		results = append(results, sc)
	}
	return results, nil
}

// fusionCandidate accumulates one chunk's contributions during fusion.
type fusionCandidate struct {
	id        string
	score     float64
	rawSparse float64
	rawDense  float64
	inSparse  bool
	inDense   bool
}

func (c fusionCandidate) source() Source {
	switch {
	case c.inSparse && c.inDense:
		return SourceBoth
	case c.inSparse:
		return SourceSparse
	default:
		return SourceDense
	}
}

// maxRaw is the stronger of the candidate's per-index raw scores,
// used as a tie-break after fused score and source coverage.
func (c fusionCandidate) maxRaw() float64 {
	switch {
	case c.inSparse && c.inDense:
		if c.rawSparse > c.rawDense {
			return c.rawSparse
		}
		return c.rawDense
	case c.inSparse:
		return c.rawSparse
	default:
		return c.rawDense
	}
}

// fuseWeighted combines the two candidate sets by a weighted sum of
// min-max normalized scores. A chunk missing from one side scores 0
// for that side, so corroborated matches outrank single-signal ones.
func fuseWeighted(sparseHits []SparseHit, denseHits []DenseHit, wSparse, wDense float64) []ScoredChunk {
	sparseScores := make([]float64, len(sparseHits))
	for i, h := range sparseHits {
		sparseScores[i] = h.Score
	}
	denseScores := make([]float64, len(denseHits))
	for i, h := range denseHits {
		denseScores[i] = h.Score
	}
	normSparse := minMaxNormalize(sparseScores)
	normDense := minMaxNormalize(denseScores)

	candidates := make(map[string]*fusionCandidate)
	lookup := func(id string) *fusionCandidate {
		c, ok := candidates[id]
		if !ok {
			c = &fusionCandidate{id: id}
			candidates[id] = c
		}
		return c
	}
	for i, h := range sparseHits {
		c := lookup(h.ChunkID)
		c.inSparse = true
		c.rawSparse = h.Score
		c.score += wSparse * normSparse[i]
	}
	for i, h := range denseHits {
		c := lookup(h.ChunkID)
		c.inDense = true
		c.rawDense = h.Score
		c.score += wDense * normDense[i]
	}
	return rankCandidates(candidates)
}

// fuseRRF combines the two candidate sets by reciprocal rank fusion,
// which ignores score scales entirely and rewards agreement between
// the two rankings.
func fuseRRF(sparseHits []SparseHit, denseHits []DenseHit) []ScoredChunk {
	const rrfK = 60

	candidates := make(map[string]*fusionCandidate)
	lookup := func(id string) *fusionCandidate {
		c, ok := candidates[id]
		if !ok {
			c = &fusionCandidate{id: id}
			candidates[id] = c
		}
		return c
	}
	for rank, h := range sparseHits {
		c := lookup(h.ChunkID)
		c.inSparse = true
		c.rawSparse = h.Score
		c.score += 1.0 / float64(rrfK+rank+1)
	}
	for rank, h := range denseHits {
		c := lookup(h.ChunkID)
		c.inDense = true
		c.rawDense = h.Score
		c.score += 1.0 / float64(rrfK+rank+1)
	}
	return rankCandidates(candidates)
}

// rankCandidates orders fused candidates by score, then source
// coverage, then stronger raw contribution, then chunk ID.
func rankCandidates(candidates map[string]*fusionCandidate) []ScoredChunk {
	ordered := make([]*fusionCandidate, 0, len(candidates))
	for _, c := range candidates {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.score != b.score {
			return a.score > b.score
		}
		aBoth := a.inSparse && a.inDense
		bBoth := b.inSparse && b.inDense
		if aBoth != bBoth {
			return aBoth
		}
		if a.maxRaw() != b.maxRaw() {
			return a.maxRaw() > b.maxRaw()
		}
		return a.id < b.id
	})

	out := make([]ScoredChunk, len(ordered))
	for i, c := range ordered {
		out[i] = ScoredChunk{
			Chunk:  Chunk{ID: c.id},
			Score:  c.score,
			Source: c.source(),
		}
	}
	return out
}

// minMaxNormalize rescales scores to [0,1] over the candidate set.
// A uniform set maps to 1.0 for every entry so equal-quality hits
// keep their full weight instead of dividing by zero.
func minMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	out := make([]float64, len(scores))
	if hi == lo {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}
