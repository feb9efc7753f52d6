package rag

import "context"

// Unit is an atomic sentence-level span produced by Normalize.
// Embeddings are attached transiently during indexing and discarded
// once the unit is absorbed into a Chunk.
type Unit struct {
	Text      string    `json:"text"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Embedding []float32 `json:"-"`
}

// Chunk is a contiguous run of units forming one retrieval granule.
// Chunks are immutable after creation; both indices hold a copy keyed
// by the chunk identifier.
type Chunk struct {
	ID       string    `json:"id"`
	DocID    string    `json:"doc_id"`
	Text     string    `json:"text"`
	Start    int       `json:"start"`
	End      int       `json:"end"`
	Page     int       `json:"page"`
	Centroid []float32 `json:"-"`
}

// Source identifies which index (or indices) produced a retrieval hit.
type Source string

const (
	SourceSparse Source = "sparse"
	SourceDense  Source = "dense"
	SourceBoth   Source = "both"
)

// ScoredChunk pairs a chunk with its fused relevance score and the
// index side(s) that retrieved it.
type ScoredChunk struct {
	Chunk  Chunk   `json:"chunk"`
	Score  float64 `json:"score"`
	Source Source  `json:"source"`
}

// RetrievalContext is the ordered result set returned for one query.
// It is owned by the caller after return and never mutated by the core.
type RetrievalContext []ScoredChunk

// ChunkIDs returns the chunk identifiers in ranked order.
func (rc RetrievalContext) ChunkIDs() []string {
	ids := make([]string, len(rc))
	for i, sc := range rc {
		ids[i] = sc.Chunk.ID
	}
	return ids
}

// DenseHit is a single similarity search result from a dense index.
type DenseHit struct {
	ChunkID string
	Score   float64 // cosine similarity
}

// DenseIndex defines the vector storage contract consumed by the core.
// Implementations are treated as opaque: flat scan, HNSW, or a remote
// store behind a network client all satisfy the same capability set.
type DenseIndex interface {
	// Insert adds chunk centroids to the index, replacing any existing
	// vectors with the same chunk identifiers.
	Insert(ctx context.Context, chunks []Chunk) error

	// Search performs top-K similarity search for the query vector.
	Search(ctx context.Context, vector []float32, topK int) ([]DenseHit, error)

	// Delete removes vectors by chunk identifiers.
	Delete(ctx context.Context, chunkIDs []string) error

	// Close releases resources and closes connections.
	Close() error
}
