package rag

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory DenseIndex backed by a flat cosine scan.
// It serves small corpora and tests where a Milvus deployment would be
// overkill. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	vectors map[string][]float32
	order   map[string]int
	seq     int
}

// NewMemoryStore creates an empty in-memory dense index.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vectors: make(map[string][]float32),
		order:   make(map[string]int),
	}
}

// Insert stores chunk centroids, replacing vectors for chunk IDs that
// are already present.
func (m *MemoryStore) Insert(ctx context.Context, chunks []Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		if _, exists := m.vectors[chunk.ID]; !exists {
			m.order[chunk.ID] = m.seq
			m.seq++
		}
		vec := make([]float32, len(chunk.Centroid))
		copy(vec, chunk.Centroid)
		m.vectors[chunk.ID] = vec
	}
	return nil
}

// Search scans every stored vector and returns the topK most similar
// by cosine, ties broken by insertion order.
func (m *MemoryStore) Search(ctx context.Context, vector []float32, topK int) ([]DenseHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]DenseHit, 0, len(m.vectors))
	for chunkID, vec := range m.vectors {
		hits = append(hits, DenseHit{ChunkID: chunkID, Score: cosineSimilarity(vector, vec)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return m.order[hits[i].ChunkID] < m.order[hits[j].ChunkID]
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Delete removes vectors by chunk identifiers. Unknown IDs are a no-op.
func (m *MemoryStore) Delete(ctx context.Context, chunkIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range chunkIDs {
		delete(m.vectors, id)
		delete(m.order, id)
	}
	return nil
}

// Len reports the number of stored vectors.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
