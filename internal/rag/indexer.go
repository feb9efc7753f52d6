package rag

import (
	"context"
	"fmt"
)

// defaultEmbedBatchSize caps how many unit texts go to the embedding
// provider in one request.
const defaultEmbedBatchSize = 128

// PageText is one page of a paginated source document.
type PageText struct {
	Page int
	Text string
}

// Indexer runs the ingestion pipeline for one corpus: normalize text
// into units, embed them, chunk on semantic boundaries, and commit the
// chunks to both indices.
//
// The two index inserts are not atomic, but a chunk is never left
// retrievable from only one side: the sparse side is written first and
// rolled back if the dense insert fails, so hybrid fusion weighting
// stays trustworthy.
type Indexer struct {
	chunker   *SemanticChunker
	embedder  Embedder
	sparse    *SparseIndex
	dense     DenseIndex
	batchSize int
}

// NewIndexer wires the ingestion pipeline components together.
func NewIndexer(chunker *SemanticChunker, embedder Embedder, sparse *SparseIndex, dense DenseIndex) (*Indexer, error) {
	if chunker == nil {
		return nil, fmt.Errorf("chunker cannot be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if sparse == nil {
		return nil, fmt.Errorf("sparse index cannot be nil")
	}
	if dense == nil {
		return nil, fmt.Errorf("dense index cannot be nil")
	}
	return &Indexer{
		chunker:   chunker,
		embedder:  embedder,
		sparse:    sparse,
		dense:     dense,
		batchSize: defaultEmbedBatchSize,
	}, nil
}

// IndexDocument ingests one document and returns its committed chunks.
// Failures are per-document: an error here never corrupts chunks from
// other documents already in the indices.
func (ix *Indexer) IndexDocument(ctx context.Context, docID, text string) ([]Chunk, error) {
	units, err := ix.prepareUnits(ctx, docID, text)
	if err != nil || len(units) == 0 {
		return nil, err
	}
	chunks, err := ix.chunker.Chunk(docID, units)
	if err != nil {
		return nil, err
	}
	if err := ix.commit(ctx, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// IndexPages ingests a paginated document, chunking each page on its
// own so no chunk straddles a page boundary and citations stay exact.
func (ix *Indexer) IndexPages(ctx context.Context, docID string, pages []PageText) ([]Chunk, error) {
	var all []Chunk
	for _, page := range pages {
		units, err := ix.prepareUnits(ctx, docID, page.Text)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Page, err)
		}
		if len(units) == 0 {
			continue
		}
		chunks, err := ix.chunker.ChunkPage(docID, page.Page, units)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Page, err)
		}
		all = append(all, chunks...)
	}
	if len(all) == 0 {
		return nil, nil
	}
	if err := ix.commit(ctx, all); err != nil {
		return nil, err
	}
	return all, nil
}

// prepareUnits normalizes the text and attaches an embedding to every
// unit, batching requests to the provider.
func (ix *Indexer) prepareUnits(ctx context.Context, docID, text string) ([]Unit, error) {
	units, err := Normalize(text)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", docID, err)
	}
	if len(units) == 0 {
		return nil, nil
	}

	for start := 0; start < len(units); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(units) {
			end = len(units)
		}
		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = units[start+i].Text
		}
		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding %s: %w", docID, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: got %d vectors for %d units", ErrEmbeddingProvider, len(vectors), len(texts))
		}
		for i, v := range vectors {
			units[start+i].Embedding = v
		}
	}
	return units, nil
}

// commit writes chunks to the sparse index, then the dense index. On
// dense failure the sparse entries are rolled back so the chunks are
// not retrievable from one side only.
func (ix *Indexer) commit(ctx context.Context, chunks []Chunk) error {
	for _, chunk := range chunks {
		ix.sparse.Insert(chunk)
	}
	if err := ix.dense.Insert(ctx, chunks); err != nil {
		for _, chunk := range chunks {
			ix.sparse.Delete(chunk.ID)
		}
		return fmt.Errorf("dense insert failed, sparse rolled back: %w", err)
	}
	return nil
}

// DeleteDocument removes every chunk of one document from both
// indices. The dense side is cleared first so a failure never leaves
// dense-only chunks behind.
func (ix *Indexer) DeleteDocument(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	if err := ix.dense.Delete(ctx, chunkIDs); err != nil {
		return fmt.Errorf("dense delete failed: %w", err)
	}
	for _, id := range chunkIDs {
		ix.sparse.Delete(id)
	}
	return nil
}
