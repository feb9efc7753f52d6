package rag

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors for semantic chunking
var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// SemanticChunker groups normalized units into retrieval chunks by
// detecting topic shifts in the embedding sequence. A boundary is
// placed where the gradient of adjacent-unit cosine distance, min-max
// normalized over the document, exceeds the breakpoint threshold.
type SemanticChunker struct {
	cfg Config
}

// NewSemanticChunker creates a chunker, validating the configuration.
func NewSemanticChunker(cfg Config) (*SemanticChunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SemanticChunker{cfg: cfg}, nil
}

// Chunk splits the units of one document into chunks. Every unit must
// carry an embedding and all embeddings must share one dimension.
// Chunk identifiers are "<docID>:<index>" in document order.
func (c *SemanticChunker) Chunk(docID string, units []Unit) ([]Chunk, error) {
	return c.chunk(docID, 0, units, func(idx int) string {
		return fmt.Sprintf("%s:%d", docID, idx)
	})
}

// ChunkPage splits the units of one page of a paginated document.
// Chunk identifiers are "<docID>:<page>:<index>" so citations can
// point back at the source page.
func (c *SemanticChunker) ChunkPage(docID string, page int, units []Unit) ([]Chunk, error) {
	return c.chunk(docID, page, units, func(idx int) string {
		return fmt.Sprintf("%s:%d:%d", docID, page, idx)
	})
}

func (c *SemanticChunker) chunk(docID string, page int, units []Unit, makeID func(int) string) ([]Chunk, error) {
	if len(units) == 0 {
		return nil, nil
	}
	if _, err := checkDimensions(units); err != nil {
		return nil, fmt.Errorf("chunking %s: %w", docID, err)
	}

	groups := c.groupUnits(units)
	groups = c.mergeSmallGroups(groups)
	groups = c.splitOversized(groups)

	chunks := make([]Chunk, 0, len(groups))
	for idx, group := range groups {
		chunks = append(chunks, buildChunk(makeID(idx), docID, page, group))
	}
	return chunks, nil
}

// groupUnits places boundaries by the normalized distance gradient.
func (c *SemanticChunker) groupUnits(units []Unit) [][]Unit {
	if len(units) == 1 {
		return [][]Unit{units}
	}

	distances := make([]float64, len(units)-1)
	for i := 0; i < len(units)-1; i++ {
		distances[i] = 1 - cosineSimilarity(units[i].Embedding, units[i+1].Embedding)
	}

	normalized := normalizeGradient(gradient(distances))

	var groups [][]Unit
	start := 0
	for i, g := range normalized {
		if g > c.cfg.BreakpointThreshold {
			groups = append(groups, units[start:i+1])
			start = i + 1
		}
	}
	groups = append(groups, units[start:])
	return groups
}

// gradient computes the discrete derivative of the distance sequence
// using forward, central, and backward differences. A single gap has
// no derivative, so the distance itself stands in: a real topic shift
// between two sentences still registers as a positive signal.
func gradient(d []float64) []float64 {
	n := len(d)
	if n == 1 {
		return []float64{d[0]}
	}
	g := make([]float64, n)
	g[0] = d[1] - d[0]
	for i := 1; i < n-1; i++ {
		g[i] = (d[i+1] - d[i-1]) / 2
	}
	g[n-1] = d[n-1] - d[n-2]
	return g
}

// normalizeGradient rescales the gradient to [0,1] by min-max. When
// the gradient is flat the scale collapses; positive values map to 1
// and the rest to 0 so a uniform rise still produces boundaries.
func normalizeGradient(g []float64) []float64 {
	lo, hi := g[0], g[0]
	for _, v := range g[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(g))
	if hi == lo {
		for i, v := range g {
			if v > 0 {
				out[i] = 1
			}
		}
		return out
	}
	for i, v := range g {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// mergeSmallGroups folds groups below the minimum unit count into the
// following group, or into the preceding one for a short final group.
func (c *SemanticChunker) mergeSmallGroups(groups [][]Unit) [][]Unit {
	if len(groups) <= 1 {
		return groups
	}
	var merged [][]Unit
	var carry []Unit
	for _, g := range groups {
		g = append(carry, g...)
		carry = nil
		if len(g) < c.cfg.ChunkMinUnits {
			carry = g
			continue
		}
		merged = append(merged, g)
	}
	if carry != nil {
		if len(merged) > 0 {
			merged[len(merged)-1] = append(merged[len(merged)-1], carry...)
		} else {
			merged = append(merged, carry)
		}
	}
	return merged
}

// splitOversized force-splits any group whose joined text would exceed
// the character cap, cutting at the weakest adjacent similarity so the
// forced boundary lands on the most natural seam available.
func (c *SemanticChunker) splitOversized(groups [][]Unit) [][]Unit {
	var out [][]Unit
	for _, g := range groups {
		out = append(out, c.splitGroup(g)...)
	}
	return out
}

func (c *SemanticChunker) splitGroup(g []Unit) [][]Unit {
	if len(g) <= 1 || joinedLen(g) <= c.cfg.ChunkMaxChars {
		return [][]Unit{g}
	}
	cut := 1
	weakest := cosineSimilarity(g[0].Embedding, g[1].Embedding)
	for i := 1; i < len(g)-1; i++ {
		sim := cosineSimilarity(g[i].Embedding, g[i+1].Embedding)
		if sim < weakest {
			weakest = sim
			cut = i + 1
		}
	}
	left := c.splitGroup(g[:cut])
	right := c.splitGroup(g[cut:])
	return append(left, right...)
}

// joinedLen is the length of the chunk text the group would produce,
// counting the single spaces inserted between unit texts.
func joinedLen(g []Unit) int {
	n := len(g) - 1
	for _, u := range g {
		n += len(u.Text)
	}
	return n
}

func buildChunk(id, docID string, page int, group []Unit) Chunk {
	texts := make([]string, len(group))
	embeddings := make([][]float32, len(group))
	for i, u := range group {
		texts[i] = u.Text
		embeddings[i] = u.Embedding
	}
	return Chunk{
		ID:       id,
		DocID:    docID,
		Text:     strings.Join(texts, " "),
		Start:    group[0].Start,
		End:      group[len(group)-1].End,
		Page:     page,
		Centroid: meanVector(embeddings),
	}
}

// checkDimensions verifies every unit carries an embedding of one
// shared dimension and returns that dimension.
func checkDimensions(units []Unit) (int, error) {
	dim := len(units[0].Embedding)
	if dim == 0 {
		return 0, fmt.Errorf("%w: unit 0 has no embedding", ErrDimensionMismatch)
	}
	for i, u := range units[1:] {
		if len(u.Embedding) != dim {
			return 0, fmt.Errorf("%w: unit %d has dimension %d, expected %d", ErrDimensionMismatch, i+1, len(u.Embedding), dim)
		}
	}
	return dim, nil
}
