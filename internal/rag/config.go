package rag

import (
	"errors"
	"fmt"
)

// Common errors for configuration validation
var (
	ErrInvalidConfig = errors.New("invalid retrieval configuration")
)

// Fusion strategies for combining sparse and dense result sets
const (
	FusionWeighted = "weighted" // min-max normalized weighted sum
	FusionRRF      = "rrf"      // reciprocal rank fusion
)

// Config holds the tunable policy surface of the retrieval core.
// All values are validated once at construction, not per call.
type Config struct {
	// BreakpointThreshold is the normalized similarity-gradient cutoff
	// for placing a chunk boundary, on a [0,1] scale.
	BreakpointThreshold float64

	// ChunkMinUnits merges chunks with fewer units forward into the
	// next chunk.
	ChunkMinUnits int

	// ChunkMaxChars forces a split of chunks whose accumulated text
	// exceeds this many characters.
	ChunkMaxChars int

	// BM25K1 and BM25B are the standard BM25 saturation and length
	// normalization parameters.
	BM25K1 float64
	BM25B  float64

	// FusionWeightSparse and FusionWeightDense weight the two index
	// contributions under weighted fusion. They must sum positively.
	FusionWeightSparse float64
	FusionWeightDense  float64

	// OverFetchFactor multiplies k when querying each index to
	// compensate for fusion-time losses.
	OverFetchFactor int

	// TopK is the default result count when the caller passes k <= 0.
	TopK int

	// Fusion selects the score combination strategy.
	Fusion string
}

// DefaultConfig returns the retrieval defaults used by the study assistant.
func DefaultConfig() Config {
	return Config{
		BreakpointThreshold: 0.8,
		ChunkMinUnits:       2,
		ChunkMaxChars:       2000,
		BM25K1:              1.5,
		BM25B:               0.75,
		FusionWeightSparse:  0.5,
		FusionWeightDense:   0.5,
		OverFetchFactor:     2,
		TopK:                5,
		Fusion:              FusionWeighted,
	}
}

// Validate checks option values and reports the first violation.
func (c Config) Validate() error {
	if c.BreakpointThreshold < 0 || c.BreakpointThreshold > 1 {
		return fmt.Errorf("%w: breakpoint threshold %.2f outside [0,1]", ErrInvalidConfig, c.BreakpointThreshold)
	}
	if c.ChunkMinUnits < 1 {
		return fmt.Errorf("%w: chunk min units must be at least 1, got %d", ErrInvalidConfig, c.ChunkMinUnits)
	}
	if c.ChunkMaxChars < 1 {
		return fmt.Errorf("%w: chunk max chars must be positive, got %d", ErrInvalidConfig, c.ChunkMaxChars)
	}
	if c.BM25K1 < 0 {
		return fmt.Errorf("%w: bm25 k1 must be non-negative, got %.2f", ErrInvalidConfig, c.BM25K1)
	}
	if c.BM25B < 0 || c.BM25B > 1 {
		return fmt.Errorf("%w: bm25 b %.2f outside [0,1]", ErrInvalidConfig, c.BM25B)
	}
	if c.FusionWeightSparse < 0 || c.FusionWeightDense < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", ErrInvalidConfig)
	}
	if c.FusionWeightSparse+c.FusionWeightDense <= 0 {
		return fmt.Errorf("%w: fusion weights must sum positively", ErrInvalidConfig)
	}
	if c.OverFetchFactor < 1 {
		return fmt.Errorf("%w: over-fetch factor must be at least 1, got %d", ErrInvalidConfig, c.OverFetchFactor)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: top k must be positive, got %d", ErrInvalidConfig, c.TopK)
	}
	if c.Fusion != FusionWeighted && c.Fusion != FusionRRF {
		return fmt.Errorf("%w: unknown fusion strategy %q", ErrInvalidConfig, c.Fusion)
	}
	return nil
}
