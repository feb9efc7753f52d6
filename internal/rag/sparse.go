package rag

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// stopwords excluded from BM25 postings. Short function words carry no
// retrieval signal and bloat the posting lists.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {},
}

// Tokenize lowercases text, strips punctuation, and drops stopwords.
// Both indexing and querying run through this one function so query
// terms always line up with posting keys.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// SparseIndex is an in-memory BM25 keyword index over chunks. It is
// safe for concurrent use: searches share a read lock, inserts and
// deletes take the write lock.
type SparseIndex struct {
	mu sync.RWMutex

	k1 float64
	b  float64

	postings map[string]map[string]int // term -> chunk ID -> frequency
	lengths  map[string]int            // chunk ID -> token count
	chunks   map[string]Chunk          // chunk ID -> stored copy
	order    map[string]int            // chunk ID -> insertion sequence
	seq      int
	total    int // sum of all chunk lengths
}

// NewSparseIndex creates an empty BM25 index with the configured
// saturation and length normalization parameters.
func NewSparseIndex(cfg Config) (*SparseIndex, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SparseIndex{
		k1:       cfg.BM25K1,
		b:        cfg.BM25B,
		postings: make(map[string]map[string]int),
		lengths:  make(map[string]int),
		chunks:   make(map[string]Chunk),
		order:    make(map[string]int),
	}, nil
}

// Insert indexes a chunk. Re-inserting an existing chunk identifier
// replaces its postings instead of duplicating them; the original
// insertion position is kept so tie ordering stays stable.
func (s *SparseIndex) Insert(chunk Chunk) {
	tokens := Tokenize(chunk.Text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chunks[chunk.ID]; exists {
		s.removeLocked(chunk.ID)
	} else {
		s.order[chunk.ID] = s.seq
		s.seq++
	}

	for _, tok := range tokens {
		posting, ok := s.postings[tok]
		if !ok {
			posting = make(map[string]int)
			s.postings[tok] = posting
		}
		posting[chunk.ID]++
	}
	s.lengths[chunk.ID] = len(tokens)
	s.total += len(tokens)
	s.chunks[chunk.ID] = chunk
}

// Delete removes a chunk from the index. Unknown identifiers are a
// no-op.
func (s *SparseIndex) Delete(chunkID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.chunks[chunkID]; !exists {
		return
	}
	s.removeLocked(chunkID)
	delete(s.order, chunkID)
}

// removeLocked strips a chunk's postings and stored copy. The caller
// holds the write lock and decides what happens to its order slot.
func (s *SparseIndex) removeLocked(chunkID string) {
	for term, posting := range s.postings {
		if _, ok := posting[chunkID]; ok {
			delete(posting, chunkID)
			if len(posting) == 0 {
				delete(s.postings, term)
			}
		}
	}
	s.total -= s.lengths[chunkID]
	delete(s.lengths, chunkID)
	delete(s.chunks, chunkID)
}

// Get returns the stored copy of a chunk by identifier.
func (s *SparseIndex) Get(chunkID string) (Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[chunkID]
	return chunk, ok
}

// Len reports the number of indexed chunks.
func (s *SparseIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// SparseHit is a single BM25 result.
type SparseHit struct {
	ChunkID string
	Score   float64
}

// Search scores the indexed chunks against the query terms with BM25
// and returns at most k hits ordered by descending score, ties broken
// by insertion order. An empty query yields an empty result.
func (s *SparseIndex) Search(terms []string, k int) []SparseHit {
	if len(terms) == 0 || k <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.chunks)
	if n == 0 {
		return nil
	}
	avgdl := float64(s.total) / float64(n)

	scores := make(map[string]float64)
	for _, term := range terms {
		posting, ok := s.postings[term]
		if !ok {
			continue
		}
		df := float64(len(posting))
		idf := math.Log(1 + (float64(n)-df+0.5)/(df+0.5))
		for chunkID, tf := range posting {
			dl := float64(s.lengths[chunkID])
			den := float64(tf) + s.k1*(1-s.b+s.b*dl/avgdl)
			scores[chunkID] += idf * float64(tf) * (s.k1 + 1) / den
		}
	}
	if len(scores) == 0 {
		return nil
	}

	hits := make([]SparseHit, 0, len(scores))
	for chunkID, score := range scores {
		hits = append(hits, SparseHit{ChunkID: chunkID, Score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return s.order[hits[i].ChunkID] < s.order[hits[j].ChunkID]
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
