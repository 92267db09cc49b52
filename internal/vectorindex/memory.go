package vectorindex

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process cosine similarity index without filtering.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) SupportsFilter() bool { return false }

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Upsert(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			return errors.New("record id is required")
		}
		vector := make([]float32, len(r.Vector))
		copy(vector, r.Vector)
		metadata := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		s.records[r.ID] = Record{ID: r.ID, Vector: vector, Metadata: metadata}
	}
	return nil
}

// Query ignores q.Filter. Ties are ordered by ID.
func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.TopK <= 0 {
		return []Match{}, nil
	}

	s.mu.RLock()
	matches := make([]Match, 0, len(s.records))
	for _, r := range s.records {
		if len(r.Vector) != len(q.Vector) {
			continue
		}
		m := Match{ID: r.ID, Score: Cosine(q.Vector, r.Vector)}
		if q.IncludeMetadata {
			m.Metadata = r.Metadata
		}
		matches = append(matches, m)
	}
	s.mu.RUnlock()

	return TopMatches(matches, q.TopK), nil
}

// TopMatches sorts matches by score, ties by ID, and keeps the first topK.
func TopMatches(matches []Match, topK int) []Match {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// Cosine is the cosine similarity of a and b, 0 when either is a zero vector.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
