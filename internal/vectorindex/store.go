// Package vectorindex stores job and resume embeddings in one shared index
// and retrieves nearest neighbours filtered by entity type.
package vectorindex

import "context"

// Record is one stored embedding.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// Query asks a store for the TopK records nearest to Vector. Filter holds
// exact-match metadata constraints and is only honoured by stores that
// report SupportsFilter.
type Query struct {
	Vector          []float32
	TopK            int
	Filter          map[string]any
	IncludeMetadata bool
}

// Match is a query hit. Higher Score means more similar.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Store is a similarity index. Upsert overwrites records by ID.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, q Query) ([]Match, error)
	SupportsFilter() bool
}
