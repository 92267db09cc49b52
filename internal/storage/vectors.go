package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/talentscore/internal/vectorindex"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type vectorRow struct {
	ID        string `gorm:"primaryKey"`
	Kind      string `gorm:"index"`
	Vector    datatypes.JSONSlice[float32]
	Metadata  datatypes.JSONMap
	UpdatedAt time.Time
}

func (vectorRow) TableName() string { return "vectors" }

// VectorStore keeps embeddings in the same database as the records they
// describe, so the index outlives the process. Similarity is computed in
// memory over the rows of the requested kind.
type VectorStore struct {
	db *gorm.DB
}

var _ vectorindex.Store = (*VectorStore)(nil)

// Vectors returns the similarity index backed by this database.
func (s *Store) Vectors() *VectorStore {
	return &VectorStore{db: s.db}
}

// SupportsFilter is true for the type filter only.
func (v *VectorStore) SupportsFilter() bool { return true }

// Upsert replaces records by ID.
func (v *VectorStore) Upsert(ctx context.Context, records []vectorindex.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]vectorRow, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			return errors.New("upsert vector: id is required")
		}
		kind, _ := r.Metadata[vectorindex.MetaType].(string)
		rows = append(rows, vectorRow{
			ID:       r.ID,
			Kind:     kind,
			Vector:   datatypes.NewJSONSlice(r.Vector),
			Metadata: datatypes.JSONMap(r.Metadata),
		})
	}

	tx := v.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rows)
	if tx.Error != nil {
		return fmt.Errorf("upsert vectors: %w", tx.Error)
	}
	return nil
}

// Query ranks stored vectors by cosine similarity. Only the type key of
// q.Filter is understood.
func (v *VectorStore) Query(ctx context.Context, q vectorindex.Query) ([]vectorindex.Match, error) {
	if q.TopK <= 0 || len(q.Vector) == 0 {
		return []vectorindex.Match{}, nil
	}

	query := v.db.WithContext(ctx).Model(&vectorRow{})
	for key, value := range q.Filter {
		kind, ok := value.(string)
		if key != vectorindex.MetaType || !ok {
			return nil, fmt.Errorf("query vectors: unsupported filter %s=%v", key, value)
		}
		query = query.Where("kind = ?", kind)
	}

	var rows []vectorRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	matches := make([]vectorindex.Match, 0, len(rows))
	for _, r := range rows {
		if len(r.Vector) != len(q.Vector) {
			continue
		}
		m := vectorindex.Match{ID: r.ID, Score: vectorindex.Cosine(q.Vector, []float32(r.Vector))}
		if q.IncludeMetadata {
			m.Metadata = map[string]any(r.Metadata)
		}
		matches = append(matches, m)
	}
	return vectorindex.TopMatches(matches, q.TopK), nil
}
