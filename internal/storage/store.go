// Package storage keeps structured jobs and candidate profiles in SQLite. It is
// the attribute store behind the ranking path and the source of reindexing.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/talentscore/internal/profile"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by the Get methods for unknown IDs.
var ErrNotFound = errors.New("record not found")

// Store wraps the SQLite database.
type Store struct {
	db *gorm.DB
}

// JobQuery filters ListJobs. Zero fields do not filter. ExcludeRecommendations
// drops jobs whose stored moderation verdict is one of the listed ones.
// Results are ordered by posting time, newest first.
type JobQuery struct {
	ExcludeIDs             []string
	ExcludeRecommendations []profile.Recommendation
	Industry               string
	JobType                string
	TrendingOnly           bool
	CreatedAfter           time.Time
	Limit                  int
}

// StoredJob is a job with the moderation result saved next to it.
type StoredJob struct {
	Job       profile.JobPosting     `json:"job" yaml:"job"`
	Analysis  profile.AnalysisResult `json:"analysis" yaml:"analysis"`
	UpdatedAt time.Time              `json:"updatedAt" yaml:"updatedAt"`
}

// StoredProfile is a candidate profile with its source text and moderation result.
type StoredProfile struct {
	Profile   profile.Profile        `json:"profile" yaml:"profile"`
	Text      string                 `json:"text" yaml:"text"`
	Analysis  profile.AnalysisResult `json:"analysis" yaml:"analysis"`
	UpdatedAt time.Time              `json:"updatedAt" yaml:"updatedAt"`
}

type jobRow struct {
	ID             string `gorm:"primaryKey"`
	Title          string
	Company        string
	Location       string
	JobType        string `gorm:"index"`
	SalaryMin      float64
	SalaryMax      float64
	SalaryCurrency string
	Description    string
	Requirements   datatypes.JSONSlice[string]
	Skills         datatypes.JSONSlice[string]
	Industry       string `gorm:"index"`
	CompanySize    string
	Featured       bool
	Trending       bool
	PostedAt       time.Time `gorm:"index"`
	Recommendation string    `gorm:"index"`
	Analysis       datatypes.JSONType[profile.AnalysisResult]
	UpdatedAt      time.Time
}

func (jobRow) TableName() string { return "jobs" }

type profileRow struct {
	ID               string `gorm:"primaryKey"`
	Name             string
	Email            string
	Phone            string
	Location         string
	Title            string
	ExperienceYears  int
	Skills           datatypes.JSONSlice[string]
	Education        string
	Summary          string
	Certifications   datatypes.JSONSlice[string]
	PreferredJobType string
	Text             string
	Analysis         datatypes.JSONType[profile.AnalysisResult]
	UpdatedAt        time.Time
}

func (profileRow) TableName() string { return "profiles" }

// NewStore opens or creates the database at dbPath and migrates the schema.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&jobRow{}, &profileRow{}, &vectorRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// UpsertJob writes j and its analysis. An existing row is replaced as a whole.
func (s *Store) UpsertJob(ctx context.Context, j profile.JobPosting, analysis profile.AnalysisResult) error {
	j = j.Normalize()
	if j.ID == "" {
		return errors.New("upsert job: id is required")
	}

	row := jobRow{
		ID:             j.ID,
		Title:          j.Title,
		Company:        j.Company,
		Location:       j.Location,
		JobType:        j.JobType,
		SalaryMin:      j.Salary.Min,
		SalaryMax:      j.Salary.Max,
		SalaryCurrency: j.Salary.Currency,
		Description:    j.Description,
		Requirements:   datatypes.NewJSONSlice(j.Requirements),
		Skills:         datatypes.NewJSONSlice(j.Skills),
		Industry:       j.Industry,
		CompanySize:    j.CompanySize,
		Featured:       j.Featured,
		Trending:       j.Trending,
		PostedAt:       j.CreatedAt.UTC(),
		Recommendation: string(analysis.Recommendation),
		Analysis:       datatypes.NewJSONType(analysis),
	}

	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row)
	if tx.Error != nil {
		return fmt.Errorf("upsert job %s: %w", j.ID, tx.Error)
	}
	return nil
}

// GetJob returns the job with id or ErrNotFound.
func (s *Store) GetJob(ctx context.Context, id string) (StoredJob, error) {
	var row jobRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StoredJob{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return StoredJob{}, fmt.Errorf("get job: %w", err)
	}
	return row.toStored(), nil
}

// ListJobs returns jobs matching q.
func (s *Store) ListJobs(ctx context.Context, q JobQuery) ([]profile.JobPosting, error) {
	query := s.db.WithContext(ctx).Model(&jobRow{}).Order("posted_at DESC").Order("id ASC")

	if ids := compactIDs(q.ExcludeIDs); len(ids) > 0 {
		query = query.Where("id NOT IN ?", ids)
	}
	if len(q.ExcludeRecommendations) > 0 {
		verdicts := make([]string, 0, len(q.ExcludeRecommendations))
		for _, r := range q.ExcludeRecommendations {
			verdicts = append(verdicts, string(r))
		}
		query = query.Where("(recommendation IS NULL OR recommendation NOT IN ?)", verdicts)
	}
	if q.TrendingOnly {
		query = query.Where("trending = ?", true)
	}
	if v := strings.TrimSpace(q.Industry); v != "" {
		query = query.Where("LOWER(industry) = LOWER(?)", v)
	}
	if v := strings.TrimSpace(q.JobType); v != "" {
		query = query.Where("LOWER(job_type) = LOWER(?)", v)
	}
	if !q.CreatedAfter.IsZero() {
		query = query.Where("posted_at > ?", q.CreatedAfter.UTC())
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []jobRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]profile.JobPosting, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.toStored().Job)
	}
	return jobs, nil
}

// UpsertProfile writes p with its source text and analysis, replacing any
// previous version.
func (s *Store) UpsertProfile(ctx context.Context, p profile.Profile, text string, analysis profile.AnalysisResult) error {
	p = p.Normalize()
	if p.ID == "" {
		return errors.New("upsert profile: id is required")
	}

	row := profileRow{
		ID:               p.ID,
		Name:             p.Name,
		Email:            p.Email,
		Phone:            p.Phone,
		Location:         p.Location,
		Title:            p.Title,
		ExperienceYears:  p.ExperienceYears,
		Skills:           datatypes.NewJSONSlice(p.Skills),
		Education:        p.Education,
		Summary:          p.Summary,
		Certifications:   datatypes.NewJSONSlice(p.Certifications),
		PreferredJobType: p.PreferredJobType,
		Text:             text,
		Analysis:         datatypes.NewJSONType(analysis),
	}

	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row)
	if tx.Error != nil {
		return fmt.Errorf("upsert profile %s: %w", p.ID, tx.Error)
	}
	return nil
}

// GetProfile returns the profile with id or ErrNotFound.
func (s *Store) GetProfile(ctx context.Context, id string) (StoredProfile, error) {
	var row profileRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StoredProfile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return StoredProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return row.toStored(), nil
}

// ListProfiles returns up to limit profiles ordered by ID. limit <= 0 means all.
func (s *Store) ListProfiles(ctx context.Context, limit int) ([]StoredProfile, error) {
	query := s.db.WithContext(ctx).Model(&profileRow{}).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []profileRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	out := make([]StoredProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toStored())
	}
	return out, nil
}

func (r jobRow) toStored() StoredJob {
	j := profile.JobPosting{
		ID:           r.ID,
		Title:        r.Title,
		Company:      r.Company,
		Location:     r.Location,
		JobType:      r.JobType,
		Salary:       profile.SalaryRange{Min: r.SalaryMin, Max: r.SalaryMax, Currency: r.SalaryCurrency},
		Description:  r.Description,
		Requirements: []string(r.Requirements),
		Skills:       []string(r.Skills),
		Industry:     r.Industry,
		CompanySize:  r.CompanySize,
		Featured:     r.Featured,
		Trending:     r.Trending,
		CreatedAt:    r.PostedAt.UTC(),
	}
	return StoredJob{Job: j.Normalize(), Analysis: r.Analysis.Data(), UpdatedAt: r.UpdatedAt}
}

func (r profileRow) toStored() StoredProfile {
	p := profile.Profile{
		ID:               r.ID,
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		Location:         r.Location,
		Title:            r.Title,
		ExperienceYears:  r.ExperienceYears,
		Skills:           []string(r.Skills),
		Education:        r.Education,
		Summary:          r.Summary,
		Certifications:   []string(r.Certifications),
		PreferredJobType: r.PreferredJobType,
	}
	return StoredProfile{Profile: p.Normalize(), Text: r.Text, Analysis: r.Analysis.Data(), UpdatedAt: r.UpdatedAt}
}

func compactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
