// Package service wires extraction, scoring, moderation, storage and the
// similarity index into the ingest and retrieval flows used by the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/talentscore/internal/ai"
	"github.com/spigell/talentscore/internal/document"
	"github.com/spigell/talentscore/internal/extraction"
	"github.com/spigell/talentscore/internal/logger"
	"github.com/spigell/talentscore/internal/moderation"
	"github.com/spigell/talentscore/internal/profile"
	"github.com/spigell/talentscore/internal/ranking"
	"github.com/spigell/talentscore/internal/scoring"
	"github.com/spigell/talentscore/internal/source"
	"github.com/spigell/talentscore/internal/storage"
	"github.com/spigell/talentscore/internal/vectorindex"
	"go.uber.org/zap"
)

// Store is the attribute store used by the service.
type Store interface {
	UpsertJob(ctx context.Context, j profile.JobPosting, analysis profile.AnalysisResult) error
	GetJob(ctx context.Context, id string) (storage.StoredJob, error)
	ListJobs(ctx context.Context, q storage.JobQuery) ([]profile.JobPosting, error)
	UpsertProfile(ctx context.Context, p profile.Profile, text string, analysis profile.AnalysisResult) error
	GetProfile(ctx context.Context, id string) (storage.StoredProfile, error)
	ListProfiles(ctx context.Context, limit int) ([]storage.StoredProfile, error)
}

// Fetcher loads raw documents by path or URL.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (document.Document, error)
}

// Deps are the collaborators of a Service. Fetcher and Now are optional.
type Deps struct {
	Extractor *extraction.Extractor
	Analyzer  *moderation.Analyzer
	Store     Store
	Indexer   *vectorindex.Indexer
	Retriever *vectorindex.Retriever
	Ranker    ranking.Aggregator
	Fetcher   Fetcher
	Now       func() time.Time
	Logger    *zap.Logger
}

// Service runs the end-to-end flows.
type Service struct {
	extractor *extraction.Extractor
	analyzer  *moderation.Analyzer
	store     Store
	indexer   *vectorindex.Indexer
	retriever *vectorindex.Retriever
	ranker    ranking.Aggregator
	fetcher   Fetcher
	now       func() time.Time
	logger    *zap.Logger
}

// New checks deps and builds a Service.
func New(deps Deps) (*Service, error) {
	switch {
	case deps.Extractor == nil:
		return nil, errors.New("extractor is required")
	case deps.Analyzer == nil:
		return nil, errors.New("analyzer is required")
	case deps.Store == nil:
		return nil, errors.New("store is required")
	case deps.Indexer == nil || deps.Retriever == nil:
		return nil, errors.New("indexer and retriever are required")
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	log := logger.OrNop(deps.Logger)
	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = source.New(log)
	}

	return &Service{
		extractor: deps.Extractor,
		analyzer:  deps.Analyzer,
		store:     deps.Store,
		indexer:   deps.Indexer,
		retriever: deps.Retriever,
		ranker:    deps.Ranker,
		fetcher:   fetcher,
		now:       now,
		logger:    log,
	}, nil
}

// ResumeResult is the outcome of ingesting one resume.
type ResumeResult struct {
	Profile        profile.Profile        `json:"profile" yaml:"profile"`
	Analysis       profile.AnalysisResult `json:"analysis" yaml:"analysis"`
	ExtractionTier ai.Tier                `json:"extractionTier" yaml:"extractionTier"`
}

// JobResult is the outcome of ingesting one job. Err is set when the posting
// was rejected or could not be persisted.
type JobResult struct {
	Job      profile.JobPosting     `json:"job" yaml:"job"`
	Analysis profile.AnalysisResult `json:"analysis" yaml:"analysis"`
	Err      error                  `json:"-" yaml:"-"`
}

// IngestResumeRef fetches ref and ingests it.
func (s *Service) IngestResumeRef(ctx context.Context, ref, id string) (ResumeResult, error) {
	doc, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		return ResumeResult{}, err
	}
	return s.IngestResume(ctx, doc, id)
}

// IngestResume extracts, moderates, stores and indexes one resume. An empty id
// gets a generated one. Extraction and validation errors are returned, remote
// failures are absorbed by the fallback tiers. Nothing is written when ctx is
// done once the profile is known.
func (s *Service) IngestResume(ctx context.Context, doc document.Document, id string) (ResumeResult, error) {
	text, err := document.Extract(doc)
	if err != nil {
		return ResumeResult{}, err
	}
	if id == "" {
		id = source.NewID()
	}

	p, tier := s.extractor.Extract(ctx, id, text)
	p.ID = id

	analysis, err := s.analyzer.AnalyzeResume(ctx, scoring.ResumeSubject{Profile: p, Text: text})
	if err != nil {
		return ResumeResult{}, err
	}

	if err := ctx.Err(); err != nil {
		return ResumeResult{}, fmt.Errorf("ingest resume %s: %w", id, err)
	}

	// the vector goes first so a failed index write leaves no unsearchable row
	if err := s.indexed(id, s.indexer.IndexResume(ctx, p, text)); err != nil {
		return ResumeResult{}, err
	}
	if err := s.store.UpsertProfile(ctx, p, text, analysis); err != nil {
		return ResumeResult{}, err
	}

	s.logger.Info("resume ingested",
		zap.String(logger.FieldEntityID, id),
		zap.String("extraction_tier", string(tier)),
		zap.Int("quality", analysis.QualityScore),
		zap.Int("risk", analysis.RiskScore),
		zap.String("recommendation", string(analysis.Recommendation)),
	)

	return ResumeResult{Profile: p.Normalize(), Analysis: analysis, ExtractionTier: tier}, nil
}

// IngestJob moderates, stores and indexes one posting.
func (s *Service) IngestJob(ctx context.Context, j profile.JobPosting) (JobResult, error) {
	j = withID(j)

	analysis, err := s.analyzer.AnalyzeJob(ctx, j)
	if err != nil {
		return JobResult{Job: j}, err
	}

	if err := s.persistJob(ctx, j, analysis); err != nil {
		return JobResult{Job: j, Analysis: analysis}, err
	}
	return JobResult{Job: j, Analysis: analysis}, nil
}

// IngestJobs moderates jobs as a batch and persists every valid one. Results
// keep input order and a failing item does not stop the others.
func (s *Service) IngestJobs(ctx context.Context, jobs []profile.JobPosting) []JobResult {
	prepared := make([]profile.JobPosting, len(jobs))
	for i, j := range jobs {
		prepared[i] = withID(j)
	}

	batch := s.analyzer.AnalyzeJobs(ctx, prepared)

	out := make([]JobResult, len(prepared))
	for i, item := range batch {
		out[i] = JobResult{Job: prepared[i], Analysis: item.Result, Err: item.Err}
		if item.Err != nil {
			s.logger.Warn("skipping invalid job", zap.String(logger.FieldEntityID, item.JobID), zap.Error(item.Err))
			continue
		}
		if err := s.persistJob(ctx, prepared[i], item.Result); err != nil {
			out[i].Err = err
			s.logger.Error("persisting job", zap.String(logger.FieldEntityID, item.JobID), zap.Error(err))
		}
	}
	return out
}

// ModerateJobs runs batch moderation without persisting anything.
func (s *Service) ModerateJobs(ctx context.Context, jobs []profile.JobPosting) []moderation.JobResult {
	return s.analyzer.AnalyzeJobs(ctx, jobs)
}

func (s *Service) persistJob(ctx context.Context, j profile.JobPosting, analysis profile.AnalysisResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ingest job %s: %w", j.ID, err)
	}
	if err := s.indexed(j.ID, s.indexer.IndexJob(ctx, j)); err != nil {
		return err
	}
	if err := s.store.UpsertJob(ctx, j, analysis); err != nil {
		return err
	}

	s.logger.Info("job ingested",
		zap.String(logger.FieldEntityID, j.ID),
		zap.Int("quality", analysis.QualityScore),
		zap.Int("risk", analysis.RiskScore),
		zap.String("recommendation", string(analysis.Recommendation)),
	)
	return nil
}

// indexed turns a record without any embedding input into a warning. It is
// still stored and reachable through the ranking path.
func (s *Service) indexed(id string, err error) error {
	if errors.Is(err, vectorindex.ErrNothingToEmbed) {
		s.logger.Warn("record not indexed, nothing to embed", zap.String(logger.FieldEntityID, id))
		return nil
	}
	return err
}

func withID(j profile.JobPosting) profile.JobPosting {
	j = j.Normalize()
	if j.ID == "" {
		j.ID = source.NewID()
	}
	return j
}
