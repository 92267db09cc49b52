package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/talentscore/internal/logger"
	"github.com/spigell/talentscore/internal/profile"
	"github.com/spigell/talentscore/internal/ranking"
	"github.com/spigell/talentscore/internal/scoring"
	"github.com/spigell/talentscore/internal/storage"
	"github.com/spigell/talentscore/internal/vectorindex"
	"go.uber.org/zap"
)

// DefaultCandidateLimit bounds the attribute-store candidate set of the
// ranking path.
const DefaultCandidateLimit = 200

// unrankable lists the verdicts kept out of the ranking path. Flagged
// postings stay visible until a moderator decides on them.
var unrankable = []profile.Recommendation{profile.RecommendReject}

// Hit is a semantic search result with the namespace prefix removed.
type Hit struct {
	ID    string  `json:"id" yaml:"id"`
	Score float64 `json:"score" yaml:"score"`
	Title string  `json:"title,omitempty" yaml:"title,omitempty"`
}

// JobMatch is the breakdown of one stored job against a candidate.
type JobMatch struct {
	Job       profile.JobPosting `json:"job" yaml:"job"`
	Breakdown scoring.Breakdown  `json:"breakdown" yaml:"breakdown"`
}

// Match scores a stored resume against a stored job.
func (s *Service) Match(ctx context.Context, resumeID, jobID string) (scoring.Breakdown, error) {
	p, err := s.store.GetProfile(ctx, resumeID)
	if err != nil {
		return scoring.Breakdown{}, err
	}
	j, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return scoring.Breakdown{}, err
	}
	return scoring.Overall(p.Profile, j.Job)
}

// MatchAll scores a stored resume against every stored job that moderation did
// not reject, best first. Jobs that fail validation are skipped.
func (s *Service) MatchAll(ctx context.Context, resumeID string) ([]JobMatch, error) {
	p, err := s.store.GetProfile(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.store.ListJobs(ctx, storage.JobQuery{ExcludeRecommendations: unrankable})
	if err != nil {
		return nil, err
	}

	out := make([]JobMatch, 0, len(jobs))
	for _, j := range jobs {
		b, err := scoring.Overall(p.Profile, j)
		if err != nil {
			var verr *profile.ValidationError
			if errors.As(err, &verr) {
				s.logger.Warn("skipping job in match report", zap.String(logger.FieldEntityID, j.ID), zap.Error(err))
				continue
			}
			return nil, err
		}
		out = append(out, JobMatch{Job: j, Breakdown: b})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Breakdown.Overall > out[b].Breakdown.Overall
	})
	return out, nil
}

// SearchJobs returns the jobs semantically closest to a stored resume.
func (s *Service) SearchJobs(ctx context.Context, resumeID string, topK int) ([]Hit, error) {
	p, err := s.store.GetProfile(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	matches := s.retriever.SimilarJobs(ctx, vectorindex.ResumeInput(p.Profile, p.Text), topK)
	return hits(matches, profile.KindJob), nil
}

// SearchCandidates returns the resumes semantically closest to a stored job.
func (s *Service) SearchCandidates(ctx context.Context, jobID string, topK int) ([]Hit, error) {
	j, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	matches := s.retriever.SimilarCandidates(ctx, vectorindex.JobInput(j.Job), topK)
	return hits(matches, profile.KindResume), nil
}

// SearchText returns the nearest records of kind for free text.
func (s *Service) SearchText(ctx context.Context, text string, kind profile.Kind, topK int) []Hit {
	var matches []vectorindex.Match
	if kind == profile.KindJob {
		matches = s.retriever.SimilarJobs(ctx, text, topK)
	} else {
		matches = s.retriever.SimilarCandidates(ctx, text, topK)
	}
	return hits(matches, kind)
}

// Recommend ranks stored jobs for a stored resume by shared attributes.
func (s *Service) Recommend(ctx context.Context, resumeID string, limit int) ([]ranking.Ranked, error) {
	p, err := s.store.GetProfile(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.store.ListJobs(ctx, storage.JobQuery{ExcludeRecommendations: unrankable, Limit: DefaultCandidateLimit})
	if err != nil {
		return nil, err
	}
	return truncate(s.ranker.Recommend(p.Profile, jobs, s.now()), limit), nil
}

// Similar ranks stored jobs by attributes shared with the job jobID.
func (s *Service) Similar(ctx context.Context, jobID string, limit int) ([]ranking.Ranked, error) {
	ref, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.store.ListJobs(ctx, storage.JobQuery{
		ExcludeIDs:             []string{ref.Job.ID},
		ExcludeRecommendations: unrankable,
		Limit:                  DefaultCandidateLimit,
	})
	if err != nil {
		return nil, err
	}
	return truncate(s.ranker.Similar(ref.Job, jobs), limit), nil
}

// Trending returns stored trending jobs, featured first then newest.
func (s *Service) Trending(ctx context.Context, limit int) ([]profile.JobPosting, error) {
	jobs, err := s.store.ListJobs(ctx, storage.JobQuery{
		ExcludeRecommendations: unrankable,
		TrendingOnly:           true,
		Limit:                  DefaultCandidateLimit,
	})
	if err != nil {
		return nil, err
	}
	return s.ranker.Trending(jobs, limit), nil
}

// ReindexStats summarises a Reindex run.
type ReindexStats struct {
	Jobs     int
	Profiles int
	Skipped  int
	Failed   int
}

// Reindex re-embeds every stored job and profile. It keeps going past
// individual failures and returns them joined.
func (s *Service) Reindex(ctx context.Context) (ReindexStats, error) {
	var (
		stats ReindexStats
		errs  []error
	)

	jobs, err := s.store.ListJobs(ctx, storage.JobQuery{})
	if err != nil {
		return stats, err
	}
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		err := s.indexer.IndexJob(ctx, j)
		switch {
		case errors.Is(err, vectorindex.ErrNothingToEmbed):
			stats.Skipped++
		case err != nil:
			stats.Failed++
			errs = append(errs, err)
		default:
			stats.Jobs++
		}
	}

	profiles, err := s.store.ListProfiles(ctx, 0)
	if err != nil {
		return stats, err
	}
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		err := s.indexer.IndexResume(ctx, p.Profile, p.Text)
		switch {
		case errors.Is(err, vectorindex.ErrNothingToEmbed):
			stats.Skipped++
		case err != nil:
			stats.Failed++
			errs = append(errs, err)
		default:
			stats.Profiles++
		}
	}

	s.logger.Info("reindex finished",
		zap.Int("jobs", stats.Jobs),
		zap.Int("profiles", stats.Profiles),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)

	if len(errs) > 0 {
		return stats, fmt.Errorf("reindex: %w", errors.Join(errs...))
	}
	return stats, nil
}

func hits(matches []vectorindex.Match, kind profile.Kind) []Hit {
	prefix := string(kind) + "_"
	out := make([]Hit, 0, len(matches))
	for _, m := range matches {
		title, _ := m.Metadata[vectorindex.MetaTitle].(string)
		out = append(out, Hit{ID: strings.TrimPrefix(m.ID, prefix), Score: m.Score, Title: title})
	}
	return out
}

func truncate(items []ranking.Ranked, limit int) []ranking.Ranked {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
