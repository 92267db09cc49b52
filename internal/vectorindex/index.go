package vectorindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/talentscore/internal/ai"
	"github.com/spigell/talentscore/internal/logger"
	"github.com/spigell/talentscore/internal/profile"
	"go.uber.org/zap"
)

// StageIndex and StageRetrieve name the index stages in logs.
const (
	StageIndex    = "index"
	StageRetrieve = "retrieve"
)

// DefaultOverfetch multiplies topK when the store cannot filter by type.
const DefaultOverfetch = 4

// maxWidenings bounds how often a short post-filtered result asks the store
// for a larger window.
const maxWidenings = 3

// ErrNothingToEmbed is returned when a record has no embedding input at all.
var ErrNothingToEmbed = errors.New("nothing to embed")

// Indexer embeds jobs and resumes and writes them to the store. Every failure
// is returned to the caller.
type Indexer struct {
	embedder ai.Embedder
	store    Store
	logger   *zap.Logger
}

// NewIndexer builds an Indexer.
func NewIndexer(embedder ai.Embedder, store Store, log *zap.Logger) *Indexer {
	return &Indexer{embedder: embedder, store: store, logger: logger.OrNop(log)}
}

// IndexJob upserts the embedding of j under JobID(j.ID).
func (ix *Indexer) IndexJob(ctx context.Context, j profile.JobPosting) error {
	j = j.Normalize()
	if j.ID == "" {
		return errors.New("job id is required for indexing")
	}
	return ix.upsert(ctx, JobID(j.ID), JobInput(j), jobMetadata(j))
}

// IndexResume upserts the embedding of p under ResumeID(p.ID). sourceText is
// the document p was extracted from; see ResumeInput.
func (ix *Indexer) IndexResume(ctx context.Context, p profile.Profile, sourceText string) error {
	p = p.Normalize()
	if p.ID == "" {
		return errors.New("profile id is required for indexing")
	}
	return ix.upsert(ctx, ResumeID(p.ID), ResumeInput(p, sourceText), resumeMetadata(p))
}

func (ix *Indexer) upsert(ctx context.Context, id, text string, metadata map[string]any) error {
	if text == "" {
		return fmt.Errorf("index %s: %w", id, ErrNothingToEmbed)
	}

	vector, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed %s: %w", id, err)
	}

	if err := ix.store.Upsert(ctx, []Record{{ID: id, Vector: vector, Metadata: metadata}}); err != nil {
		return fmt.Errorf("upsert %s: %w", id, err)
	}

	ix.logger.Debug("indexed record", zap.String(logger.FieldEntityID, id), zap.Int("dimensions", len(vector)))
	return nil
}

// Retriever answers nearest-neighbour queries restricted to one entity type.
// Remote failures are logged and produce an empty result.
type Retriever struct {
	embedder  ai.Embedder
	store     Store
	overfetch int
	logger    *zap.Logger
}

// NewRetriever builds a Retriever. overfetch <= 0 selects DefaultOverfetch.
func NewRetriever(embedder ai.Embedder, store Store, overfetch int, log *zap.Logger) *Retriever {
	if overfetch <= 0 {
		overfetch = DefaultOverfetch
	}
	return &Retriever{embedder: embedder, store: store, overfetch: overfetch, logger: logger.OrNop(log)}
}

// Query returns at most topK matches of kind in store order. A store without
// native filtering is asked for topK × overfetch records; when the other kind
// crowds the window the query is repeated with a doubled window, up to
// maxWidenings times or until the store has nothing more to return.
func (r *Retriever) Query(ctx context.Context, vector []float32, topK int, kind profile.Kind) []Match {
	if topK <= 0 || len(vector) == 0 {
		return []Match{}
	}

	q := Query{Vector: vector, TopK: topK, IncludeMetadata: true}
	if r.store.SupportsFilter() {
		q.Filter = map[string]any{MetaType: string(kind)}
	} else {
		q.TopK = topK * r.overfetch
	}

	for attempt := 0; ; attempt++ {
		matches, err := r.store.Query(ctx, q)
		if err != nil {
			r.logger.Warn("similarity query failed, returning no matches",
				append(logger.FallbackFields("", StageRetrieve, ai.ErrorClass(err)), zap.String("kind", string(kind)), zap.Error(err))...,
			)
			return []Match{}
		}

		out := filterKind(matches, kind, topK)
		exhausted := len(matches) < q.TopK
		if len(out) == topK || q.Filter != nil || exhausted || attempt == maxWidenings {
			return out
		}
		q.TopK *= 2
	}
}

func filterKind(matches []Match, kind profile.Kind, topK int) []Match {
	out := make([]Match, 0, topK)
	for _, m := range matches {
		if len(out) == topK {
			break
		}
		if t, _ := m.Metadata[MetaType].(string); t != string(kind) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SimilarJobs embeds text and returns the nearest jobs.
func (r *Retriever) SimilarJobs(ctx context.Context, text string, topK int) []Match {
	return r.similar(ctx, text, topK, profile.KindJob)
}

// SimilarCandidates embeds text and returns the nearest resumes.
func (r *Retriever) SimilarCandidates(ctx context.Context, text string, topK int) []Match {
	return r.similar(ctx, text, topK, profile.KindResume)
}

func (r *Retriever) similar(ctx context.Context, text string, topK int, kind profile.Kind) []Match {
	if text == "" {
		return []Match{}
	}

	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		r.logger.Warn("query embedding failed, returning no matches",
			append(logger.FallbackFields("", StageRetrieve, ai.ErrorClass(err)), zap.String("kind", string(kind)), zap.Error(err))...,
		)
		return []Match{}
	}

	return r.Query(ctx, vector, topK, kind)
}
