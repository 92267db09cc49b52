package moderation

import (
	"context"

	"github.com/spigell/talentscore/internal/profile"
	"github.com/spigell/talentscore/internal/utils"
	"golang.org/x/sync/errgroup"
)

// JobResult is one item of a batch. Err is set only for invalid postings.
type JobResult struct {
	JobID  string
	Result profile.AnalysisResult
	Err    error
}

// AnalyzeJobs moderates jobs and returns results in input order. With a
// concurrency of 1 the calls run sequentially separated by the configured
// delay; otherwise at most concurrency calls run at once. A failing item never
// aborts the batch.
func (a *Analyzer) AnalyzeJobs(ctx context.Context, jobs []profile.JobPosting) []JobResult {
	results := make([]JobResult, len(jobs))

	analyze := func(i int) {
		result, err := a.AnalyzeJob(ctx, jobs[i])
		results[i] = JobResult{JobID: jobs[i].ID, Result: result, Err: err}
	}

	if a.concurrency == 1 {
		for i := range jobs {
			if i > 0 {
				// a cancelled wait still lets the remaining items fall back
				_ = utils.WaitFor(ctx, a.delay)
			}
			analyze(i)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i := range jobs {
		g.Go(func() error {
			analyze(i)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
