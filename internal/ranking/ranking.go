// Package ranking orders attribute-store candidates by shared structural
// signals. It never consults the vector index.
package ranking

import (
	"sort"
	"strings"
	"time"

	"github.com/spigell/talentscore/internal/profile"
)

// Recommendation weights.
const (
	SkillWeight    = 10
	LocationBonus  = 20
	RecentBonus    = 15
	TrendingBonus  = 10
	FeaturedBonus  = 5
	DefaultRecency = 7 * 24 * time.Hour
)

// Similar-job weights.
const (
	SameCompanyBonus  = 30
	SameLocationBonus = 15
	SameJobTypeBonus  = 10
	SameIndustryBonus = 10
)

// Ranked is a job with its additive score.
type Ranked struct {
	Job   profile.JobPosting `json:"job" yaml:"job"`
	Score int                `json:"score" yaml:"score"`
}

// Aggregator scores candidate jobs. The zero value uses DefaultRecency.
type Aggregator struct {
	RecentWindow time.Duration `mapstructure:"recent-window"`
}

// Recommend ranks jobs for a candidate profile. now anchors the recency window.
func (a Aggregator) Recommend(p profile.Profile, candidates []profile.JobPosting, now time.Time) []Ranked {
	p = p.Normalize()
	window := a.RecentWindow
	if window <= 0 {
		window = DefaultRecency
	}

	out := make([]Ranked, 0, len(candidates))
	for _, j := range candidates {
		j = j.Normalize()

		score := SharedSkills(p.Skills, j.Skills) * SkillWeight
		if sameText(p.Location, j.Location) {
			score += LocationBonus
		}
		if !j.CreatedAt.IsZero() && !j.CreatedAt.After(now) && now.Sub(j.CreatedAt) <= window {
			score += RecentBonus
		}
		if j.Trending {
			score += TrendingBonus
		}
		if j.Featured {
			score += FeaturedBonus
		}
		out = append(out, Ranked{Job: j, Score: score})
	}

	sortRanked(out)
	return out
}

// Similar ranks candidates by attributes shared with ref. ref itself is
// excluded by ID.
func (a Aggregator) Similar(ref profile.JobPosting, candidates []profile.JobPosting) []Ranked {
	ref = ref.Normalize()

	out := make([]Ranked, 0, len(candidates))
	for _, j := range candidates {
		j = j.Normalize()
		if ref.ID != "" && j.ID == ref.ID {
			continue
		}

		score := SharedSkills(ref.Skills, j.Skills) * SkillWeight
		if sameText(ref.Company, j.Company) {
			score += SameCompanyBonus
		}
		if sameText(ref.Location, j.Location) {
			score += SameLocationBonus
		}
		if sameText(ref.JobType, j.JobType) {
			score += SameJobTypeBonus
		}
		if sameText(ref.Industry, j.Industry) {
			score += SameIndustryBonus
		}
		out = append(out, Ranked{Job: j, Score: score})
	}

	sortRanked(out)
	return out
}

// Trending keeps the trending candidates, featured first and then newest,
// and cuts them to limit when limit > 0.
func (a Aggregator) Trending(candidates []profile.JobPosting, limit int) []profile.JobPosting {
	out := make([]profile.JobPosting, 0, len(candidates))
	for _, j := range candidates {
		if j.Trending {
			out = append(out, j.Normalize())
		}
	}

	sort.SliceStable(out, func(i, k int) bool {
		x, y := out[i], out[k]
		if x.Featured != y.Featured {
			return x.Featured
		}
		if !x.CreatedAt.Equal(y.CreatedAt) {
			return x.CreatedAt.After(y.CreatedAt)
		}
		return x.ID < y.ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SharedSkills counts case-insensitively equal entries of a present in b.
func SharedSkills(a, b []string) int {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	n := 0
	for _, s := range profile.DedupeSkills(a) {
		if _, ok := set[strings.ToLower(s)]; ok {
			n++
		}
	}
	return n
}

func sameText(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func sortRanked(items []Ranked) {
	sort.SliceStable(items, func(i, k int) bool {
		x, y := items[i], items[k]
		if x.Score != y.Score {
			return x.Score > y.Score
		}
		if !x.Job.CreatedAt.Equal(y.Job.CreatedAt) {
			return x.Job.CreatedAt.After(y.Job.CreatedAt)
		}
		return x.Job.ID < y.Job.ID
	})
}
