// Package scoring holds the pure scoring functions: quality, risk, match and
// the combined breakdown. Nothing here performs I/O.
package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/spigell/talentscore/internal/profile"
)

// ResumeQuality scores how complete a candidate profile is.
func ResumeQuality(p profile.Profile) (int, error) {
	if err := profile.ValidateProfile(p); err != nil {
		return 0, err
	}
	p = p.Normalize()

	score := tier(len(p.Skills), []step{{5, 30}, {3, 20}, {1, 10}}, 0)
	score += tier(p.ExperienceYears, []step{{5, 25}, {2, 20}, {1, 15}}, 5)

	if p.Education != "" {
		score += 20
	}

	switch {
	case p.Email != "" && p.Phone != "":
		score += 15
	case p.Email != "" || p.Phone != "":
		score += 10
	}

	if p.Name != "" && p.Location != "" {
		score += 10
	}

	return profile.ClampScore(score), nil
}

// JobQuality scores how complete a job posting is.
func JobQuality(j profile.JobPosting) (int, error) {
	if err := profile.ValidateJob(j); err != nil {
		return 0, err
	}
	j = j.Normalize()

	score := tier(utf8.RuneCountInString(j.Description), []step{{200, 20}, {100, 15}, {50, 10}}, 0)

	if len(j.Requirements) > 0 {
		score += 20
	}
	if j.Company != "" && j.Location != "" {
		score += 20
	}
	if j.Salary.Min > 0 {
		score += 10
	}

	score += tier(len(j.Skills), []step{{3, 20}, {1, 10}}, 0)

	if strings.TrimSpace(j.JobType) != "" {
		score += 10
	}

	return profile.ClampScore(score), nil
}

type step struct {
	atLeast int
	points  int
}

// tier returns the points of the first step whose threshold v reaches.
func tier(v int, steps []step, otherwise int) int {
	for _, s := range steps {
		if v >= s.atLeast {
			return s.points
		}
	}
	return otherwise
}
