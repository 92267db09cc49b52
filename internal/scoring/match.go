package scoring

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/talentscore/internal/profile"
)

const maxRequiredYears = 30

var requiredYearsPattern = regexp.MustCompile(`(?i)(\d+)\s*\+?\s*years?`)

// Match scores the mutual fit of a candidate and a job.
func Match(p profile.Profile, j profile.JobPosting) (int, error) {
	if err := profile.ValidateProfile(p); err != nil {
		return 0, err
	}
	if err := profile.ValidateJob(j); err != nil {
		return 0, err
	}
	p = p.Normalize()
	j = j.Normalize()

	skills := clampTo(int(math.Round(SkillCoverage(p.Skills, j.Skills)*50)), 50)
	experience := clampTo(experiencePoints(p.ExperienceYears, RequiredYears(j)), 25)

	location := 5
	if p.Location != "" && j.Location != "" && overlaps(p.Location, j.Location) {
		location = 15
	}

	jobType := 5
	if p.PreferredJobType != "" && strings.EqualFold(p.PreferredJobType, j.JobType) {
		jobType = 10
	}

	return profile.ClampScore(skills + experience + location + jobType), nil
}

// SkillCoverage is the fraction of job skills matched by at least one candidate
// skill, using case-insensitive containment in either direction.
func SkillCoverage(candidate, job []string) float64 {
	if len(job) == 0 {
		return 0
	}

	covered := 0
	for _, want := range job {
		for _, have := range candidate {
			if overlaps(have, want) {
				covered++
				break
			}
		}
	}

	return float64(covered) / float64(len(job))
}

// RequiredYears is the largest "<N>+ years" figure in the description and
// requirements. Figures above 30 are ignored; zero when none is stated.
func RequiredYears(j profile.JobPosting) int {
	text := j.Description + " " + strings.Join(j.Requirements, " ")

	best := 0
	for _, match := range requiredYearsPattern.FindAllStringSubmatch(text, -1) {
		years, err := strconv.Atoi(match[1])
		if err != nil || years > maxRequiredYears {
			continue
		}
		if years > best {
			best = years
		}
	}
	return best
}

func experiencePoints(have, required int) int {
	switch {
	case have >= required:
		return 25
	case have*10 >= required*7:
		return 20
	case have*2 >= required:
		return 15
	default:
		return 5
	}
}

func overlaps(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func clampTo(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
