package scoring

import "github.com/spigell/talentscore/internal/profile"

// Recommendation is the hiring verdict of a breakdown.
type Recommendation string

const (
	HighlyRecommended Recommendation = "HIGHLY_RECOMMENDED"
	Recommended       Recommendation = "RECOMMENDED"
	ReviewRequired    Recommendation = "REVIEW_REQUIRED"
	NotRecommended    Recommendation = "NOT_RECOMMENDED"
)

// Confidence grades the mean of the non-risk scores.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Weights of the overall score in tenths: 0.3 resume, 0.2 job, 0.4 match and
// 0.1 for the inverted risk.
const (
	WeightResume = 3
	WeightJob    = 2
	WeightMatch  = 4
	WeightSafety = 1
)

// Breakdown is the combined score of one candidate against one job.
type Breakdown struct {
	Resume         int            `json:"resume" yaml:"resume"`
	Job            int            `json:"job" yaml:"job"`
	Match          int            `json:"match" yaml:"match"`
	Risk           int            `json:"risk" yaml:"risk"`
	Overall        int            `json:"overall" yaml:"overall"`
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`
	Confidence     Confidence     `json:"confidence" yaml:"confidence"`
}

// Overall scores p against j. The risk component is the job's risk.
func Overall(p profile.Profile, j profile.JobPosting) (Breakdown, error) {
	resume, err := ResumeQuality(p)
	if err != nil {
		return Breakdown{}, err
	}
	job, err := JobQuality(j)
	if err != nil {
		return Breakdown{}, err
	}
	match, err := Match(p, j)
	if err != nil {
		return Breakdown{}, err
	}
	risk, err := JobRisk(j)
	if err != nil {
		return Breakdown{}, err
	}

	return Combine(resume, job, match, risk.Score), nil
}

// Combine builds a breakdown from already computed component scores.
func Combine(resume, job, match, risk int) Breakdown {
	resume = profile.ClampScore(resume)
	job = profile.ClampScore(job)
	match = profile.ClampScore(match)
	risk = profile.ClampScore(risk)

	// integer tenths keep x.5 boundaries exact; rounds half up
	tenths := WeightResume*resume + WeightJob*job + WeightMatch*match + WeightSafety*(100-risk)
	overall := profile.ClampScore((tenths + 5) / 10)

	return Breakdown{
		Resume:         resume,
		Job:            job,
		Match:          match,
		Risk:           risk,
		Overall:        overall,
		Recommendation: recommend(overall, risk),
		Confidence:     confidence(resume, job, match),
	}
}

func recommend(overall, risk int) Recommendation {
	switch {
	case overall >= 80 && risk < 20:
		return HighlyRecommended
	case overall >= 60 && risk < 40:
		return Recommended
	case overall >= 40 && risk < 60:
		return ReviewRequired
	default:
		return NotRecommended
	}
}

func confidence(resume, job, match int) Confidence {
	mean := float64(resume+job+match) / 3
	switch {
	case mean >= 80:
		return ConfidenceHigh
	case mean >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
