package profile

import "math"

// Recommendation is the moderation verdict.
type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendFlag    Recommendation = "flag"
	RecommendReject  Recommendation = "reject"
)

// Valid reports whether r is one of the known verdicts.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendApprove, RecommendFlag, RecommendReject:
		return true
	}
	return false
}

// AnalysisResult is the moderation output for a job or a resume.
type AnalysisResult struct {
	IsSpam              bool           `json:"isSpam" yaml:"isSpam"`
	IsFake              bool           `json:"isFake" yaml:"isFake"`
	HasComplianceIssues bool           `json:"hasComplianceIssues" yaml:"hasComplianceIssues"`
	ProfileMismatch     bool           `json:"profileMismatch" yaml:"profileMismatch"`
	IsDuplicate         bool           `json:"isDuplicate" yaml:"isDuplicate"`
	RiskScore           int            `json:"riskScore" yaml:"riskScore"`
	QualityScore        int            `json:"qualityScore" yaml:"qualityScore"`
	Issues              []string       `json:"issues" yaml:"issues"`
	Recommendation      Recommendation `json:"recommendation" yaml:"recommendation"`
	Tier                string         `json:"tier,omitempty" yaml:"tier,omitempty"`
}

// Clamped returns a copy with both scores forced into [0,100] and a non-nil issue list.
func (a AnalysisResult) Clamped() AnalysisResult {
	a.RiskScore = ClampScore(a.RiskScore)
	a.QualityScore = ClampScore(a.QualityScore)
	if a.Issues == nil {
		a.Issues = []string{}
	}
	return a
}

// ClampScore forces v into [0,100].
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampFloatScore rounds v and clamps it into [0,100]; NaN becomes 0.
func ClampFloatScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	if v <= 0 {
		return 0
	}
	if v >= 100 {
		return 100
	}
	return int(math.Round(v))
}
