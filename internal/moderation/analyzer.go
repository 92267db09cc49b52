// Package moderation scores jobs and resumes for spam, fraud and compliance
// problems with a generative primary tier and a rule-based fallback.
package moderation

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/talentscore/internal/ai"
	"github.com/spigell/talentscore/internal/logger"
	"github.com/spigell/talentscore/internal/profile"
	"github.com/spigell/talentscore/internal/scoring"
	"github.com/spigell/talentscore/internal/utils"
	"go.uber.org/zap"
)

// Stage names used in logs.
const (
	StageJob    = "moderation.job"
	StageResume = "moderation.resume"
)

const (
	// MaxConcurrency bounds parallel remote calls of a batch.
	MaxConcurrency = 5
	// DefaultDelay separates calls when a batch runs sequentially.
	DefaultDelay = 100 * time.Millisecond

	systemInstruction = "You are a content moderator for a job board. You answer with a single JSON object and nothing else."
	maxTokens         = 500
	temperature       = 0.1
	maxResumeChars    = 2000
	maxLogLength      = 200
)

var (
	//go:embed job_prompt.md
	jobPrompt string
	//go:embed resume_prompt.md
	resumePrompt string
)

// Options tunes an Analyzer.
type Options struct {
	Timeout     time.Duration
	Thresholds  Thresholds
	Concurrency int
	Delay       time.Duration
}

// Analyzer produces moderation results. It is safe for concurrent use.
type Analyzer struct {
	generator   ai.Generator
	timeout     time.Duration
	thresholds  Thresholds
	concurrency int
	delay       time.Duration
	logger      *zap.Logger
}

// New validates opts and builds an Analyzer. A nil generator makes every call
// use the rule-based fallback. Zero thresholds select the defaults.
func New(generator ai.Generator, opts Options, log *zap.Logger) (*Analyzer, error) {
	thresholds := opts.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = MaxConcurrency
	}
	if concurrency > MaxConcurrency {
		return nil, fmt.Errorf("moderation concurrency must be at most %d, got %d", MaxConcurrency, concurrency)
	}

	delay := opts.Delay
	if delay < 0 {
		delay = 0
	}

	log = logger.OrNop(log)
	if generator != nil {
		log = logger.WithCommonFields(log, generator.Provider(), generator.Model())
	}

	return &Analyzer{
		generator:   generator,
		timeout:     opts.Timeout,
		thresholds:  thresholds,
		concurrency: concurrency,
		delay:       delay,
		logger:      log,
	}, nil
}

// Thresholds returns the active recommendation bands.
func (a *Analyzer) Thresholds() Thresholds { return a.thresholds }

// verdict is the schema the model is asked to fill.
type verdict struct {
	IsSpam              bool     `json:"isSpam"`
	IsFake              bool     `json:"isFake"`
	HasComplianceIssues bool     `json:"hasComplianceIssues"`
	ProfileMismatch     bool     `json:"profileMismatch"`
	IsDuplicate         bool     `json:"isDuplicate"`
	RiskScore           float64  `json:"riskScore"`
	Issues              []string `json:"issues"`
	Recommendation      string   `json:"recommendation"`
}

func (v verdict) toResult() profile.AnalysisResult {
	return profile.AnalysisResult{
		IsSpam:              v.IsSpam,
		IsFake:              v.IsFake,
		HasComplianceIssues: v.HasComplianceIssues,
		ProfileMismatch:     v.ProfileMismatch,
		IsDuplicate:         v.IsDuplicate,
		RiskScore:           profile.ClampFloatScore(v.RiskScore),
		Issues:              v.Issues,
		Recommendation:      profile.Recommendation(strings.ToLower(strings.TrimSpace(v.Recommendation))),
	}
}

func findingsResult(f scoring.RiskFindings) profile.AnalysisResult {
	return profile.AnalysisResult{
		IsSpam:              f.IsSpam,
		IsFake:              f.IsFake,
		HasComplianceIssues: f.HasComplianceIssues,
		ProfileMismatch:     f.ProfileMismatch,
		RiskScore:           f.Score,
		Issues:              f.Issues,
	}
}

// AnalyzeJob moderates a posting. The only error is *profile.ValidationError.
func (a *Analyzer) AnalyzeJob(ctx context.Context, job profile.JobPosting) (profile.AnalysisResult, error) {
	job = job.Normalize()

	quality, err := scoring.JobQuality(job)
	if err != nil {
		return profile.AnalysisResult{}, err
	}
	findings, err := scoring.JobRisk(job)
	if err != nil {
		return profile.AnalysisResult{}, err
	}

	prompt := buildJobPrompt(job)
	out := a.run(ctx, job.ID, StageJob, prompt, findingsResult(findings))

	return a.finish(out, quality), nil
}

// AnalyzeResume moderates a resume. The only error is *profile.ValidationError.
func (a *Analyzer) AnalyzeResume(ctx context.Context, subject scoring.ResumeSubject) (profile.AnalysisResult, error) {
	subject.Profile = subject.Profile.Normalize()

	quality, err := scoring.ResumeQuality(subject.Profile)
	if err != nil {
		return profile.AnalysisResult{}, err
	}
	findings, err := scoring.ResumeRisk(subject)
	if err != nil {
		return profile.AnalysisResult{}, err
	}

	prompt := buildResumePrompt(subject)
	out := a.run(ctx, subject.Profile.ID, StageResume, prompt, findingsResult(findings))

	return a.finish(out, quality), nil
}

func (a *Analyzer) run(ctx context.Context, entityID, stage, prompt string, fallback profile.AnalysisResult) ai.Outcome[profile.AnalysisResult] {
	fallbackFn := func() profile.AnalysisResult { return fallback }

	if a.generator == nil {
		return ai.Outcome[profile.AnalysisResult]{Value: fallback, Tier: ai.TierFallback}
	}

	out := ai.RunWithFallback(ctx, a.timeout, func(ctx context.Context) (profile.AnalysisResult, error) {
		raw, err := a.generator.Generate(ctx, ai.Request{
			SystemInstruction: systemInstruction,
			UserPrompt:        prompt,
			MaxTokens:         maxTokens,
			Temperature:       temperature,
		})
		if err != nil {
			return profile.AnalysisResult{}, err
		}

		a.logger.Debug("moderation response",
			zap.String(logger.FieldEntityID, entityID),
			zap.String(logger.FieldStage, stage),
			zap.String("response_preview", utils.TruncateForLog(raw, maxLogLength)),
		)

		var v verdict
		if err := ai.DecodeObject(raw, &v); err != nil {
			return profile.AnalysisResult{}, err
		}
		return v.toResult(), nil
	}, fallbackFn)

	if out.Tier == ai.TierFallback {
		a.logger.Warn("moderation fell back to rules",
			append(logger.FallbackFields(entityID, stage, ai.ErrorClass(out.Err)), zap.Error(out.Err))...,
		)
	}

	return out
}

// finish is the single constructor path for results of either tier.
func (a *Analyzer) finish(out ai.Outcome[profile.AnalysisResult], quality int) profile.AnalysisResult {
	result := out.Value
	result.QualityScore = quality
	result = result.Clamped()
	if !result.Recommendation.Valid() {
		result.Recommendation = a.thresholds.Recommend(result.RiskScore)
	}
	result.Tier = string(out.Tier)
	return result
}

func buildJobPrompt(job profile.JobPosting) string {
	requirements := strings.Join(job.Requirements, ", ")
	if requirements == "" {
		requirements = "None"
	}
	currency := job.Salary.Currency
	if currency == "" {
		currency = "USD"
	}

	return strings.NewReplacer(
		"{{TITLE}}", job.Title,
		"{{COMPANY}}", job.Company,
		"{{LOCATION}}", job.Location,
		"{{SALARY}}", fmt.Sprintf("%.0f-%.0f %s", job.Salary.Min, job.Salary.Max, currency),
		"{{DESCRIPTION}}", job.Description,
		"{{REQUIREMENTS}}", requirements,
	).Replace(jobPrompt)
}

func buildResumePrompt(subject scoring.ResumeSubject) string {
	account := strings.TrimSpace(subject.AccountName)
	if account == "" {
		account = "unknown"
	}

	return strings.NewReplacer(
		"{{ACCOUNT_NAME}}", account,
		"{{RESUME_TEXT}}", utils.TruncateRunes(subject.Text, maxResumeChars),
	).Replace(resumePrompt)
}
