// Package extraction turns resume text into a structured profile.
package extraction

import (
	"context"
	_ "embed"
	"strings"
	"time"

	"github.com/spigell/talentscore/internal/ai"
	"github.com/spigell/talentscore/internal/logger"
	"github.com/spigell/talentscore/internal/profile"
	"github.com/spigell/talentscore/internal/utils"
	"go.uber.org/zap"
)

// Stage is the pipeline stage name used in logs.
const Stage = "extraction"

const (
	// DefaultMaxInputChars bounds the resume text sent to the model.
	DefaultMaxInputChars = 2000

	systemInstruction = "You are a resume parser. You answer with a single JSON object and nothing else."
	maxTokens         = 800
	temperature       = 0.1
	maxLogLength      = 200
)

//go:embed prompt.md
var promptTemplate string

// Options tunes an Extractor.
type Options struct {
	Timeout       time.Duration
	MaxInputChars int
}

// Extractor produces profiles from resume text with a generative primary tier
// and a deterministic fallback.
type Extractor struct {
	generator     ai.Generator
	timeout       time.Duration
	maxInputChars int
	logger        *zap.Logger
}

// New builds an Extractor. A nil generator makes every call use the fallback.
func New(generator ai.Generator, opts Options, log *zap.Logger) *Extractor {
	maxInput := opts.MaxInputChars
	if maxInput <= 0 {
		maxInput = DefaultMaxInputChars
	}

	log = logger.OrNop(log)
	if generator != nil {
		log = logger.WithCommonFields(log, generator.Provider(), generator.Model())
	}

	return &Extractor{
		generator:     generator,
		timeout:       opts.Timeout,
		maxInputChars: maxInput,
		logger:        log,
	}
}

// modelProfile is the schema the model is asked to fill.
type modelProfile struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Location        string   `json:"location"`
	Title           string   `json:"title"`
	ExperienceYears int      `json:"experienceYears"`
	Skills          []string `json:"skills"`
	Education       string   `json:"education"`
	Summary         string   `json:"summary"`
	Certifications  []string `json:"certifications"`
}

func (m modelProfile) toProfile() profile.Profile {
	years := m.ExperienceYears
	if years < 0 {
		years = 0
	}

	p := profile.Profile{
		Name:            m.Name,
		Email:           m.Email,
		Phone:           m.Phone,
		Location:        m.Location,
		Title:           m.Title,
		ExperienceYears: years,
		Skills:          m.Skills,
		Education:       m.Education,
		Summary:         m.Summary,
		Certifications:  m.Certifications,
	}
	return p.Normalize()
}

// Extract always returns a fully populated profile and the tier that produced it.
func (e *Extractor) Extract(ctx context.Context, entityID, text string) (profile.Profile, ai.Tier) {
	text = strings.TrimSpace(text)

	fallback := func() profile.Profile {
		return ParseHeuristics(text)
	}

	if e.generator == nil {
		return fallback(), ai.TierFallback
	}

	out := ai.RunWithFallback(ctx, e.timeout, func(ctx context.Context) (profile.Profile, error) {
		return e.primary(ctx, entityID, text)
	}, fallback)

	if out.Tier == ai.TierFallback {
		e.logger.Warn("profile extraction fell back to heuristics",
			append(logger.FallbackFields(entityID, Stage, ai.ErrorClass(out.Err)), zap.Error(out.Err))...,
		)
	}

	return out.Value, out.Tier
}

func (e *Extractor) primary(ctx context.Context, entityID, text string) (profile.Profile, error) {
	prompt := BuildPrompt(utils.TruncateRunes(text, e.maxInputChars))

	raw, err := e.generator.Generate(ctx, ai.Request{
		SystemInstruction: systemInstruction,
		UserPrompt:        prompt,
		MaxTokens:         maxTokens,
		Temperature:       temperature,
	})
	if err != nil {
		return profile.Profile{}, err
	}

	e.logger.Debug("profile extraction response",
		zap.String(logger.FieldEntityID, entityID),
		zap.String("response_preview", utils.TruncateForLog(raw, maxLogLength)),
	)

	var parsed modelProfile
	if err := ai.DecodeObject(raw, &parsed); err != nil {
		return profile.Profile{}, err
	}

	return parsed.toProfile(), nil
}

// BuildPrompt renders the extraction prompt for resume text.
func BuildPrompt(resumeText string) string {
	return strings.ReplaceAll(promptTemplate, "{{RESUME_TEXT}}", resumeText)
}
