package profile

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError reports a structurally invalid record passed into scoring.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Entity, e.Field, e.Reason)
}

// ValidateProfile rejects profiles that scoring must not silently repair.
func ValidateProfile(p Profile) error {
	if p.ExperienceYears < 0 {
		return &ValidationError{Entity: "profile", Field: "experienceYears", Reason: fmt.Sprintf("must not be negative, got %d", p.ExperienceYears)}
	}
	return nil
}

// ValidateJob rejects postings with impossible salary data.
func ValidateJob(j JobPosting) error {
	bounds := []struct {
		name  string
		value float64
	}{
		{"salaryRange.min", j.Salary.Min},
		{"salaryRange.max", j.Salary.Max},
	}
	for _, b := range bounds {
		name, v := b.name, b.value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Entity: "job", Field: name, Reason: "must be a finite number"}
		}
		if v < 0 {
			return &ValidationError{Entity: "job", Field: name, Reason: fmt.Sprintf("must not be negative, got %v", v)}
		}
	}
	if j.Salary.Max > 0 && j.Salary.Min > j.Salary.Max {
		return &ValidationError{Entity: "job", Field: "salaryRange", Reason: fmt.Sprintf("min %v exceeds max %v", j.Salary.Min, j.Salary.Max)}
	}
	return nil
}

// Kind is the entity type shared by moderation and the similarity index.
type Kind string

const (
	KindJob    Kind = "job"
	KindResume Kind = "resume"
)

// ParseKind accepts "job"/"jobs" and "resume"/"resumes"/"candidate(s)".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "job", "jobs":
		return KindJob, nil
	case "resume", "resumes", "candidate", "candidates":
		return KindResume, nil
	default:
		return "", fmt.Errorf("unknown entity type %q", s)
	}
}
