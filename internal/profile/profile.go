// Package profile holds the structured records shared by extraction, scoring,
// moderation and indexing.
package profile

import (
	"strings"
	"time"
)

// Profile is a candidate extracted from a resume.
type Profile struct {
	ID               string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name             string   `json:"name" yaml:"name"`
	Email            string   `json:"email" yaml:"email"`
	Phone            string   `json:"phone" yaml:"phone"`
	Location         string   `json:"location" yaml:"location"`
	Title            string   `json:"title" yaml:"title"`
	ExperienceYears  int      `json:"experienceYears" yaml:"experienceYears"`
	Skills           []string `json:"skills" yaml:"skills"`
	Education        string   `json:"education" yaml:"education"`
	Summary          string   `json:"summary" yaml:"summary"`
	Certifications   []string `json:"certifications" yaml:"certifications"`
	PreferredJobType string   `json:"preferredJobType,omitempty" yaml:"preferredJobType,omitempty"`
}

// SalaryRange is the advertised pay band of a posting.
type SalaryRange struct {
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
	Currency string  `json:"currency" yaml:"currency"`
}

// JobPosting is a structured job advert.
type JobPosting struct {
	ID           string      `json:"id" yaml:"id"`
	Title        string      `json:"title" yaml:"title"`
	Company      string      `json:"company" yaml:"company"`
	Location     string      `json:"location" yaml:"location"`
	JobType      string      `json:"jobType" yaml:"jobType"`
	Salary       SalaryRange `json:"salaryRange" yaml:"salaryRange"`
	Description  string      `json:"description" yaml:"description"`
	Requirements []string    `json:"requirements" yaml:"requirements"`
	Skills       []string    `json:"skills" yaml:"skills"`
	Industry     string      `json:"industry" yaml:"industry"`
	CompanySize  string      `json:"companySize" yaml:"companySize"`
	Featured     bool        `json:"featured" yaml:"featured"`
	Trending     bool        `json:"trending" yaml:"trending"`
	CreatedAt    time.Time   `json:"createdAt" yaml:"createdAt"`
}

// Normalize trims every string field, deduplicates skills and replaces nil
// collections with empty ones so that scoring never sees a missing value.
func (p Profile) Normalize() Profile {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Location = strings.TrimSpace(p.Location)
	p.Title = strings.TrimSpace(p.Title)
	p.Education = strings.TrimSpace(p.Education)
	p.Summary = strings.TrimSpace(p.Summary)
	p.PreferredJobType = strings.TrimSpace(p.PreferredJobType)
	p.Skills = DedupeSkills(p.Skills)
	p.Certifications = compact(p.Certifications)
	return p
}

// Normalize is the JobPosting counterpart of Profile.Normalize.
func (j JobPosting) Normalize() JobPosting {
	j.ID = strings.TrimSpace(j.ID)
	j.Title = strings.TrimSpace(j.Title)
	j.Company = strings.TrimSpace(j.Company)
	j.Location = strings.TrimSpace(j.Location)
	j.JobType = strings.TrimSpace(j.JobType)
	j.Description = strings.TrimSpace(j.Description)
	j.Industry = strings.TrimSpace(j.Industry)
	j.CompanySize = strings.TrimSpace(j.CompanySize)
	j.Salary.Currency = strings.TrimSpace(j.Salary.Currency)
	j.Requirements = compact(j.Requirements)
	j.Skills = DedupeSkills(j.Skills)
	return j
}

// DedupeSkills removes blank and case-insensitively repeated entries, keeping the
// first spelling and the original order.
func DedupeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
