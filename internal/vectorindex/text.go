package vectorindex

import (
	"fmt"
	"strings"

	"github.com/spigell/talentscore/internal/profile"
	"github.com/spigell/talentscore/internal/utils"
)

// MaxSourceRunes bounds the raw resume text embedded for sparse profiles.
const MaxSourceRunes = 2000

// Metadata keys written with every record.
const (
	MetaType     = "type"
	MetaJobID    = "jobId"
	MetaUserID   = "userId"
	MetaTitle    = "title"
	MetaCompany  = "company"
	MetaLocation = "location"
	MetaSkills   = "skills"
)

// JobID namespaces a job id inside the shared index.
func JobID(id string) string { return string(profile.KindJob) + "_" + id }

// ResumeID namespaces a resume id inside the shared index.
func ResumeID(id string) string { return string(profile.KindResume) + "_" + id }

// JobText is the embedding input of a job: title, description, requirements
// and location joined by single spaces. Empty fields are skipped.
func JobText(j profile.JobPosting) string {
	j = j.Normalize()
	return joinFields(j.Title, j.Description, strings.Join(j.Requirements, " "), j.Location)
}

// ResumeText is the embedding input of a resume: skills, years of experience
// and education joined by single spaces. Empty fields are skipped.
func ResumeText(p profile.Profile) string {
	p = p.Normalize()
	years := ""
	if p.ExperienceYears > 0 {
		years = fmt.Sprintf("%d years", p.ExperienceYears)
	}
	return joinFields(strings.Join(p.Skills, " "), years, p.Education)
}

// JobInput is what gets embedded for a job: JobText, or company, skills and
// industry when the posting has none of the JobText fields.
func JobInput(j profile.JobPosting) string {
	if text := JobText(j); text != "" {
		return text
	}
	j = j.Normalize()
	return joinFields(j.Company, strings.Join(j.Skills, " "), j.Industry)
}

// ResumeInput is what gets embedded for a resume: ResumeText, then title and
// summary, then the leading MaxSourceRunes of the source text. Profiles with
// no recognised skill, experience or degree stay searchable this way.
func ResumeInput(p profile.Profile, sourceText string) string {
	if text := ResumeText(p); text != "" {
		return text
	}
	p = p.Normalize()
	if text := joinFields(p.Title, p.Summary); text != "" {
		return text
	}
	return utils.TruncateRunes(joinFields(sourceText), MaxSourceRunes)
}

func joinFields(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.Join(strings.Fields(f), " "); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

func jobMetadata(j profile.JobPosting) map[string]any {
	return map[string]any{
		MetaType:     string(profile.KindJob),
		MetaJobID:    j.ID,
		MetaTitle:    j.Title,
		MetaCompany:  j.Company,
		MetaLocation: j.Location,
		MetaSkills:   strings.Join(j.Skills, ","),
	}
}

func resumeMetadata(p profile.Profile) map[string]any {
	return map[string]any{
		MetaType:     string(profile.KindResume),
		MetaUserID:   p.ID,
		MetaTitle:    p.Title,
		MetaLocation: p.Location,
		MetaSkills:   strings.Join(p.Skills, ","),
	}
}
