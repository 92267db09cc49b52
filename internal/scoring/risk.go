package scoring

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spigell/talentscore/internal/profile"
)

// Rule penalties, additive before clamping.
const (
	PenaltySpam             = 30
	PenaltyUrgent           = 15
	PenaltySalaryCeiling    = 20
	PenaltySalaryRatio      = 20
	PenaltyShortDescription = 15
	PenaltyCompany          = 15
	PenaltyNoRequirements   = 10
	PenaltyContactInfo      = 10
	PenaltyCompliance       = 25

	PenaltyInconsistentDates = 25
	PenaltyUnrealistic       = 20
	PenaltyInvalidEmail      = 15
	PenaltySkillStuffing     = 10
	PenaltyResumeSpam        = 25
	PenaltyPlaceholder       = 35
	PenaltyShortResume       = 20
	PenaltyNameMismatch      = 15
)

// Rule limits.
const (
	SalaryCeiling        = 500000
	SalaryRatioLimit     = 10
	MinDescriptionLength = 50
	MinCompanyLength     = 3
	MaxSkills            = 20
	MaxExperienceYears   = 40
	MinResumeLength      = 100
)

// Keyword lists, matched case-insensitively as substrings.
var JobSpamKeywords = []string{
	"urgent", "easy money", "guaranteed", "work from home guaranteed",
	"no experience needed", "make money fast",
}

var UrgentKeywords = []string{"asap", "urgent", "immediate", "hurry"}

var DiscriminatoryTerms = []string{
	"young", "attractive", "native speaker only", "no disabilities", "must be under",
	"male only", "female only", "men only", "women only", "age limit",
}

var ResumeSpamKeywords = []string{"click here", "buy now", "guaranteed", "make money"}

var SuperlativePhrases = []string{
	"world's best", "best in the world", "guru", "ninja", "rockstar",
	"never failed", "100% success", "number one expert",
}

var PlaceholderPhrases = []string{
	"lorem ipsum", "your name here", "john doe", "jane doe", "sample resume",
	"[your", "insert name", "example@example.com",
}

var (
	contactPattern = regexp.MustCompile(`\b\d{10}\b|\b\d{3}[-. ]\d{3}[-. ]\d{4}\b|[\w.+-]+@[\w-]+\.[\w.]+`)
	emailShape     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	yearRange      = regexp.MustCompile(`\b((?:19|20)\d{2})\s*(?:-|–|to)\s*((?:19|20)\d{2})\b`)
)

// RiskFindings is the outcome of the deterministic risk rules.
type RiskFindings struct {
	Score               int
	IsSpam              bool
	IsFake              bool
	HasComplianceIssues bool
	ProfileMismatch     bool
	Issues              []string
}

func (f *RiskFindings) add(points int, issue string) {
	f.Score += points
	f.Issues = append(f.Issues, issue)
}

// ResumeSubject is what resume risk rules look at. Text and AccountName are
// optional; rules that need them are skipped when empty.
type ResumeSubject struct {
	Profile     profile.Profile
	Text        string
	AccountName string
}

// JobRisk evaluates the job rule set.
func JobRisk(j profile.JobPosting) (RiskFindings, error) {
	if err := profile.ValidateJob(j); err != nil {
		return RiskFindings{}, err
	}
	j = j.Normalize()

	f := RiskFindings{Issues: []string{}}
	desc := strings.ToLower(j.Description)

	if containsAny(desc, JobSpamKeywords) || strings.Contains(desc, "!!!") {
		f.IsSpam = true
		f.add(PenaltySpam, "contains spam keywords")
	}
	if containsAny(desc, UrgentKeywords) {
		f.add(PenaltyUrgent, "uses urgent language")
	}

	if j.Salary.Max > SalaryCeiling {
		f.IsFake = true
		f.add(PenaltySalaryCeiling, fmt.Sprintf("salary max %.0f exceeds %d", j.Salary.Max, SalaryCeiling))
	}
	if j.Salary.Min > 0 && j.Salary.Max/j.Salary.Min > SalaryRatioLimit {
		f.IsFake = true
		f.add(PenaltySalaryRatio, fmt.Sprintf("salary range spread exceeds %dx", SalaryRatioLimit))
	}
	if utf8.RuneCountInString(j.Description) < MinDescriptionLength {
		f.IsFake = true
		f.add(PenaltyShortDescription, "description is too short")
	}
	if utf8.RuneCountInString(j.Company) < MinCompanyLength {
		f.IsFake = true
		f.add(PenaltyCompany, "company is missing or too short")
	}

	if len(j.Requirements) == 0 {
		f.add(PenaltyNoRequirements, "no requirements listed")
	}
	if contactPattern.MatchString(j.Description) {
		f.add(PenaltyContactInfo, "description contains direct contact details")
	}

	if containsAny(desc, DiscriminatoryTerms) {
		f.HasComplianceIssues = true
		f.add(PenaltyCompliance, "contains discriminatory terms")
	}

	f.Score = profile.ClampScore(f.Score)
	return f, nil
}

// ResumeRisk evaluates the resume rule set.
func ResumeRisk(s ResumeSubject) (RiskFindings, error) {
	if err := profile.ValidateProfile(s.Profile); err != nil {
		return RiskFindings{}, err
	}
	p := s.Profile.Normalize()
	text := strings.TrimSpace(s.Text)
	lower := strings.ToLower(text)

	f := RiskFindings{Issues: []string{}}

	if hasInvertedDates(text) {
		f.IsFake = true
		f.add(PenaltyInconsistentDates, "inconsistent date ranges")
	}
	if p.ExperienceYears > MaxExperienceYears || containsAny(lower, SuperlativePhrases) || containsAny(strings.ToLower(p.Summary), SuperlativePhrases) {
		f.IsFake = true
		f.add(PenaltyUnrealistic, "unrealistic claims")
	}
	if !emailShape.MatchString(p.Email) {
		f.add(PenaltyInvalidEmail, "missing or invalid email")
	}
	if len(p.Skills) > MaxSkills {
		f.add(PenaltySkillStuffing, fmt.Sprintf("more than %d skills listed", MaxSkills))
	}

	if text != "" {
		if containsAny(lower, ResumeSpamKeywords) {
			f.IsSpam = true
			f.add(PenaltyResumeSpam, "contains spam keywords")
		}
		if containsAny(lower, PlaceholderPhrases) {
			f.IsFake = true
			f.add(PenaltyPlaceholder, "contains template placeholder text")
		}
		if utf8.RuneCountInString(text) < MinResumeLength {
			f.add(PenaltyShortResume, "resume is too short")
		}
	}

	if namesDiffer(s.AccountName, p.Name) {
		f.ProfileMismatch = true
		f.add(PenaltyNameMismatch, "resume name does not match account name")
	}

	f.Score = profile.ClampScore(f.Score)
	return f, nil
}

// ScoreRisk returns the clamped risk score of a job (profile.JobPosting) or a
// resume (profile.Profile or ResumeSubject).
func ScoreRisk(entity any, kind profile.Kind) (int, error) {
	var (
		f   RiskFindings
		err error
	)

	switch e := entity.(type) {
	case profile.JobPosting:
		if kind != profile.KindJob {
			return 0, fmt.Errorf("job posting scored as %q", kind)
		}
		f, err = JobRisk(e)
	case profile.Profile:
		if kind != profile.KindResume {
			return 0, fmt.Errorf("profile scored as %q", kind)
		}
		f, err = ResumeRisk(ResumeSubject{Profile: e})
	case ResumeSubject:
		if kind != profile.KindResume {
			return 0, fmt.Errorf("resume scored as %q", kind)
		}
		f, err = ResumeRisk(e)
	default:
		return 0, fmt.Errorf("unsupported entity %T", entity)
	}
	if err != nil {
		return 0, err
	}

	return f.Score, nil
}

func containsAny(lower string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func hasInvertedDates(text string) bool {
	for _, match := range yearRange.FindAllStringSubmatch(text, -1) {
		start, err1 := strconv.Atoi(match[1])
		end, err2 := strconv.Atoi(match[2])
		if err1 == nil && err2 == nil && end < start {
			return true
		}
	}
	return false
}

// namesDiffer reports a mismatch when both names are set and share no word.
func namesDiffer(account, resume string) bool {
	accountWords := strings.Fields(strings.ToLower(account))
	resumeWords := strings.Fields(strings.ToLower(resume))
	if len(accountWords) == 0 || len(resumeWords) == 0 {
		return false
	}

	for _, a := range accountWords {
		for _, r := range resumeWords {
			if a == r {
				return false
			}
		}
	}
	return true
}
