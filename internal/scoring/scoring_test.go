package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/spigell/talentscore/internal/profile"
)

func fullProfile() profile.Profile {
	return profile.Profile{
		Name:            "Jane Smith",
		Email:           "jane@example.com",
		Phone:           "415-555-0100",
		Location:        "San Francisco, CA",
		ExperienceYears: 6,
		Skills:          []string{"Python", "React", "Node.js", "AWS", "Docker"},
		Education:       "Bachelor's in Computer Science",
	}
}

func TestResumeQualityFullProfile(t *testing.T) {
	t.Parallel()

	for years := 5; years <= 12; years++ {
		p := fullProfile()
		p.ExperienceYears = years
		score, err := ResumeQuality(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if score != 100 {
			t.Fatalf("years=%d: expected 100, got %d", years, score)
		}
	}
}

func TestResumeQualityTiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    profile.Profile
		want int
	}{
		{name: "empty", p: profile.Profile{}, want: 5},
		{name: "three skills one year", p: profile.Profile{Skills: []string{"a", "b", "c"}, ExperienceYears: 1}, want: 35},
		{name: "duplicate skills count once", p: profile.Profile{Skills: []string{"Go", "go", "GO"}, ExperienceYears: 2}, want: 30},
		{name: "email only", p: profile.Profile{Email: "a@b.com"}, want: 15},
		{name: "name without location", p: profile.Profile{Name: "Ann", Education: "MSc", Phone: "1"}, want: 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResumeQuality(tt.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResumeQualityRejectsNegativeExperience(t *testing.T) {
	t.Parallel()

	_, err := ResumeQuality(profile.Profile{ExperienceYears: -1})
	var validation *profile.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestJobQuality(t *testing.T) {
	t.Parallel()

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}

	job := profile.JobPosting{
		Company:      "Acme",
		Location:     "Berlin",
		JobType:      "full-time",
		Salary:       profile.SalaryRange{Min: 50000, Max: 70000},
		Description:  string(long),
		Requirements: []string{"3+ years of Go"},
		Skills:       []string{"Go", "SQL", "Kubernetes"},
	}

	score, err := JobQuality(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 100 {
		t.Fatalf("expected 100, got %d", score)
	}

	job.Description = string(long[:60])
	job.Skills = job.Skills[:1]
	job.Salary.Min = 0
	score, err = JobQuality(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 70 {
		t.Fatalf("expected 70, got %d", score)
	}

	_, err = JobQuality(profile.JobPosting{Salary: profile.SalaryRange{Min: 10, Max: 5}})
	var validation *profile.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMatchScenario(t *testing.T) {
	t.Parallel()

	p := profile.Profile{
		Skills:           []string{"Python", "SQL"},
		ExperienceYears:  4,
		Location:         "Austin, TX",
		PreferredJobType: "Full-time",
	}
	j := profile.JobPosting{
		Skills:      []string{"Python", "SQL", "AWS"},
		Description: "We need 3+ years of backend experience.",
		Location:    "Austin, TX",
		JobType:     "full-time",
	}

	got, err := Match(p, j)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 83 {
		t.Fatalf("expected 83, got %d", got)
	}
}

func TestMatchComponents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    profile.Profile
		j    profile.JobPosting
		want int
	}{
		{
			name: "substring skill match",
			p:    profile.Profile{Skills: []string{"React"}},
			j:    profile.JobPosting{Skills: []string{"React.js"}},
			want: 50 + 25 + 5 + 5,
		},
		{
			name: "experience seventy percent",
			p:    profile.Profile{ExperienceYears: 7},
			j:    profile.JobPosting{Requirements: []string{"10+ years in industry"}},
			want: 0 + 20 + 5 + 5,
		},
		{
			name: "experience half",
			p:    profile.Profile{ExperienceYears: 5},
			j:    profile.JobPosting{Description: "10 years"},
			want: 0 + 15 + 5 + 5,
		},
		{
			name: "experience short",
			p:    profile.Profile{ExperienceYears: 1},
			j:    profile.JobPosting{Description: "at least 8 years"},
			want: 0 + 5 + 5 + 5,
		},
		{
			name: "location containment",
			p:    profile.Profile{Location: "Remote - Berlin, Germany"},
			j:    profile.JobPosting{Location: "berlin"},
			want: 0 + 25 + 15 + 5,
		},
		{
			name: "empty job type never matches",
			p:    profile.Profile{},
			j:    profile.JobPosting{},
			want: 0 + 25 + 5 + 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Match(tt.p, tt.j)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequiredYears(t *testing.T) {
	t.Parallel()

	j := profile.JobPosting{
		Description:  "Founded 2001 years ago? No. We want 2 years of Go.",
		Requirements: []string{"5+ years backend", "1 year Kubernetes"},
	}
	if got := RequiredYears(j); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestJobRiskScenario(t *testing.T) {
	t.Parallel()

	f, err := JobRisk(profile.JobPosting{
		Description: "URGENT!!! easy money, no experience needed",
		Company:     "",
		Salary:      profile.SalaryRange{Min: 0, Max: 900000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !f.IsSpam || !f.IsFake {
		t.Fatalf("expected spam and fake, got %+v", f)
	}
	if f.Score < 80 || f.Score > 100 {
		t.Fatalf("expected score in [80,100], got %d", f.Score)
	}
	if len(f.Issues) == 0 {
		t.Fatalf("expected issues to be listed")
	}
}

func TestJobRiskRules(t *testing.T) {
	t.Parallel()

	clean := profile.JobPosting{
		Title:        "Backend Engineer",
		Company:      "Acme Corp",
		Description:  "Build and operate payment services in Go with a small, friendly team.",
		Requirements: []string{"Go", "PostgreSQL"},
		Salary:       profile.SalaryRange{Min: 60000, Max: 90000},
	}

	f, err := JobRisk(clean)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Score != 0 {
		t.Fatalf("expected clean job to score 0, got %d (%v)", f.Score, f.Issues)
	}

	ratio := clean
	ratio.Salary = profile.SalaryRange{Min: 10000, Max: 150000}
	if f, _ := JobRisk(ratio); f.Score != PenaltySalaryRatio || !f.IsFake {
		t.Fatalf("expected ratio penalty, got %+v", f)
	}

	contact := clean
	contact.Description += " Send CV to hr@acme.io"
	if f, _ := JobRisk(contact); f.Score != PenaltyContactInfo {
		t.Fatalf("expected contact penalty, got %+v", f)
	}

	compliance := clean
	compliance.Description += " Looking for young and attractive candidates."
	if f, _ := JobRisk(compliance); !f.HasComplianceIssues || f.Score != PenaltyCompliance {
		t.Fatalf("expected compliance penalty, got %+v", f)
	}
}

func TestResumeRisk(t *testing.T) {
	t.Parallel()

	text := "Jane Smith, backend engineer at Acme from 2016 - 2021, then at Initech from 2021 - 2024. " +
		"Builds reliable services and mentors engineers."

	f, err := ResumeRisk(ResumeSubject{Profile: fullProfile(), Text: text, AccountName: "jane smith"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Score != 0 {
		t.Fatalf("expected clean resume to score 0, got %d (%v)", f.Score, f.Issues)
	}

	bad := fullProfile()
	bad.Email = "not-an-email"
	bad.ExperienceYears = 45
	f, err = ResumeRisk(ResumeSubject{
		Profile:     bad,
		Text:        "Lorem ipsum guru 2020 - 2018",
		AccountName: "Bob Stone",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsFake || !f.ProfileMismatch {
		t.Fatalf("expected fake and mismatch, got %+v", f)
	}
	if f.Score != 100 {
		t.Fatalf("expected clamped 100, got %d", f.Score)
	}
}

func TestScoreRisk(t *testing.T) {
	t.Parallel()

	if _, err := ScoreRisk(profile.JobPosting{}, profile.KindResume); err == nil {
		t.Fatal("expected kind mismatch error")
	}
	score, err := ScoreRisk(profile.JobPosting{Description: "URGENT!!!"}, profile.KindJob)
	if err != nil || score <= 0 {
		t.Fatalf("unexpected result: %d %v", score, err)
	}
	score, err = ScoreRisk(profile.Profile{Email: "a@b.com"}, profile.KindResume)
	if err != nil || score != 0 {
		t.Fatalf("unexpected result: %d %v", score, err)
	}
	if _, err := ScoreRisk("text", profile.KindJob); err == nil {
		t.Fatal("expected unsupported entity error")
	}
}

func TestCombineFormulaAndThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		resume, job, match, risk int
		overall                  int
		rec                      Recommendation
		conf                     Confidence
	}{
		{100, 100, 100, 0, 100, HighlyRecommended, ConfidenceHigh},
		{80, 80, 80, 19, 80, HighlyRecommended, ConfidenceHigh},
		{80, 80, 80, 20, 80, Recommended, ConfidenceHigh},
		{60, 60, 60, 39, 60, Recommended, ConfidenceMedium},
		{60, 60, 60, 40, 60, ReviewRequired, ConfidenceMedium},
		{40, 40, 40, 59, 40, ReviewRequired, ConfidenceLow},
		{40, 40, 40, 60, 40, NotRecommended, ConfidenceLow},
		{0, 0, 0, 100, 0, NotRecommended, ConfidenceLow},
		{-20, 150, 50, 0, 50, ReviewRequired, ConfidenceLow},
	}

	for _, tt := range tests {
		b := Combine(tt.resume, tt.job, tt.match, tt.risk)
		if b.Overall != tt.overall || b.Recommendation != tt.rec || b.Confidence != tt.conf {
			t.Fatalf("Combine(%d,%d,%d,%d) = %+v, want overall=%d rec=%s conf=%s",
				tt.resume, tt.job, tt.match, tt.risk, b, tt.overall, tt.rec, tt.conf)
		}
	}
}

func TestCombineMatchesWeightedFormula(t *testing.T) {
	t.Parallel()

	for r := 0; r <= 100; r += 7 {
		for m := 0; m <= 100; m += 9 {
			b := Combine(r, 55, m, 35)
			want := int(math.Round(0.3*float64(r) + 0.2*55 + 0.4*float64(m) + 0.1*65))
			if diff := b.Overall - want; diff < -1 || diff > 1 {
				t.Fatalf("r=%d m=%d: got %d, want about %d", r, m, b.Overall, want)
			}
		}
	}
}

func TestCombineMonotonicInMatch(t *testing.T) {
	t.Parallel()

	for _, fixed := range [][3]int{{0, 0, 0}, {50, 50, 50}, {100, 20, 90}, {73, 41, 17}} {
		prev := -1
		for m := 0; m <= 100; m++ {
			b := Combine(fixed[0], fixed[1], m, fixed[2])
			if b.Overall < prev {
				t.Fatalf("overall decreased at match=%d for %v", m, fixed)
			}
			prev = b.Overall
		}
	}
}

func TestOverall(t *testing.T) {
	t.Parallel()

	j := profile.JobPosting{
		Title:        "Python Developer",
		Company:      "Acme Corp",
		Location:     "San Francisco, CA",
		JobType:      "full-time",
		Description:  "Join our platform team to build data services in Python and React, with 5+ years experience.",
		Requirements: []string{"Python", "AWS"},
		Skills:       []string{"Python", "React", "AWS"},
		Salary:       profile.SalaryRange{Min: 120000, Max: 160000},
		CreatedAt:    time.Now(),
	}
	p := fullProfile()
	p.PreferredJobType = "Full-Time"

	b, err := Overall(p, j)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Resume != 100 || b.Match != 100 {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
	if b.Recommendation != HighlyRecommended {
		t.Fatalf("expected highly recommended, got %+v", b)
	}

	p.ExperienceYears = -3
	if _, err := Overall(p, j); err == nil {
		t.Fatal("expected validation error")
	}
}
