package profile

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestDedupeSkills(t *testing.T) {
	t.Parallel()

	got := DedupeSkills([]string{" Go ", "python", "go", "", "Python", "SQL"})
	want := []string{"Go", "python", "SQL"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if got := DedupeSkills(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestProfileNormalizeFillsCollections(t *testing.T) {
	t.Parallel()

	p := Profile{Name: "  Jane Doe ", Skills: nil, Certifications: nil}.Normalize()
	if p.Name != "Jane Doe" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
	if p.Skills == nil || p.Certifications == nil {
		t.Fatalf("expected empty collections instead of nil: %#v", p)
	}
}

func TestValidateProfile(t *testing.T) {
	t.Parallel()

	err := ValidateProfile(Profile{ExperienceYears: -1})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "experienceYears" {
		t.Fatalf("unexpected field: %s", verr.Field)
	}

	if err := ValidateProfile(Profile{ExperienceYears: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateJob(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		salary  SalaryRange
		wantErr bool
	}{
		{name: "empty", salary: SalaryRange{}},
		{name: "open max", salary: SalaryRange{Min: 5000}},
		{name: "regular", salary: SalaryRange{Min: 50000, Max: 90000}},
		{name: "negative", salary: SalaryRange{Min: -1}, wantErr: true},
		{name: "nan", salary: SalaryRange{Max: math.NaN()}, wantErr: true},
		{name: "inverted", salary: SalaryRange{Min: 100, Max: 50}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateJob(JobPosting{Salary: tc.salary})
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestClampScores(t *testing.T) {
	t.Parallel()

	a := AnalysisResult{RiskScore: 9999, QualityScore: -50}.Clamped()
	if a.RiskScore != 100 || a.QualityScore != 0 {
		t.Fatalf("unexpected clamp result: %+v", a)
	}
	if a.Issues == nil {
		t.Fatal("expected non-nil issues")
	}

	if ClampFloatScore(math.NaN()) != 0 || ClampFloatScore(42.6) != 43 || ClampFloatScore(1e9) != 100 {
		t.Fatal("unexpected float clamp")
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	if k, err := ParseKind("Jobs"); err != nil || k != KindJob {
		t.Fatalf("unexpected kind %q (%v)", k, err)
	}
	if k, err := ParseKind("candidates"); err != nil || k != KindResume {
		t.Fatalf("unexpected kind %q (%v)", k, err)
	}
	if _, err := ParseKind("company"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
