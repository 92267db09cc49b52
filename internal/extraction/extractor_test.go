package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spigell/talentscore/internal/ai"
	"github.com/spigell/talentscore/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const scenarioResume = `Jane Smith
San Francisco, CA
5+ years experience building web platforms.
Skills: Python, React, Node.js, AWS, Docker
Email: a@b.com Phone: 415-555-0100

Bachelor's in Computer Science, Stanford University`

type stubGenerator struct {
	response string
	err      error
	delay    time.Duration
	request  ai.Request
}

func (s *stubGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	s.request = req
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.response, s.err
}

func (s *stubGenerator) Provider() string { return "stub" }
func (s *stubGenerator) Model() string    { return "stub-model" }

func TestParseHeuristicsScenario(t *testing.T) {
	t.Parallel()

	p := ParseHeuristics(scenarioResume)

	if p.ExperienceYears != 5 {
		t.Fatalf("expected 5 years, got %d", p.ExperienceYears)
	}
	if len(p.Skills) != 5 {
		t.Fatalf("expected 5 skills, got %v", p.Skills)
	}
	want := []string{"Python", "React", "Node.js", "AWS", "Docker"}
	for i, skill := range want {
		if p.Skills[i] != skill {
			t.Fatalf("skill %d: got %q want %q", i, p.Skills[i], skill)
		}
	}
	if p.Email != "a@b.com" {
		t.Fatalf("unexpected email %q", p.Email)
	}
	if p.Phone != "415-555-0100" {
		t.Fatalf("unexpected phone %q", p.Phone)
	}
	if !strings.Contains(p.Education, "Bachelor") || !strings.Contains(p.Education, "Computer Science") {
		t.Fatalf("unexpected education %q", p.Education)
	}
	if p.Name != "Jane Smith" {
		t.Fatalf("unexpected name %q", p.Name)
	}
	if p.Location != "San Francisco, CA" {
		t.Fatalf("unexpected location %q", p.Location)
	}
}

func TestParseHeuristicsNeverInventsValues(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"lorem ipsum dolor sit amet",
		"Senior Software Engineer\nReach me at dev.ops+cv@mail.example.org or (212) 555-7788",
		"JOHN DOE\nexperience with javascript and golang, docker-compose and git flow\n10 years of experience",
		"Maria Garcia-Lopez\n+44 20 7946 0958\nMSc in Data Science\nKubernetes, terraform, PostgreSQL",
		scenarioResume,
	}

	for _, input := range inputs {
		p := ParseHeuristics(input)
		lower := strings.ToLower(input)

		for field, value := range map[string]string{"name": p.Name, "email": p.Email, "phone": p.Phone} {
			if value != "" && !strings.Contains(lower, strings.ToLower(value)) {
				t.Fatalf("%s %q is not a substring of %q", field, value, input)
			}
		}
		for _, skill := range p.Skills {
			if !strings.Contains(lower, strings.ToLower(skill)) {
				t.Fatalf("skill %q is not a substring of %q", skill, input)
			}
		}
		if p.Skills == nil || p.Certifications == nil {
			t.Fatalf("expected non-nil collections for %q", input)
		}
	}
}

func TestParseHeuristicsMatchesWholeSkillWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want []string
	}{
		{text: "Led a digital transformation programme", want: []string{}},
		{text: "Frontend in JavaScript and TypeScript", want: []string{"JavaScript", "TypeScript"}},
		{text: "Reporting on PostgreSQL", want: []string{"PostgreSQL"}},
		{text: "Java, SQL and git; docker-compose", want: []string{"Java", "SQL", "Git", "Docker"}},
		{text: "C++ and Node.js services", want: []string{"C++", "Node.js"}},
	}

	for _, tt := range tests {
		got := ParseHeuristics(tt.text).Skills
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Fatalf("%q: got skills %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParseHeuristicsEmptyInput(t *testing.T) {
	t.Parallel()

	p := ParseHeuristics("nothing useful here")
	if p.Name != "" || p.Email != "" || p.Phone != "" || p.Location != "" || p.Education != "" || p.ExperienceYears != 0 || len(p.Skills) != 0 {
		t.Fatalf("expected empty profile, got %+v", p)
	}
}

func TestParseHeuristicsSkipsTitleLinesForName(t *testing.T) {
	t.Parallel()

	p := ParseHeuristics("Senior Software Engineer\nAlex Morgan\nalex@example.com")
	if p.Name != "Alex Morgan" {
		t.Fatalf("unexpected name %q", p.Name)
	}
	if p.Title != "Senior Software Engineer" {
		t.Fatalf("unexpected title %q", p.Title)
	}
}

func TestExtractUsesPrimary(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: "```json\n" + `{"name":"Jane Smith","email":"a@b.com","experienceYears":"6","skills":["Go","go","SQL"],"education":"MSc","certifications":null}` + "\n```"}
	e := New(gen, Options{Timeout: time.Second, MaxInputChars: 10}, zap.NewNop())

	p, tier := e.Extract(context.Background(), "r1", scenarioResume)
	if tier != ai.TierPrimary {
		t.Fatalf("expected primary tier, got %s", tier)
	}
	if p.ExperienceYears != 6 || len(p.Skills) != 2 || p.Name != "Jane Smith" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if p.Certifications == nil {
		t.Fatalf("expected non-nil certifications")
	}
	if strings.Contains(gen.request.UserPrompt, "Stanford") {
		t.Fatalf("expected resume text to be truncated in prompt")
	}
	if !strings.Contains(gen.request.UserPrompt, "Jane Smith") {
		t.Fatalf("expected truncated resume text in prompt: %q", gen.request.UserPrompt)
	}
	if gen.request.SystemInstruction == "" || gen.request.MaxTokens == 0 {
		t.Fatalf("expected system instruction and token limit: %+v", gen.request)
	}
}

func TestExtractFallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		gen   *stubGenerator
		class string
	}{
		{name: "remote failure", gen: &stubGenerator{err: &ai.RemoteServiceError{Op: "generate", Err: errors.New("502")}}, class: ai.ClassRemoteService},
		{name: "prose only", gen: &stubGenerator{response: "Sorry, I can't parse this resume."}, class: ai.ClassMalformedResponse},
		{name: "timeout", gen: &stubGenerator{response: "{}", delay: time.Second}, class: ai.ClassTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.WarnLevel)
			e := New(tt.gen, Options{Timeout: 30 * time.Millisecond}, zap.New(core))

			p, tier := e.Extract(context.Background(), "resume-42", scenarioResume)
			if tier != ai.TierFallback {
				t.Fatalf("expected fallback tier, got %s", tier)
			}
			if p.Email != "a@b.com" || p.ExperienceYears != 5 {
				t.Fatalf("unexpected fallback profile: %+v", p)
			}

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("expected one fallback log entry, got %d", len(entries))
			}
			fields := entries[0].ContextMap()
			if fields[logger.FieldEntityID] != "resume-42" || fields[logger.FieldStage] != Stage || fields[logger.FieldErrorClass] != tt.class {
				t.Fatalf("unexpected fallback fields: %v", fields)
			}
			if fields[logger.FieldProvider] != "stub" {
				t.Fatalf("expected provider field, got %v", fields)
			}
		})
	}
}

func TestExtractWithoutGenerator(t *testing.T) {
	t.Parallel()

	p, tier := New(nil, Options{}, nil).Extract(context.Background(), "r", scenarioResume)
	if tier != ai.TierFallback || p.Name != "Jane Smith" {
		t.Fatalf("unexpected result: %s %+v", tier, p)
	}
}
