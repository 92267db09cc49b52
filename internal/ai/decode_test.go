package ai

import (
	"errors"
	"testing"
)

type sampleResult struct {
	Name        string   `json:"name"`
	Years       int      `json:"experienceYears"`
	Score       float64  `json:"score"`
	Spam        bool     `json:"isSpam"`
	Skills      []string `json:"skills"`
	Unmentioned string   `json:"unmentioned"`
}

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "code fence", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", raw: "Sure! Here it is: {\"a\":{\"b\":2}} hope that helps {\"c\":3}", want: `{"a":{"b":2}}`},
		{name: "braces in strings", raw: `{"a":"}{","b":"\"}"}`, want: `{"a":"}{","b":"\"}"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractJSONObject(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONObjectFailures(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "no json here", `{"a": 1`} {
		if _, err := ExtractJSONObject(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestDecodeObjectCoercesFields(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"name\": \"  Ann Lee \", \"experienceYears\": \"7\", \"score\": \"abc\", \"isSpam\": \"yes\", \"skills\": \"Go, Python\", \"extra\": 1}\n```"

	var out sampleResult
	if err := DecodeObject(raw, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Name != "Ann Lee" {
		t.Fatalf("unexpected name: %q", out.Name)
	}
	if out.Years != 7 {
		t.Fatalf("unexpected years: %d", out.Years)
	}
	if out.Score != 0 {
		t.Fatalf("expected unparsable score to be 0, got %v", out.Score)
	}
	if !out.Spam {
		t.Fatalf("expected spam to be coerced to true")
	}
	if out.Skills == nil || len(out.Skills) != 0 {
		t.Fatalf("expected empty skills for non-array value, got %#v", out.Skills)
	}
}

func TestDecodeObjectNumbersAndArrays(t *testing.T) {
	t.Parallel()

	var out sampleResult
	if err := DecodeObject(`{"experienceYears": 4.6, "score": -50, "skills": ["SQL", 3, "  AWS "]}`, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Years != 5 {
		t.Fatalf("expected rounded years 5, got %d", out.Years)
	}
	if out.Score != -50 {
		t.Fatalf("expected raw score -50, got %v", out.Score)
	}
	want := []string{"SQL", "3", "AWS"}
	if len(out.Skills) != len(want) {
		t.Fatalf("unexpected skills: %#v", out.Skills)
	}
	for i := range want {
		if out.Skills[i] != want[i] {
			t.Fatalf("skill %d: got %q want %q", i, out.Skills[i], want[i])
		}
	}
}

func TestDecodeObjectMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"I cannot help with that.", `{"name": }`} {
		var out sampleResult
		err := DecodeObject(raw, &out)
		var malformed *MalformedResponseError
		if !errors.As(err, &malformed) {
			t.Fatalf("expected MalformedResponseError for %q, got %v", raw, err)
		}
	}
}
