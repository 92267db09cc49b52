package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/talentscore/internal/profile"
)

// SkillVocabulary is the reference list matched by the fallback parser, in
// output order. An entry only matches as a whole word, so "JavaScript" does
// not yield Java and "digital" does not yield Git.
var SkillVocabulary = []string{
	"JavaScript", "TypeScript", "Python", "Java", "Golang", "Kotlin", "Ruby", "PHP", "C++", "C#",
	"React", "Angular", "Vue", "Node.js", "Django", "Flask", "Spring",
	"SQL", "PostgreSQL", "MySQL", "MongoDB", "Redis", "GraphQL",
	"HTML", "CSS", "Git", "Linux",
	"AWS", "Azure", "GCP", "Docker", "Kubernetes", "Terraform",
}

const nameScanLines = 5

var (
	nameLine        = regexp.MustCompile(`^[A-Z][a-z]+(?:[-'][A-Z]?[a-z]+)?(?: [A-Z][a-z]+(?:[-'][A-Z]?[a-z]+)?){1,2}$`)
	digitRun        = regexp.MustCompile(`\d{3,}|\d[\d ().-]{6,}\d`)
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern    = regexp.MustCompile(`\+?\(?\d[\d ().-]{8,}\d`)
	statePattern    = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)?, ?[A-Z]{2}\b`)
	regionPattern   = regexp.MustCompile(`\b([A-Z][a-z]+(?: [A-Z][a-z]+)?), ?([A-Z][a-z]+)\b`)
	experienceRegex = regexp.MustCompile(`(?i)(\d+)\s*\+?\s*years?\s*(?:of\s*)?experience`)
	educationRegex  = regexp.MustCompile(`(?i)(?:\b(?:bachelor|master)(?:'s|s)?\b|\bph\.?d\b|\bmba\b|\b[bm]\.(?:sc|s|a)\.?)[^\n]*?\b(?:in|of)\s+[a-z][a-z &]*[a-z]`)
	titleRegex      = regexp.MustCompile(`(?i)\b(?:(?:senior|junior|lead|principal) )?(?:software engineer|data scientist|product manager|developer|engineer|manager|analyst|designer|consultant|specialist|architect)\b`)
)

// ParseHeuristics extracts a profile with regular expressions only. Fields that
// are not found stay empty; nothing is ever invented.
func ParseHeuristics(text string) profile.Profile {
	p := profile.Profile{
		Name:            findName(text),
		Email:           emailPattern.FindString(text),
		Phone:           findPhone(text),
		Location:        findLocation(text),
		Skills:          findSkills(text),
		ExperienceYears: findExperience(text),
		Education:       strings.TrimSpace(educationRegex.FindString(text)),
		Title:           strings.TrimSpace(titleRegex.FindString(text)),
	}
	return p.Normalize()
}

func findName(text string) string {
	scanned := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if scanned == nameScanLines {
			break
		}
		scanned++

		if strings.Contains(line, "@") || digitRun.MatchString(line) || titleRegex.MatchString(line) {
			continue
		}
		if nameLine.MatchString(line) {
			return line
		}
	}
	return ""
}

func findPhone(text string) string {
	for _, candidate := range phonePattern.FindAllString(text, -1) {
		candidate = strings.TrimSpace(candidate)
		digits := 0
		for _, r := range candidate {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= 10 && digits <= 15 {
			return candidate
		}
	}
	return ""
}

func findLocation(text string) string {
	if loc := statePattern.FindString(text); loc != "" {
		return loc
	}

	for _, match := range regionPattern.FindAllStringSubmatch(text, -1) {
		if isSkill(match[1]) || isSkill(match[2]) {
			continue
		}
		return match[0]
	}
	return ""
}

func isSkill(word string) bool {
	for _, skill := range SkillVocabulary {
		if strings.EqualFold(skill, word) {
			return true
		}
	}
	return false
}

func findSkills(text string) []string {
	lower := strings.ToLower(text)
	skills := make([]string, 0)
	for _, skill := range SkillVocabulary {
		if containsWord(lower, strings.ToLower(skill)) {
			skills = append(skills, skill)
		}
	}
	return skills
}

// containsWord reports whether word occurs in text with no letter or digit
// directly before or after it.
func containsWord(text, word string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func findExperience(text string) int {
	match := experienceRegex.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	years, err := strconv.Atoi(match[1])
	if err != nil || years < 0 {
		return 0
	}
	return years
}
