package jdparser

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	prose "github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/logger"
)

// Experience holds the extracted seniority requirement.
type Experience struct {
	Level         string   `json:"level"`
	YearsRequired string   `json:"years_required,omitempty"`
	Details       []string `json:"details"`
}

// Education holds the extracted degree requirements.
type Education struct {
	DegreeRequired bool     `json:"degree_required"`
	DegreeLevels   []string `json:"degree_level"`
	FieldsOfStudy  []string `json:"field_of_study"`
	Details        []string `json:"details"`
}

// SalaryRange is a parsed min/max compensation band.
type SalaryRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Salary holds compensation mentions found in the text.
type Salary struct {
	Mentioned bool         `json:"salary_mentioned"`
	Range     *SalaryRange `json:"salary_range,omitempty"`
	Currency  string       `json:"currency"`
	Details   []string     `json:"details"`
}

// Location holds workplace information.
type Location struct {
	RemoteAllowed bool     `json:"remote_allowed"`
	Locations     []string `json:"locations"`
}

// Employment holds the contract type.
type Employment struct {
	Type    string   `json:"type"`
	Details []string `json:"details"`
}

// Summary condenses a parse into the fields downstream consumers care
// about most.
type Summary struct {
	TotalSkillsFound   int      `json:"total_skills_found"`
	ExperienceLevel    string   `json:"experience_level"`
	DegreeRequired     bool     `json:"degree_required"`
	RemoteAllowed      bool     `json:"remote_allowed"`
	EmploymentType     string   `json:"employment_type"`
	ComplexityScore    float64  `json:"complexity_score"`
	TopSkillCategories []string `json:"top_skill_categories"`
}

// ParsedJD is the structured output of one job description parse.
type ParsedJD struct {
	JobID            string              `json:"jd_id,omitempty"`
	JobTitle         string              `json:"job_title"`
	Skills           map[string][]string `json:"skills"`
	Experience       Experience          `json:"experience_level"`
	Education        Education           `json:"education_requirements"`
	Responsibilities []string            `json:"responsibilities"`
	Qualifications   []string            `json:"qualifications"`
	Salary           Salary              `json:"salary_info"`
	Benefits         []string            `json:"company_benefits"`
	Location         Location            `json:"location_info"`
	Employment       Employment          `json:"employment_type"`
	ComplexityScore  float64             `json:"complexity_score"`
	Summary          Summary             `json:"summary"`
	ParsedAt         time.Time           `json:"parsed_at"`
}

// Requirements converts a parse into the shape the match engine consumes.
func (p ParsedJD) Requirements() models.JobRequirements {
	return models.JobRequirements{
		Title:           p.JobTitle,
		Skills:          p.Skills,
		ExperienceLevel: matchLevelFor(p.Experience.Level),
		DegreeRequired:  p.Education.DegreeRequired,
		DegreeLevels:    p.Education.DegreeLevels,
	}
}

// matchLevelFor maps parser seniority labels onto the match engine's
// bucket names. Unspecified stays empty so the engine applies its default.
func matchLevelFor(level string) string {
	switch level {
	case ExpEntry:
		return "entry_level"
	case ExpMid:
		return "mid_level"
	case ExpSenior:
		return "senior"
	case ExpExecutive:
		return "executive"
	default:
		return ""
	}
}

// Parser extracts structured requirements from free-text job descriptions
// using keyword tables and regex patterns. Safe for concurrent use.
type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// Parse runs the full extraction pipeline over one job description.
// HTML is stripped first; all extraction then works on normalized text.
func (p *Parser) Parse(text, title string) ParsedJD {
	cleaned := cleanText(text)

	parsed := ParsedJD{
		JobTitle:         title,
		Skills:           extractSkills(cleaned),
		Experience:       extractExperience(cleaned),
		Education:        extractEducation(cleaned),
		Responsibilities: extractResponsibilities(cleaned),
		Qualifications:   extractSections(cleaned, qualificationPatterns, 5),
		Salary:           extractSalary(cleaned),
		Benefits:         extractBenefits(cleaned),
		Location:         extractLocation(text),
		Employment:       extractEmployment(cleaned),
		ParsedAt:         p.now(),
	}
	parsed.ComplexityScore = complexityScore(cleaned, parsed)
	parsed.Summary = summarize(parsed)
	return parsed
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	specialChars  = regexp.MustCompile(`[^\w\s.,;:()\-/+#$']`)
)

// cleanText strips markup and normalizes whitespace and case.
func cleanText(text string) string {
	if strings.Contains(text, "<") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil {
			doc.Find("script, style").Remove()
			text = doc.Text()
		} else {
			logger.Warn("Failed to parse job description markup", zap.Error(err))
		}
	}

	text = whitespaceRun.ReplaceAllString(text, " ")
	text = specialChars.ReplaceAllString(text, "")
	return strings.ToLower(strings.TrimSpace(text))
}

// extractSkills scans each category's keywords and patterns. Output order
// is deterministic: first occurrence wins within a category.
func extractSkills(text string) map[string][]string {
	skills := make(map[string][]string, len(skillCategories))

	for _, category := range skillCategories {
		seen := map[string]struct{}{}
		found := []string{}

		add := func(skill string) {
			skill = strings.ToLower(skill)
			if _, ok := seen[skill]; ok {
				return
			}
			seen[skill] = struct{}{}
			found = append(found, skill)
		}

		for _, keyword := range category.keywords {
			if strings.Contains(text, keyword) {
				add(keyword)
			}
		}
		for _, pattern := range category.patterns {
			for _, match := range pattern.FindAllStringSubmatch(text, -1) {
				add(match[1])
			}
		}

		skills[category.name] = found
	}
	return skills
}

func extractExperience(text string) Experience {
	exp := Experience{Level: ExpNotSpecified, Details: []string{}}

	for _, entry := range experiencePatterns {
		for _, pattern := range entry.patterns {
			matches := pattern.FindAllString(text, -1)
			if len(matches) > 0 {
				exp.Level = entry.level
				exp.Details = append(exp.Details, matches...)
			}
		}
	}

	for _, pattern := range yearPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			exp.YearsRequired = match[1]
			break
		}
	}
	return exp
}

func extractEducation(text string) Education {
	edu := Education{DegreeLevels: []string{}, FieldsOfStudy: []string{}, Details: []string{}}

	if matches := degreeRequiredPattern.FindAllString(text, -1); len(matches) > 0 {
		edu.DegreeRequired = true
		edu.DegreeLevels = dedupe(matches)
	}
	edu.FieldsOfStudy = dedupe(fieldOfStudyPattern.FindAllString(text, -1))

	for _, pattern := range degreeDetailPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			edu.Details = append(edu.Details, match[1])
		}
	}
	edu.Details = dedupe(edu.Details)
	return edu
}

// extractResponsibilities pulls bullet items from responsibility sections,
// falling back to action-verb sentences when no section exists.
func extractResponsibilities(text string) []string {
	items := extractSections(text, responsibilityPatterns, 10)
	if len(items) > 0 {
		return items
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		logger.Warn("Sentence segmentation failed", zap.Error(err))
		return []string{}
	}

	out := []string{}
	for _, sentence := range doc.Sentences() {
		if len(out) == 10 {
			break
		}
		if len(sentence.Text) <= 20 {
			continue
		}
		lowered := strings.ToLower(sentence.Text)
		for _, verb := range actionVerbs {
			if strings.Contains(lowered, verb) {
				out = append(out, strings.TrimSpace(sentence.Text))
				break
			}
		}
	}
	return out
}

var bulletSplitter = regexp.MustCompile(`[•*\-]|\n`)

func extractSections(text string, patterns []*regexp.Regexp, minLen int) []string {
	seen := map[string]struct{}{}
	out := []string{}

	for _, pattern := range patterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			for _, item := range bulletSplitter.Split(match[1], -1) {
				item = strings.TrimSpace(item)
				if len(item) <= minLen {
					continue
				}
				if _, ok := seen[item]; ok {
					continue
				}
				seen[item] = struct{}{}
				out = append(out, item)
			}
		}
	}

	if len(out) > 10 {
		out = out[:10]
	}
	return out
}

func extractSalary(text string) Salary {
	salary := Salary{Currency: "USD", Details: []string{}}

	for _, pattern := range salaryPatterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		salary.Mentioned = true
		for _, match := range matches {
			salary.Details = append(salary.Details, match[0])
		}

		if salary.Range == nil && len(matches[0]) >= 3 && matches[0][2] != "" {
			min, errMin := parseAmount(matches[0][1])
			max, errMax := parseAmount(matches[0][2])
			if errMin == nil && errMax == nil {
				salary.Range = &SalaryRange{Min: min, Max: max}
			}
		}
	}
	return salary
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

func parseAmount(raw string) (int, error) {
	return strconv.Atoi(nonDigits.ReplaceAllString(raw, ""))
}

func extractBenefits(text string) []string {
	out := []string{}
	for _, keyword := range benefitKeywords {
		if strings.Contains(text, keyword) {
			out = append(out, keyword)
		}
	}
	return out
}

var cityStatePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?,\s*[A-Z]{2})\b`)

// extractLocation works on the raw text: city/state capitalization is lost
// after normalization.
func extractLocation(text string) Location {
	loc := Location{Locations: []string{}}
	loc.RemoteAllowed = remotePattern.MatchString(text)
	loc.Locations = dedupe(cityStatePattern.FindAllString(text, -1))
	return loc
}

func extractEmployment(text string) Employment {
	for _, entry := range employmentPatterns {
		matches := entry.pattern.FindAllString(text, -1)
		if len(matches) > 0 {
			return Employment{Type: entry.label, Details: dedupe(matches)}
		}
	}
	return Employment{Type: EmploymentNotSpecified, Details: []string{}}
}

// complexityScore blends text length, skill breadth, seniority, and degree
// requirements into [0,1].
func complexityScore(text string, parsed ParsedJD) float64 {
	var score float64

	wordCount := len(strings.Fields(text))
	score += math.Min(float64(wordCount)/1000, 1) * 0.2

	var totalSkills int
	for _, skills := range parsed.Skills {
		totalSkills += len(skills)
	}
	score += math.Min(float64(totalSkills)/20, 1) * 0.3

	expScores := map[string]float64{
		ExpEntry:        0.2,
		ExpMid:          0.5,
		ExpSenior:       0.8,
		ExpExecutive:    1.0,
		ExpNotSpecified: 0.3,
	}
	score += expScores[parsed.Experience.Level] * 0.3

	if parsed.Education.DegreeRequired {
		score += 0.2
	}
	return math.Round(math.Min(score, 1)*1000) / 1000
}

func summarize(parsed ParsedJD) Summary {
	summary := Summary{
		ExperienceLevel: parsed.Experience.Level,
		DegreeRequired:  parsed.Education.DegreeRequired,
		RemoteAllowed:   parsed.Location.RemoteAllowed,
		EmploymentType:  parsed.Employment.Type,
		ComplexityScore: parsed.ComplexityScore,
	}

	type categoryCount struct {
		name  string
		count int
	}
	counts := make([]categoryCount, 0, len(parsed.Skills))
	for name, skills := range parsed.Skills {
		summary.TotalSkillsFound += len(skills)
		if len(skills) > 0 {
			counts = append(counts, categoryCount{name, len(skills)})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})

	summary.TopSkillCategories = []string{}
	for i, c := range counts {
		if i == 3 {
			break
		}
		summary.TopSkillCategories = append(summary.TopSkillCategories, c.name)
	}
	return summary
}

func dedupe(values []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
