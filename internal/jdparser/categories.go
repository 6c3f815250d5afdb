package jdparser

import "regexp"

// skillCategory pairs plain keyword lookups with regex patterns that catch
// spelling variants the keywords miss.
type skillCategory struct {
	name     string
	keywords []string
	patterns []*regexp.Regexp
}

var skillCategories = []skillCategory{
	{
		name:     "programming_languages",
		keywords: []string{"python", "java", "javascript", "c++", "c#", "php", "ruby", "go", "rust", "swift", "kotlin", "scala", "r", "matlab"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(python|java|javascript|js|c\+\+|c#|php|ruby|golang|go|rust|swift|kotlin|scala)\b`),
		},
	},
	{
		name:     "web_technologies",
		keywords: []string{"html", "css", "react", "angular", "vue", "node.js", "express", "django", "flask", "spring", "laravel"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(html5?|css3?|react|angular|vue\.?js|node\.?js|express|django|flask|spring|laravel)\b`),
		},
	},
	{
		name:     "databases",
		keywords: []string{"mysql", "postgresql", "mongodb", "redis", "elasticsearch", "oracle", "sql server", "sqlite"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(mysql|postgresql|postgres|mongodb|redis|elasticsearch|oracle|sql\s+server|sqlite)\b`),
		},
	},
	{
		name:     "cloud_platforms",
		keywords: []string{"aws", "azure", "gcp", "google cloud", "docker", "kubernetes", "terraform"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(aws|azure|gcp|google\s+cloud|docker|kubernetes|k8s|terraform)\b`),
		},
	},
	{
		name:     "data_science",
		keywords: []string{"machine learning", "deep learning", "ai", "data analysis", "pandas", "numpy", "tensorflow", "pytorch"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(machine\s+learning|deep\s+learning|artificial\s+intelligence|ai|data\s+analysis|pandas|numpy|tensorflow|pytorch)\b`),
		},
	},
	{
		name:     "design_tools",
		keywords: []string{"figma", "sketch", "adobe", "photoshop", "illustrator", "xd", "invision"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(figma|sketch|adobe|photoshop|illustrator|xd|invision)\b`),
		},
	},
	{
		name:     "soft_skills",
		keywords: []string{"communication", "teamwork", "leadership", "problem solving", "analytical", "creative", "adaptable"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(communication|teamwork|leadership|problem\s+solving|analytical|creative|adaptable|flexible)\b`),
		},
	},
}

// Experience level labels as emitted by the parser.
const (
	ExpEntry        = "entry_level"
	ExpMid          = "mid_level"
	ExpSenior       = "senior_level"
	ExpExecutive    = "executive"
	ExpNotSpecified = "not_specified"
)

// experiencePatterns are checked in order; later matches override earlier
// ones so the most senior mention wins.
var experiencePatterns = []struct {
	level    string
	patterns []*regexp.Regexp
}{
	{ExpEntry, []*regexp.Regexp{regexp.MustCompile(`(?i)\b(0-2|0\s*-\s*2|entry\s+level|junior|fresh|graduate|intern)\b`)}},
	{ExpMid, []*regexp.Regexp{regexp.MustCompile(`(?i)\b(2-5|3-5|2\s*-\s*5|3\s*-\s*5|mid\s+level|intermediate|experienced)\b`)}},
	{ExpSenior, []*regexp.Regexp{regexp.MustCompile(`(?i)\b(5\+|5-8|5\s*-\s*8|senior|lead|principal|architect)\b`)}},
	{ExpExecutive, []*regexp.Regexp{regexp.MustCompile(`(?i)\b(8\+|10\+|director|manager|head\s+of|vp|vice\s+president|cto|ceo)\b`)}},
}

var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*of\s*experience`),
	regexp.MustCompile(`(?i)(\d+)\s*-\s*(\d+)\s*years?\s*experience`),
	regexp.MustCompile(`(?i)minimum\s*(\d+)\s*years?`),
	regexp.MustCompile(`(?i)at\s*least\s*(\d+)\s*years?`),
}

var (
	degreeRequiredPattern = regexp.MustCompile(`(?i)\b(bachelor|master|phd|degree|diploma)\b`)
	fieldOfStudyPattern   = regexp.MustCompile(`(?i)\b(computer\s+science|software\s+engineering|information\s+technology|mathematics|statistics)\b`)
	degreeDetailPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(bachelor'?s?|master'?s?|phd|doctorate|associate)\s*(degree|diploma)?\b`),
		regexp.MustCompile(`(?i)\b(bs|ba|ms|ma|mba|phd)\b`),
	}
)

var salaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$([0-9,]+)\s*-\s*\$([0-9,]+)`),
	regexp.MustCompile(`(?i)\$([0-9,]+)k?\s*-\s*([0-9,]+)k`),
	regexp.MustCompile(`(?i)([0-9,]+)\s*-\s*([0-9,]+)\s*(usd|dollars?)`),
	regexp.MustCompile(`(?i)salary\s*:?\s*\$?([0-9,]+)`),
	regexp.MustCompile(`(?i)compensation\s*:?\s*\$?([0-9,]+)`),
}

var benefitKeywords = []string{
	"health insurance", "dental", "vision", "retirement", "401k", "vacation", "pto",
	"remote work", "flexible hours", "gym membership", "training", "conference",
	"stock options", "bonus", "commission",
}

var remotePattern = regexp.MustCompile(`(?i)\b(remote|work\s+from\s+home|wfh|distributed|anywhere)\b`)

// Employment type labels.
const (
	EmploymentFullTime     = "full_time"
	EmploymentPartTime     = "part_time"
	EmploymentContract     = "contract"
	EmploymentInternship   = "internship"
	EmploymentTemporary    = "temporary"
	EmploymentNotSpecified = "not_specified"
)

var employmentPatterns = []struct {
	label   string
	pattern *regexp.Regexp
}{
	{EmploymentFullTime, regexp.MustCompile(`(?i)\b(full\s*time|full-time|permanent)\b`)},
	{EmploymentPartTime, regexp.MustCompile(`(?i)\b(part\s*time|part-time)\b`)},
	{EmploymentContract, regexp.MustCompile(`(?i)\b(contract|contractor|freelance|consultant)\b`)},
	{EmploymentInternship, regexp.MustCompile(`(?i)\b(intern|internship|co-op)\b`)},
	{EmploymentTemporary, regexp.MustCompile(`(?i)\b(temporary|temp|seasonal)\b`)},
}

var sectionStoppers = `qualifications?|requirements?|skills?|education|experience|responsibilities?|duties?|benefits?|salary|perks?`

var responsibilityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)responsibilities?:?\s*(.*?)(?:\b(?:` + sectionStoppers + `)\b|$)`),
	regexp.MustCompile(`(?is)duties?:?\s*(.*?)(?:\b(?:` + sectionStoppers + `)\b|$)`),
}

var qualificationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)qualifications?:?\s*(.*?)(?:\b(?:` + sectionStoppers + `)\b|$)`),
	regexp.MustCompile(`(?is)requirements?:?\s*(.*?)(?:\b(?:` + sectionStoppers + `)\b|$)`),
	regexp.MustCompile(`(?is)must\s+have:?\s*(.*?)(?:\b(?:` + sectionStoppers + `)\b|$)`),
}

var actionVerbs = []string{"develop", "design", "implement", "manage", "lead", "create", "maintain", "collaborate", "analyze"}
