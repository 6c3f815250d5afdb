package models

import (
	"sort"
	"time"
)

// Lead is a prospective customer tracked through interaction events.
type Lead struct {
	ID                string            `json:"id"`
	FullName          string            `json:"full_name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	Source            string            `json:"source"`
	Status            string            `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	Interactions      []Interaction     `json:"interactions"`
	InterestedCourses []string          `json:"interested_courses"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Interaction is a single recorded event for a lead or candidate. Immutable
// once recorded; ordering by CreatedAt matters for trend and frequency
// features.
type Interaction struct {
	ID          string    `json:"id,omitempty"`
	Type        string    `json:"interaction_type"`
	Content     string    `json:"content,omitempty"`
	PageURL     string    `json:"page_url,omitempty"`
	DurationSec int       `json:"duration_seconds,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Enrollment struct {
	CourseID  string    `json:"course_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Task struct {
	TaskID      string    `json:"task_id"`
	Status      string    `json:"status"`
	Score       *float64  `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// Competency maps a skill name to a 0-100 proficiency score.
type Competency struct {
	Name  string  `json:"competency_name"`
	Score float64 `json:"score"`
}

// Candidate is a learner profile evaluated by the recommendation and
// competency engines. Students share the same shape.
type Candidate struct {
	ID           string        `json:"id"`
	FullName     string        `json:"full_name"`
	Enrollments  []Enrollment  `json:"enrollments"`
	Tasks        []Task        `json:"tasks"`
	Competencies []Competency  `json:"competencies"`
	Interactions []Interaction `json:"interactions"`
}

// JobRequirements is the structured output contract of the JD parser,
// consumed opaquely by the recommendation engine.
type JobRequirements struct {
	Title           string              `json:"title"`
	Skills          map[string][]string `json:"skills"`
	ExperienceLevel string              `json:"experience_level"`
	DegreeRequired  bool                `json:"degree_required"`
	DegreeLevels    []string            `json:"degree_levels"`
}

// RequiredSkills flattens the categorized skill lists into one slice,
// preserving category order alphabetically for determinism.
func (r JobRequirements) RequiredSkills() []string {
	if len(r.Skills) == 0 {
		return nil
	}
	categories := make([]string, 0, len(r.Skills))
	for c := range r.Skills {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	var skills []string
	for _, c := range categories {
		skills = append(skills, r.Skills[c]...)
	}
	return skills
}

// ScoreRecord is one row of lead score history. The latest row per lead is
// the authoritative score (last-write-wins).
type ScoreRecord struct {
	ID        string
	LeadID    string
	Score     float64
	Quality   string
	Escalate  bool
	CreatedAt time.Time
}

// RecommendationRecord logs a generated recommendation set for audit.
type RecommendationRecord struct {
	ID             string
	JobID          string
	CandidateCount int
	TopCandidateID string
	TopScore       float64
	CreatedAt      time.Time
}
