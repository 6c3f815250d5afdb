package recommend

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rocket-training/ai-service/internal/storage/models"
)

// Task and enrollment status values recognized by the extractor.
const (
	StatusCompleted = "completed"
	StatusActive    = "active"
)

// engagementWeights scores interaction types by how strongly they signal
// active learning. Unlisted types get the neutral 0.5.
var engagementWeights = map[string]float64{
	"submit_task":  1.0,
	"view_content": 0.3,
	"chat_message": 0.7,
	"forum_post":   0.8,
	"take_quiz":    0.9,
}

// CandidateFeatures is the typed feature set the match engine consumes.
// Recomputed per recommendation request; no incremental update contract.
type CandidateFeatures struct {
	CandidateID          string             `json:"candidate_id"`
	TotalCourses         int                `json:"total_courses"`
	CompletedCourses     int                `json:"completed_courses"`
	CourseCompletionRate float64            `json:"course_completion_rate"`
	AvgTaskScore         float64            `json:"avg_task_score"`
	TotalTasksCompleted  int                `json:"total_tasks_completed"`
	TaskCompletionRate   float64            `json:"task_completion_rate"`
	AvgCompetencyScore   float64            `json:"avg_competency_score"`
	MaxCompetencyScore   float64            `json:"max_competency_score"`
	CompetencyCount      int                `json:"competency_count"`
	CompetencyVector     map[string]float64 `json:"competency_vector"`
	DaysSinceEnrollment  int                `json:"days_since_enrollment"`
	LearningVelocity     float64            `json:"learning_velocity"`
	ImprovementTrend     float64            `json:"improvement_trend"`
	ConsistencyScore     float64            `json:"consistency_score"`
	TotalInteractions    int                `json:"total_interactions"`
	RecentActivity       float64            `json:"recent_activity"`
	EngagementScore      float64            `json:"engagement_score"`
}

// Extractor derives CandidateFeatures from a candidate snapshot. Total
// function: sparse history resolves to documented defaults.
type Extractor struct {
	now func() time.Time
}

func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

func (e *Extractor) Extract(candidate models.Candidate) CandidateFeatures {
	features := CandidateFeatures{
		CandidateID:  candidate.ID,
		TotalCourses: len(candidate.Enrollments),
	}

	for _, enrollment := range candidate.Enrollments {
		if enrollment.Status == StatusCompleted {
			features.CompletedCourses++
		}
	}
	features.CourseCompletionRate = float64(features.CompletedCourses) / float64(max(features.TotalCourses, 1))

	completed := completedTasks(candidate.Tasks)
	features.TotalTasksCompleted = len(completed)
	features.TaskCompletionRate = float64(len(completed)) / float64(max(len(candidate.Tasks), 1))
	features.AvgTaskScore = avgScore(completed)

	features.CompetencyCount = len(candidate.Competencies)
	features.CompetencyVector = competencyVector(candidate.Competencies)
	if len(candidate.Competencies) > 0 {
		var sum, maxScore float64
		for _, comp := range candidate.Competencies {
			sum += comp.Score
			if comp.Score > maxScore {
				maxScore = comp.Score
			}
		}
		features.AvgCompetencyScore = sum / float64(len(candidate.Competencies))
		features.MaxCompetencyScore = maxScore
	}

	features.DaysSinceEnrollment = e.daysSinceEnrollment(candidate.Enrollments)
	features.LearningVelocity = learningVelocity(features.AvgCompetencyScore, features.CompetencyCount, features.DaysSinceEnrollment)
	features.ImprovementTrend = improvementTrend(completed)
	features.ConsistencyScore = consistencyScore(completed)

	features.TotalInteractions = len(candidate.Interactions)
	features.RecentActivity = e.recentActivity(candidate.Interactions)
	features.EngagementScore = engagementScore(candidate.Interactions)

	return features
}

// NormalizeSkill converts a skill or competency name to its canonical
// vector key form.
func NormalizeSkill(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func competencyVector(competencies []models.Competency) map[string]float64 {
	vector := make(map[string]float64, len(competencies))
	for _, comp := range competencies {
		vector[NormalizeSkill(comp.Name)] = comp.Score
	}
	return vector
}

func completedTasks(tasks []models.Task) []models.Task {
	var completed []models.Task
	for _, task := range tasks {
		if task.Status == StatusCompleted && task.Score != nil {
			completed = append(completed, task)
		}
	}
	return completed
}

func avgScore(tasks []models.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	var sum float64
	for _, task := range tasks {
		sum += *task.Score
	}
	return sum / float64(len(tasks))
}

func (e *Extractor) daysSinceEnrollment(enrollments []models.Enrollment) int {
	var earliest time.Time
	for _, enrollment := range enrollments {
		if enrollment.CreatedAt.IsZero() {
			continue
		}
		if earliest.IsZero() || enrollment.CreatedAt.Before(earliest) {
			earliest = enrollment.CreatedAt
		}
	}
	if earliest.IsZero() {
		return 0
	}
	return int(e.now().Sub(earliest).Hours() / 24)
}

// learningVelocity is monthly competency gain, capped at 10.
func learningVelocity(avgCompetency float64, competencyCount, daysEnrolled int) float64 {
	if competencyCount == 0 || daysEnrolled == 0 {
		return 0
	}
	velocity := avgCompetency / float64(max(daysEnrolled, 1)) * 30
	return math.Min(velocity, 10)
}

// improvementTrend fits a least-squares line over time-ordered task scores
// and maps the slope into [0,1] around an assumed max slope of 5 points per
// task. Fewer than 3 completed tasks yields the neutral 0.5.
func improvementTrend(completed []models.Task) float64 {
	if len(completed) < 3 {
		return 0.5
	}

	ordered := make([]models.Task, len(completed))
	copy(ordered, completed)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CompletedAt.Before(ordered[j].CompletedAt)
	})

	scores := make([]float64, len(ordered))
	for i, task := range ordered {
		scores[i] = *task.Score
	}

	slope := linearSlope(scores)
	trend := (slope + 5) / 10
	return clamp01(trend)
}

// consistencyScore inverts the coefficient of variation of task scores.
// Fewer than 3 completed tasks yields the neutral 0.5.
func consistencyScore(completed []models.Task) float64 {
	if len(completed) < 3 {
		return 0.5
	}

	scores := make([]float64, len(completed))
	for i, task := range completed {
		scores[i] = *task.Score
	}

	mean := meanOf(scores)
	cv := 1.0
	if mean > 0 {
		cv = stdDev(scores, mean) / mean
	}

	consistency := 1 - cv/2
	return clamp01(consistency)
}

// recentActivity counts interactions in the last 30 days against an
// expected level of 20.
func (e *Extractor) recentActivity(interactions []models.Interaction) float64 {
	if len(interactions) == 0 {
		return 0
	}

	cutoff := e.now().AddDate(0, 0, -30)
	var recent int
	for _, in := range interactions {
		if !in.CreatedAt.IsZero() && !in.CreatedAt.Before(cutoff) {
			recent++
		}
	}
	return math.Min(float64(recent)/20, 1)
}

func engagementScore(interactions []models.Interaction) float64 {
	if len(interactions) == 0 {
		return 0
	}

	var total float64
	for _, in := range interactions {
		weight, ok := engagementWeights[in.Type]
		if !ok {
			weight = 0.5
		}
		total += weight
	}
	return math.Min(total/float64(len(interactions)), 1)
}

func linearSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	xMean := (n - 1) / 2
	yMean := meanOf(values)

	var num, den float64
	for i, y := range values {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
