package competency

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rocket-training/ai-service/internal/storage/models"
)

const (
	statusCompleted = "completed"
	statusActive    = "active"
	statusOverdue   = "overdue"
)

// studyInteractionTypes are the interaction types counted as study
// sessions; helpInteractionTypes signal the student asking for support.
var (
	studyInteractionTypes = map[string]struct{}{
		"view_content": {},
		"submit_task":  {},
		"take_quiz":    {},
	}
	helpInteractionTypes = map[string]struct{}{
		"chat_message": {},
		"forum_post":   {},
		"ask_question": {},
	}
)

// StudentFeatures is the feature set behind a competency analysis.
type StudentFeatures struct {
	DaysSinceEnrollment  int                `json:"days_since_enrollment"`
	TotalCourses         int                `json:"total_courses"`
	CompletedCourses     int                `json:"completed_courses"`
	ActiveCourses        int                `json:"active_courses"`
	TotalTasks           int                `json:"total_tasks"`
	CompletedTasks       int                `json:"completed_tasks"`
	OverdueTasks         int                `json:"overdue_tasks"`
	AvgTaskScore         float64            `json:"avg_task_score"`
	TaskCompletionRate   float64            `json:"task_completion_rate"`
	LearningConsistency  float64            `json:"learning_consistency"`
	ImprovementTrend     float64            `json:"improvement_trend"`
	DifficultyPreference float64            `json:"difficulty_preference"`
	TotalInteractions    int                `json:"total_interactions"`
	StudyFrequency       float64            `json:"study_session_frequency"`
	HelpSeeking          float64            `json:"help_seeking_behavior"`
	CompetencyScores     map[string]float64 `json:"competency_scores"`
}

// Extractor derives StudentFeatures from a student snapshot.
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

func (e *Extractor) Extract(student models.Candidate) StudentFeatures {
	features := StudentFeatures{
		TotalCourses:     len(student.Enrollments),
		TotalTasks:       len(student.Tasks),
		CompetencyScores: make(map[string]float64, len(student.Competencies)),
	}

	var earliest time.Time
	for _, enrollment := range student.Enrollments {
		switch enrollment.Status {
		case statusCompleted:
			features.CompletedCourses++
		case statusActive:
			features.ActiveCourses++
		}
		if !enrollment.CreatedAt.IsZero() && (earliest.IsZero() || enrollment.CreatedAt.Before(earliest)) {
			earliest = enrollment.CreatedAt
		}
	}
	if !earliest.IsZero() {
		features.DaysSinceEnrollment = int(e.now().Sub(earliest).Hours() / 24)
	}

	for _, task := range student.Tasks {
		switch task.Status {
		case statusCompleted:
			features.CompletedTasks++
		case statusOverdue:
			features.OverdueTasks++
		}
	}
	features.TaskCompletionRate = float64(features.CompletedTasks) / float64(maxInt(features.TotalTasks, 1))
	features.AvgTaskScore = avgCompletedScore(student.Tasks)
	features.LearningConsistency = learningConsistency(student.Tasks)
	features.ImprovementTrend = improvementTrend(student.Tasks)
	features.DifficultyPreference = difficultyPreference(student.Tasks)

	features.TotalInteractions = len(student.Interactions)
	features.StudyFrequency = studyFrequency(student.Interactions)
	features.HelpSeeking = helpSeeking(student.Interactions)

	for _, comp := range student.Competencies {
		features.CompetencyScores[comp.Name] = comp.Score
	}

	return features
}

func avgCompletedScore(tasks []models.Task) float64 {
	var sum float64
	var n int
	for _, task := range tasks {
		if task.Status == statusCompleted && task.Score != nil {
			sum += *task.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// learningConsistency inverts the coefficient of variation over weekly
// task-completion counts. Fewer than 2 active weeks yields the neutral 0.5.
func learningConsistency(tasks []models.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}

	weekly := map[string]float64{}
	for _, task := range tasks {
		if task.Status != statusCompleted || task.CompletedAt.IsZero() {
			continue
		}
		year, week := task.CompletedAt.ISOWeek()
		weekly[fmt.Sprintf("%d-W%02d", year, week)]++
	}
	if len(weekly) < 2 {
		return 0.5
	}

	counts := make([]float64, 0, len(weekly))
	for _, c := range weekly {
		counts = append(counts, c)
	}

	mean := meanOf(counts)
	cv := 1.0
	if mean > 0 {
		cv = stdDev(counts, mean) / mean
	}
	return clamp01(1 - cv)
}

// improvementTrend fits a least-squares line over time-ordered completed
// task scores, normalized around an assumed max slope of 10 points per
// task. Fewer than 3 completed scored tasks yields the neutral 0.5.
func improvementTrend(tasks []models.Task) float64 {
	var completed []models.Task
	for _, task := range tasks {
		if task.Status == statusCompleted && task.Score != nil {
			completed = append(completed, task)
		}
	}
	if len(completed) < 3 {
		return 0.5
	}

	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].CompletedAt.Before(completed[j].CompletedAt)
	})

	scores := make([]float64, len(completed))
	for i, task := range completed {
		scores[i] = *task.Score
	}
	return clamp01((linearSlope(scores) + 10) / 20)
}

// difficultyPreference is the fraction of attempted tasks whose average
// score sits below 70, a proxy for the student seeking hard material.
func difficultyPreference(tasks []models.Task) float64 {
	scoresByTask := map[string][]float64{}
	for _, task := range tasks {
		if task.Status != statusCompleted {
			continue
		}
		var score float64
		if task.Score != nil {
			score = *task.Score
		}
		scoresByTask[task.TaskID] = append(scoresByTask[task.TaskID], score)
	}
	if len(scoresByTask) == 0 {
		return 0.5
	}

	var difficult int
	for _, scores := range scoresByTask {
		if meanOf(scores) < 70 {
			difficult++
		}
	}
	return float64(difficult) / float64(len(scoresByTask))
}

// studyFrequency is distinct study days against a 30 day window.
func studyFrequency(interactions []models.Interaction) float64 {
	days := map[string]struct{}{}
	for _, in := range interactions {
		if _, ok := studyInteractionTypes[in.Type]; !ok {
			continue
		}
		if in.CreatedAt.IsZero() {
			continue
		}
		days[in.CreatedAt.Format("2006-01-02")] = struct{}{}
	}
	if len(days) == 0 {
		return 0
	}
	return math.Min(float64(len(days))/30, 1)
}

// helpSeeking doubles the share of help-type interactions, capped at 1.
func helpSeeking(interactions []models.Interaction) float64 {
	if len(interactions) == 0 {
		return 0
	}
	var help int
	for _, in := range interactions {
		if _, ok := helpInteractionTypes[in.Type]; ok {
			help++
		}
	}
	ratio := float64(help) / float64(len(interactions))
	return math.Min(ratio*2, 1)
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

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
