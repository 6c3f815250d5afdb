package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rocket-training/ai-service/internal/storage/models"
)

func TestExtractCompletionRates(t *testing.T) {
	extractor := NewExtractor().WithClock(testClock())

	features := extractor.Extract(models.Candidate{
		ID: "c1",
		Enrollments: []models.Enrollment{
			{CourseID: "go-101", Status: StatusCompleted},
			{CourseID: "go-201", Status: StatusActive},
		},
		Tasks: []models.Task{
			{TaskID: "t1", Status: StatusCompleted, Score: scoreOf(80)},
			{TaskID: "t2", Status: StatusActive},
		},
	})

	assert.Equal(t, 2, features.TotalCourses)
	assert.Equal(t, 1, features.CompletedCourses)
	assert.InDelta(t, 0.5, features.CourseCompletionRate, 1e-9)
	assert.Equal(t, 1, features.TotalTasksCompleted)
	assert.InDelta(t, 0.5, features.TaskCompletionRate, 1e-9)
	assert.InDelta(t, 80, features.AvgTaskScore, 1e-9)
}

func TestExtractEmptyCandidate(t *testing.T) {
	extractor := NewExtractor().WithClock(testClock())

	features := extractor.Extract(models.Candidate{ID: "c1"})

	assert.Equal(t, 0.0, features.CourseCompletionRate)
	assert.Equal(t, 0.0, features.TaskCompletionRate)
	assert.Equal(t, 0.0, features.AvgTaskScore)
	assert.Equal(t, 0.0, features.LearningVelocity)
	assert.Equal(t, 0.5, features.ImprovementTrend)
	assert.Equal(t, 0.5, features.ConsistencyScore)
}

func TestExtractSkipsTasksWithoutScore(t *testing.T) {
	extractor := NewExtractor().WithClock(testClock())

	features := extractor.Extract(models.Candidate{
		Tasks: []models.Task{
			{TaskID: "t1", Status: StatusCompleted},
			{TaskID: "t2", Status: StatusCompleted, Score: scoreOf(90)},
		},
	})

	assert.Equal(t, 1, features.TotalTasksCompleted)
	assert.InDelta(t, 90, features.AvgTaskScore, 1e-9)
}

func TestExtractCompetencyVector(t *testing.T) {
	extractor := NewExtractor().WithClock(testClock())

	features := extractor.Extract(models.Candidate{
		Competencies: []models.Competency{
			{Name: "Machine Learning", Score: 85},
			{Name: "SQL", Score: 65},
		},
	})

	assert.Equal(t, 85.0, features.CompetencyVector["machine_learning"])
	assert.Equal(t, 65.0, features.CompetencyVector["sql"])
	assert.InDelta(t, 75, features.AvgCompetencyScore, 1e-9)
	assert.Equal(t, 85.0, features.MaxCompetencyScore)
}

func TestImprovementTrendNeedsThreeTasks(t *testing.T) {
	tasks := []models.Task{
		{Status: StatusCompleted, Score: scoreOf(50), CompletedAt: day(1)},
		{Status: StatusCompleted, Score: scoreOf(60), CompletedAt: day(2)},
	}
	assert.Equal(t, 0.5, improvementTrend(tasks))
}

func TestImprovementTrendRisingScores(t *testing.T) {
	tasks := []models.Task{
		{Status: StatusCompleted, Score: scoreOf(50), CompletedAt: day(1)},
		{Status: StatusCompleted, Score: scoreOf(60), CompletedAt: day(2)},
		{Status: StatusCompleted, Score: scoreOf(70), CompletedAt: day(3)},
	}

	// slope 10 per task saturates the trend
	assert.Equal(t, 1.0, improvementTrend(tasks))
}

func TestImprovementTrendFallingScores(t *testing.T) {
	tasks := []models.Task{
		{Status: StatusCompleted, Score: scoreOf(90), CompletedAt: day(1)},
		{Status: StatusCompleted, Score: scoreOf(70), CompletedAt: day(2)},
		{Status: StatusCompleted, Score: scoreOf(50), CompletedAt: day(3)},
	}

	assert.Equal(t, 0.0, improvementTrend(tasks))
}

func TestConsistencyScoreUniformScores(t *testing.T) {
	tasks := []models.Task{
		{Status: StatusCompleted, Score: scoreOf(80)},
		{Status: StatusCompleted, Score: scoreOf(80)},
		{Status: StatusCompleted, Score: scoreOf(80)},
	}

	assert.Equal(t, 1.0, consistencyScore(tasks))
}

func TestLearningVelocityCapped(t *testing.T) {
	assert.Equal(t, 0.0, learningVelocity(80, 0, 100))
	assert.Equal(t, 0.0, learningVelocity(80, 3, 0))
	assert.Equal(t, 10.0, learningVelocity(100, 5, 30))
	assert.InDelta(t, 8.0, learningVelocity(80, 5, 300), 1e-9)
}

func TestRecentActivityWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	extractor := NewExtractor().WithClock(func() time.Time { return now })

	features := extractor.Extract(models.Candidate{
		Interactions: []models.Interaction{
			{Type: "view_content", CreatedAt: now.AddDate(0, 0, -5)},
			{Type: "view_content", CreatedAt: now.AddDate(0, 0, -45)},
		},
	})

	// One interaction inside the 30-day window against an expected 20.
	assert.InDelta(t, 0.05, features.RecentActivity, 1e-9)
}

func TestEngagementScoreWeights(t *testing.T) {
	score := engagementScore([]models.Interaction{
		{Type: "submit_task"},
		{Type: "view_content"},
	})
	assert.InDelta(t, 0.65, score, 1e-9)

	unknown := engagementScore([]models.Interaction{{Type: "mystery"}})
	assert.InDelta(t, 0.5, unknown, 1e-9)
}

func day(n int) time.Time {
	return time.Date(2024, 6, n, 0, 0, 0, 0, time.UTC)
}
