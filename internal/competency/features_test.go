package competency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rocket-training/ai-service/internal/storage/models"
)

func scoreOf(v float64) *float64 { return &v }

func day(n int) time.Time {
	return time.Date(2024, 6, n, 0, 0, 0, 0, time.UTC)
}

func TestExtractCourseAndTaskCounts(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	extractor := NewExtractor().WithClock(func() time.Time { return now })

	features := extractor.Extract(models.Candidate{
		ID: "s1",
		Enrollments: []models.Enrollment{
			{CourseID: "go-101", Status: statusCompleted, CreatedAt: now.AddDate(0, 0, -60)},
			{CourseID: "go-201", Status: statusActive, CreatedAt: now.AddDate(0, 0, -30)},
		},
		Tasks: []models.Task{
			{TaskID: "t1", Status: statusCompleted, Score: scoreOf(80)},
			{TaskID: "t2", Status: statusOverdue},
			{TaskID: "t3", Status: statusActive},
		},
	})

	assert.Equal(t, 2, features.TotalCourses)
	assert.Equal(t, 1, features.CompletedCourses)
	assert.Equal(t, 1, features.ActiveCourses)
	assert.Equal(t, 60, features.DaysSinceEnrollment)
	assert.Equal(t, 3, features.TotalTasks)
	assert.Equal(t, 1, features.CompletedTasks)
	assert.Equal(t, 1, features.OverdueTasks)
	assert.InDelta(t, 1.0/3, features.TaskCompletionRate, 1e-9)
	assert.InDelta(t, 80, features.AvgTaskScore, 1e-9)
}

func TestExtractCompetencyScoresKeepRawNames(t *testing.T) {
	extractor := NewExtractor()

	features := extractor.Extract(models.Candidate{
		Competencies: []models.Competency{
			{Name: "Machine Learning", Score: 72},
		},
	})

	assert.Equal(t, 72.0, features.CompetencyScores["Machine Learning"])
}

func TestLearningConsistencySingleWeekIsNeutral(t *testing.T) {
	tasks := []models.Task{
		{TaskID: "t1", Status: statusCompleted, Score: scoreOf(80), CompletedAt: day(3)},
		{TaskID: "t2", Status: statusCompleted, Score: scoreOf(80), CompletedAt: day(4)},
	}
	assert.Equal(t, 0.5, learningConsistency(tasks))
}

func TestLearningConsistencyUniformWeeks(t *testing.T) {
	// One completion in each of three consecutive ISO weeks.
	tasks := []models.Task{
		{TaskID: "t1", Status: statusCompleted, Score: scoreOf(80), CompletedAt: day(3)},
		{TaskID: "t2", Status: statusCompleted, Score: scoreOf(80), CompletedAt: day(10)},
		{TaskID: "t3", Status: statusCompleted, Score: scoreOf(80), CompletedAt: day(17)},
	}
	assert.Equal(t, 1.0, learningConsistency(tasks))
}

func TestLearningConsistencyNoTasks(t *testing.T) {
	assert.Equal(t, 0.0, learningConsistency(nil))
}

func TestImprovementTrendNeutralBelowThreeTasks(t *testing.T) {
	tasks := []models.Task{
		{Status: statusCompleted, Score: scoreOf(50), CompletedAt: day(1)},
		{Status: statusCompleted, Score: scoreOf(90), CompletedAt: day(2)},
	}
	assert.Equal(t, 0.5, improvementTrend(tasks))
}

func TestImprovementTrendRising(t *testing.T) {
	tasks := []models.Task{
		{Status: statusCompleted, Score: scoreOf(50), CompletedAt: day(1)},
		{Status: statusCompleted, Score: scoreOf(60), CompletedAt: day(2)},
		{Status: statusCompleted, Score: scoreOf(70), CompletedAt: day(3)},
	}

	// slope 10 per task maps to the top of the scale
	assert.Equal(t, 1.0, improvementTrend(tasks))
}

func TestImprovementTrendFlat(t *testing.T) {
	tasks := []models.Task{
		{Status: statusCompleted, Score: scoreOf(75), CompletedAt: day(1)},
		{Status: statusCompleted, Score: scoreOf(75), CompletedAt: day(2)},
		{Status: statusCompleted, Score: scoreOf(75), CompletedAt: day(3)},
	}
	assert.Equal(t, 0.5, improvementTrend(tasks))
}

func TestDifficultyPreference(t *testing.T) {
	tasks := []models.Task{
		{TaskID: "easy", Status: statusCompleted, Score: scoreOf(90)},
		{TaskID: "hard", Status: statusCompleted, Score: scoreOf(55)},
	}
	assert.InDelta(t, 0.5, difficultyPreference(tasks), 1e-9)

	assert.Equal(t, 0.5, difficultyPreference(nil))
}

func TestStudyFrequencyCountsDistinctDays(t *testing.T) {
	interactions := []models.Interaction{
		{Type: "view_content", CreatedAt: day(1)},
		{Type: "view_content", CreatedAt: day(1).Add(3 * time.Hour)},
		{Type: "take_quiz", CreatedAt: day(2)},
		{Type: "chat_message", CreatedAt: day(3)},
	}

	// Two distinct study days; chat is not a study interaction.
	assert.InDelta(t, 2.0/30, studyFrequency(interactions), 1e-9)
}

func TestHelpSeekingDoubledRatio(t *testing.T) {
	interactions := []models.Interaction{
		{Type: "chat_message"},
		{Type: "view_content"},
		{Type: "view_content"},
		{Type: "view_content"},
	}
	assert.InDelta(t, 0.5, helpSeeking(interactions), 1e-9)

	allHelp := []models.Interaction{{Type: "forum_post"}, {Type: "ask_question"}}
	assert.Equal(t, 1.0, helpSeeking(allHelp))

	assert.Equal(t, 0.0, helpSeeking(nil))
}
