package competency

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePathOrdersTargets(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	path := analyzer.GeneratePath(PathRequest{
		StudentID:            "s1",
		TargetCompetencies:   []string{"Python", "SQL", "Docker", "Kubernetes"},
		TimeHorizonWeeks:     12,
		DifficultyPreference: DifficultyAdvanced,
	}, 0.6, ProfileAverageLearner)

	require.Len(t, path.Steps, 4)
	assert.Equal(t, 12, path.EstimatedDurationWeeks)
	assert.Equal(t, DifficultyAdvanced, path.DifficultyLevel)

	first := path.Steps[0]
	assert.Equal(t, 1, first.Step)
	assert.Equal(t, "Python", first.Competency)
	assert.Equal(t, 3, first.EstimatedWeeks)
	assert.Equal(t, DifficultyAdvanced, first.Difficulty)
	assert.Empty(t, first.Prerequisites)
	assert.Contains(t, first.Resources, "Course: Python Fundamentals")

	last := path.Steps[3]
	assert.Equal(t, []string{"Python", "SQL", "Docker"}, last.Prerequisites)
}

func TestGeneratePathMilestonesEveryThreeSteps(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	path := analyzer.GeneratePath(PathRequest{
		StudentID:          "s1",
		TargetCompetencies: []string{"Python", "SQL", "Docker", "Kubernetes", "Terraform", "Go"},
		TimeHorizonWeeks:   12,
	}, 0.6, ProfileAverageLearner)

	require.Len(t, path.Milestones, 2)

	first := path.Milestones[0]
	assert.Equal(t, "Milestone 1", first.Name)
	assert.Equal(t, 6, first.Week)
	assert.Equal(t, []string{"Python", "SQL", "Docker"}, first.CompetenciesAchieved)
	assert.Equal(t, "Assessment for Python, SQL, Docker", first.Assessment)

	second := path.Milestones[1]
	assert.Equal(t, "Milestone 2", second.Name)
	assert.Equal(t, "Assessment for Kubernetes, Terraform, Go", second.Assessment)
}

func TestGeneratePathDefaults(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	path := analyzer.GeneratePath(PathRequest{
		StudentID:          "s1",
		TargetCompetencies: []string{"Python"},
	}, 0.6, ProfileAverageLearner)

	assert.Equal(t, DefaultPathHorizonWeeks, path.EstimatedDurationWeeks)
	assert.Equal(t, DifficultyAdaptive, path.DifficultyLevel)
	assert.Equal(t, DifficultyIntermediate, path.Steps[0].Difficulty)
	assert.Equal(t, testClock()(), path.GeneratedAt)
}

func TestGeneratePathFloorsStepDuration(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	targets := []string{"a", "b", "c", "d", "e", "f", "g"}
	path := analyzer.GeneratePath(PathRequest{
		StudentID:          "s1",
		TargetCompetencies: targets,
		TimeHorizonWeeks:   12,
	}, 0.6, ProfileAverageLearner)

	for _, step := range path.Steps {
		assert.Equal(t, 2, step.EstimatedWeeks)
	}
}

func TestSuccessProbability(t *testing.T) {
	// base 0.6, neutral profile, 3 targets, full horizon
	assert.Equal(t, 0.6, successProbability(0.6, ProfileAverageLearner, 3, 12))

	// profile multiplier
	assert.Equal(t, 0.69, successProbability(0.6, ProfileHighPerformer, 3, 12))

	// fewer weeks shrink the time factor: 6/12 = 0.5
	assert.Equal(t, 0.3, successProbability(0.6, ProfileAverageLearner, 3, 6))

	// many targets bottom out at the 0.5 complexity floor
	assert.Equal(t, 0.3, successProbability(0.6, ProfileAverageLearner, 20, 12))

	// cap at 0.95
	assert.Equal(t, 0.95, successProbability(1.0, ProfileHighPerformer, 3, 24))
}

func TestServiceLearningPathValidation(t *testing.T) {
	service := newTestService(nil)

	_, err := service.LearningPath(context.Background(), PathRequest{
		TargetCompetencies: []string{"Python"},
	})
	assert.ErrorContains(t, err, "student id is required")

	_, err = service.LearningPath(context.Background(), PathRequest{StudentID: "s1"})
	assert.ErrorContains(t, err, "target_competencies must not be empty")
}

func TestServiceLearningPathRequiresAnalysis(t *testing.T) {
	service := newTestService(newFakeCache())

	_, err := service.LearningPath(context.Background(), PathRequest{
		StudentID:          "s1",
		TargetCompetencies: []string{"Python"},
	})
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
}

func TestServiceLearningPathUsesCachedAnalysis(t *testing.T) {
	cache := newFakeCache()
	service := newTestService(cache)

	analysis := Analysis{
		StudentID:       "s1",
		OverallScore:    0.6,
		LearningProfile: ProfileHighPerformer,
	}
	payload, err := json.Marshal(analysis)
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), "student_analysis:s1", string(payload), time.Minute))

	path, err := service.LearningPath(context.Background(), PathRequest{
		StudentID:          "s1",
		TargetCompetencies: []string{"Python", "SQL", "Docker"},
		TimeHorizonWeeks:   12,
	})
	require.NoError(t, err)

	assert.Equal(t, "s1", path.StudentID)
	assert.Equal(t, 0.69, path.SuccessProbability)

	assert.Eventually(t, func() bool {
		return cache.has("learning_path:s1")
	}, time.Second, 10*time.Millisecond)
}
