package competency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocket-training/ai-service/internal/storage/models"
)

func testClock() func() time.Time {
	instant := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return instant }
}

func TestLearningProfileLabels(t *testing.T) {
	cases := []struct {
		name     string
		features StudentFeatures
		profile  string
	}{
		{
			"all signals strong",
			StudentFeatures{LearningConsistency: 0.8, TaskCompletionRate: 0.8, ImprovementTrend: 0.8, StudyFrequency: 0.8},
			ProfileHighPerformer,
		},
		{
			"consistent and completing",
			StudentFeatures{LearningConsistency: 0.8, TaskCompletionRate: 0.8, ImprovementTrend: 0.5, StudyFrequency: 0.5},
			ProfileSteadyLearner,
		},
		{
			"improving fast",
			StudentFeatures{LearningConsistency: 0.5, TaskCompletionRate: 0.5, ImprovementTrend: 0.8, StudyFrequency: 0.5},
			ProfileFastImprover,
		},
		{
			"frequent study sessions",
			StudentFeatures{LearningConsistency: 0.5, TaskCompletionRate: 0.5, ImprovementTrend: 0.5, StudyFrequency: 0.8},
			ProfileActiveLearner,
		},
		{
			"low completion",
			StudentFeatures{LearningConsistency: 0.5, TaskCompletionRate: 0.2, ImprovementTrend: 0.5, StudyFrequency: 0.5},
			ProfileStrugglingLearner,
		},
		{
			"middling everywhere",
			StudentFeatures{LearningConsistency: 0.5, TaskCompletionRate: 0.5, ImprovementTrend: 0.5, StudyFrequency: 0.5},
			ProfileAverageLearner,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.profile, learningProfile(tc.features))
		})
	}
}

func TestOverallLearningScoreWeights(t *testing.T) {
	features := StudentFeatures{
		TaskCompletionRate:  1,
		LearningConsistency: 1,
		ImprovementTrend:    1,
		StudyFrequency:      1,
	}
	assert.InDelta(t, 1.0, overallLearningScore(features), 1e-9)

	half := StudentFeatures{
		TaskCompletionRate:  0.5,
		LearningConsistency: 0.5,
		ImprovementTrend:    0.5,
		StudyFrequency:      0.5,
	}
	assert.InDelta(t, 0.5, overallLearningScore(half), 1e-9)
}

func TestAnalyzeGapsClassification(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	student := models.Candidate{
		ID: "s1",
		Competencies: []models.Competency{
			{Name: "Python", Score: 85},
			{Name: "SQL", Score: 50},
			{Name: "Docker", Score: 30},
		},
	}
	targets := []TargetCompetency{
		{Name: "Python", TargetScore: 80},
		{Name: "SQL", TargetScore: 80},
		{Name: "Docker", TargetScore: 80},
	}

	analysis := analyzer.AnalyzeGaps(student, targets)

	require.Len(t, analysis.Gaps, 2)
	assert.Equal(t, "Docker", analysis.Gaps[0].Competency)
	assert.Equal(t, 50.0, analysis.Gaps[0].Gap)
	assert.Equal(t, "high", analysis.Gaps[0].Priority)
	assert.Equal(t, "SQL", analysis.Gaps[1].Competency)
	assert.Equal(t, "medium", analysis.Gaps[1].Priority)

	require.Len(t, analysis.Strengths, 1)
	assert.Equal(t, "Python", analysis.Strengths[0].Competency)
	assert.Equal(t, 5.0, analysis.Strengths[0].Excess)
}

func TestAnalyzeGapsSmallShortfallIsNeitherGapNorStrength(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	student := models.Candidate{
		ID:           "s1",
		Competencies: []models.Competency{{Name: "Python", Score: 70}},
	}
	targets := []TargetCompetency{{Name: "Python", TargetScore: 80}}

	analysis := analyzer.AnalyzeGaps(student, targets)
	assert.Empty(t, analysis.Gaps)
	assert.Empty(t, analysis.Strengths)
	assert.Equal(t, []string{"Competencies are on track for the current targets"}, analysis.Recommendations)
}

func TestAnalyzeGapsDefaultTarget(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	student := models.Candidate{ID: "s1"}
	targets := []TargetCompetency{{Name: "Python"}}

	analysis := analyzer.AnalyzeGaps(student, targets)
	require.Len(t, analysis.Gaps, 1)
	assert.Equal(t, 80.0, analysis.Gaps[0].TargetScore)
	assert.Equal(t, "high", analysis.Gaps[0].Priority)
}

func TestAnalyzeGapsReadiness(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	student := models.Candidate{
		Competencies: []models.Competency{
			{Name: "Python", Score: 40},
			{Name: "SQL", Score: 100},
		},
	}
	targets := []TargetCompetency{
		{Name: "Python", TargetScore: 80},
		{Name: "SQL", TargetScore: 80},
	}

	analysis := analyzer.AnalyzeGaps(student, targets)

	// mean of 40/80 and min(100/80, 1)
	assert.InDelta(t, 0.75, analysis.OverallReadiness, 1e-9)
}

func TestAnalyzeGapsRecommendations(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	student := models.Candidate{
		Competencies: []models.Competency{{Name: "Python", Score: 95}},
	}
	targets := []TargetCompetency{
		{Name: "Python", TargetScore: 80},
		{Name: "Kubernetes", TargetScore: 80},
	}

	analysis := analyzer.AnalyzeGaps(student, targets)

	assert.Contains(t, analysis.Recommendations, "Focus on developing 1 high-priority competencies")
	assert.Contains(t, analysis.Recommendations, "Prioritize Kubernetes training (gap: 80 points)")
	assert.Contains(t, analysis.Recommendations, "Leverage strength in Python for mentoring opportunities")
}

func TestPredictGrowthDefaults(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	student := models.Candidate{
		ID:           "s1",
		Competencies: []models.Competency{{Name: "Python", Score: 60}},
	}

	prediction := analyzer.PredictGrowth(student, "Python", 0)
	assert.Equal(t, 90, prediction.HorizonDays)
	assert.Equal(t, 60.0, prediction.CurrentScore)
	assert.GreaterOrEqual(t, prediction.PredictedScore, prediction.CurrentScore)
}

func TestPredictGrowthCappedAtHundred(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	student := models.Candidate{
		ID:           "s1",
		Competencies: []models.Competency{{Name: "Python", Score: 99}},
		Tasks: []models.Task{
			{TaskID: "t1", Status: statusCompleted, Score: scoreOf(70), CompletedAt: day(1)},
			{TaskID: "t2", Status: statusCompleted, Score: scoreOf(80), CompletedAt: day(8)},
			{TaskID: "t3", Status: statusCompleted, Score: scoreOf(90), CompletedAt: day(15)},
		},
	}

	prediction := analyzer.PredictGrowth(student, "Python", 365)
	assert.Equal(t, 100.0, prediction.PredictedScore)
}

func TestGrowthRateMultipliers(t *testing.T) {
	neutral := StudentFeatures{
		LearningConsistency: 0.5,
		TaskCompletionRate:  0.5,
		ImprovementTrend:    0.5,
		StudyFrequency:      0.5,
	}
	assert.InDelta(t, 5.0, growthRate(neutral), 1e-9)

	strong := StudentFeatures{
		LearningConsistency: 1,
		TaskCompletionRate:  1,
		ImprovementTrend:    1,
		StudyFrequency:      1,
	}
	assert.InDelta(t, 5.0*1.5*1.5*1.5*1.5, growthRate(strong), 1e-9)

	weak := StudentFeatures{}
	assert.InDelta(t, 5.0*0.0625, growthRate(weak), 1e-9)
}

func TestPredictionConfidence(t *testing.T) {
	full := StudentFeatures{
		TotalTasks:          10,
		DaysSinceEnrollment: 30,
		LearningConsistency: 1,
		TotalInteractions:   50,
	}
	assert.InDelta(t, 1.0, predictionConfidence(full), 1e-9)

	empty := StudentFeatures{}
	assert.InDelta(t, 0.0, predictionConfidence(empty), 1e-9)
}

func TestAnalyzeSortsPredictionsByCompetency(t *testing.T) {
	analyzer := NewAnalyzer().WithClock(testClock())

	student := models.Candidate{
		ID: "s1",
		Competencies: []models.Competency{
			{Name: "SQL", Score: 60},
			{Name: "Docker", Score: 40},
			{Name: "Python", Score: 80},
		},
	}

	analysis := analyzer.Analyze(student)

	require.Len(t, analysis.GrowthPredictions, 3)
	assert.Equal(t, "Docker", analysis.GrowthPredictions[0].Competency)
	assert.Equal(t, "Python", analysis.GrowthPredictions[1].Competency)
	assert.Equal(t, "SQL", analysis.GrowthPredictions[2].Competency)
	assert.Equal(t, "s1", analysis.StudentID)
	assert.Equal(t, 90, analysis.GrowthPredictions[0].HorizonDays)
}
