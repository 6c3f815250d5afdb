package recommend

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/config"
	"github.com/rocket-training/ai-service/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func testRecommendConfig() config.RecommendConfig {
	return config.RecommendConfig{
		SkillMatchWeight:        0.35,
		ExperienceMatchWeight:   0.25,
		PerformanceWeight:       0.20,
		LearningPotentialWeight: 0.15,
		CulturalFitWeight:       0.05,
		MaxRecommendations:      10,
		MinSimilarityScore:      0.6,
	}
}

func testClock() func() time.Time {
	instant := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return instant }
}

func scoreOf(v float64) *float64 { return &v }

func TestMatchSkillsNoRequirements(t *testing.T) {
	result := matchSkills(nil, map[string]float64{"python": 90})

	assert.Equal(t, 0.0, result.Score)
	assert.Empty(t, result.Matched)
	assert.Empty(t, result.Missing)
}

func TestMatchSkillsPartialCoverage(t *testing.T) {
	result := matchSkills([]string{"Python", "SQL"}, map[string]float64{"python": 80})

	// rate 0.5 * 0.6 + avg 80/100 * 0.4, on a 0-100 scale
	assert.Equal(t, 62.0, result.Score)
	require.Len(t, result.Matched, 1)
	assert.Equal(t, "Python", result.Matched[0].Skill)
	assert.Equal(t, []string{"SQL"}, result.Missing)
}

func TestMatchSkillsHalfCoverageAtNinety(t *testing.T) {
	result := matchSkills([]string{"python", "sql"}, map[string]float64{"python": 90})

	// rate 0.5 * 0.6 + avg 90/100 * 0.4, on a 0-100 scale
	assert.Equal(t, 66.0, result.Score)
	require.Len(t, result.Matched, 1)
	assert.Equal(t, []string{"sql"}, result.Missing)
}

func TestMatchSkillsNormalizesNames(t *testing.T) {
	result := matchSkills([]string{"Machine Learning"}, map[string]float64{"machine_learning": 90})

	require.Len(t, result.Matched, 1)
	assert.Equal(t, 96.0, result.Score)
}

func TestProficiencyBands(t *testing.T) {
	assert.Equal(t, "expert", proficiencyFor(85))
	assert.Equal(t, "proficient", proficiencyFor(70))
	assert.Equal(t, "intermediate", proficiencyFor(55))
	assert.Equal(t, "beginner", proficiencyFor(54.9))
}

func TestMatchExperienceDistance(t *testing.T) {
	senior := CandidateFeatures{AvgCompetencyScore: 90, DaysSinceEnrollment: 400}
	assert.Equal(t, LevelSenior, candidateLevel(senior))

	assert.Equal(t, 100.0, matchExperience(LevelSenior, senior))
	assert.Equal(t, 75.0, matchExperience(LevelMid, senior))
	assert.Equal(t, 50.0, matchExperience(LevelJunior, senior))
	assert.Equal(t, 25.0, matchExperience(LevelEntry, senior))

	// Overqualification costs the same as underqualification.
	entry := CandidateFeatures{AvgCompetencyScore: 40}
	assert.Equal(t, LevelEntry, candidateLevel(entry))
	assert.Equal(t, 25.0, matchExperience(LevelSenior, entry))
}

func TestMatchExperienceUnknownRequiredDefaultsToMid(t *testing.T) {
	mid := CandidateFeatures{AvgCompetencyScore: 75, DaysSinceEnrollment: 200}
	assert.Equal(t, LevelMid, candidateLevel(mid))
	assert.Equal(t, 100.0, matchExperience("", mid))
}

func TestCandidateLevelBuckets(t *testing.T) {
	cases := []struct {
		avg   float64
		days  int
		level string
	}{
		{90, 400, LevelSenior},
		{90, 100, LevelJunior},
		{75, 200, LevelMid},
		{65, 10, LevelJunior},
		{50, 500, LevelEntry},
	}

	for _, tc := range cases {
		features := CandidateFeatures{AvgCompetencyScore: tc.avg, DaysSinceEnrollment: tc.days}
		assert.Equal(t, tc.level, candidateLevel(features), "avg %.0f days %d", tc.avg, tc.days)
	}
}

func TestCulturalFitCapped(t *testing.T) {
	assert.Equal(t, 70.0, culturalFit(CandidateFeatures{}))
	assert.Equal(t, 100.0, culturalFit(CandidateFeatures{EngagementScore: 1, ConsistencyScore: 1}))
	assert.Equal(t, 85.0, culturalFit(CandidateFeatures{EngagementScore: 1, ConsistencyScore: 0.5}))
}

func TestRecommendRanksByOverallScore(t *testing.T) {
	engine := NewEngine(testRecommendConfig()).WithClock(testClock())

	job := models.JobRequirements{
		Title:           "Backend Engineer",
		Skills:          map[string][]string{"programming_languages": {"Python"}},
		ExperienceLevel: LevelJunior,
	}

	strong := models.Candidate{
		ID:       "c-strong",
		FullName: "Strong Candidate",
		Competencies: []models.Competency{
			{Name: "Python", Score: 92},
		},
		Tasks: []models.Task{
			{TaskID: "t1", Status: StatusCompleted, Score: scoreOf(88)},
		},
	}
	weak := models.Candidate{
		ID:       "c-weak",
		FullName: "Weak Candidate",
		Competencies: []models.Competency{
			{Name: "Design", Score: 40},
		},
	}

	set := engine.Recommend(job, []models.Candidate{weak, strong}, 10)

	require.Len(t, set.Recommendations, 2)
	assert.Equal(t, "c-strong", set.Recommendations[0].CandidateID)
	assert.Equal(t, "c-weak", set.Recommendations[1].CandidateID)
	assert.Equal(t, 2, set.TotalEvaluated)
	assert.Equal(t, "Backend Engineer", set.JobTitle)
}

func TestRecommendTopKTruncates(t *testing.T) {
	engine := NewEngine(testRecommendConfig()).WithClock(testClock())
	job := models.JobRequirements{Title: "Any"}

	pool := []models.Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	set := engine.Recommend(job, pool, 2)
	assert.Len(t, set.Recommendations, 2)
	assert.Equal(t, 3, set.TotalEvaluated)
}

func TestRecommendNonPositiveTopK(t *testing.T) {
	engine := NewEngine(testRecommendConfig()).WithClock(testClock())

	set := engine.Recommend(models.JobRequirements{}, []models.Candidate{{ID: "a"}}, 0)
	assert.Empty(t, set.Recommendations)
}

func TestRecommendStableOrderOnTies(t *testing.T) {
	engine := NewEngine(testRecommendConfig()).WithClock(testClock())
	job := models.JobRequirements{Title: "Any"}

	pool := []models.Candidate{{ID: "first"}, {ID: "second"}, {ID: "third"}}

	set := engine.Recommend(job, pool, 10)
	require.Len(t, set.Recommendations, 3)
	assert.Equal(t, "first", set.Recommendations[0].CandidateID)
	assert.Equal(t, "second", set.Recommendations[1].CandidateID)
	assert.Equal(t, "third", set.Recommendations[2].CandidateID)
}

func TestEvaluateReasonsFallback(t *testing.T) {
	engine := NewEngine(testRecommendConfig()).WithClock(testClock())

	rec := engine.Evaluate(models.JobRequirements{ExperienceLevel: LevelSenior}, models.Candidate{ID: "c1"})

	assert.Equal(t, []string{"Baseline fit; limited history available"}, rec.Reasons)
}

func TestEvaluateStrengthsThreshold(t *testing.T) {
	engine := NewEngine(testRecommendConfig()).WithClock(testClock())

	job := models.JobRequirements{
		Skills: map[string][]string{"programming_languages": {"Python", "Go"}},
	}
	candidate := models.Candidate{
		ID: "c1",
		Competencies: []models.Competency{
			{Name: "Python", Score: 85},
			{Name: "Go", Score: 60},
		},
	}

	rec := engine.Evaluate(job, candidate)
	assert.Equal(t, []string{"Python"}, rec.Strengths)
	assert.Contains(t, rec.Reasons, "Matches 2 of 2 required skills")
}
