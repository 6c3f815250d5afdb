package recommend

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/config"
)

// Experience buckets, ordered by seniority.
const (
	LevelEntry     = "entry_level"
	LevelJunior    = "junior"
	LevelMid       = "mid_level"
	LevelSenior    = "senior"
	LevelExecutive = "executive"
)

var experienceOrder = map[string]int{
	LevelEntry:     1,
	LevelJunior:    2,
	LevelMid:       3,
	LevelSenior:    4,
	LevelExecutive: 5,
}

// MatchedSkill is one required skill the candidate holds, with the
// competency score backing it.
type MatchedSkill struct {
	Skill       string  `json:"skill"`
	Score       float64 `json:"score"`
	Proficiency string  `json:"proficiency"`
}

// SubScores are the five component scores behind an overall match, each
// on a 0-100 scale.
type SubScores struct {
	SkillMatch        float64 `json:"skill_match"`
	ExperienceMatch   float64 `json:"experience_match"`
	Performance       float64 `json:"performance"`
	LearningPotential float64 `json:"learning_potential"`
	CulturalFit       float64 `json:"cultural_fit"`
}

// Recommendation is one ranked candidate for a job.
type Recommendation struct {
	CandidateID   string         `json:"candidate_id"`
	CandidateName string         `json:"candidate_name"`
	OverallScore  float64        `json:"overall_score"`
	SubScores     SubScores      `json:"sub_scores"`
	MatchedSkills []MatchedSkill `json:"matched_skills"`
	MissingSkills []string       `json:"missing_skills"`
	Strengths     []string       `json:"strengths"`
	Reasons       []string       `json:"reasons"`
}

// RecommendationSet is the ranked output for one job.
type RecommendationSet struct {
	JobTitle        string             `json:"job_title"`
	Recommendations []Recommendation   `json:"recommendations"`
	TotalEvaluated  int                `json:"total_evaluated"`
	Weights         map[string]float64 `json:"weights"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

type skillMatchResult struct {
	Score    float64
	Rate     float64
	AvgScore float64
	Matched  []MatchedSkill
	Missing  []string
}

// Engine ranks candidates against parsed job requirements. Scoring is
// deterministic: equal overall scores keep input order.
type Engine struct {
	cfg       config.RecommendConfig
	extractor *Extractor
	now       func() time.Time
}

func NewEngine(cfg config.RecommendConfig) *Engine {
	return &Engine{
		cfg:       cfg,
		extractor: NewExtractor(),
		now:       time.Now,
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.extractor.WithClock(now)
	return e
}

// Recommend evaluates every candidate against the job and returns the
// top-K ranked recommendations. topK <= 0 yields an empty set.
func (e *Engine) Recommend(job models.JobRequirements, candidates []models.Candidate, topK int) RecommendationSet {
	set := RecommendationSet{
		JobTitle:        job.Title,
		Recommendations: []Recommendation{},
		TotalEvaluated:  len(candidates),
		Weights: map[string]float64{
			"skill_match":        e.cfg.SkillMatchWeight,
			"experience_match":   e.cfg.ExperienceMatchWeight,
			"performance":        e.cfg.PerformanceWeight,
			"learning_potential": e.cfg.LearningPotentialWeight,
			"cultural_fit":       e.cfg.CulturalFitWeight,
		},
		GeneratedAt: e.now(),
	}
	if topK <= 0 {
		return set
	}

	ranked := make([]Recommendation, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, e.Evaluate(job, candidate))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OverallScore > ranked[j].OverallScore
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	set.Recommendations = ranked
	return set
}

// Evaluate scores a single candidate against the job requirements.
func (e *Engine) Evaluate(job models.JobRequirements, candidate models.Candidate) Recommendation {
	features := e.extractor.Extract(candidate)

	skills := matchSkills(job.RequiredSkills(), features.CompetencyVector)
	experience := matchExperience(job.ExperienceLevel, features)
	performance := performanceScore(features)
	learning := learningPotential(features)
	cultural := culturalFit(features)

	overall := skills.Score*e.cfg.SkillMatchWeight +
		experience*e.cfg.ExperienceMatchWeight +
		performance*e.cfg.PerformanceWeight +
		learning*e.cfg.LearningPotentialWeight +
		cultural*e.cfg.CulturalFitWeight

	rec := Recommendation{
		CandidateID:   candidate.ID,
		CandidateName: candidate.FullName,
		OverallScore:  round2(overall),
		SubScores: SubScores{
			SkillMatch:        skills.Score,
			ExperienceMatch:   experience,
			Performance:       performance,
			LearningPotential: learning,
			CulturalFit:       cultural,
		},
		MatchedSkills: skills.Matched,
		MissingSkills: skills.Missing,
	}
	rec.Strengths = strengths(skills.Matched)
	rec.Reasons = reasons(rec, skills, features)
	return rec
}

// matchSkills compares required skills against the candidate's competency
// vector. Coverage rate weighs 0.6, average proficiency of matched skills
// 0.4. No required skills means no basis for a match.
func matchSkills(required []string, vector map[string]float64) skillMatchResult {
	result := skillMatchResult{Matched: []MatchedSkill{}, Missing: []string{}}
	if len(required) == 0 {
		return result
	}

	var sum float64
	for _, skill := range required {
		key := NormalizeSkill(skill)
		score, ok := vector[key]
		if !ok {
			result.Missing = append(result.Missing, skill)
			continue
		}
		result.Matched = append(result.Matched, MatchedSkill{
			Skill:       skill,
			Score:       round2(score),
			Proficiency: proficiencyFor(score),
		})
		sum += score
	}

	result.Rate = float64(len(result.Matched)) / float64(len(required))
	if len(result.Matched) > 0 {
		result.AvgScore = sum / float64(len(result.Matched))
	}
	result.Score = round2((result.Rate*0.6 + result.AvgScore/100*0.4) * 100)
	return result
}

func proficiencyFor(score float64) string {
	switch {
	case score >= 85:
		return "expert"
	case score >= 70:
		return "proficient"
	case score >= 55:
		return "intermediate"
	default:
		return "beginner"
	}
}

// matchExperience buckets the candidate by competency and tenure, then
// scores the absolute bucket distance to the required level.
func matchExperience(requiredLevel string, features CandidateFeatures) float64 {
	candidateRank := experienceOrder[candidateLevel(features)]
	requiredRank, ok := experienceOrder[requiredLevel]
	if !ok {
		requiredRank = experienceOrder[LevelMid]
	}

	distance := candidateRank - requiredRank
	if distance < 0 {
		distance = -distance
	}
	switch distance {
	case 0:
		return 100
	case 1:
		return 75
	case 2:
		return 50
	default:
		return 25
	}
}

func candidateLevel(features CandidateFeatures) string {
	switch {
	case features.AvgCompetencyScore >= 85 && features.DaysSinceEnrollment >= 365:
		return LevelSenior
	case features.AvgCompetencyScore >= 70 && features.DaysSinceEnrollment >= 180:
		return LevelMid
	case features.AvgCompetencyScore >= 60:
		return LevelJunior
	default:
		return LevelEntry
	}
}

func performanceScore(features CandidateFeatures) float64 {
	score := features.AvgTaskScore/100*0.4 +
		features.CourseCompletionRate*0.3 +
		features.TaskCompletionRate*0.2 +
		features.ConsistencyScore*0.1
	return round2(score * 100)
}

func learningPotential(features CandidateFeatures) float64 {
	score := features.ImprovementTrend*0.4 +
		features.LearningVelocity/10*0.3 +
		features.EngagementScore*0.2 +
		features.RecentActivity*0.1
	return round2(score * 100)
}

// culturalFit starts from a 70 baseline and rewards engagement and
// consistency, capped at 100. A proxy until richer signals exist.
func culturalFit(features CandidateFeatures) float64 {
	score := 70 + features.EngagementScore*10 + features.ConsistencyScore*10
	return round2(math.Min(score, 100))
}

func strengths(matched []MatchedSkill) []string {
	out := []string{}
	for _, skill := range matched {
		if skill.Score >= 80 {
			out = append(out, skill.Skill)
		}
	}
	return out
}

func reasons(rec Recommendation, skills skillMatchResult, features CandidateFeatures) []string {
	out := []string{}
	if len(skills.Matched) > 0 {
		out = append(out, fmt.Sprintf("Matches %d of %d required skills", len(skills.Matched), len(skills.Matched)+len(skills.Missing)))
	}
	if rec.SubScores.ExperienceMatch >= 75 {
		out = append(out, fmt.Sprintf("Experience level aligns with the role (%s)", candidateLevel(features)))
	}
	if features.AvgTaskScore >= 80 {
		out = append(out, fmt.Sprintf("Strong task performance (avg %.1f)", features.AvgTaskScore))
	}
	if rec.SubScores.LearningPotential >= 70 {
		out = append(out, "High learning potential based on improvement trend and engagement")
	}
	if features.CourseCompletionRate >= 0.8 && features.TotalCourses > 0 {
		out = append(out, "Consistently completes enrolled courses")
	}
	if len(out) == 0 {
		out = append(out, "Baseline fit; limited history available")
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
