package competency

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rocket-training/ai-service/internal/storage/models"
)

// Learning profile labels, coarsest signal in the analysis output.
const (
	ProfileHighPerformer     = "high_performer"
	ProfileSteadyLearner     = "steady_learner"
	ProfileFastImprover      = "fast_improver"
	ProfileActiveLearner     = "active_learner"
	ProfileStrugglingLearner = "struggling_learner"
	ProfileAverageLearner    = "average_learner"
)

// DefaultTargetScore applies when a target competency omits one.
const DefaultTargetScore = 80

// baseMonthlyGrowth is the growth-rate anchor before student multipliers.
const baseMonthlyGrowth = 5.0

// TargetCompetency is a required competency with its expected level.
type TargetCompetency struct {
	Name        string  `json:"name"`
	TargetScore float64 `json:"target_score"`
}

// Gap is one competency falling short of its target.
type Gap struct {
	Competency   string  `json:"competency"`
	CurrentScore float64 `json:"current_score"`
	TargetScore  float64 `json:"target_score"`
	Gap          float64 `json:"gap"`
	Priority     string  `json:"priority"`
}

// Strength is one competency meeting or exceeding its target.
type Strength struct {
	Competency   string  `json:"competency"`
	CurrentScore float64 `json:"current_score"`
	TargetScore  float64 `json:"target_score"`
	Excess       float64 `json:"excess"`
}

// GapAnalysis compares a student's competencies against target levels.
type GapAnalysis struct {
	StudentID        string     `json:"student_id"`
	Gaps             []Gap      `json:"gaps"`
	Strengths        []Strength `json:"strengths"`
	OverallReadiness float64    `json:"overall_readiness"`
	Recommendations  []string   `json:"recommendations"`
}

// GrowthPrediction projects one competency's score over a time horizon.
type GrowthPrediction struct {
	Competency      string   `json:"competency"`
	CurrentScore    float64  `json:"current_score"`
	PredictedScore  float64  `json:"predicted_score"`
	PredictedGrowth float64  `json:"predicted_growth"`
	HorizonDays     int      `json:"time_horizon_days"`
	Confidence      float64  `json:"confidence"`
	Factors         []string `json:"factors"`
}

// Analysis is the full competency analysis for one student.
type Analysis struct {
	StudentID         string             `json:"student_id"`
	Features          StudentFeatures    `json:"features"`
	OverallScore      float64            `json:"overall_score"`
	LearningProfile   string             `json:"learning_profile"`
	GrowthPredictions []GrowthPrediction `json:"growth_predictions"`
	AnalyzedAt        time.Time          `json:"analyzed_at"`
}

// Analyzer produces student competency analyses. Pure computation; the
// service layer owns caching and persistence.
type Analyzer struct {
	extractor *Extractor
	now       func() time.Time
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		extractor: NewExtractor(),
		now:       time.Now,
	}
}

func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	a.extractor.WithClock(now)
	return a
}

// Analyze runs the full pipeline for one student: features, overall
// learning score, profile label, and a 90 day growth prediction per
// current competency.
func (a *Analyzer) Analyze(student models.Candidate) Analysis {
	features := a.extractor.Extract(student)

	predictions := make([]GrowthPrediction, 0, len(student.Competencies))
	for _, comp := range student.Competencies {
		predictions = append(predictions, a.predictGrowth(features, comp.Name, comp.Score, 90))
	}
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Competency < predictions[j].Competency
	})

	return Analysis{
		StudentID:         student.ID,
		Features:          features,
		OverallScore:      round2(overallLearningScore(features)),
		LearningProfile:   learningProfile(features),
		GrowthPredictions: predictions,
		AnalyzedAt:        a.now(),
	}
}

// AnalyzeGaps compares current competency scores to targets. Shortfalls
// over 20 points become gaps (over 40 is high priority); scores at or
// above target become strengths. Gaps sort widest first.
func (a *Analyzer) AnalyzeGaps(student models.Candidate, targets []TargetCompetency) GapAnalysis {
	current := map[string]float64{}
	for _, comp := range student.Competencies {
		current[comp.Name] = comp.Score
	}

	analysis := GapAnalysis{
		StudentID: student.ID,
		Gaps:      []Gap{},
		Strengths: []Strength{},
	}

	for _, target := range targets {
		targetScore := target.TargetScore
		if targetScore == 0 {
			targetScore = DefaultTargetScore
		}
		currentScore := current[target.Name]
		gap := targetScore - currentScore

		if gap > 20 {
			priority := "medium"
			if gap > 40 {
				priority = "high"
			}
			analysis.Gaps = append(analysis.Gaps, Gap{
				Competency:   target.Name,
				CurrentScore: currentScore,
				TargetScore:  targetScore,
				Gap:          round2(gap),
				Priority:     priority,
			})
		} else if currentScore >= targetScore {
			analysis.Strengths = append(analysis.Strengths, Strength{
				Competency:   target.Name,
				CurrentScore: currentScore,
				TargetScore:  targetScore,
				Excess:       round2(currentScore - targetScore),
			})
		}
	}

	sort.SliceStable(analysis.Gaps, func(i, j int) bool {
		return analysis.Gaps[i].Gap > analysis.Gaps[j].Gap
	})

	analysis.OverallReadiness = round2(overallReadiness(current, targets))
	analysis.Recommendations = gapRecommendations(analysis.Gaps, analysis.Strengths)
	return analysis
}

// PredictGrowth projects one competency over horizonDays. horizonDays <= 0
// defaults to 90.
func (a *Analyzer) PredictGrowth(student models.Candidate, competencyName string, horizonDays int) GrowthPrediction {
	if horizonDays <= 0 {
		horizonDays = 90
	}
	features := a.extractor.Extract(student)

	var current float64
	for _, comp := range student.Competencies {
		if comp.Name == competencyName {
			current = comp.Score
			break
		}
	}
	return a.predictGrowth(features, competencyName, current, horizonDays)
}

func (a *Analyzer) predictGrowth(features StudentFeatures, competencyName string, currentScore float64, horizonDays int) GrowthPrediction {
	rate := growthRate(features)
	growth := rate * float64(horizonDays) / 30
	predicted := math.Min(currentScore+growth, 100)

	return GrowthPrediction{
		Competency:      competencyName,
		CurrentScore:    currentScore,
		PredictedScore:  round2(predicted),
		PredictedGrowth: round2(growth),
		HorizonDays:     horizonDays,
		Confidence:      round2(predictionConfidence(features)),
		Factors:         growthFactors(features),
	}
}

// growthRate scales the base monthly rate by four habit multipliers, each
// in [0.5, 1.5].
func growthRate(features StudentFeatures) float64 {
	multiplier := (0.5 + features.LearningConsistency) *
		(0.5 + features.TaskCompletionRate) *
		(0.5 + features.ImprovementTrend) *
		(0.5 + features.StudyFrequency)
	return baseMonthlyGrowth * multiplier
}

// predictionConfidence reflects how much history backs the prediction.
func predictionConfidence(features StudentFeatures) float64 {
	factors := []float64{
		math.Min(float64(features.TotalTasks)/10, 1),
		math.Min(float64(features.DaysSinceEnrollment)/30, 1),
		features.LearningConsistency,
		math.Min(float64(features.TotalInteractions)/50, 1),
	}
	return meanOf(factors)
}

func growthFactors(features StudentFeatures) []string {
	factors := []string{}
	if features.LearningConsistency > 0.7 {
		factors = append(factors, "High learning consistency")
	} else if features.LearningConsistency < 0.3 {
		factors = append(factors, "Inconsistent learning pattern")
	}
	if features.TaskCompletionRate > 0.8 {
		factors = append(factors, "High task completion rate")
	} else if features.TaskCompletionRate < 0.5 {
		factors = append(factors, "Low task completion rate")
	}
	if features.ImprovementTrend > 0.7 {
		factors = append(factors, "Strong improvement trend")
	} else if features.ImprovementTrend < 0.3 {
		factors = append(factors, "Declining performance trend")
	}
	if features.HelpSeeking > 0.5 {
		factors = append(factors, "Active help-seeking behavior")
	}
	return factors
}

func overallLearningScore(features StudentFeatures) float64 {
	return features.TaskCompletionRate*0.3 +
		features.LearningConsistency*0.25 +
		features.ImprovementTrend*0.25 +
		features.StudyFrequency*0.2
}

func overallReadiness(current map[string]float64, targets []TargetCompetency) float64 {
	if len(targets) == 0 {
		return 0
	}
	var total float64
	for _, target := range targets {
		targetScore := target.TargetScore
		if targetScore == 0 {
			targetScore = DefaultTargetScore
		}
		total += math.Min(current[target.Name]/targetScore, 1)
	}
	return total / float64(len(targets))
}

func learningProfile(features StudentFeatures) string {
	consistency := features.LearningConsistency
	completion := features.TaskCompletionRate
	improvement := features.ImprovementTrend
	frequency := features.StudyFrequency

	switch {
	case consistency > 0.7 && completion > 0.7 && improvement > 0.7 && frequency > 0.7:
		return ProfileHighPerformer
	case consistency > 0.7 && completion > 0.7:
		return ProfileSteadyLearner
	case improvement > 0.7:
		return ProfileFastImprover
	case frequency > 0.7:
		return ProfileActiveLearner
	case completion < 0.3 || consistency < 0.3:
		return ProfileStrugglingLearner
	default:
		return ProfileAverageLearner
	}
}

func gapRecommendations(gaps []Gap, strengths []Strength) []string {
	out := []string{}

	var high []Gap
	for _, gap := range gaps {
		if gap.Priority == "high" {
			high = append(high, gap)
		}
	}
	if len(high) > 0 {
		out = append(out, fmt.Sprintf("Focus on developing %d high-priority competencies", len(high)))
		for i, gap := range high {
			if i == 3 {
				break
			}
			out = append(out, fmt.Sprintf("Prioritize %s training (gap: %.0f points)", gap.Competency, gap.Gap))
		}
	}

	if len(strengths) > 0 {
		top := strengths[0]
		for _, s := range strengths[1:] {
			if s.CurrentScore > top.CurrentScore {
				top = s
			}
		}
		out = append(out, fmt.Sprintf("Leverage strength in %s for mentoring opportunities", top.Competency))
	}

	if len(out) == 0 {
		out = append(out, "Competencies are on track for the current targets")
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
