package competency

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Difficulty preferences accepted by path generation. Adaptive resolves
// to intermediate step difficulty.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
	DifficultyAdaptive     = "adaptive"
)

// DefaultPathHorizonWeeks applies when a path request omits a horizon.
const DefaultPathHorizonWeeks = 12

// PathRequest asks for a personalized learning path toward a set of
// target competencies.
type PathRequest struct {
	StudentID            string   `json:"student_id"`
	TargetCompetencies   []string `json:"target_competencies"`
	TimeHorizonWeeks     int      `json:"time_horizon_weeks"`
	DifficultyPreference string   `json:"difficulty_preference"`
}

// PathStep is one competency in the ordered path. Earlier targets are
// prerequisites of later ones.
type PathStep struct {
	Step           int      `json:"step"`
	Competency     string   `json:"competency"`
	EstimatedWeeks int      `json:"estimated_weeks"`
	Difficulty     string   `json:"difficulty"`
	Resources      []string `json:"resources"`
	Prerequisites  []string `json:"prerequisites"`
}

// Milestone is an assessment checkpoint placed after every third step.
type Milestone struct {
	Name                 string   `json:"milestone"`
	Week                 int      `json:"week"`
	CompetenciesAchieved []string `json:"competencies_achieved"`
	Assessment           string   `json:"assessment"`
}

type LearningPath struct {
	StudentID              string      `json:"student_id"`
	Steps                  []PathStep  `json:"learning_path"`
	EstimatedDurationWeeks int         `json:"estimated_duration_weeks"`
	DifficultyLevel        string      `json:"difficulty_level"`
	SuccessProbability     float64     `json:"success_probability"`
	Milestones             []Milestone `json:"milestones"`
	GeneratedAt            time.Time   `json:"generated_at"`
}

// profileSuccessMultipliers scales success probability by learning
// profile: consistent profiles finish paths more reliably than
// struggling ones.
var profileSuccessMultipliers = map[string]float64{
	ProfileHighPerformer:     1.15,
	ProfileSteadyLearner:     1.1,
	ProfileFastImprover:      1.1,
	ProfileActiveLearner:     1.05,
	ProfileAverageLearner:    1.0,
	ProfileStrugglingLearner: 0.9,
}

// GeneratePath orders the target competencies into sequential steps with
// milestones every three steps, and scores the overall success
// probability from the student's analysis.
func (a *Analyzer) GeneratePath(req PathRequest, overallScore float64, learningProfile string) LearningPath {
	horizon := req.TimeHorizonWeeks
	if horizon <= 0 {
		horizon = DefaultPathHorizonWeeks
	}
	preference := req.DifficultyPreference
	if preference == "" {
		preference = DifficultyAdaptive
	}

	stepDifficulty := preference
	if stepDifficulty == DifficultyAdaptive {
		stepDifficulty = DifficultyIntermediate
	}

	targets := req.TargetCompetencies
	weeksPerStep := horizon / len(targets)
	if weeksPerStep < 2 {
		weeksPerStep = 2
	}

	steps := make([]PathStep, 0, len(targets))
	var milestones []Milestone
	for i, competency := range targets {
		var prerequisites []string
		if i > 0 {
			prerequisites = append(prerequisites, targets[:i]...)
		}
		steps = append(steps, PathStep{
			Step:           i + 1,
			Competency:     competency,
			EstimatedWeeks: weeksPerStep,
			Difficulty:     stepDifficulty,
			Resources: []string{
				fmt.Sprintf("Course: %s Fundamentals", competency),
				fmt.Sprintf("Practice: %s Projects", competency),
			},
			Prerequisites: prerequisites,
		})

		if (i+1)%3 == 0 {
			from := i - 2
			if from < 0 {
				from = 0
			}
			milestones = append(milestones, Milestone{
				Name:                 fmt.Sprintf("Milestone %d", len(milestones)+1),
				Week:                 weeksPerStep * (i + 1),
				CompetenciesAchieved: append([]string(nil), targets[:i+1]...),
				Assessment:           fmt.Sprintf("Assessment for %s", strings.Join(targets[from:i+1], ", ")),
			})
		}
	}

	return LearningPath{
		StudentID:              req.StudentID,
		Steps:                  steps,
		EstimatedDurationWeeks: horizon,
		DifficultyLevel:        preference,
		SuccessProbability:     successProbability(overallScore, learningProfile, len(targets), horizon),
		Milestones:             milestones,
		GeneratedAt:            a.now(),
	}
}

// successProbability blends the student's current level (0..1 overall
// learning score) with path complexity and available time, capped at 0.95.
func successProbability(overallScore float64, learningProfile string, numTargets, horizonWeeks int) float64 {
	base := math.Min(overallScore, 0.9)

	profileFactor, ok := profileSuccessMultipliers[learningProfile]
	if !ok {
		profileFactor = 1.0
	}

	complexityFactor := math.Max(0.5, 1-float64(numTargets-3)*0.1)
	timeFactor := math.Min(1.2, float64(horizonWeeks)/float64(DefaultPathHorizonWeeks))

	probability := base * profileFactor * complexityFactor * timeFactor
	return math.Round(math.Min(probability, 0.95)*1000) / 1000
}
