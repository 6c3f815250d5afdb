package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/competency"
	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/logger"
)

type StudentHandler struct {
	service *competency.Service
}

func NewStudentHandler(service *competency.Service) *StudentHandler {
	return &StudentHandler{
		service: service,
	}
}

// Analyze runs the full competency analysis for one student.
func (h *StudentHandler) Analyze(c *fiber.Ctx) error {
	var req struct {
		models.Candidate
		IncludeFeatures bool `json:"include_features"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	analysis, err := h.service.Analyze(c.Context(), req.Candidate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	logger.Info("Student competency analyzed",
		zap.String("student_id", req.ID),
		zap.Float64("overall_score", analysis.OverallScore),
		zap.String("profile", analysis.LearningProfile),
	)

	if !req.IncludeFeatures {
		analysis.Features = competency.StudentFeatures{}
		return c.JSON(fiber.Map{
			"student_id":         analysis.StudentID,
			"overall_score":      analysis.OverallScore,
			"learning_profile":   analysis.LearningProfile,
			"growth_predictions": analysis.GrowthPredictions,
			"analyzed_at":        analysis.AnalyzedAt,
		})
	}
	return c.JSON(analysis)
}

// AnalyzeBatch analyzes multiple students; one bad record does not fail
// the rest.
func (h *StudentHandler) AnalyzeBatch(c *fiber.Ctx) error {
	var req struct {
		Students []models.Candidate `json:"students"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Students) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "students must not be empty",
		})
	}

	start := time.Now()
	batch := h.service.BatchAnalyze(c.Context(), req.Students)

	return c.JSON(fiber.Map{
		"results":             batch.Results,
		"total_students":      len(req.Students),
		"successful_analyses": batch.Successes,
		"failed_analyses":     batch.Failures,
		"processing_time_ms":  float64(time.Since(start).Microseconds()) / 1000,
	})
}

// GetAnalysis returns the cached analysis for a student.
func (h *StudentHandler) GetAnalysis(c *fiber.Ctx) error {
	studentID := c.Params("id")

	analysis, found := h.service.CachedAnalysis(c.Context(), studentID)
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student competency analysis not found in cache",
		})
	}
	return c.JSON(analysis)
}

// LearningPath generates a personalized learning path from the student's
// cached competency analysis.
func (h *StudentHandler) LearningPath(c *fiber.Ctx) error {
	var req competency.PathRequest

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	path, err := h.service.LearningPath(c.Context(), req)
	if err != nil {
		if errors.Is(err, competency.ErrAnalysisNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Student competency analysis not found. Please analyze competencies first.",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	logger.Info("Learning path generated",
		zap.String("student_id", req.StudentID),
		zap.Int("steps", len(path.Steps)),
		zap.Float64("success_probability", path.SuccessProbability),
	)
	return c.JSON(path)
}

// CompetencyGaps compares a student's competencies against target levels.
func (h *StudentHandler) CompetencyGaps(c *fiber.Ctx) error {
	var req struct {
		Student models.Candidate              `json:"student"`
		Targets []competency.TargetCompetency `json:"target_competencies"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Student.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "student is required",
		})
	}
	if len(req.Targets) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "target_competencies must not be empty",
		})
	}

	analysis := h.service.AnalyzeGaps(req.Student, req.Targets)
	return c.JSON(analysis)
}
