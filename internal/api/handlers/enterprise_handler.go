package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/jdparser"
	"github.com/rocket-training/ai-service/internal/recommend"
	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/logger"
)

type EnterpriseHandler struct {
	parser        *jdparser.Service
	recommender   *recommend.Service
	maxCandidates int
	minSimilarity float64
}

func NewEnterpriseHandler(parser *jdparser.Service, recommender *recommend.Service, maxCandidates int, minSimilarity float64) *EnterpriseHandler {
	return &EnterpriseHandler{
		parser:        parser,
		recommender:   recommender,
		maxCandidates: maxCandidates,
		minSimilarity: minSimilarity,
	}
}

// ParseJD parses one job description into structured requirements.
func (h *EnterpriseHandler) ParseJD(c *fiber.Ctx) error {
	var req jdparser.ParseRequest

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	parsed, err := h.parser.Parse(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	logger.Info("Job description parsed",
		zap.String("jd_id", req.JobID),
		zap.Int("skills_found", parsed.Summary.TotalSkillsFound),
	)
	return c.JSON(parsed)
}

// ParseJDBatch parses multiple job descriptions; one bad description does
// not fail the rest.
func (h *EnterpriseHandler) ParseJDBatch(c *fiber.Ctx) error {
	var req struct {
		JobDescriptions []jdparser.ParseRequest `json:"job_descriptions"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.JobDescriptions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_descriptions must not be empty",
		})
	}

	start := time.Now()
	batch := h.parser.BatchParse(c.Context(), req.JobDescriptions)

	return c.JSON(fiber.Map{
		"results":            batch.Results,
		"total_jds":          len(req.JobDescriptions),
		"successful_parses":  batch.Successes,
		"failed_parses":      batch.Failures,
		"processing_time_ms": float64(time.Since(start).Microseconds()) / 1000,
	})
}

// GetParsedJD returns a previously parsed job description from the cache.
func (h *EnterpriseHandler) GetParsedJD(c *fiber.Ctx) error {
	jobID := c.Params("id")

	parsed, found := h.parser.CachedParse(c.Context(), jobID)
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Parsed job description not found in cache",
		})
	}

	if !c.QueryBool("include_analysis", true) {
		return c.JSON(fiber.Map{
			"jd_id":            parsed.JobID,
			"skills":           parsed.Skills,
			"experience_level": parsed.Experience.Level,
			"parsed_at":        parsed.ParsedAt,
		})
	}
	return c.JSON(parsed)
}

// RecommendCandidates ranks the supplied candidates against a previously
// parsed job description.
func (h *EnterpriseHandler) RecommendCandidates(c *fiber.Ctx) error {
	var req struct {
		JobID         string             `json:"jd_id"`
		Candidates    []models.Candidate `json:"candidates"`
		MaxCandidates int                `json:"max_candidates"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.JobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "jd_id is required",
		})
	}

	topK := req.MaxCandidates
	if topK <= 0 {
		topK = h.maxCandidates
	}

	set, err := h.recommender.Recommend(c.Context(), req.JobID, req.Candidates, topK)
	if err != nil {
		if errors.Is(err, recommend.ErrJobNotParsed) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Job description not found. Please parse the JD first.",
			})
		}
		logger.Error("Failed to recommend candidates", zap.String("jd_id", req.JobID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to recommend candidates",
		})
	}

	logger.Info("Candidate recommendations generated",
		zap.String("jd_id", req.JobID),
		zap.Int("recommended", len(set.Recommendations)),
		zap.Int("evaluated", set.TotalEvaluated),
	)

	return c.JSON(fiber.Map{
		"jd_id":                      req.JobID,
		"recommended_candidates":     set.Recommendations,
		"total_candidates_evaluated": set.TotalEvaluated,
		"recommendation_criteria":    set.Weights,
		"generated_at":               set.GeneratedAt,
	})
}

// SimilarCandidates finds candidates whose competency profiles resemble
// the reference candidate's.
func (h *EnterpriseHandler) SimilarCandidates(c *fiber.Ctx) error {
	var req struct {
		Reference           models.Candidate   `json:"reference_candidate"`
		Candidates          []models.Candidate `json:"candidates"`
		MaxSimilar          int                `json:"max_similar"`
		SimilarityThreshold *float64           `json:"similarity_threshold"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Reference.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "reference_candidate is required",
		})
	}

	topK := req.MaxSimilar
	if topK <= 0 {
		topK = 5
	}
	threshold := h.minSimilarity
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}

	set := h.recommender.SimilarCandidates(req.Reference, req.Candidates, topK, threshold)

	return c.JSON(fiber.Map{
		"reference_candidate_id":    set.ReferenceID,
		"similar_candidates":        set.Candidates,
		"similarity_threshold":      threshold,
		"total_candidates_compared": set.TotalCompared,
		"generated_at":              set.GeneratedAt,
	})
}
