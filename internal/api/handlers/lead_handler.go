package handlers

import (
	"encoding/json"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/leadscoring"
	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/logger"
)

// conversionProbabilities maps a quality tier to its base 30 day
// conversion probability.
var conversionProbabilities = map[string]float64{
	leadscoring.QualityHot:      0.75,
	leadscoring.QualityWarm:     0.45,
	leadscoring.QualityMedium:   0.25,
	leadscoring.QualityCold:     0.10,
	leadscoring.QualityVeryCold: 0.05,
}

// LeadStore is the analytics surface the handler reads from.
type LeadStore interface {
	QualityDistribution() (map[string]int, error)
}

type LeadHandler struct {
	service *leadscoring.Service
	store   LeadStore
}

func NewLeadHandler(service *leadscoring.Service, store LeadStore) *LeadHandler {
	return &LeadHandler{
		service: service,
		store:   store,
	}
}

// ScoreByID scores a lead from its recorded interaction events.
func (h *LeadHandler) ScoreByID(c *fiber.Ctx) error {
	var req struct {
		LeadID       string               `json:"lead_id"`
		Interactions []models.Interaction `json:"interactions"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.LeadID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "lead_id is required",
		})
	}

	result := h.service.ScoreInteractions(c.Context(), req.LeadID, req.Interactions)

	logger.Info("Lead scored from interactions",
		zap.String("lead_id", req.LeadID),
		zap.Int("score", result.Score),
		zap.Bool("escalate", result.NeedsEscalation),
	)
	return c.JSON(result)
}

// Score runs the feature-weighted scorer on a lead profile.
func (h *LeadHandler) Score(c *fiber.Ctx) error {
	var req struct {
		models.Lead
		IncludeFeatures        bool  `json:"include_features"`
		IncludeRecommendations *bool `json:"include_recommendations"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.service.ScoreLead(c.Context(), req.Lead)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !req.IncludeFeatures {
		result.Features = nil
	}
	if req.IncludeRecommendations != nil && !*req.IncludeRecommendations {
		result.Recommendations = nil
	}
	return c.JSON(result)
}

// ScoreBatch scores up to the configured batch limit of leads at once.
func (h *LeadHandler) ScoreBatch(c *fiber.Ctx) error {
	var req struct {
		Leads           []models.Lead `json:"leads"`
		IncludeFeatures bool          `json:"include_features"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Leads) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "leads must not be empty",
		})
	}

	start := time.Now()
	batch := h.service.BatchScore(c.Context(), req.Leads)

	if !req.IncludeFeatures {
		for i := range batch.Results {
			batch.Results[i].Features = nil
		}
	}

	return c.JSON(fiber.Map{
		"results":            batch.Results,
		"total_leads":        len(req.Leads),
		"successful_scores":  batch.Successes,
		"failed_scores":      batch.Failures,
		"processing_time_ms": float64(time.Since(start).Microseconds()) / 1000,
	})
}

// GetScore returns the cached score for a lead, in whichever shape the
// scoring call produced. Scores are only available after a scoring call
// has populated the cache.
func (h *LeadHandler) GetScore(c *fiber.Ctx) error {
	leadID := c.Params("id")

	payload, found := h.service.CachedPayload(c.Context(), leadID)
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead score not found in cache",
		})
	}

	var result fiber.Map
	if err := json.Unmarshal(payload, &result); err != nil {
		logger.Error("Failed to decode cached score", zap.String("lead_id", leadID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to decode cached score",
		})
	}

	if !c.QueryBool("include_features", false) {
		delete(result, "features")
	}
	if !c.QueryBool("include_recommendations", true) {
		delete(result, "recommendations")
	}
	return c.JSON(result)
}

// UpdateScore rescores a lead after new interactions arrive.
func (h *LeadHandler) UpdateScore(c *fiber.Ctx) error {
	var req struct {
		LeadID          string               `json:"lead_id"`
		NewInteractions []models.Interaction `json:"new_interactions"`
		UpdatedFields   models.Lead          `json:"updated_fields"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.LeadID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "lead_id is required",
		})
	}

	lead := req.UpdatedFields
	lead.ID = req.LeadID
	lead.Interactions = append(lead.Interactions, req.NewInteractions...)

	result, err := h.service.ScoreLead(c.Context(), lead)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"lead_id":       req.LeadID,
		"updated_score": result.Score,
		"quality":       result.Quality,
		"updated_at":    result.ScoredAt,
	})
}

// QualityDistribution reports how scored leads spread across quality
// tiers, computed from score history.
func (h *LeadHandler) QualityDistribution(c *fiber.Ctx) error {
	distribution, err := h.store.QualityDistribution()
	if err != nil {
		logger.Error("Failed to load quality distribution", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}

	var total int
	for _, count := range distribution {
		total += count
	}

	percentages := make(map[string]float64, len(distribution))
	if total > 0 {
		for quality, count := range distribution {
			percentages[quality] = math.Round(float64(count)/float64(total)*1000) / 10
		}
	}

	return c.JSON(fiber.Map{
		"distribution": distribution,
		"total_leads":  total,
		"percentages":  percentages,
		"generated_at": time.Now().UTC(),
	})
}

// PredictConversion estimates conversion probability from the cached
// score, scaled by the requested time horizon.
func (h *LeadHandler) PredictConversion(c *fiber.Ctx) error {
	leadID := c.Query("lead_id")
	if leadID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "lead_id is required",
		})
	}
	horizonDays := c.QueryInt("time_horizon_days", 30)

	score, found := h.service.CachedScore(c.Context(), leadID)
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead score not found in cache",
		})
	}

	base, ok := conversionProbabilities[score.Quality]
	if !ok {
		base = 0.25
	}
	timeFactor := math.Min(float64(horizonDays)/30, 2.0)
	probability := math.Min(base*timeFactor, 0.95)

	return c.JSON(fiber.Map{
		"lead_id":                leadID,
		"conversion_probability": math.Round(probability*1000) / 1000,
		"time_horizon_days":      horizonDays,
		"factors": fiber.Map{
			"lead_score":  score.Score,
			"quality":     score.Quality,
			"time_factor": math.Round(timeFactor*100) / 100,
		},
		"recommendations": score.Recommendations,
		"predicted_at":    time.Now().UTC(),
	})
}

// Health reports scorer readiness.
func (h *LeadHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "lead-scoring",
	})
}
