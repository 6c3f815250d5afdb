package leadscoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/metrics"
	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/logger"
)

// Cache is the key-value contract the orchestrator needs. Nil caches and
// cache errors are tolerated: scoring always proceeds without one.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Store persists score history. May be nil in degraded deployments.
type Store interface {
	InsertScore(record models.ScoreRecord) error
}

// BatchResult wraps per-lead results with success/failure tallies that
// always sum to the batch size.
type BatchResult struct {
	Results   []LeadScore `json:"results"`
	Successes int         `json:"successful_scores"`
	Failures  int         `json:"failed_scores"`
}

// Service wraps the scorer with idempotent caching and score history. It is
// the only layer touching external state; the scorer beneath it is pure.
type Service struct {
	scorer *Scorer
	cache  Cache
	store  Store
	ttl    time.Duration
}

func NewService(scorer *Scorer, cache Cache, store Store, ttl time.Duration) *Service {
	return &Service{
		scorer: scorer,
		cache:  cache,
		store:  store,
		ttl:    ttl,
	}
}

func leadScoreKey(leadID string) string {
	return fmt.Sprintf("lead_score:%s", leadID)
}

// ScoreInteractions runs the interaction-event scorer, records the result,
// and dispatches the cache write off the response path.
func (s *Service) ScoreInteractions(ctx context.Context, leadID string, events []models.Interaction) InteractionScore {
	start := time.Now()
	result := s.scorer.ScoreInteractions(events)
	result.LeadID = leadID

	metrics.ScoreDuration.WithLabelValues("lead_interactions").Observe(time.Since(start).Seconds())
	metrics.ScoreTotal.WithLabelValues("lead_interactions", "success").Inc()
	metrics.LeadQualityTotal.WithLabelValues(result.Quality).Inc()
	if result.NeedsEscalation {
		metrics.EscalationsTotal.Inc()
	}

	if s.store != nil {
		err := s.store.InsertScore(models.ScoreRecord{
			LeadID:   leadID,
			Score:    float64(result.Score),
			Quality:  result.Quality,
			Escalate: result.NeedsEscalation,
		})
		if err != nil {
			logger.Error("Failed to persist lead score", zap.String("lead_id", leadID), zap.Error(err))
		}
	}

	s.cacheAsync(leadScoreKey(leadID), result)
	return result
}

// ScoreLead runs the feature-weighted scorer for a single lead. Leads
// without an email are rejected before scoring.
func (s *Service) ScoreLead(ctx context.Context, lead models.Lead) (LeadScore, error) {
	if lead.Email == "" {
		return LeadScore{}, fmt.Errorf("lead email is required")
	}

	start := time.Now()
	result := s.scorer.ScoreLead(lead)

	metrics.ScoreDuration.WithLabelValues("lead").Observe(time.Since(start).Seconds())
	metrics.ScoreTotal.WithLabelValues("lead", "success").Inc()
	metrics.LeadQualityTotal.WithLabelValues(result.Quality).Inc()
	metrics.LeadScoreValue.Observe(result.Score)

	if s.store != nil {
		err := s.store.InsertScore(models.ScoreRecord{
			LeadID:  lead.ID,
			Score:   result.Score,
			Quality: result.Quality,
		})
		if err != nil {
			logger.Error("Failed to persist lead score", zap.String("lead_id", lead.ID), zap.Error(err))
		}
	}

	if lead.ID != "" {
		s.cacheAsync(leadScoreKey(lead.ID), result)
	}
	return result, nil
}

// BatchScore scores leads independently: one malformed lead fills its own
// result slot with an error and never aborts the batch. Cached results are
// reused when present.
func (s *Service) BatchScore(ctx context.Context, leads []models.Lead) BatchResult {
	metrics.BatchSize.WithLabelValues("lead").Observe(float64(len(leads)))

	batch := BatchResult{Results: make([]LeadScore, 0, len(leads))}

	for _, lead := range leads {
		if lead.Email == "" {
			metrics.ScoreTotal.WithLabelValues("lead", "error").Inc()
			batch.Results = append(batch.Results, LeadScore{
				LeadID: lead.ID,
				Err:    "lead email is required",
			})
			batch.Failures++
			continue
		}

		if cached, ok := s.cachedScore(ctx, lead.ID); ok {
			batch.Results = append(batch.Results, cached)
			batch.Successes++
			continue
		}

		result, err := s.ScoreLead(ctx, lead)
		if err != nil {
			metrics.ScoreTotal.WithLabelValues("lead", "error").Inc()
			batch.Results = append(batch.Results, LeadScore{LeadID: lead.ID, Err: err.Error()})
			batch.Failures++
			continue
		}

		batch.Results = append(batch.Results, result)
		batch.Successes++
	}

	return batch
}

// CachedScore returns the cached score for a lead. The boolean is false
// both on a genuine miss and when the cache is unavailable; either way the
// caller is told to compute first.
func (s *Service) CachedScore(ctx context.Context, leadID string) (LeadScore, bool) {
	return s.cachedScore(ctx, leadID)
}

// CachedPayload returns the cached score entry exactly as it was written.
// Both scoring strategies write under the same key with different shapes,
// so readback must not force one shape onto the other: an interaction
// score keeps its escalation flag and trace, a feature score keeps its
// ml/rule breakdown.
func (s *Service) CachedPayload(ctx context.Context, leadID string) (json.RawMessage, bool) {
	if s.cache == nil || leadID == "" {
		return nil, false
	}

	raw, found, err := s.cache.Get(ctx, leadScoreKey(leadID))
	if err != nil {
		logger.Warn("Cache read failed", zap.String("lead_id", leadID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("lead_score").Inc()
		return nil, false
	}
	if !found {
		metrics.CacheMisses.WithLabelValues("lead_score").Inc()
		return nil, false
	}
	if !json.Valid([]byte(raw)) {
		logger.Warn("Cache entry corrupt", zap.String("lead_id", leadID))
		metrics.CacheMisses.WithLabelValues("lead_score").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("lead_score").Inc()
	return json.RawMessage(raw), true
}

func (s *Service) cachedScore(ctx context.Context, leadID string) (LeadScore, bool) {
	if s.cache == nil || leadID == "" {
		return LeadScore{}, false
	}

	raw, found, err := s.cache.Get(ctx, leadScoreKey(leadID))
	if err != nil {
		logger.Warn("Cache read failed", zap.String("lead_id", leadID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("lead_score").Inc()
		return LeadScore{}, false
	}
	if !found {
		metrics.CacheMisses.WithLabelValues("lead_score").Inc()
		return LeadScore{}, false
	}

	var result LeadScore
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		logger.Warn("Cache entry corrupt, recomputing", zap.String("lead_id", leadID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("lead_score").Inc()
		return LeadScore{}, false
	}

	metrics.CacheHits.WithLabelValues("lead_score").Inc()
	return result, true
}

// cacheAsync dispatches the cache write as a deferred task so the response
// path never blocks on Redis. Failures are logged and swallowed.
func (s *Service) cacheAsync(key string, value interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logger.Error("Failed to marshal cache payload", zap.String("key", key), zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
			logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}()
}
