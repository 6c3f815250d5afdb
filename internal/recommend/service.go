package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/jdparser"
	"github.com/rocket-training/ai-service/internal/metrics"
	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/logger"
)

// Cache is the key-value contract the service needs. Nil caches and cache
// errors are tolerated.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Store logs recommendation runs for analytics. May be nil.
type Store interface {
	InsertRecommendation(record models.RecommendationRecord) error
}

// ErrJobNotParsed signals that no parsed requirements exist for the job.
var ErrJobNotParsed = fmt.Errorf("job description not parsed")

// Service orchestrates candidate recommendation: it resolves parsed job
// requirements from the cache, runs the engine, and caches the ranking.
type Service struct {
	engine *Engine
	cache  Cache
	store  Store
	ttl    time.Duration
}

func NewService(engine *Engine, cache Cache, store Store, ttl time.Duration) *Service {
	return &Service{
		engine: engine,
		cache:  cache,
		store:  store,
		ttl:    ttl,
	}
}

func recommendationsKey(jobID string) string {
	return fmt.Sprintf("recommendations:%s", jobID)
}

func jdParseKey(jobID string) string {
	return fmt.Sprintf("jd_parse:%s", jobID)
}

// JobRequirements loads previously parsed requirements for a job from the
// cache. ErrJobNotParsed is returned when nothing is cached; callers must
// parse the description first.
func (s *Service) JobRequirements(ctx context.Context, jobID string) (models.JobRequirements, error) {
	if s.cache == nil {
		return models.JobRequirements{}, ErrJobNotParsed
	}

	raw, found, err := s.cache.Get(ctx, jdParseKey(jobID))
	if err != nil {
		logger.Warn("Cache read failed", zap.String("job_id", jobID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("jd_parse").Inc()
		return models.JobRequirements{}, ErrJobNotParsed
	}
	if !found {
		metrics.CacheMisses.WithLabelValues("jd_parse").Inc()
		return models.JobRequirements{}, ErrJobNotParsed
	}

	var parsed jdparser.ParsedJD
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		logger.Warn("Cached requirements corrupt", zap.String("job_id", jobID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("jd_parse").Inc()
		return models.JobRequirements{}, ErrJobNotParsed
	}

	metrics.CacheHits.WithLabelValues("jd_parse").Inc()
	return parsed.Requirements(), nil
}

// Recommend ranks candidates for a previously parsed job. The ranking is
// cached under the job ID and each run is logged to the store.
func (s *Service) Recommend(ctx context.Context, jobID string, candidates []models.Candidate, topK int) (RecommendationSet, error) {
	job, err := s.JobRequirements(ctx, jobID)
	if err != nil {
		return RecommendationSet{}, err
	}
	return s.RecommendFor(ctx, jobID, job, candidates, topK), nil
}

// RecommendFor ranks candidates against already-resolved requirements.
func (s *Service) RecommendFor(ctx context.Context, jobID string, job models.JobRequirements, candidates []models.Candidate, topK int) RecommendationSet {
	start := time.Now()
	set := s.engine.Recommend(job, candidates, topK)

	metrics.ScoreDuration.WithLabelValues("recommendation").Observe(time.Since(start).Seconds())
	metrics.ScoreTotal.WithLabelValues("recommendation", "success").Inc()
	metrics.CandidatesEvaluated.Add(float64(set.TotalEvaluated))
	metrics.RecommendationsGenerated.Observe(float64(len(set.Recommendations)))

	if s.store != nil && len(set.Recommendations) > 0 {
		top := set.Recommendations[0]
		err := s.store.InsertRecommendation(models.RecommendationRecord{
			JobID:          jobID,
			CandidateCount: set.TotalEvaluated,
			TopCandidateID: top.CandidateID,
			TopScore:       top.OverallScore,
		})
		if err != nil {
			logger.Error("Failed to log recommendation run", zap.String("job_id", jobID), zap.Error(err))
		}
	}

	if jobID != "" {
		s.cacheAsync(recommendationsKey(jobID), set)
	}
	return set
}

// CachedRecommendations returns the cached ranking for a job, if any.
func (s *Service) CachedRecommendations(ctx context.Context, jobID string) (RecommendationSet, bool) {
	if s.cache == nil || jobID == "" {
		return RecommendationSet{}, false
	}

	raw, found, err := s.cache.Get(ctx, recommendationsKey(jobID))
	if err != nil {
		logger.Warn("Cache read failed", zap.String("job_id", jobID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("recommendations").Inc()
		return RecommendationSet{}, false
	}
	if !found {
		metrics.CacheMisses.WithLabelValues("recommendations").Inc()
		return RecommendationSet{}, false
	}

	var set RecommendationSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		logger.Warn("Cache entry corrupt, recomputing", zap.String("job_id", jobID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("recommendations").Inc()
		return RecommendationSet{}, false
	}

	metrics.CacheHits.WithLabelValues("recommendations").Inc()
	return set, true
}

// SimilarCandidates ranks pool candidates by competency similarity to the
// reference candidate.
func (s *Service) SimilarCandidates(reference models.Candidate, pool []models.Candidate, topK int, minSimilarity float64) SimilarSet {
	start := time.Now()
	set := s.engine.Similar(reference, pool, topK, minSimilarity)
	metrics.ScoreDuration.WithLabelValues("similarity").Observe(time.Since(start).Seconds())
	metrics.ScoreTotal.WithLabelValues("similarity", "success").Inc()
	return set
}

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
