package jdparser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/metrics"
	"github.com/rocket-training/ai-service/pkg/logger"
)

// Cache is the key-value contract the service needs. Nil caches and cache
// errors are tolerated.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// ParseRequest is one job description to parse.
type ParseRequest struct {
	JobID       string `json:"jd_id"`
	Title       string `json:"title"`
	Description string `json:"description_text"`
}

// BatchResult wraps per-description results with tallies that always sum
// to the batch size.
type BatchResult struct {
	Results   []ParseResult `json:"results"`
	Successes int           `json:"successful_parses"`
	Failures  int           `json:"failed_parses"`
}

// ParseResult is one batch slot: either a parse or an error.
type ParseResult struct {
	JobID  string    `json:"jd_id"`
	Parsed *ParsedJD `json:"parsed,omitempty"`
	Err    string    `json:"error,omitempty"`
}

// Service wraps the parser with caching; parses land under jd_parse:{id}
// so the recommendation flow can pick them up later.
type Service struct {
	parser *Parser
	cache  Cache
	ttl    time.Duration
}

func NewService(parser *Parser, cache Cache, ttl time.Duration) *Service {
	return &Service{
		parser: parser,
		cache:  cache,
		ttl:    ttl,
	}
}

func jdParseKey(jobID string) string {
	return fmt.Sprintf("jd_parse:%s", jobID)
}

// Parse parses one description and dispatches the cache write off the
// response path. An empty description is rejected.
func (s *Service) Parse(ctx context.Context, req ParseRequest) (ParsedJD, error) {
	if req.Description == "" {
		metrics.JDsParsed.WithLabelValues("error").Inc()
		return ParsedJD{}, fmt.Errorf("description_text is required")
	}

	start := time.Now()
	parsed := s.parser.Parse(req.Description, req.Title)
	parsed.JobID = req.JobID

	metrics.ScoreDuration.WithLabelValues("jd_parse").Observe(time.Since(start).Seconds())
	metrics.JDsParsed.WithLabelValues("success").Inc()

	if req.JobID != "" {
		s.cacheAsync(jdParseKey(req.JobID), parsed)
	}
	return parsed, nil
}

// BatchParse parses descriptions independently: one malformed description
// fills its own result slot and never aborts the batch. Cached parses are
// reused when present.
func (s *Service) BatchParse(ctx context.Context, reqs []ParseRequest) BatchResult {
	metrics.BatchSize.WithLabelValues("jd_parse").Observe(float64(len(reqs)))

	batch := BatchResult{Results: make([]ParseResult, 0, len(reqs))}

	for _, req := range reqs {
		if cached, ok := s.CachedParse(ctx, req.JobID); ok {
			batch.Results = append(batch.Results, ParseResult{JobID: req.JobID, Parsed: &cached})
			batch.Successes++
			continue
		}

		parsed, err := s.Parse(ctx, req)
		if err != nil {
			batch.Results = append(batch.Results, ParseResult{JobID: req.JobID, Err: err.Error()})
			batch.Failures++
			continue
		}

		batch.Results = append(batch.Results, ParseResult{JobID: req.JobID, Parsed: &parsed})
		batch.Successes++
	}

	return batch
}

// CachedParse returns the cached parse for a job, if any.
func (s *Service) CachedParse(ctx context.Context, jobID string) (ParsedJD, bool) {
	if s.cache == nil || jobID == "" {
		return ParsedJD{}, false
	}

	raw, found, err := s.cache.Get(ctx, jdParseKey(jobID))
	if err != nil {
		logger.Warn("Cache read failed", zap.String("jd_id", jobID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("jd_parse").Inc()
		return ParsedJD{}, false
	}
	if !found {
		metrics.CacheMisses.WithLabelValues("jd_parse").Inc()
		return ParsedJD{}, false
	}

	var parsed ParsedJD
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		logger.Warn("Cache entry corrupt, reparsing", zap.String("jd_id", jobID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("jd_parse").Inc()
		return ParsedJD{}, false
	}

	metrics.CacheHits.WithLabelValues("jd_parse").Inc()
	return parsed, true
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
