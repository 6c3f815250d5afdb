package competency

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

// Cache is the key-value contract the service needs. Nil caches and cache
// errors are tolerated.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// BatchResult wraps per-student analyses with tallies that always sum to
// the batch size.
type BatchResult struct {
	Results   []AnalysisResult `json:"results"`
	Successes int              `json:"successful_analyses"`
	Failures  int              `json:"failed_analyses"`
}

// AnalysisResult is one batch slot: either an analysis or an error.
type AnalysisResult struct {
	StudentID string    `json:"student_id"`
	Analysis  *Analysis `json:"analysis,omitempty"`
	Err       string    `json:"error,omitempty"`
}

// Service wraps the analyzer with caching. The analyzer beneath it is pure.
type Service struct {
	analyzer *Analyzer
	cache    Cache
	ttl      time.Duration
}

func NewService(analyzer *Analyzer, cache Cache, ttl time.Duration) *Service {
	return &Service{
		analyzer: analyzer,
		cache:    cache,
		ttl:      ttl,
	}
}

func studentAnalysisKey(studentID string) string {
	return fmt.Sprintf("student_analysis:%s", studentID)
}

func learningPathKey(studentID string) string {
	return fmt.Sprintf("learning_path:%s", studentID)
}

// ErrAnalysisNotFound signals that no cached analysis exists for the
// student; the caller must run an analysis first.
var ErrAnalysisNotFound = fmt.Errorf("student competency analysis not found")

// Analyze runs the analyzer and dispatches the cache write off the
// response path.
func (s *Service) Analyze(ctx context.Context, student models.Candidate) (Analysis, error) {
	if student.ID == "" {
		return Analysis{}, fmt.Errorf("student id is required")
	}

	start := time.Now()
	analysis := s.analyzer.Analyze(student)

	metrics.ScoreDuration.WithLabelValues("student").Observe(time.Since(start).Seconds())
	metrics.ScoreTotal.WithLabelValues("student", "success").Inc()

	s.cacheAsync(studentAnalysisKey(student.ID), analysis)
	return analysis, nil
}

// BatchAnalyze analyzes students independently: one malformed student
// fills its own result slot and never aborts the batch. Cached analyses
// are reused when present.
func (s *Service) BatchAnalyze(ctx context.Context, students []models.Candidate) BatchResult {
	metrics.BatchSize.WithLabelValues("student").Observe(float64(len(students)))

	batch := BatchResult{Results: make([]AnalysisResult, 0, len(students))}

	for _, student := range students {
		if student.ID == "" {
			metrics.ScoreTotal.WithLabelValues("student", "error").Inc()
			batch.Results = append(batch.Results, AnalysisResult{Err: "student id is required"})
			batch.Failures++
			continue
		}

		if cached, ok := s.CachedAnalysis(ctx, student.ID); ok {
			batch.Results = append(batch.Results, AnalysisResult{StudentID: student.ID, Analysis: &cached})
			batch.Successes++
			continue
		}

		analysis, err := s.Analyze(ctx, student)
		if err != nil {
			metrics.ScoreTotal.WithLabelValues("student", "error").Inc()
			batch.Results = append(batch.Results, AnalysisResult{StudentID: student.ID, Err: err.Error()})
			batch.Failures++
			continue
		}

		batch.Results = append(batch.Results, AnalysisResult{StudentID: student.ID, Analysis: &analysis})
		batch.Successes++
	}

	return batch
}

// LearningPath builds a personalized path toward the requested targets.
// It needs the student's cached analysis for the profile and overall
// score; without one the caller must analyze first.
func (s *Service) LearningPath(ctx context.Context, req PathRequest) (LearningPath, error) {
	if req.StudentID == "" {
		return LearningPath{}, fmt.Errorf("student id is required")
	}
	if len(req.TargetCompetencies) == 0 {
		return LearningPath{}, fmt.Errorf("target_competencies must not be empty")
	}

	analysis, found := s.CachedAnalysis(ctx, req.StudentID)
	if !found {
		return LearningPath{}, ErrAnalysisNotFound
	}

	start := time.Now()
	path := s.analyzer.GeneratePath(req, analysis.OverallScore, analysis.LearningProfile)

	metrics.ScoreDuration.WithLabelValues("learning_path").Observe(time.Since(start).Seconds())
	metrics.ScoreTotal.WithLabelValues("learning_path", "success").Inc()

	s.cacheAsync(learningPathKey(req.StudentID), path)
	return path, nil
}

// AnalyzeGaps compares current competencies to targets. Pure passthrough;
// gap analyses are not cached because targets vary per request.
func (s *Service) AnalyzeGaps(student models.Candidate, targets []TargetCompetency) GapAnalysis {
	start := time.Now()
	analysis := s.analyzer.AnalyzeGaps(student, targets)
	metrics.ScoreDuration.WithLabelValues("competency_gaps").Observe(time.Since(start).Seconds())
	metrics.ScoreTotal.WithLabelValues("competency_gaps", "success").Inc()
	return analysis
}

// CachedAnalysis returns the cached analysis for a student, if any.
func (s *Service) CachedAnalysis(ctx context.Context, studentID string) (Analysis, bool) {
	if s.cache == nil || studentID == "" {
		return Analysis{}, false
	}

	raw, found, err := s.cache.Get(ctx, studentAnalysisKey(studentID))
	if err != nil {
		logger.Warn("Cache read failed", zap.String("student_id", studentID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("student_analysis").Inc()
		return Analysis{}, false
	}
	if !found {
		metrics.CacheMisses.WithLabelValues("student_analysis").Inc()
		return Analysis{}, false
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		logger.Warn("Cache entry corrupt, recomputing", zap.String("student_id", studentID), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("student_analysis").Inc()
		return Analysis{}, false
	}

	metrics.CacheHits.WithLabelValues("student_analysis").Inc()
	return analysis, true
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
