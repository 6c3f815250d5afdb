package competency

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.entries[key]
	return value, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCache) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

func newTestService(cache *fakeCache) *Service {
	analyzer := NewAnalyzer().WithClock(testClock())
	var c Cache
	if cache != nil {
		c = cache
	}
	return NewService(analyzer, c, time.Minute)
}

func TestServiceAnalyzeRequiresID(t *testing.T) {
	service := newTestService(nil)

	_, err := service.Analyze(context.Background(), models.Candidate{})
	assert.ErrorContains(t, err, "student id is required")
}

func TestServiceAnalyzeCachesResult(t *testing.T) {
	cache := newFakeCache()
	service := newTestService(cache)

	analysis, err := service.Analyze(context.Background(), models.Candidate{
		ID:           "s1",
		Competencies: []models.Competency{{Name: "Python", Score: 60}},
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", analysis.StudentID)

	assert.Eventually(t, func() bool {
		return cache.has("student_analysis:s1")
	}, time.Second, 10*time.Millisecond)
}

func TestServiceBatchAnalyzeIsolatesFailures(t *testing.T) {
	service := newTestService(newFakeCache())

	batch := service.BatchAnalyze(context.Background(), []models.Candidate{
		{ID: "s1"},
		{},
		{ID: "s3"},
	})

	require.Len(t, batch.Results, 3)
	assert.Equal(t, 2, batch.Successes)
	assert.Equal(t, 1, batch.Failures)
	assert.Equal(t, "student id is required", batch.Results[1].Err)
	assert.Nil(t, batch.Results[1].Analysis)
	assert.NotNil(t, batch.Results[0].Analysis)
}

func TestServiceBatchAnalyzeReusesCachedAnalysis(t *testing.T) {
	cache := newFakeCache()
	payload, err := json.Marshal(Analysis{StudentID: "s1", LearningProfile: ProfileHighPerformer})
	require.NoError(t, err)
	cache.entries[studentAnalysisKey("s1")] = string(payload)

	service := newTestService(cache)

	batch := service.BatchAnalyze(context.Background(), []models.Candidate{{ID: "s1"}})

	require.Len(t, batch.Results, 1)
	require.NotNil(t, batch.Results[0].Analysis)
	assert.Equal(t, ProfileHighPerformer, batch.Results[0].Analysis.LearningProfile)
}

func TestServiceCachedAnalysisMiss(t *testing.T) {
	service := newTestService(newFakeCache())

	_, found := service.CachedAnalysis(context.Background(), "s1")
	assert.False(t, found)
}

func TestServiceCachedAnalysisNilCache(t *testing.T) {
	service := newTestService(nil)

	_, found := service.CachedAnalysis(context.Background(), "s1")
	assert.False(t, found)
}

func TestServiceCachedAnalysisCorruptEntry(t *testing.T) {
	cache := newFakeCache()
	cache.entries[studentAnalysisKey("s1")] = "{not json"
	service := newTestService(cache)

	_, found := service.CachedAnalysis(context.Background(), "s1")
	assert.False(t, found)
}

func TestServiceAnalyzeGapsPassthrough(t *testing.T) {
	service := newTestService(nil)

	student := models.Candidate{
		ID:           "s1",
		Competencies: []models.Competency{{Name: "Python", Score: 30}},
	}
	targets := []TargetCompetency{{Name: "Python", TargetScore: 80}}

	analysis := service.AnalyzeGaps(student, targets)
	require.Len(t, analysis.Gaps, 1)
	assert.Equal(t, "high", analysis.Gaps[0].Priority)
}
