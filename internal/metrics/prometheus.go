package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_service_score_duration_seconds",
			Help:    "Scoring duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"domain"},
	)

	ScoreTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_service_score_total",
			Help: "Total scoring requests processed",
		},
		[]string{"domain", "status"},
	)

	LeadQualityTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_service_lead_quality_total",
			Help: "Lead scores by quality tier",
		},
		[]string{"quality"},
	)

	EscalationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_service_escalations_total",
			Help: "Leads flagged for human intervention",
		},
	)

	LeadScoreValue = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_service_lead_score_value",
			Help:    "Distribution of final lead scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	RecommendationsGenerated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_service_recommendations_generated",
			Help:    "Candidates returned per recommendation request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	CandidatesEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_service_candidates_evaluated_total",
			Help: "Total candidates evaluated by the match engine",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_service_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_service_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	BatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_service_batch_size",
			Help:    "Entities per batch request",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		},
		[]string{"domain"},
	)

	JDsParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_service_jds_parsed_total",
			Help: "Total job descriptions parsed",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(ScoreDuration)
	prometheus.MustRegister(ScoreTotal)
	prometheus.MustRegister(LeadQualityTotal)
	prometheus.MustRegister(EscalationsTotal)
	prometheus.MustRegister(LeadScoreValue)
	prometheus.MustRegister(RecommendationsGenerated)
	prometheus.MustRegister(CandidatesEvaluated)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(BatchSize)
	prometheus.MustRegister(JDsParsed)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
