package leadscoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/config"
	"github.com/rocket-training/ai-service/pkg/logger"
)

// Quality tiers, ordered coldest to hottest.
const (
	QualityVeryCold = "very_cold"
	QualityCold     = "cold"
	QualityMedium   = "medium"
	QualityWarm     = "warm"
	QualityHot      = "hot"
)

// KeywordSet holds the three disjoint keyword classes scanned on chat and
// message content.
type KeywordSet struct {
	Enterprise []string
	Positive   []string
	Negative   []string
}

// DefaultKeywords returns the stock keyword lists. The product serves both
// Vietnamese and English speaking leads, so both languages are covered.
func DefaultKeywords() KeywordSet {
	return KeywordSet{
		Enterprise: []string{
			"báo giá doanh nghiệp", "hợp tác", "số lượng lớn",
			"enterprise", "corporate", "bulk training", "team training",
			"partnership", "collaboration", "enterprise solution",
		},
		Positive: []string{
			"mua", "đăng ký", "quan tâm", "muốn học", "tham gia",
			"chi phí", "giá cả", "pricing", "cost", "interested",
			"enroll", "register", "sign up",
		},
		Negative: []string{
			"không hài lòng", "thất vọng", "tệ", "kém", "không tốt",
			"bực bội", "tức giận", "khó chịu", "phản đối",
			"disappointed", "frustrated", "angry", "upset", "terrible",
			"awful", "horrible", "worst", "hate",
		},
	}
}

// defaultNegativePatterns catch negative phrasings the keyword list misses.
var defaultNegativePatterns = []string{
	`không\s+\w*\s*(tốt|hay|ok)`,
	`quá\s+(đắt|cao)`,
	`(rất|quá)\s+(tệ|kém)`,
}

// InteractionScore is the result of the interaction-event scorer.
type InteractionScore struct {
	LeadID          string    `json:"lead_id,omitempty"`
	Score           int       `json:"lead_score"`
	Quality         string    `json:"quality"`
	NeedsEscalation bool      `json:"needs_human_intervention"`
	Trace           []string  `json:"interaction_details"`
	EventCount      int       `json:"total_interactions"`
	ScoredAt        time.Time `json:"scored_at"`
}

// LeadScore is the result of the feature-weighted scorer.
type LeadScore struct {
	LeadID          string     `json:"lead_id,omitempty"`
	Score           float64    `json:"lead_score"`
	Quality         string     `json:"quality"`
	MLScore         float64    `json:"ml_score"`
	RuleScore       float64    `json:"rule_based_score"`
	Features        FeatureMap `json:"features,omitempty"`
	Recommendations []string   `json:"recommendations,omitempty"`
	ScoredAt        time.Time  `json:"scored_at"`
	Err             string     `json:"error,omitempty"`
}

// Scorer implements both scoring strategies: the additive interaction-event
// scorer and the weighted feature scorer blended with an optional ML model.
// The two are independent entry points.
type Scorer struct {
	cfg              config.ScoringConfig
	keywords         KeywordSet
	negativePatterns []*regexp.Regexp
	extractor        *Extractor
	predictor        Predictor
	now              func() time.Time
}

type Option func(*Scorer)

// WithPredictor attaches a trained model. Without one the ML component
// contributes the neutral default.
func WithPredictor(p Predictor) Option {
	return func(s *Scorer) { s.predictor = p }
}

func WithKeywords(ks KeywordSet) Option {
	return func(s *Scorer) { s.keywords = ks }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
		s.extractor.WithClock(now)
	}
}

func NewScorer(cfg config.ScoringConfig, opts ...Option) *Scorer {
	s := &Scorer{
		cfg:       cfg,
		keywords:  DefaultKeywords(),
		extractor: NewExtractor(),
		now:       time.Now,
	}

	for _, pattern := range defaultNegativePatterns {
		s.negativePatterns = append(s.negativePatterns, regexp.MustCompile(pattern))
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ScoreInteractions applies the ordered interaction rules to a time-ordered
// event list. The total score is never negative, and the escalation flag is
// sticky once any event triggers negative sentiment.
func (s *Scorer) ScoreInteractions(events []models.Interaction) InteractionScore {
	total := 0
	escalate := false
	var trace []string

	for _, event := range events {
		eventScore := 0
		pageURL := strings.ToLower(event.PageURL)
		content := strings.ToLower(event.Content)

		if strings.Contains(pageURL, "pricing") || strings.Contains(pageURL, "gia") {
			eventScore += s.cfg.PricingPagePoints
			trace = append(trace, fmt.Sprintf("Visited pricing page (+%d)", s.cfg.PricingPagePoints))
		}

		if (strings.Contains(pageURL, "python") || strings.Contains(content, "python")) &&
			event.DurationSec > s.cfg.CourseViewMinSeconds {
			eventScore += s.cfg.CoursePagePoints
			trace = append(trace, fmt.Sprintf("Viewed course content >%ds (+%d)",
				s.cfg.CourseViewMinSeconds, s.cfg.CoursePagePoints))
		}

		if event.Type == TypeFormSubmission || strings.Contains(strings.ToLower(event.Type), "contact") {
			eventScore += s.cfg.FormSubmissionPoints
			trace = append(trace, fmt.Sprintf("Submitted contact form (+%d)", s.cfg.FormSubmissionPoints))
		}

		if (event.Type == TypeChat || event.Type == TypeMessage) && event.Content != "" {
			contentScore, negative := s.analyzeContent(content)
			eventScore += contentScore

			if negative {
				escalate = true
				trace = append(trace, "Negative sentiment detected - needs human intervention")
			}
			if contentScore > 0 {
				trace = append(trace, fmt.Sprintf("Keyword analysis (+%d)", contentScore))
			}
		}

		if eventScore < 0 {
			eventScore = 0
		}
		total += eventScore
	}

	return InteractionScore{
		Score:           total,
		Quality:         s.QualityFor(float64(total)),
		NeedsEscalation: escalate,
		Trace:           trace,
		EventCount:      len(events),
		ScoredAt:        s.now().UTC(),
	}
}

// analyzeContent scans lowercased message content for the three keyword
// classes. Enterprise intent is awarded at most once per message; positive
// keywords accumulate per distinct keyword; one negative hit is enough.
func (s *Scorer) analyzeContent(content string) (int, bool) {
	score := 0
	negative := false

	for _, keyword := range s.keywords.Enterprise {
		if strings.Contains(content, keyword) {
			score += s.cfg.EnterpriseKeywordPoints
			break
		}
	}

	for _, keyword := range s.keywords.Positive {
		if strings.Contains(content, keyword) {
			score += s.cfg.PositiveKeywordPoints
		}
	}

	for _, keyword := range s.keywords.Negative {
		if strings.Contains(content, keyword) {
			negative = true
			break
		}
	}

	if !negative {
		for _, pattern := range s.negativePatterns {
			if pattern.MatchString(content) {
				negative = true
				break
			}
		}
	}

	if score < 0 {
		score = 0
	}
	return score, negative
}

// ScoreLead runs the feature-weighted strategy: extract features, score the
// rules, blend with the ML probability, and map to a quality tier.
func (s *Scorer) ScoreLead(lead models.Lead) LeadScore {
	features := s.extractor.Extract(lead)

	mlScore := s.mlScore(features)
	ruleScore := s.ruleBasedScore(features)

	final := Blend(mlScore, ruleScore, s.cfg.MLWeight, s.cfg.RuleWeight)

	return LeadScore{
		LeadID:          lead.ID,
		Score:           final,
		Quality:         s.QualityFor(final),
		MLScore:         round2(mlScore * 100),
		RuleScore:       round2(ruleScore * 100),
		Features:        features,
		Recommendations: s.recommendations(features, final),
		ScoredAt:        s.now().UTC(),
	}
}

// Blend combines the ML and rule-based scores on their native [0,1] scale,
// clamps, and reports on a 0-100 scale rounded to 2 decimal places.
func Blend(mlScore, ruleScore, mlWeight, ruleWeight float64) float64 {
	blended := mlScore*mlWeight + ruleScore*ruleWeight
	return round2(clamp01(blended) * 100)
}

func (s *Scorer) mlScore(features FeatureMap) float64 {
	if s.predictor == nil {
		return NeutralScore
	}
	score, err := s.predictor.Predict(features)
	if err != nil {
		logger.Warn("ML prediction failed, using neutral default", zap.Error(err))
		return NeutralScore
	}
	return score
}

// ruleBasedScore is a fixed-weight linear combination of the engagement
// features, normalized to [0,1].
func (s *Scorer) ruleBasedScore(features FeatureMap) float64 {
	score := 0.0

	score += features["email_engagement_score"] * s.cfg.EmailEngagementWeight
	score += features["website_activity_score"] * s.cfg.WebsiteActivityWeight

	demographic := 0.0
	if features["has_phone"] > 0 {
		demographic += 0.3
	}
	if features["source_encoded"] >= 4 {
		demographic += 0.4
	}
	if features["num_interested_courses"] > 0 {
		demographic += 0.3
	}
	score += demographic * s.cfg.DemographicFitWeight

	score += features["interaction_frequency"] * s.cfg.InteractionFrequencyWeight
	score += features["content_engagement_score"] * s.cfg.ContentEngagementWeight

	return clamp01(score)
}

// QualityFor maps a 0-100 score to its tier. Boundaries are inclusive on the
// lower bound of each tier.
func (s *Scorer) QualityFor(score float64) string {
	switch {
	case score >= s.cfg.HotThreshold:
		return QualityHot
	case score >= s.cfg.WarmThreshold:
		return QualityWarm
	case score >= s.cfg.MediumThreshold:
		return QualityMedium
	case score >= s.cfg.ColdThreshold:
		return QualityCold
	default:
		return QualityVeryCold
	}
}

func (s *Scorer) recommendations(features FeatureMap, score float64) []string {
	var recommendations []string

	if features["email_engagement_score"] < 0.3 {
		recommendations = append(recommendations, "Improve email content and timing to increase engagement")
	}
	if features["website_activity_score"] < 0.3 {
		recommendations = append(recommendations, "Encourage more website exploration with targeted content")
	}
	if features["total_interactions"] < 3 {
		recommendations = append(recommendations, "Increase touchpoints through multiple channels")
	}
	if features["num_interested_courses"] == 0 {
		recommendations = append(recommendations, "Identify and promote relevant courses based on lead profile")
	}
	if score < 40 {
		recommendations = append(recommendations, "Consider lead nurturing campaign to build interest")
	} else if score > 70 {
		recommendations = append(recommendations, "High-quality lead - prioritize for direct contact")
	}

	return recommendations
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
