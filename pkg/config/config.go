package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Scoring   ScoringConfig
	Recommend RecommendConfig
	Models    ModelsConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
	Environment  string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	PredictionTTL int
	ModelTTL      int
}

// ScoringConfig holds every lead-scoring constant. These are product-tunable
// defaults, not derived values.
type ScoringConfig struct {
	PricingPagePoints       int
	CoursePagePoints        int
	FormSubmissionPoints    int
	EnterpriseKeywordPoints int
	PositiveKeywordPoints   int
	CourseViewMinSeconds    int

	HotThreshold    float64
	WarmThreshold   float64
	MediumThreshold float64
	ColdThreshold   float64

	MLWeight   float64
	RuleWeight float64

	EmailEngagementWeight      float64
	WebsiteActivityWeight      float64
	DemographicFitWeight       float64
	InteractionFrequencyWeight float64
	ContentEngagementWeight    float64

	MaxBatchSize int
}

type RecommendConfig struct {
	SkillMatchWeight        float64
	ExperienceMatchWeight   float64
	PerformanceWeight       float64
	LearningPotentialWeight float64
	CulturalFitWeight       float64

	MaxRecommendations int
	MinSimilarityScore float64
}

type ModelsConfig struct {
	LeadScoringPath string
}

type RateLimitConfig struct {
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ai-service")

	viper.SetEnvPrefix("AI_SERVICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)
	viper.SetDefault("server.environment", "development")

	viper.SetDefault("sqlite.path", "./data/scoring.db")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("cache.predictionTTL", 300)
	viper.SetDefault("cache.modelTTL", 3600)

	viper.SetDefault("scoring.pricingPagePoints", 10)
	viper.SetDefault("scoring.coursePagePoints", 15)
	viper.SetDefault("scoring.formSubmissionPoints", 20)
	viper.SetDefault("scoring.enterpriseKeywordPoints", 30)
	viper.SetDefault("scoring.positiveKeywordPoints", 5)
	viper.SetDefault("scoring.courseViewMinSeconds", 180)

	viper.SetDefault("scoring.hotThreshold", 80.0)
	viper.SetDefault("scoring.warmThreshold", 60.0)
	viper.SetDefault("scoring.mediumThreshold", 40.0)
	viper.SetDefault("scoring.coldThreshold", 20.0)

	viper.SetDefault("scoring.mlWeight", 0.7)
	viper.SetDefault("scoring.ruleWeight", 0.3)

	viper.SetDefault("scoring.emailEngagementWeight", 0.30)
	viper.SetDefault("scoring.websiteActivityWeight", 0.25)
	viper.SetDefault("scoring.demographicFitWeight", 0.20)
	viper.SetDefault("scoring.interactionFrequencyWeight", 0.15)
	viper.SetDefault("scoring.contentEngagementWeight", 0.10)

	viper.SetDefault("scoring.maxBatchSize", 100)

	viper.SetDefault("recommend.skillMatchWeight", 0.35)
	viper.SetDefault("recommend.experienceMatchWeight", 0.25)
	viper.SetDefault("recommend.performanceWeight", 0.20)
	viper.SetDefault("recommend.learningPotentialWeight", 0.15)
	viper.SetDefault("recommend.culturalFitWeight", 0.05)

	viper.SetDefault("recommend.maxRecommendations", 10)
	viper.SetDefault("recommend.minSimilarityScore", 0.6)

	viper.SetDefault("models.leadScoringPath", "./models/lead_scoring_model.json")

	viper.SetDefault("ratelimit.maxRequestsPerMinute", 120)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
