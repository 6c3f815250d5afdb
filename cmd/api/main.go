package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/api/handlers"
	"github.com/rocket-training/ai-service/internal/cache/redis"
	"github.com/rocket-training/ai-service/internal/competency"
	"github.com/rocket-training/ai-service/internal/jdparser"
	"github.com/rocket-training/ai-service/internal/leadscoring"
	"github.com/rocket-training/ai-service/internal/metrics"
	"github.com/rocket-training/ai-service/internal/middleware/ratelimit"
	"github.com/rocket-training/ai-service/internal/middleware/security"
	"github.com/rocket-training/ai-service/internal/middleware/validation"
	"github.com/rocket-training/ai-service/internal/recommend"
	"github.com/rocket-training/ai-service/internal/storage/sqlite"
	"github.com/rocket-training/ai-service/pkg/config"
	appLogger "github.com/rocket-training/ai-service/pkg/logger"
	"github.com/rocket-training/ai-service/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting AI Scoring Service")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var redisClient *redis.Client
	err = retry.Do(context.Background(), retry.DefaultConfig(), func() error {
		var connErr error
		redisClient, connErr = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		return connErr
	})
	if err != nil {
		appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	scorerOpts := []leadscoring.Option{}
	model, err := leadscoring.LoadModel(cfg.Models.LeadScoringPath)
	if err != nil {
		appLogger.Warn("Lead scoring model not loaded, ML component uses neutral score",
			zap.String("path", cfg.Models.LeadScoringPath),
			zap.Error(err))
	} else {
		scorerOpts = append(scorerOpts, leadscoring.WithPredictor(model))
	}

	predictionTTL := time.Duration(cfg.Cache.PredictionTTL) * time.Second

	scorer := leadscoring.NewScorer(cfg.Scoring, scorerOpts...)
	var leadCache leadscoring.Cache
	if redisClient != nil {
		leadCache = redisClient
	}
	leadService := leadscoring.NewService(scorer, leadCache, sqliteClient, predictionTTL)

	parser := jdparser.NewParser()
	var jdCache jdparser.Cache
	if redisClient != nil {
		jdCache = redisClient
	}
	parseService := jdparser.NewService(parser, jdCache, predictionTTL)

	engine := recommend.NewEngine(cfg.Recommend)
	var recommendCache recommend.Cache
	if redisClient != nil {
		recommendCache = redisClient
	}
	recommendService := recommend.NewService(engine, recommendCache, sqliteClient, predictionTTL)

	analyzer := competency.NewAnalyzer()
	var studentCache competency.Cache
	if redisClient != nil {
		studentCache = redisClient
	}
	studentService := competency.NewService(analyzer, studentCache, predictionTTL)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.Log,
	})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Client-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Server.Environment == "development",
	}))
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxBatchSize:   cfg.Scoring.MaxBatchSize,
		MaxContentSize: cfg.Server.BodyLimit,
		Logger:         appLogger.Log,
	}))

	leadHandler := handlers.NewLeadHandler(leadService, sqliteClient)
	enterpriseHandler := handlers.NewEnterpriseHandler(parseService, recommendService,
		cfg.Recommend.MaxRecommendations, cfg.Recommend.MinSimilarityScore)
	studentHandler := handlers.NewStudentHandler(studentService)

	api := app.Group("/api/v1")

	leads := api.Group("/leads")
	leads.Post("/score-by-id", leadHandler.ScoreByID)
	leads.Post("/score", leadHandler.Score)
	leads.Post("/score/batch", leadHandler.ScoreBatch)
	leads.Get("/score/:id", leadHandler.GetScore)
	leads.Put("/update-score", leadHandler.UpdateScore)
	leads.Get("/analytics/quality-distribution", leadHandler.QualityDistribution)
	leads.Get("/analytics/conversion-prediction", leadHandler.PredictConversion)
	leads.Get("/health", leadHandler.Health)

	enterprises := api.Group("/enterprises")
	enterprises.Post("/parse-jd", enterpriseHandler.ParseJD)
	enterprises.Post("/parse-jd/batch", enterpriseHandler.ParseJDBatch)
	enterprises.Get("/jd/:id", enterpriseHandler.GetParsedJD)
	enterprises.Post("/recommend-candidates", enterpriseHandler.RecommendCandidates)
	enterprises.Post("/similar-candidates", enterpriseHandler.SimilarCandidates)

	students := api.Group("/students")
	students.Post("/analyze", studentHandler.Analyze)
	students.Post("/analyze/batch", studentHandler.AnalyzeBatch)
	students.Get("/analysis/:id", studentHandler.GetAnalysis)
	students.Post("/learning-path", studentHandler.LearningPath)
	students.Post("/competency-gaps", studentHandler.CompetencyGaps)

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"cache":  redisClient != nil && redisClient.Ping(c.Context()),
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
