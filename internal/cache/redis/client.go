package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/pkg/circuitbreaker"
	"github.com/rocket-training/ai-service/pkg/logger"
)

// Key builders. Absence of a key means "not yet scored", never "score is
// zero".
func LeadScoreKey(leadID string) string { return fmt.Sprintf("lead_score:%s", leadID) }

func JDParseKey(jobID string) string { return fmt.Sprintf("jd_parse:%s", jobID) }

func RecommendationsKey(jobID string) string { return fmt.Sprintf("recommendations:%s", jobID) }

func StudentAnalysisKey(studentID string) string {
	return fmt.Sprintf("student_analysis:%s", studentID)
}

type Client struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	breaker := circuitbreaker.NewCircuitBreaker("redis-cache", circuitbreaker.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		Logger:           logger.Log,
	})

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, breaker: breaker}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Get returns the cached value and whether the key was present. A tripped
// breaker reports a miss with the breaker error so callers can degrade to
// recomputing.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var found bool

	err := c.breaker.Execute(ctx, func() error {
		data, err := c.client.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get cache key: %w", err)
		}
		value = data
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}

	if found {
		logger.Debug("Cache hit", zap.String("key", key))
	}
	return value, found, nil
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := c.breaker.Execute(ctx, func() error {
		if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
			return fmt.Errorf("failed to set cache key: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return c.breaker.Execute(ctx, func() error {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
		return nil
	})
}

func (c *Client) Ping(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}
