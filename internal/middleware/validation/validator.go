package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	sqlInjectionPattern = regexp.MustCompile(`(?i)(union\s+select|insert\s+into|drop\s+table|exec\s*\(|<script|javascript:)`)
	emailPattern        = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type Config struct {
	MaxBatchSize   int
	MaxContentSize int
	Logger         *zap.Logger
}

// batchFields are the array keys batch endpoints carry their items under.
var batchFields = []string{"leads", "students", "job_descriptions"}

// Middleware guards the scoring and parsing endpoints: JSON bodies only,
// required identifiers present, batch sizes capped, and free-text fields
// screened for injection payloads.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.MaxContentSize == 0 {
		cfg.MaxContentSize = 1024 * 1024
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "application/json") {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		path := c.Path()

		switch {
		case strings.HasSuffix(path, "/batch"):
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "Invalid JSON format")
			}

			for _, field := range batchFields {
				items, ok := req[field].([]interface{})
				if !ok {
					continue
				}
				if len(items) == 0 {
					return badRequest(c, field+" must not be empty")
				}
				if len(items) > cfg.MaxBatchSize {
					return badRequest(c, "Batch size exceeds maximum")
				}
				return c.Next()
			}
			return badRequest(c, "Request body must contain a batch array")

		case strings.HasSuffix(path, "/parse-jd"):
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "Invalid JSON format")
			}

			description, ok := req["description_text"].(string)
			if !ok || description == "" {
				return badRequest(c, "description_text is required and must be a string")
			}
			if len(description) > cfg.MaxContentSize {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Description exceeds maximum size",
				})
			}
			if sqlInjectionPattern.MatchString(description) {
				cfg.Logger.Warn("Suspicious payload in job description",
					zap.String("ip", c.IP()),
					zap.String("path", path),
				)
				return badRequest(c, "Invalid description content")
			}

		case strings.HasSuffix(path, "/leads/score"):
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "Invalid JSON format")
			}

			email, ok := req["email"].(string)
			if !ok || email == "" {
				return badRequest(c, "Email is required and must be a string")
			}
			if !emailPattern.MatchString(email) {
				return badRequest(c, "Invalid email format")
			}
		}

		return c.Next()
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}
