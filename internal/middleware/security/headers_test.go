package security

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headersFor(t *testing.T, cfg HeadersConfig) map[string][]string {
	t.Helper()
	app := fiber.New()
	app.Use(HeadersMiddleware(cfg))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	return resp.Header
}

func TestBaselineHeaders(t *testing.T) {
	headers := headersFor(t, HeadersConfig{IsDevelopment: true})

	assert.Equal(t, "DENY", headers["X-Frame-Options"][0])
	assert.Equal(t, "nosniff", headers["X-Content-Type-Options"][0])
	assert.Equal(t, "strict-origin-when-cross-origin", headers["Referrer-Policy"][0])
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", headers["Content-Security-Policy"][0])
}

func TestHSTSOnlyInProduction(t *testing.T) {
	dev := headersFor(t, HeadersConfig{IsDevelopment: true})
	assert.Empty(t, dev["Strict-Transport-Security"])

	prod := headersFor(t, HeadersConfig{IsDevelopment: false})
	require.NotEmpty(t, prod["Strict-Transport-Security"])
	assert.Contains(t, prod["Strict-Transport-Security"][0], "max-age=31536000")
}
