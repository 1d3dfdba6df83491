package logging

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "nonsense", false)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger = newWithWriter(&buf, "debug", false)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestMiddleware_WritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "info", false)

	app := fiber.New()
	app.Use(Middleware(logger, func(c *fiber.Ctx) (int, bool) { return 7, true }))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTeapot) })

	res, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, res.StatusCode)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/ping", line["path"])
	assert.EqualValues(t, fiber.StatusTeapot, line["status"])
	assert.EqualValues(t, 7, line["user_id"])
}
