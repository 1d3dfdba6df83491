package response

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
)

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
	app.Get("/ok", func(c *fiber.Ctx) error { return OK(c, "fine", fiber.Map{"n": 1}) })
	app.Get("/validation", func(c *fiber.Ctx) error {
		return apperr.Validation("invalid input", apperr.Field("quantity", "must be positive"))
	})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db exploded") })
	return app
}

func decode(t *testing.T, app *fiber.App, path string) (int, Envelope) {
	t.Helper()
	res, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return res.StatusCode, env
}

func TestEnvelope_Success(t *testing.T) {
	status, env := decode(t, newApp(), "/ok")
	assert.Equal(t, 200, status)
	assert.True(t, env.Success)
	assert.Equal(t, "fine", env.Message)
}

func TestEnvelope_ValidationErrors(t *testing.T) {
	status, env := decode(t, newApp(), "/validation")
	assert.Equal(t, 400, status)
	assert.False(t, env.Success)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "quantity", env.Errors[0].Field)
}

func TestEnvelope_UnhandledIsGeneric(t *testing.T) {
	status, env := decode(t, newApp(), "/boom")
	assert.Equal(t, 500, status)
	assert.Equal(t, "Internal server error", env.Message)
}

func TestEnvelope_UnknownRoute(t *testing.T) {
	status, env := decode(t, newApp(), "/missing")
	assert.Equal(t, 404, status)
	assert.False(t, env.Success)
}
