package paymentmethod

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeAppWithPaymentMethodHandler(pmHandler *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id}
				tok := &jwt.Token{Claims: claims}
				c.Locals("user", tok)
			}
		}
		return c.Next()
	})
	pmHandler.RegisterProtectedRoutes(app)
	return app
}

func TestPaymentMethodRoutes(t *testing.T) {
	f := newFixture(t)
	app := makeAppWithPaymentMethodHandler(NewHandler(f.svc))

	send := func(method, path, body string) (int, map[string]any) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "1")
		res, err := app.Test(req)
		require.NoError(t, err)
		var env map[string]any
		_ = json.NewDecoder(res.Body).Decode(&env)
		return res.StatusCode, env
	}

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/payment-methods", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	status, env := send("POST", "/api/v1/payment-methods", `{"paymentMethodId":"pm_visa"}`)
	require.Equal(t, fiber.StatusCreated, status)
	data := env["data"].(map[string]any)
	assert.Equal(t, "4242", data["last4"])
	id := int(data["id"].(float64))

	status, _ = send("POST", "/api/v1/payment-methods", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env = send("GET", "/api/v1/payment-methods", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, env["data"], 1)

	status, _ = send("DELETE", "/api/v1/payment-methods/"+strconv.Itoa(id), "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = send("DELETE", "/api/v1/payment-methods/"+strconv.Itoa(id), "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
