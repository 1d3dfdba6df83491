package address

import (
	"context"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
)

func makeAppWithAddressHandler(a *Handler) *fiber.App {
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
	a.RegisterProtectedRoutes(app)
	return app
}

func home(id int, def bool) Address {
	return Address{AddressID: id, UserID: 42, Type: TypeShipping, FullName: "Sam Lee", Line1: "123 Main", City: "Austin", PostalCode: "73301", Country: "US", IsDefault: def}
}

type result struct {
	Code int
	Body string
}

func send(t *testing.T, app *fiber.App, method, path, body, userID string) result {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	return result{Code: res.StatusCode, Body: string(b)}
}

func TestAddressRoute(t *testing.T) {
	repo := NewInMemoryRepository(map[int][]Address{42: {home(1, true)}})
	app := makeAppWithAddressHandler(NewHandler(NewService(repo, database.NoopTx{})))

	rec := send(t, app, "GET", "/api/v1/address", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, rec.Code)

	rec = send(t, app, "GET", "/api/v1/address", "", "42")
	assert.Equal(t, fiber.StatusOK, rec.Code)
	assert.Contains(t, rec.Body, "123 Main")

	rec = send(t, app, "POST", "/api/v1/address",
		`{"type":"SHIPPING","fullName":"Sam Lee","line1":"9 Elm","city":"Austin","postalCode":"73301","country":"US","isDefault":true}`, "42")
	require.Equal(t, fiber.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body, "9 Elm")

	// the new default clears the old one
	old, err := repo.Get(context.Background(), 42, 1)
	require.NoError(t, err)
	assert.False(t, old.IsDefault)

	rec = send(t, app, "PATCH", "/api/v1/address",
		`{"addressId":2,"type":"BOTH","fullName":"Sam Lee","line1":"10 Elm","city":"Austin","postalCode":"73301","country":"US"}`, "42")
	assert.Equal(t, fiber.StatusOK, rec.Code)
	assert.Contains(t, rec.Body, "10 Elm")

	// another user's address is not found
	rec = send(t, app, "DELETE", "/api/v1/address", `{"addressId":2}`, "7")
	assert.Equal(t, fiber.StatusNotFound, rec.Code)

	rec = send(t, app, "DELETE", "/api/v1/address", `{"addressId":2}`, "42")
	assert.Equal(t, fiber.StatusOK, rec.Code)

	rec = send(t, app, "GET", "/api/v1/address", "", "42")
	assert.NotContains(t, rec.Body, "10 Elm")
}

func TestAddAddress_Validation(t *testing.T) {
	app := makeAppWithAddressHandler(NewHandler(NewService(NewInMemoryRepository(nil), database.NoopTx{})))

	rec := send(t, app, "POST", "/api/v1/address", `{"type":"HOME","line1":"x"}`, "42")
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)
	for _, f := range []string{"type", "fullName", "city", "postalCode", "country"} {
		assert.Contains(t, rec.Body, `"field":"`+f+`"`)
	}
}

func TestGetForUser_Ownership(t *testing.T) {
	svc := NewService(NewInMemoryRepository(map[int][]Address{42: {home(1, false)}}), database.NoopTx{})
	ctx := context.Background()

	_, err := svc.GetForUser(ctx, 42, 1)
	require.NoError(t, err)
	_, err = svc.GetForUser(ctx, 43, 1)
	assert.ErrorIs(t, err, errAddressNotFound)
}

func TestTypeUsableFor(t *testing.T) {
	assert.True(t, TypeBoth.UsableFor(TypeShipping))
	assert.True(t, TypeBoth.UsableFor(TypeBilling))
	assert.True(t, TypeShipping.UsableFor(TypeShipping))
	assert.False(t, TypeShipping.UsableFor(TypeBilling))
}
