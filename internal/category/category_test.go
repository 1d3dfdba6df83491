package category

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_IsIdempotentBySlug(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Seed(ctx, Category{Slug: "men", Name: "Men"}, Subcategory{Slug: "men-shirts", Name: "Shirts"})
	require.NoError(t, err)
	second, err := svc.Seed(ctx, Category{Slug: "men", Name: "Menswear", Ord: 2}, Subcategory{Slug: "men-shirts", Name: "Shirts"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Menswear", all[0].Name)
	assert.Len(t, repo.subs, 1)
}

func TestGetCategories_Limit(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	for _, slug := range []string{"men", "women", "kids"} {
		_, err := svc.Seed(ctx, Category{Slug: slug, Name: slug})
		require.NoError(t, err)
	}

	app := fiber.New()
	NewHandler(svc).RegisterPublicRoutes(app)
	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/categories?limit=2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	var body struct {
		Data []Category `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Len(t, body.Data, 2)
}

func TestPostgres_UpsertCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO categories").
		WithArgs("women", "Women", nil, 1).
		WillReturnRows(sqlmock.NewRows([]string{"category_id"}).AddRow(4))

	c, err := NewPostgresRepository(db).Upsert(context.Background(), Category{Slug: "women", Name: "Women", Ord: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
