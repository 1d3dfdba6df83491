package product

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{"product_id", "name", "image", "price", "discount", "discounted_price", "stock", "category_id", "created_at", "updated_at"}

func TestPostgres_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("FROM products").WithArgs(9).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow(9, "Chinos", nil, "45.00", "0", "45.00", 7, 2, now, now))

	p, err := NewPostgresRepository(db).GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "Chinos", p.Name)
	assert.Nil(t, p.Image)
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, 2, *p.CategoryID)
	assert.Equal(t, "45.00", p.Price.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM products").WithArgs(1).WillReturnRows(sqlmock.NewRows(productCols))

	_, err = NewPostgresRepository(db).GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_DecrementStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE products").WithArgs(3, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DecrementStock(ctx, 3, 2))

	mock.ExpectExec("UPDATE products").WithArgs(3, 5).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	assert.ErrorIs(t, repo.DecrementStock(ctx, 3, 5), ErrInsufficientStock)

	mock.ExpectExec("UPDATE products").WithArgs(4, 1).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(4).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	assert.ErrorIs(t, repo.DecrementStock(ctx, 4, 1), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
