package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `product_id, name, image, price, discount, discounted_price, stock, category_id, created_at, updated_at`

	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY product_id
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE product_id = $1
	`
	listProductsByIDsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE product_id = ANY($1::int[])
		ORDER BY array_position($1::int[], product_id)
	`
	insertProductQuery = `
		INSERT INTO products (name, image, price, discount, discounted_price, stock, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING product_id, created_at, updated_at
	`
	updateProductQuery = `
		UPDATE products
		SET name = $1,
			image = $2,
			price = $3,
			discount = $4,
			discounted_price = $5,
			stock = $6,
			category_id = $7,
			updated_at = now()
		WHERE product_id = $8
	`
	// the stock >= $2 guard keeps concurrent decrements from overselling
	decrementStockQuery = `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE product_id = $1 AND stock >= $2
	`
	incrementStockQuery = `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE product_id = $1
	`
	productExistsQuery = `SELECT EXISTS (SELECT 1 FROM products WHERE product_id = $1)`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := database.Executor(ctx, r.db).QueryContext(ctx, listProductsQuery)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	row := database.Executor(ctx, r.db).QueryRowContext(ctx, getProductByIDQuery, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	rows, err := database.Executor(ctx, r.db).QueryContext(ctx, listProductsByIDsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	err := database.Executor(ctx, r.db).QueryRowContext(ctx, insertProductQuery,
		p.Name,
		p.Image,
		p.Price,
		p.Discount,
		p.DiscountedPrice,
		p.Stock,
		p.CategoryID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, p Product) (Product, error) {
	result, err := database.Executor(ctx, r.db).ExecContext(ctx, updateProductQuery,
		p.Name,
		p.Image,
		p.Price,
		p.Discount,
		p.DiscountedPrice,
		p.Stock,
		p.CategoryID,
		id,
	)
	if err != nil {
		return Product{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Product{}, err
	}
	if affected == 0 {
		return Product{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) DecrementStock(ctx context.Context, id, qty int) error {
	q := database.Executor(ctx, r.db)
	result, err := q.ExecContext(ctx, decrementStockQuery, id, qty)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := q.QueryRowContext(ctx, productExistsQuery, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInsufficientStock
}

func (r *PostgresRepository) IncrementStock(ctx context.Context, id, qty int) error {
	result, err := database.Executor(ctx, r.db).ExecContext(ctx, incrementStockQuery, id, qty)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(scanner rowScanner) (Product, error) {
	var (
		p          Product
		image      sql.NullString
		categoryID sql.NullInt64
	)
	if err := scanner.Scan(
		&p.ID,
		&p.Name,
		&image,
		&p.Price,
		&p.Discount,
		&p.DiscountedPrice,
		&p.Stock,
		&categoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return Product{}, err
	}
	if image.Valid {
		p.Image = &image.String
	}
	if categoryID.Valid {
		v := int(categoryID.Int64)
		p.CategoryID = &v
	}
	return p, nil
}

func scanProducts(rows *sql.Rows) ([]Product, error) {
	defer rows.Close()
	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
