package category

import (
	"context"
	"database/sql"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
)

const (
	listCategoriesQuery = `
		SELECT category_id, slug, name, image, ord
		FROM categories
		ORDER BY ord DESC, category_id
		LIMIT $1
	`
	upsertCategoryQuery = `
		INSERT INTO categories (slug, name, image, ord)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, image = EXCLUDED.image, ord = EXCLUDED.ord
		RETURNING category_id
	`
	upsertSubcategoryQuery = `
		INSERT INTO subcategories (category_id, slug, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET category_id = EXCLUDED.category_id, name = EXCLUDED.name
		RETURNING subcategory_id
	`
)

// PostgresRepository implements Repository using Postgres.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns category rows ordered by `ord` then id.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Category, error) {
	rows, err := database.Executor(ctx, r.db).QueryContext(ctx, listCategoriesQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var (
			c   Category
			img sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &img, &c.Ord); err != nil {
			return nil, err
		}
		if img.Valid {
			c.Image = &img.String
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Upsert(ctx context.Context, c Category) (Category, error) {
	err := database.Executor(ctx, r.db).QueryRowContext(ctx, upsertCategoryQuery, c.Slug, c.Name, c.Image, c.Ord).Scan(&c.ID)
	return c, err
}

func (r *PostgresRepository) UpsertSubcategory(ctx context.Context, s Subcategory) (Subcategory, error) {
	err := database.Executor(ctx, r.db).QueryRowContext(ctx, upsertSubcategoryQuery, s.CategoryID, s.Slug, s.Name).Scan(&s.ID)
	return s, err
}
