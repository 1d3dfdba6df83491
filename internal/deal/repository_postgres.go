package deal

import (
	"context"
	"database/sql"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/lib/pq"
)

const (
	upsertDealQuery = `
		INSERT INTO deals (title, discount, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (title) DO UPDATE
		SET discount = EXCLUDED.discount, start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time
		RETURNING deal_id
	`
	attachDealQuery = `
		INSERT INTO product_deals (product_id, deal_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	listByProductIDsQuery = `
		SELECT pd.product_id, d.deal_id, d.title, d.discount, d.start_time, d.end_time
		FROM product_deals pd
		JOIN deals d ON d.deal_id = pd.deal_id
		WHERE pd.product_id = ANY($1::int[])
		ORDER BY pd.product_id, d.deal_id
	`
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, d Deal) (Deal, error) {
	q := database.Executor(ctx, r.db)
	if err := q.QueryRowContext(ctx, upsertDealQuery, d.Title, d.Discount, d.StartTime, d.EndTime).Scan(&d.ID); err != nil {
		return Deal{}, err
	}
	return d, nil
}

func (r *PostgresRepository) Attach(ctx context.Context, productID, dealID int) error {
	_, err := database.Executor(ctx, r.db).ExecContext(ctx, attachDealQuery, productID, dealID)
	return err
}

func (r *PostgresRepository) ListByProductIDs(ctx context.Context, productIDs []int) (map[int][]Deal, error) {
	out := make(map[int][]Deal, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := database.Executor(ctx, r.db).QueryContext(ctx, listByProductIDsQuery, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pid int
			d   Deal
		)
		if err := rows.Scan(&pid, &d.ID, &d.Title, &d.Discount, &d.StartTime, &d.EndTime); err != nil {
			return nil, err
		}
		out[pid] = append(out[pid], d)
	}
	return out, rows.Err()
}
