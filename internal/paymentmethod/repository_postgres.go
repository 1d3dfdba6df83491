package paymentmethod

import (
	"context"
	"database/sql"
	"errors"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	methodColumns = `payment_method_id, user_id, processor_id, brand, last4, exp_month, exp_year, billing_name, billing_email, is_default, created_at`

	listMethodsQuery = `
		SELECT ` + methodColumns + `
		FROM payment_methods
		WHERE user_id = $1
		ORDER BY is_default DESC, payment_method_id
	`
	getMethodQuery = `
		SELECT ` + methodColumns + `
		FROM payment_methods
		WHERE user_id = $1 AND payment_method_id = $2
	`
	getByProcessorIDQuery = `
		SELECT ` + methodColumns + `
		FROM payment_methods
		WHERE processor_id = $1
	`
	insertMethodQuery = `
		INSERT INTO payment_methods (user_id, processor_id, brand, last4, exp_month, exp_year, billing_name, billing_email, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (processor_id) DO NOTHING
		RETURNING ` + methodColumns
	deleteMethodQuery       = `DELETE FROM payment_methods WHERE user_id = $1 AND payment_method_id = $2`
	clearDefaultMethodQuery = `
		UPDATE payment_methods
		SET is_default = false
		WHERE user_id = $1 AND payment_method_id <> $2 AND is_default
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]PaymentMethod, error) {
	rows, err := database.Executor(ctx, r.db).QueryContext(ctx, listMethodsQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PaymentMethod, 0)
	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id int) (PaymentMethod, error) {
	return one(database.Executor(ctx, r.db).QueryRowContext(ctx, getMethodQuery, userID, id))
}

func (r *PostgresRepository) GetByProcessorID(ctx context.Context, processorID string) (PaymentMethod, error) {
	return one(database.Executor(ctx, r.db).QueryRowContext(ctx, getByProcessorIDQuery, processorID))
}

func (r *PostgresRepository) Create(ctx context.Context, m PaymentMethod) (PaymentMethod, error) {
	out, err := one(database.Executor(ctx, r.db).QueryRowContext(ctx, insertMethodQuery,
		m.UserID, m.ProcessorID, m.Brand, m.Last4, m.ExpMonth, m.ExpYear, m.BillingName, m.BillingEmail, m.IsDefault))
	if errors.Is(err, ErrNotFound) {
		// conflict on processor_id: already stored
		return r.GetByProcessorID(ctx, m.ProcessorID)
	}
	return out, err
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int) error {
	res, err := database.Executor(ctx, r.db).ExecContext(ctx, deleteMethodQuery, userID, id)
	if err != nil {
		return err
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if cnt == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ClearDefault(ctx context.Context, userID, exceptID int) error {
	_, err := database.Executor(ctx, r.db).ExecContext(ctx, clearDefaultMethodQuery, userID, exceptID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMethod(s rowScanner) (PaymentMethod, error) {
	var m PaymentMethod
	err := s.Scan(&m.ID, &m.UserID, &m.ProcessorID, &m.Brand, &m.Last4, &m.ExpMonth, &m.ExpYear,
		&m.BillingName, &m.BillingEmail, &m.IsDefault, &m.CreatedAt)
	return m, err
}

func one(row *sql.Row) (PaymentMethod, error) {
	m, err := scanMethod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PaymentMethod{}, ErrNotFound
	}
	return m, err
}
