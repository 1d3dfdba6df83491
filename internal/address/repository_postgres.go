package address

import (
	"context"
	"database/sql"
	"errors"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
)

// PostgresRepository stores addresses in the `addresses` table; every query
// is scoped by user_id so ownership is checked in the same statement.
type PostgresRepository struct {
	db *sql.DB
}

const (
	addressColumns = `address_id, user_id, type, full_name, line1, line2, city, state, postal_code, country, phone, is_default, created_at, updated_at`

	listAddressesQuery = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, address_id
	`
	getAddressQuery = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1 AND address_id = $2
	`
	insertAddressQuery = `
		INSERT INTO addresses (user_id, type, full_name, line1, line2, city, state, postal_code, country, phone, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + addressColumns
	updateAddressQuery = `
		UPDATE addresses
		SET type = $3, full_name = $4, line1 = $5, line2 = $6, city = $7, state = $8,
			postal_code = $9, country = $10, phone = $11, is_default = $12, updated_at = now()
		WHERE user_id = $1 AND address_id = $2
		RETURNING ` + addressColumns
	deleteAddressQuery = `DELETE FROM addresses WHERE user_id = $1 AND address_id = $2`
	clearDefaultQuery  = `
		UPDATE addresses
		SET is_default = false, updated_at = now()
		WHERE user_id = $1 AND type = $2 AND address_id <> $3 AND is_default
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]Address, error) {
	rows, err := database.Executor(ctx, r.db).QueryContext(ctx, listAddressesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, userID, addressID int) (Address, error) {
	return one(database.Executor(ctx, r.db).QueryRowContext(ctx, getAddressQuery, userID, addressID))
}

func (r *PostgresRepository) Create(ctx context.Context, a Address) (Address, error) {
	return one(database.Executor(ctx, r.db).QueryRowContext(ctx, insertAddressQuery,
		a.UserID, a.Type, a.FullName, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country, a.Phone, a.IsDefault))
}

func (r *PostgresRepository) Update(ctx context.Context, a Address) (Address, error) {
	return one(database.Executor(ctx, r.db).QueryRowContext(ctx, updateAddressQuery,
		a.UserID, a.AddressID, a.Type, a.FullName, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country, a.Phone, a.IsDefault))
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, addressID int) error {
	res, err := database.Executor(ctx, r.db).ExecContext(ctx, deleteAddressQuery, userID, addressID)
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

func (r *PostgresRepository) ClearDefault(ctx context.Context, userID int, t Type, exceptID int) error {
	_, err := database.Executor(ctx, r.db).ExecContext(ctx, clearDefaultQuery, userID, t, exceptID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAddress(s rowScanner) (Address, error) {
	var a Address
	err := s.Scan(&a.AddressID, &a.UserID, &a.Type, &a.FullName, &a.Line1, &a.Line2, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.Phone, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func one(row *sql.Row) (Address, error) {
	a, err := scanAddress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Address{}, ErrNotFound
	}
	return a, err
}
