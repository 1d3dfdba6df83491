package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	userColumns = `user_id, email, password, first_name, last_name, phone, payment_customer_id, created_at, updated_at`

	getUserByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_id = $1
	`
	getUserByEmailQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	getUserByPaymentCustomerQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE payment_customer_id = $1
	`
	insertUserQuery = `
		INSERT INTO users (email, password, first_name, last_name, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id, created_at, updated_at
	`
	updateProfileQuery = `
		UPDATE users
		SET first_name = $1,
			last_name = $2,
			phone = $3,
			updated_at = now()
		WHERE user_id = $4
	`
	// only the first writer wins; a customer id is never replaced
	setPaymentCustomerQuery = `
		UPDATE users
		SET payment_customer_id = $1, updated_at = now()
		WHERE user_id = $2 AND payment_customer_id IS NULL
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, getUserByEmailQuery, email)
}

func (r *PostgresRepository) GetByPaymentCustomerID(ctx context.Context, customerID string) (User, error) {
	return r.getOne(ctx, getUserByPaymentCustomerQuery, customerID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (User, error) {
	row := database.Executor(ctx, r.db).QueryRowContext(ctx, query, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	err := database.Executor(ctx, r.db).QueryRowContext(ctx, insertUserQuery,
		user.Email,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Phone,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return User{}, ErrEmailExists
		}
		return User{}, err
	}
	return user, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int, user User) (User, error) {
	result, err := database.Executor(ctx, r.db).ExecContext(ctx, updateProfileQuery, user.FirstName, user.LastName, user.Phone, id)
	if err != nil {
		return User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if affected == 0 {
		return User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) SetPaymentCustomerID(ctx context.Context, id int, customerID string) error {
	_, err := database.Executor(ctx, r.db).ExecContext(ctx, setPaymentCustomerQuery, customerID, id)
	return err
}

func scanUser(scanner rowScanner) (User, error) {
	var (
		user       User
		customerID sql.NullString
	)
	if err := scanner.Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&customerID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	if customerID.Valid {
		user.PaymentCustomerID = &customerID.String
	}
	return user, nil
}
