package cart

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
	createCartQuery = `
		INSERT INTO carts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	getCartQuery = `
		SELECT cart_id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`
	listItemsQuery = `
		SELECT cart_item_id, cart_id, product_id, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY cart_item_id
	`
	addItemQuery = `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING cart_item_id, cart_id, product_id, quantity
	`
	getItemQuery = `
		SELECT cart_item_id, cart_id, product_id, quantity
		FROM cart_items
		WHERE cart_id = $1 AND cart_item_id = $2
	`
	setQuantityQuery = `
		UPDATE cart_items
		SET quantity = $3
		WHERE cart_id = $1 AND cart_item_id = $2
		RETURNING cart_item_id, cart_id, product_id, quantity
	`
	removeItemQuery = `DELETE FROM cart_items WHERE cart_id = $1 AND cart_item_id = $2`
	clearCartQuery  = `DELETE FROM cart_items WHERE cart_id = $1`
	touchCartQuery  = `UPDATE carts SET updated_at = now() WHERE cart_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID int) (Cart, error) {
	q := database.Executor(ctx, r.db)
	if _, err := q.ExecContext(ctx, createCartQuery, userID); err != nil {
		return Cart{}, err
	}

	var c Cart
	if err := q.QueryRowContext(ctx, getCartQuery, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Cart{}, err
	}

	rows, err := q.QueryContext(ctx, listItemsQuery, c.ID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	c.Items = make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity); err != nil {
			return Cart{}, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (r *PostgresRepository) AddItem(ctx context.Context, cartID, productID, qty int) (Item, error) {
	it, err := r.itemRow(ctx, addItemQuery, cartID, productID, qty)
	if err != nil {
		return Item{}, err
	}
	return it, r.touch(ctx, cartID)
}

func (r *PostgresRepository) GetItem(ctx context.Context, cartID, itemID int) (Item, error) {
	return r.itemRow(ctx, getItemQuery, cartID, itemID)
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, cartID, itemID, qty int) (Item, error) {
	it, err := r.itemRow(ctx, setQuantityQuery, cartID, itemID, qty)
	if err != nil {
		return Item{}, err
	}
	return it, r.touch(ctx, cartID)
}

func (r *PostgresRepository) RemoveItem(ctx context.Context, cartID, itemID int) error {
	res, err := database.Executor(ctx, r.db).ExecContext(ctx, removeItemQuery, cartID, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *PostgresRepository) Clear(ctx context.Context, cartID int) error {
	if _, err := database.Executor(ctx, r.db).ExecContext(ctx, clearCartQuery, cartID); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *PostgresRepository) itemRow(ctx context.Context, query string, args ...any) (Item, error) {
	var it Item
	err := database.Executor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return it, err
}

func (r *PostgresRepository) touch(ctx context.Context, cartID int) error {
	_, err := database.Executor(ctx, r.db).ExecContext(ctx, touchCartQuery, cartID)
	return err
}
