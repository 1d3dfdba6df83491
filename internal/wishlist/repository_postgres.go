package wishlist

import (
	"context"
	"database/sql"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	createWishlistQuery = `
		INSERT INTO wishlists (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	getWishlistQuery  = `SELECT wishlist_id FROM wishlists WHERE user_id = $1`
	listProductsQuery = `
		SELECT product_id
		FROM wishlist_products
		WHERE wishlist_id = $1
		ORDER BY added_at DESC, product_id
	`
	addProductQuery = `
		INSERT INTO wishlist_products (wishlist_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	removeProductQuery = `DELETE FROM wishlist_products WHERE wishlist_id = $1 AND product_id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID int) (Wishlist, error) {
	q := database.Executor(ctx, r.db)
	if _, err := q.ExecContext(ctx, createWishlistQuery, userID); err != nil {
		return Wishlist{}, err
	}
	w := Wishlist{UserID: userID, ProductIDs: []int{}}
	if err := q.QueryRowContext(ctx, getWishlistQuery, userID).Scan(&w.ID); err != nil {
		return Wishlist{}, err
	}

	rows, err := q.QueryContext(ctx, listProductsQuery, w.ID)
	if err != nil {
		return Wishlist{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var pid int
		if err := rows.Scan(&pid); err != nil {
			return Wishlist{}, err
		}
		w.ProductIDs = append(w.ProductIDs, pid)
	}
	return w, rows.Err()
}

func (r *PostgresRepository) Add(ctx context.Context, wishlistID, productID int) error {
	res, err := database.Executor(ctx, r.db).ExecContext(ctx, addProductQuery, wishlistID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyInWishlist
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, wishlistID, productID int) error {
	res, err := database.Executor(ctx, r.db).ExecContext(ctx, removeProductQuery, wishlistID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotInWishlist
	}
	return nil
}
