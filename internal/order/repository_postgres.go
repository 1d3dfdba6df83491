package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	orderColumns = `order_id, order_number, user_id, subtotal, shipping_cost, tax_amount, discount_amount, total_amount,
		status, payment_status, shipping_status, shipping_address_id, billing_address_id, payment_method_id,
		payment_intent_id, customer_notes, created_at, updated_at`
	itemColumns = `order_item_id, order_id, product_id, name, image, price, discount, unit_price, quantity`

	insertOrderQuery = `
		INSERT INTO orders (order_number, user_id, subtotal, shipping_cost, tax_amount, discount_amount, total_amount,
			status, payment_status, shipping_status, shipping_address_id, billing_address_id, payment_method_id,
			payment_intent_id, customer_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + orderColumns
	insertItemQuery = `
		INSERT INTO order_items (order_id, product_id, name, image, price, discount, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING order_item_id`
	listOrdersQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, order_id DESC
	`
	getOrderByIDQuery     = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	getOrderByNumberQuery = `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	getOrderByIntentQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE payment_intent_id = $1
		ORDER BY order_id DESC
		LIMIT 1
	`
	listItemsQuery = `
		SELECT ` + itemColumns + `
		FROM order_items
		WHERE order_id = ANY($1::int[])
		ORDER BY order_id, order_item_id
	`
	updateOrderQuery = `
		UPDATE orders
		SET status = $2, payment_status = $3, shipping_status = $4, payment_intent_id = $5,
			payment_method_id = $6, customer_notes = $7, updated_at = now()
		WHERE order_id = $1 AND payment_status = $8
		RETURNING ` + orderColumns
)

const intentIndex = "orders_payment_intent_id_key"

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	q := database.Executor(ctx, r.db)
	items := o.Items
	out, err := scanOrder(q.QueryRowContext(ctx, insertOrderQuery,
		o.OrderNumber, o.UserID, o.Subtotal, o.ShippingCost, o.TaxAmount, o.DiscountAmount, o.TotalAmount,
		o.Status, o.PaymentStatus, o.ShippingStatus, o.ShippingAddressID, o.BillingAddressID, o.PaymentMethodID,
		o.PaymentIntentID, o.CustomerNotes))
	if err != nil {
		return Order{}, translate(err)
	}

	out.Items = make([]Item, 0, len(items))
	for _, it := range items {
		it.OrderID = out.ID
		if err := q.QueryRowContext(ctx, insertItemQuery,
			it.OrderID, it.ProductID, it.Name, it.Image, it.Price, it.Discount, it.UnitPrice, it.Quantity).Scan(&it.ID); err != nil {
			return Order{}, err
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	rows, err := database.Executor(ctx, r.db).QueryContext(ctx, listOrdersQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, r.loadItems(ctx, orders)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Order, error) {
	return r.getOne(ctx, getOrderByIDQuery, id)
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, orderNumber string) (Order, error) {
	return r.getOne(ctx, getOrderByNumberQuery, orderNumber)
}

func (r *PostgresRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (Order, error) {
	return r.getOne(ctx, getOrderByIntentQuery, intentID)
}

func (r *PostgresRepository) Update(ctx context.Context, o Order, prev PaymentStatus) (Order, error) {
	out, err := scanOrder(database.Executor(ctx, r.db).QueryRowContext(ctx, updateOrderQuery,
		o.ID, o.Status, o.PaymentStatus, o.ShippingStatus, o.PaymentIntentID, o.PaymentMethodID, o.CustomerNotes, prev))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, o.ID); getErr != nil {
			return Order{}, getErr
		}
		return Order{}, ErrStale
	}
	if err != nil {
		return Order{}, translate(err)
	}
	out.Items = o.Items
	return out, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (Order, error) {
	o, err := scanOrder(database.Executor(ctx, r.db).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	orders := []Order{o}
	if err := r.loadItems(ctx, orders); err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

// loadItems fills Items for every order with a single query.
func (r *PostgresRepository) loadItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int, len(orders))
	index := make(map[int]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []Item{}
	}

	rows, err := database.Executor(ctx, r.db).QueryContext(ctx, listItemsQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Image, &it.Price, &it.Discount,
			&it.UnitPrice, &it.Quantity); err != nil {
			return err
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (Order, error) {
	var o Order
	err := s.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Subtotal, &o.ShippingCost, &o.TaxAmount, &o.DiscountAmount,
		&o.TotalAmount, &o.Status, &o.PaymentStatus, &o.ShippingStatus, &o.ShippingAddressID, &o.BillingAddressID,
		&o.PaymentMethodID, &o.PaymentIntentID, &o.CustomerNotes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == intentIndex {
		return ErrDuplicateIntent
	}
	return err
}
