package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"payu-adapter/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetByExtOrderID(ctx context.Context, extOrderID string) (*Order, error)
	UpdatePaymentState(ctx context.Context, extOrderID string, state State, paymentReference string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByExtOrderID(ctx context.Context, extOrderID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetByExtOrderID"),
		zap.String("ext_order_id", extOrderID),
	)

	const q = `
		SELECT id, ext_order_id, customer_email, total_price, currency, state,
			COALESCE(payment_reference, ''), created_at, updated_at
		FROM orders
		WHERE ext_order_id = $1
	`

	var o Order
	err := r.db.QueryRowContext(ctx, q, extOrderID).Scan(
		&o.ID, &o.ExtOrderID, &o.Customer.Email, &o.TotalPrice, &o.Currency, &o.State,
		&o.PaymentReference, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("order not found")
			return nil, ErrOrderNotFound
		}
		log.Error("failed to fetch order", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	items, err := r.getItems(ctx, o.ID)
	if err != nil {
		log.Error("failed to fetch order items", zap.Error(err))
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *repository) getItems(ctx context.Context, orderID int64) ([]Item, error) {
	const q = `
		SELECT product_name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductName, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return items, nil
}

func (r *repository) UpdatePaymentState(ctx context.Context, extOrderID string, state State, paymentReference string) error {
	const q = `
		UPDATE orders
		SET state = $1, payment_reference = $2, updated_at = now()
		WHERE ext_order_id = $3
	`

	res, err := r.db.ExecContext(ctx, q, state, paymentReference, extOrderID)
	if err != nil {
		return fmt.Errorf("failed to update order state: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}

	return nil
}
