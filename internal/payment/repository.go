package payment

import (
	"context"
	"database/sql"
	"errors"
)

// Repository records received gateway notifications so that re-deliveries
// are answered without being processed twice. A notification whose earlier
// delivery failed is handed out again for processing.
type Repository interface {
	SaveNotification(ctx context.Context, n *Notification) (isDuplicate bool, err error)
	MarkNotificationProcessed(ctx context.Context, id int64, state string) error
	MarkNotificationFailed(ctx context.Context, id int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveNotification(ctx context.Context, n *Notification) (bool, error) {
	const q = `
	INSERT INTO payment_notifications (
		provider,
		order_id,
		ext_order_id,
		status,
		payload
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, order_id, status)
	DO UPDATE SET
		payload = EXCLUDED.payload,
		process_error = NULL,
		received_at = now()
	WHERE payment_notifications.processed_at IS NULL
	RETURNING id, received_at;
	`

	err := r.db.QueryRowContext(
		ctx,
		q,
		n.Provider,
		n.OrderID,
		n.ExtOrderID,
		n.Status,
		[]byte(n.Payload),
	).Scan(&n.ID, &n.ReceivedAt)

	if err != nil {
		// Already processed → idempotent success
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		return false, err
	}

	return false, nil
}

func (r *repository) MarkNotificationProcessed(ctx context.Context, id int64, state string) error {
	const q = `
	UPDATE payment_notifications
	SET processed_at = now(), state = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, id, state)
	return err
}

func (r *repository) MarkNotificationFailed(ctx context.Context, id int64, reason string) error {
	const q = `
	UPDATE payment_notifications
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, id, reason)
	return err
}
