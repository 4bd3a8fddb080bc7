package postgres

import (
	"context"

	"github.com/bookpasal/bookpasal-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ordersRepo struct{ pool *pgxpool.Pool }

func (r *ordersRepo) Create(ctx context.Context, o models.Order) (models.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	const q = `
INSERT INTO orders (
  id, user_id, book_id, quantity, price, transaction_id, payment_status
) VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (transaction_id) DO UPDATE
SET transaction_id = EXCLUDED.transaction_id  -- no-op update; RETURNING hands back the existing row
RETURNING id, user_id, book_id, quantity, price, transaction_id, payment_status, created_at;
`
	err := r.pool.QueryRow(
		ctx, q,
		o.ID, o.UserID, o.BookID, o.Quantity, o.Price, o.TransactionID, o.PaymentStatus,
	).Scan(&o.ID, &o.UserID, &o.BookID, &o.Quantity, &o.Price, &o.TransactionID, &o.PaymentStatus, &o.CreatedAt)
	return o, err
}

func (r *ordersRepo) GetByTransactionID(ctx context.Context, txnID string) (models.Order, error) {
	var o models.Order
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, user_id, book_id, quantity, price, transaction_id, payment_status, created_at
		   FROM orders
		  WHERE transaction_id=$1`,
		txnID,
	).Scan(&o.ID, &o.UserID, &o.BookID, &o.Quantity, &o.Price, &o.TransactionID, &o.PaymentStatus, &o.CreatedAt)
	return o, err
}

func (r *ordersRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, user_id, book_id, quantity, price, transaction_id, payment_status, created_at
		   FROM orders
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.BookID, &o.Quantity, &o.Price, &o.TransactionID, &o.PaymentStatus, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
