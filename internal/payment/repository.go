package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("payment not found")

// DB matches the methods we use from *pgxpool.Pool.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const paymentColumns = `id, customer_id, amount, currency, method, transaction_id, status, created_at, updated_at`

func (r *Repository) GetByID(ctx context.Context, id string) (*Payment, error) {
	// Malformed ids would trip the uuid column's type check, not miss.
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var p Payment
	err := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id).
		Scan(&p.ID, &p.CustomerID, &p.Amount, &p.Currency, &p.Method,
			&p.TransactionID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return &p, nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]Payment, error) {
	if _, err := uuid.Parse(customerID); err != nil {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Amount, &p.Currency, &p.Method,
			&p.TransactionID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return payments, nil
}
