package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/payment"
)

// DB matches the methods we use from *pgxpool.Pool. Tests substitute a mock.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// Ids feed uuid columns; Postgres rejects malformed ids with a type syntax
// error rather than an empty result, so they short-circuit before querying.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create places an order in a single transaction:
// every requested item row is locked, stock is verified for all lines before
// any decrement, the total is computed from current catalog prices, and the
// Pending payment plus the New order are inserted together. Any shortage
// aborts the whole transaction, so no partial order or decrement survives.
func (r *Repository) Create(ctx context.Context, customerID, currency string, reqLines []RequestLine) (*Order, *payment.Payment, error) {
	for _, req := range reqLines {
		if !validID(req.ItemID) {
			return nil, nil, fmt.Errorf("item %q: %w", req.ItemID, ErrItemNotFound)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lines := make([]Line, 0, len(reqLines))
	short := make([]ShortLine, 0)
	total := decimal.Zero

	for _, req := range reqLines {
		var name string
		var price decimal.Decimal
		var stock int
		err := tx.QueryRow(ctx, `
			SELECT name, price, stock
			FROM items
			WHERE id = $1
			FOR UPDATE
		`, req.ItemID).Scan(&name, &price, &stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, fmt.Errorf("item %q: %w", req.ItemID, ErrItemNotFound)
			}
			return nil, nil, fmt.Errorf("lock item: %w", err)
		}

		if stock < req.Quantity {
			short = append(short, ShortLine{
				ItemID:    req.ItemID,
				Name:      name,
				Requested: req.Quantity,
				Available: stock,
			})
			continue
		}

		lines = append(lines, Line{
			ItemID:    req.ItemID,
			Name:      name,
			Quantity:  req.Quantity,
			UnitPrice: price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(req.Quantity))))
	}

	if len(short) > 0 {
		return nil, nil, &InsufficientStockError{Lines: short}
	}

	for _, l := range lines {
		_, err := tx.Exec(ctx, `
			UPDATE items
			SET stock = stock - $2, updated_at = now()
			WHERE id = $1
		`, l.ItemID, l.Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("decrement stock: %w", err)
		}
	}

	p := &payment.Payment{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Amount:     total,
		Currency:   currency,
		Status:     payment.StatusPending,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO payments (id, customer_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.CustomerID, p.Amount, p.Currency, p.Status)
	if err != nil {
		return nil, nil, fmt.Errorf("insert payment: %w", err)
	}

	o := &Order{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		Lines:       lines,
		TotalAmount: total,
		Status:      StatusNew,
		PaymentID:   p.ID,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, customer_id, total_amount, status, payment_id)
		VALUES ($1, $2, $3, $4, $5)
	`, o.ID, o.CustomerID, o.TotalAmount, o.Status, o.PaymentID)
	if err != nil {
		return nil, nil, fmt.Errorf("insert order: %w", err)
	}

	for _, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, item_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
		`, o.ID, l.ItemID, l.Quantity, l.UnitPrice)
		if err != nil {
			return nil, nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return o, p, nil
}

// SettlementResult reports what a webhook notification did.
type SettlementResult struct {
	// Applied is false when the notification was a replay of an outcome that
	// is already recorded.
	Applied       bool
	PaymentID     string
	OrderID       string
	CustomerID    string
	PaymentStatus payment.Status
	OrderStatus   Status
}

// ApplyPaymentNotification moves the payment and its order to the state the
// gateway reported, in one transaction keyed on the payment row lock.
// Replays of an already-recorded outcome are acknowledged without mutating
// anything; a conflicting outcome for a settled payment yields
// ErrAlreadySettled.
func (r *Repository) ApplyPaymentNotification(ctx context.Context, paymentID string, succeeded bool, paidAmount decimal.Decimal) (*SettlementResult, error) {
	if !validID(paymentID) {
		return nil, payment.ErrNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var customerID string
	var current payment.Status
	err = tx.QueryRow(ctx, `
		SELECT customer_id, status
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`, paymentID).Scan(&customerID, &current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("lock payment: %w", err)
	}

	target := payment.StatusFailed
	orderTarget := StatusFailed
	if succeeded {
		target = payment.StatusCompleted
		orderTarget = StatusProcessing
	}

	if current == target {
		var orderID string
		var orderStatus Status
		err = tx.QueryRow(ctx,
			`SELECT id, status FROM orders WHERE payment_id = $1`, paymentID,
		).Scan(&orderID, &orderStatus)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("select order: %w", err)
		}
		return &SettlementResult{
			Applied:       false,
			PaymentID:     paymentID,
			OrderID:       orderID,
			CustomerID:    customerID,
			PaymentStatus: current,
			OrderStatus:   orderStatus,
		}, nil
	}

	if current.Terminal() {
		return nil, ErrAlreadySettled
	}

	if succeeded {
		// The settled amount reported by the gateway is authoritative.
		_, err = tx.Exec(ctx, `
			UPDATE payments
			SET status = $2, amount = $3, updated_at = now()
			WHERE id = $1
		`, paymentID, target, paidAmount)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE payments
			SET status = $2, updated_at = now()
			WHERE id = $1
		`, paymentID, target)
	}
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	// The order is joined to the payment only through the stored reference.
	var orderID string
	err = tx.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE payment_id = $1
		RETURNING id
	`, paymentID, orderTarget).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order for payment %q: %w", paymentID, ErrNotFound)
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &SettlementResult{
		Applied:       true,
		PaymentID:     paymentID,
		OrderID:       orderID,
		CustomerID:    customerID,
		PaymentStatus: target,
		OrderStatus:   orderTarget,
	}, nil
}

// Cancel moves an order and its payment to Cancelled. Orders that are
// already Done or Cancelled cannot be cancelled. Stock is not restored.
func (r *Repository) Cancel(ctx context.Context, orderID string) error {
	return r.transition(ctx, orderID, StatusCancelled, true)
}

// MarkDone closes an order administratively.
func (r *Repository) MarkDone(ctx context.Context, orderID string) error {
	return r.transition(ctx, orderID, StatusDone, false)
}

func (r *Repository) transition(ctx context.Context, orderID string, target Status, cancelPayment bool) error {
	if !validID(orderID) {
		return ErrNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current Status
	var paymentID string
	err = tx.QueryRow(ctx, `
		SELECT status, payment_id
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(&current, &paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock order: %w", err)
	}

	if current.Closed() {
		return fmt.Errorf("order is %s: %w", current, ErrInvalidTransition)
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		orderID, target)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if cancelPayment {
		_, err = tx.Exec(ctx,
			`UPDATE payments SET status = $2, updated_at = now() WHERE id = $1`,
			paymentID, payment.StatusCancelled)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const orderColumns = `id, customer_id, total_amount, status, payment_id, created_at, updated_at`

func (r *Repository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	if !validID(orderID) {
		return nil, ErrNotFound
	}
	var o Order
	err := r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID,
	).Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &o.Status, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	if err := r.loadLines(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	if !validID(customerID) {
		return nil, nil
	}
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &o.Status,
			&o.PaymentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		if err := r.loadLines(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) loadLines(ctx context.Context, o *Order) error {
	rows, err := r.db.Query(ctx, `
		SELECT oi.item_id, COALESCE(i.name, ''), oi.quantity, oi.unit_price
		FROM order_items oi
		LEFT JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = $1
		ORDER BY oi.item_id
	`, o.ID)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ItemID, &l.Name, &l.Quantity, &l.UnitPrice); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}
