package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("cart not found")
	ErrLineNotFound = errors.New("item not in cart")
)

// DB matches the methods we use from *pgxpool.Pool.
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

// GetByCustomer loads the customer's cart with its lines. Returns ErrNotFound
// if the customer has no cart yet.
func (r *Repository) GetByCustomer(ctx context.Context, customerID string) (*Cart, error) {
	var c Cart
	err := r.db.QueryRow(ctx,
		`SELECT id, customer_id, updated_at FROM carts WHERE customer_id = $1`,
		customerID,
	).Scan(&c.ID, &c.CustomerID, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT item_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY item_id`,
		c.ID)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ItemID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		c.Lines = append(c.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return &c, nil
}

// AddItem merges quantity into an existing line or appends a new one,
// creating the cart lazily.
func (r *Repository) AddItem(ctx context.Context, customerID, itemID string, quantity int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cartID string
	err = tx.QueryRow(ctx, `
		INSERT INTO carts (id, customer_id)
		VALUES ($1, $2)
		ON CONFLICT (customer_id) DO UPDATE SET updated_at = now()
		RETURNING id
	`, uuid.NewString(), customerID).Scan(&cartID)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO cart_items (cart_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, item_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, cartID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SetQuantity replaces the quantity of an existing line.
func (r *Repository) SetQuantity(ctx context.Context, customerID, itemID string, quantity int) error {
	// A malformed item id would trip the uuid column's type check, not miss.
	if _, err := uuid.Parse(itemID); err != nil {
		return ErrLineNotFound
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE cart_items ci
		SET quantity = $3
		FROM carts c
		WHERE ci.cart_id = c.id AND c.customer_id = $1 AND ci.item_id = $2
	`, customerID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

// RemoveOne decrements a line's quantity by one and drops the line when it
// reaches zero.
func (r *Repository) RemoveOne(ctx context.Context, customerID, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return ErrLineNotFound
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cartID string
	var quantity int
	err = tx.QueryRow(ctx, `
		SELECT c.id, ci.quantity
		FROM carts c
		JOIN cart_items ci ON ci.cart_id = c.id
		WHERE c.customer_id = $1 AND ci.item_id = $2
		FOR UPDATE
	`, customerID, itemID).Scan(&cartID, &quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLineNotFound
		}
		return fmt.Errorf("select cart item: %w", err)
	}

	if quantity <= 1 {
		_, err = tx.Exec(ctx,
			`DELETE FROM cart_items WHERE cart_id = $1 AND item_id = $2`,
			cartID, itemID)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE cart_items SET quantity = quantity - 1 WHERE cart_id = $1 AND item_id = $2`,
			cartID, itemID)
	}
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
