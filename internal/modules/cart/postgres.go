package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates the cart repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrCartNotFound
	}
	c := &Cart{}
	err = r.db.QueryRowContext(ctx, `
		SELECT id, user_id, subtotal, item_count, created_at, updated_at
		FROM carts WHERE user_id=$1`, uid).
		Scan(&c.ID, &c.UserID, &c.Subtotal, &c.ItemCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, p.name, ci.quantity, ci.unit_price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id=$1
		ORDER BY ci.created_at ASC`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		item := &CartItem{}
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, item)
	}
	return c, rows.Err()
}

func (r *postgresRepo) Create(ctx context.Context, c *Cart) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, subtotal, item_count)
		VALUES ($1,$2,$3,$4)`,
		c.ID, c.UserID, c.Subtotal, c.ItemCount)
	return err
}

// Save rewrites the cart's lines and stores the recomputed totals in one
// transaction. The cart is single-writer (one user), so last-write-wins is
// acceptable here.
func (r *postgresRepo) Save(ctx context.Context, c *Cart) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE carts SET subtotal=$1, item_count=$2, updated_at=NOW() WHERE id=$3`,
		c.Subtotal, c.ItemCount, c.ID)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, c.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	for _, item := range c.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5)`,
			item.ID, c.ID, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) Clear(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrCartNotFound
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE carts SET subtotal=0, item_count=0, updated_at=NOW() WHERE user_id=$1`, uid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartNotFound
	}
	_, err = tx.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = (SELECT id FROM carts WHERE user_id=$1)`, uid)
	if err != nil {
		return err
	}
	return tx.Commit()
}
