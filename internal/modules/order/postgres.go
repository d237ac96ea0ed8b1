package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates the order repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// Create inserts the order, its items and the first history entry inside a
// single transaction.
func (r *postgresRepo) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, order_number, user_id, status, payment_method, payment_status,
		   shipping_line1, shipping_city, shipping_country, shipping_postal_code, shipping_phone,
		   subtotal, shipping_charges, tax, discount, total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.OrderNumber, o.UserID, o.Status, o.PaymentMethod, o.PaymentStatus,
		o.Shipping.Line1, o.Shipping.City, o.Shipping.Country, o.Shipping.PostalCode, o.Shipping.Phone,
		o.Subtotal, o.ShippingCharges, o.Tax, o.Discount, o.Total)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items
			  (id, order_id, product_id, name, quantity, unit_price, line_subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			item.ID, o.ID, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.LineSubtotal)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	for _, entry := range o.StatusHistory {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_status_history (id, order_id, status, note, created_at)
			VALUES ($1,$2,$3,$4,$5)`,
			uuid.New(), o.ID, entry.Status, entry.Note, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
	}

	return tx.Commit()
}

const orderColumns = `id, order_number, user_id, status, payment_method, payment_status,
	shipping_line1, shipping_city, shipping_country, shipping_postal_code, shipping_phone,
	subtotal, shipping_charges, tax, discount, total, created_at, updated_at`

func scanOrder(scan func(...interface{}) error) (*Order, error) {
	o := &Order{}
	err := scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.Shipping.Line1, &o.Shipping.City, &o.Shipping.Country, &o.Shipping.PostalCode, &o.Shipping.Phone,
		&o.Subtotal, &o.ShippingCharges, &o.Tax, &o.Discount, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1`, uid).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadChildren(ctx, o)
}

func (r *postgresRepo) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, orderNumber).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadChildren(ctx, o)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) List(ctx context.Context, status string) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, args...)
}

// UpdateStatus is guarded on the expected prior status so a concurrent
// transition race has exactly one winner. History is appended in the same
// transaction, never rewritten.
func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to OrderStatus, note string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrOrderNotFound
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		to, uid, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, uid).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrStatusConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, note, created_at)
		VALUES ($1,$2,$3,$4,NOW())`,
		uuid.New(), uid, to, note)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}

	return tx.Commit()
}

func (r *postgresRepo) SetPaymentStatus(ctx context.Context, id string, status PaymentStatus) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrOrderNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_status=$1, updated_at=NOW() WHERE id=$2`, status, uid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range orders {
		if _, err := r.loadChildren(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *postgresRepo) loadChildren(ctx context.Context, o *Order) (*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, quantity, unit_price, line_subtotal
		FROM order_items WHERE order_id=$1`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		item := &OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name,
			&item.Quantity, &item.UnitPrice, &item.LineSubtotal); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	histRows, err := r.db.QueryContext(ctx, `
		SELECT status, note, created_at
		FROM order_status_history WHERE order_id=$1 ORDER BY created_at ASC`, o.ID)
	if err != nil {
		return nil, err
	}
	defer histRows.Close()
	for histRows.Next() {
		entry := &StatusEntry{}
		if err := histRows.Scan(&entry.Status, &entry.Note, &entry.CreatedAt); err != nil {
			return nil, err
		}
		o.StatusHistory = append(o.StatusHistory, entry)
	}
	return o, histRows.Err()
}
