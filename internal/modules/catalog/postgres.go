package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates the product store backing both the CRUD
// repository and the stock ledger.
func NewPostgresRepository(db *sql.DB) Store { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products
		  (id, name, description, category, price, stock, status, image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.Status, p.ImageURL)
	return err
}

func scanProduct(scan func(...interface{}) error) (*Product, error) {
	p := &Product{}
	err := scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price,
		&p.Stock, &p.Status, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id,name,description,category,price,stock,status,image_url,created_at,updated_at
		FROM products WHERE id=$1`, uid)
	p, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	query := `SELECT id,name,description,category,price,stock,status,image_url,created_at,updated_at
	          FROM products WHERE 1=1`
	args := []interface{}{}
	n := 1
	if filter.Category != "" {
		query += fmt.Sprintf(` AND category=$%d`, n)
		args = append(args, filter.Category)
		n++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, n)
		args = append(args, "%"+filter.Search+"%")
		n++
	}
	if filter.ActiveOnly {
		query += ` AND status='active'`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, n, n+1)
		args = append(args, filter.Limit, (page-1)*filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name=$1, description=$2, category=$3, price=$4, stock=$5,
		    status=$6, image_url=$7, updated_at=NOW()
		WHERE id=$8`,
		p.Name, p.Description, p.Category, p.Price, p.Stock, p.Status, p.ImageURL, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrProductNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1`, uid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DecrementStock is a single conditional UPDATE so concurrent checkouts for
// the same product cannot oversell: the guard and the write are one statement
// at the storage layer, never a read-then-write in application code.
func (r *postgresRepo) DecrementStock(ctx context.Context, productID string, qty int) error {
	uid, err := uuid.Parse(productID)
	if err != nil {
		return ErrProductNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2,
		    status = CASE WHEN stock - $2 = 0 THEN 'out_of_stock' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND stock >= $2`,
		uid, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// The guard failed; classify why.
	var stock int
	var status ProductStatus
	err = r.db.QueryRowContext(ctx,
		`SELECT stock, status FROM products WHERE id=$1`, uid).Scan(&stock, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if status == StatusInactive {
		return &ProductUnavailableError{ProductID: uid}
	}
	return &InsufficientStockError{ProductID: uid, Requested: qty, Available: stock}
}

// RestoreStock adds qty back and reactivates a product that had been driven
// to out_of_stock by depletion. A manually deactivated product stays inactive.
func (r *postgresRepo) RestoreStock(ctx context.Context, productID string, qty int) error {
	uid, err := uuid.Parse(productID)
	if err != nil {
		return ErrProductNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2,
		    status = CASE WHEN status = 'out_of_stock' THEN 'active' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1`,
		uid, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
