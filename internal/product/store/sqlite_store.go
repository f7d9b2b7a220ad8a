package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	perrors "github.com/abgdnv/products-api/internal/product/errors"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL CHECK (length(trim(name)) > 0),
  description TEXT,
  price TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  created_at TEXT NOT NULL
);`

const (
	sqliteCreateProduct = `INSERT INTO products (name, description, price, quantity, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, name, description, price, quantity, created_at`

	sqliteFindAllProducts = `SELECT id, name, description, price, quantity, created_at
FROM products
ORDER BY id`

	sqliteFindProductByID = `SELECT id, name, description, price, quantity, created_at
FROM products
WHERE id = ?`

	sqliteUpdateProduct = `UPDATE products
SET name = ?, description = ?, price = ?, quantity = ?
WHERE id = ?`

	sqliteDeleteProduct = `DELETE FROM products WHERE id = ?`
)

// sqliteRow mirrors the SQLite column layout; price and created_at are kept as canonical text.
type sqliteRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	Price       string         `db:"price"`
	Quantity    int32          `db:"quantity"`
	CreatedAt   string         `db:"created_at"`
}

func (r sqliteRow) toProduct() (Product, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return Product{}, fmt.Errorf("invalid stored price %q: %w", r.Price, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("invalid stored created_at %q: %w", r.CreatedAt, err)
	}
	product := Product{
		ID:        r.ID,
		Name:      r.Name,
		Price:     price,
		Quantity:  r.Quantity,
		CreatedAt: createdAt,
	}
	if r.Description.Valid {
		description := r.Description.String
		product.Description = &description
	}
	return product, nil
}

// SQLiteStore implements ProductStore on an embedded SQLite database.
// It backs local development and fast tests.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) a SQLite database and makes sure the products table exists.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare sqlite schema: %w", err)
	}
	return db, nil
}

// NewSQLiteStore creates a new instance of ProductStore backed by SQLite.
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a new product to the system.
func (s *SQLiteStore) Create(ctx context.Context, params ProductParams) (*Product, error) {
	var row sqliteRow
	err := s.db.QueryRowxContext(ctx, sqliteCreateProduct,
		params.Name,
		params.Description,
		params.Price.String(),
		params.Quantity,
		s.now().Format(time.RFC3339Nano),
	).StructScan(&row)
	if err != nil {
		return nil, perrors.NewStorageError("create product", err)
	}
	product, err := row.toProduct()
	if err != nil {
		return nil, perrors.NewStorageError("create product", err)
	}
	return &product, nil
}

// FindAll retrieves all products ordered by ID.
func (s *SQLiteStore) FindAll(ctx context.Context) ([]Product, error) {
	var rows []sqliteRow
	if err := s.db.SelectContext(ctx, &rows, sqliteFindAllProducts); err != nil {
		return nil, perrors.NewStorageError("find all products", err)
	}
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		product, err := row.toProduct()
		if err != nil {
			return nil, perrors.NewStorageError("find all products", err)
		}
		products = append(products, product)
	}
	return products, nil
}

// FindByID retrieves a product by its unique identifier.
func (s *SQLiteStore) FindByID(ctx context.Context, id int64) (*Product, bool, error) {
	var row sqliteRow
	if err := s.db.GetContext(ctx, &row, sqliteFindProductByID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, perrors.NewStorageError("find product by ID", err)
	}
	product, err := row.toProduct()
	if err != nil {
		return nil, false, perrors.NewStorageError("find product by ID", err)
	}
	return &product, true, nil
}

// Update modifies an existing product's details.
func (s *SQLiteStore) Update(ctx context.Context, id int64, params ProductParams) (bool, error) {
	res, err := s.db.ExecContext(ctx, sqliteUpdateProduct,
		params.Name,
		params.Description,
		params.Price.String(),
		params.Quantity,
		id,
	)
	if err != nil {
		return false, perrors.NewStorageError("update product", err)
	}
	return affectedOne(res, "update product")
}

// Delete removes a product by its unique identifier.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, sqliteDeleteProduct, id)
	if err != nil {
		return false, perrors.NewStorageError("delete product", err)
	}
	return affectedOne(res, "delete product")
}

// Ping checks the database handle.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func affectedOne(res sql.Result, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, perrors.NewStorageError(op, err)
	}
	return n == 1, nil
}
