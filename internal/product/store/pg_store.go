package store

import (
	"context"
	"errors"

	perrors "github.com/abgdnv/products-api/internal/product/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgCreateProduct = `INSERT INTO products (name, description, price, quantity)
VALUES ($1, $2, $3, $4)
RETURNING id, name, description, price, quantity, created_at`

	pgFindAllProducts = `SELECT id, name, description, price, quantity, created_at
FROM products
ORDER BY id`

	pgFindProductByID = `SELECT id, name, description, price, quantity, created_at
FROM products
WHERE id = $1`

	pgUpdateProduct = `UPDATE products
SET name = $2, description = $3, price = $4, quantity = $5
WHERE id = $1`

	pgDeleteProduct = `DELETE FROM products WHERE id = $1`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
// The pool is owned by the caller.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// Create adds a new product to the system.
func (p *PgStore) Create(ctx context.Context, params ProductParams) (*Product, error) {
	row := p.db.QueryRow(ctx, pgCreateProduct, params.Name, params.Description, params.Price, params.Quantity)
	product, err := scanProduct(row)
	if err != nil {
		return nil, perrors.NewStorageError("create product", err)
	}
	return &product, nil
}

// FindAll retrieves all products ordered by ID.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := p.db.Query(ctx, pgFindAllProducts)
	if err != nil {
		return nil, perrors.NewStorageError("find all products", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, perrors.NewStorageError("find all products", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// FindByID retrieves a product by its unique identifier.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*Product, bool, error) {
	product, err := scanProduct(p.db.QueryRow(ctx, pgFindProductByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, perrors.NewStorageError("find product by ID", err)
	}
	return &product, true, nil
}

// Update modifies an existing product's details.
func (p *PgStore) Update(ctx context.Context, id int64, params ProductParams) (bool, error) {
	tag, err := p.db.Exec(ctx, pgUpdateProduct, id, params.Name, params.Description, params.Price, params.Quantity)
	if err != nil {
		return false, perrors.NewStorageError("update product", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a product by its unique identifier.
func (p *PgStore) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := p.db.Exec(ctx, pgDeleteProduct, id)
	if err != nil {
		return false, perrors.NewStorageError("delete product", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Ping checks the connection pool.
func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func scanProduct(row pgx.Row) (Product, error) {
	var product Product
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Quantity,
		&product.CreatedAt,
	)
	return product, err
}
