// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStore is an interface for product storage operations.
// It abstracts the underlying SQL executor (PostgreSQL or SQLite). Implementations never
// interpret business meaning: they report success, absence or a StorageError.
type ProductStore interface {
	// Create inserts a new product and returns the persisted row,
	// including the system-assigned ID and creation time.
	Create(ctx context.Context, params ProductParams) (*Product, error)

	// FindAll returns all products in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// FindByID retrieves a single product by its ID.
	// The boolean is false when no row matches; a missing row is not an error.
	FindByID(ctx context.Context, id int64) (*Product, bool, error)

	// Update replaces the mutable fields of a product.
	// Returns true if exactly one row was affected.
	Update(ctx context.Context, id int64, params ProductParams) (bool, error)

	// Delete removes a product by its ID.
	// Returns true if exactly one row was affected.
	Delete(ctx context.Context, id int64) (bool, error)

	// Ping checks that the executor is reachable.
	Ping(ctx context.Context) error
}

// Product represents a persisted product row.
type Product struct {
	ID          int64
	Name        string
	Description *string
	Price       decimal.Decimal
	Quantity    int32
	CreatedAt   time.Time
}

// ProductParams holds the mutable columns written by Create and Update.
type ProductParams struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Quantity    int32
}
