// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/abgdnv/products-api/internal/platform/messaging"
	perrors "github.com/abgdnv/products-api/internal/product/errors"
	"github.com/abgdnv/products-api/internal/product/events"
	"github.com/abgdnv/products-api/internal/product/store"
)

// ProductService defines the methods for managing products.
// Identifiers arrive as raw path text and are parsed here.
type ProductService interface {
	// Create validates the input and adds a new product.
	// Returns a ValidationError if name or price is missing or invalid.
	Create(ctx context.Context, input ProductInput) (*ProductDto, error)

	// List returns all products in insertion order.
	// Returns an empty slice if no products exist.
	List(ctx context.Context) ([]ProductDto, error)

	// Get retrieves a single product.
	// Returns a NotFoundError if no product exists with the given ID.
	Get(ctx context.Context, rawID string) (*ProductDto, error)

	// Update applies a partial update and returns the merged product.
	// Omitted fields keep their values.
	Update(ctx context.Context, rawID string, input ProductInput) (*ProductDto, error)

	// Delete removes a product.
	// Returns a NotFoundError if no product exists with the given ID.
	Delete(ctx context.Context, rawID string) error
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int32     `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service implements ProductService on top of a ProductStore.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	validator  *inputValidator
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new instance of ProductService.
// A nil publisher disables change events.
func NewService(repo store.ProductStore, publisher messaging.Publisher, policy PricePolicy, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &Service{
		repository: repo,
		publisher:  publisher,
		validator:  newInputValidator(policy),
		logger:     logger.With("component", "product_service"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ParseID parses a base-10 product identifier.
// Returns a ValidationError for anything else, including surrounding whitespace or a fractional part.
func ParseID(rawID string) (int64, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return 0, perrors.NewValidationError(MsgInvalidID)
	}
	return id, nil
}

// Create validates the input and persists a new product.
func (s *Service) Create(ctx context.Context, input ProductInput) (*ProductDto, error) {
	params, err := s.validator.forCreate(input)
	if err != nil {
		return nil, err
	}
	product, err := s.repository.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.publish(ctx, events.TypeCreated, product.ID, product)
	return toDto(product), nil
}

// List retrieves all products and returns them as ProductDTOs.
func (s *Service) List(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))
	for i := range products {
		productDTOs[i] = *toDto(&products[i])
	}
	return productDTOs, nil
}

// Get retrieves a product by its ID.
func (s *Service) Get(ctx context.Context, rawID string) (*ProductDto, error) {
	product, err := s.find(ctx, rawID)
	if err != nil {
		return nil, err
	}
	return toDto(product), nil
}

// Update merges the supplied fields into the stored product.
func (s *Service) Update(ctx context.Context, rawID string, input ProductInput) (*ProductDto, error) {
	existing, err := s.find(ctx, rawID)
	if err != nil {
		return nil, err
	}
	params, err := s.validator.forUpdate(*existing, input)
	if err != nil {
		return nil, err
	}
	updated, err := s.repository.Update(ctx, existing.ID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", existing.ID, err)
	}
	if !updated {
		// deleted between the read and the write
		return nil, &perrors.NotFoundError{ID: existing.ID}
	}
	merged := *existing
	merged.Name = params.Name
	merged.Description = params.Description
	merged.Price = params.Price
	merged.Quantity = params.Quantity
	s.publish(ctx, events.TypeUpdated, merged.ID, &merged)
	return toDto(&merged), nil
}

// Delete removes a product by its ID.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	existing, err := s.find(ctx, rawID)
	if err != nil {
		return err
	}
	deleted, err := s.repository.Delete(ctx, existing.ID)
	if err != nil {
		return fmt.Errorf("failed to delete product with ID %d: %w", existing.ID, err)
	}
	if !deleted {
		return &perrors.NotFoundError{ID: existing.ID}
	}
	s.publish(ctx, events.TypeDeleted, existing.ID, nil)
	return nil
}

func (s *Service) find(ctx context.Context, rawID string) (*store.Product, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	product, found, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	if !found {
		return nil, &perrors.NotFoundError{ID: id}
	}
	return product, nil
}

// publish emits a change event. Failures are logged and never reach the caller.
func (s *Service) publish(ctx context.Context, eventType string, id int64, product *store.Product) {
	event := events.ProductEvent{
		Type:       eventType,
		ProductID:  id,
		OccurredAt: s.now(),
	}
	if product != nil {
		event.Product = &events.ProductSnapshot{
			ID:          product.ID,
			Name:        product.Name,
			Description: product.Description,
			Price:       product.Price.StringFixed(2),
			Quantity:    product.Quantity,
			CreatedAt:   product.CreatedAt,
		}
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish product event", "subject", event.Subject(), "product_id", id, "error", err)
	}
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.InexactFloat64(),
		Quantity:    product.Quantity,
		CreatedAt:   product.CreatedAt,
	}
}
