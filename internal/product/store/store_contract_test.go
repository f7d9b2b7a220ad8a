package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// productStoreContract holds the behaviour every ProductStore executor must share.
// Executor suites embed it and set store and ctx in SetupSuite.
type productStoreContract struct {
	suite.Suite
	store ProductStore
	ctx   context.Context
}

func ptr[T any](v T) *T {
	return &v
}

func (s *productStoreContract) createTestProduct(name, price string, quantity int32) *Product {
	created, err := s.store.Create(s.ctx, ProductParams{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
	})
	require.NoError(s.T(), err, "Create should not return an error")
	require.NotNil(s.T(), created)
	return created
}

func (s *productStoreContract) TestCreate() {
	// given
	params := ProductParams{
		Name:        "Shampoo",
		Description: ptr("Mild, for daily use"),
		Price:       decimal.RequireFromString("9.99"),
		Quantity:    12,
	}
	before := time.Now().Add(-time.Minute)

	// when
	created, err := s.store.Create(s.ctx, params)

	// then
	require.NoError(s.T(), err)
	assert.Positive(s.T(), created.ID)
	assert.Equal(s.T(), params.Name, created.Name)
	require.NotNil(s.T(), created.Description)
	assert.Equal(s.T(), *params.Description, *created.Description)
	assert.True(s.T(), params.Price.Equal(created.Price), "price %s != %s", params.Price, created.Price)
	assert.Equal(s.T(), params.Quantity, created.Quantity)
	assert.True(s.T(), created.CreatedAt.After(before), "created_at should be assigned by the store")
}

func (s *productStoreContract) TestCreate_NullDescription() {
	// when
	created := s.createTestProduct("Soap", "1.50", 0)

	// then
	assert.Nil(s.T(), created.Description)
	assert.Equal(s.T(), int32(0), created.Quantity)
}

func (s *productStoreContract) TestCreate_IDsAreNotReused() {
	// given
	first := s.createTestProduct("First", "1", 1)
	deleted, err := s.store.Delete(s.ctx, first.ID)
	require.NoError(s.T(), err)
	require.True(s.T(), deleted)

	// when
	second := s.createTestProduct("Second", "2", 2)

	// then
	assert.Greater(s.T(), second.ID, first.ID)
}

func (s *productStoreContract) TestFindAll_Empty() {
	// when
	products, err := s.store.FindAll(s.ctx)

	// then
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), products)
	assert.Empty(s.T(), products)
}

func (s *productStoreContract) TestFindAll_InsertionOrder() {
	// given
	a := s.createTestProduct("Alpha", "3.00", 1)
	b := s.createTestProduct("Beta", "2.00", 2)
	c := s.createTestProduct("Gamma", "1.00", 3)

	// when
	products, err := s.store.FindAll(s.ctx)

	// then
	require.NoError(s.T(), err)
	require.Len(s.T(), products, 3)
	assert.Equal(s.T(), []int64{a.ID, b.ID, c.ID}, []int64{products[0].ID, products[1].ID, products[2].ID})
	assert.Equal(s.T(), "Beta", products[1].Name)
}

func (s *productStoreContract) TestFindByID() {
	// given
	created := s.createTestProduct("Conditioner", "12.40", 7)

	// when
	found, ok, err := s.store.FindByID(s.ctx, created.ID)

	// then
	require.NoError(s.T(), err)
	require.True(s.T(), ok)
	assert.Equal(s.T(), created.ID, found.ID)
	assert.Equal(s.T(), created.Name, found.Name)
	assert.True(s.T(), created.Price.Equal(found.Price))
	assert.Equal(s.T(), created.Quantity, found.Quantity)
	assert.WithinDuration(s.T(), created.CreatedAt, found.CreatedAt, time.Millisecond)
}

func (s *productStoreContract) TestFindByID_NotFound() {
	// when
	found, ok, err := s.store.FindByID(s.ctx, 999999)

	// then
	require.NoError(s.T(), err, "a missing row is not an error")
	assert.False(s.T(), ok)
	assert.Nil(s.T(), found)
}

func (s *productStoreContract) TestUpdate() {
	// given
	created := s.createTestProduct("Toothpaste", "3.20", 40)
	params := ProductParams{
		Name:        "Toothpaste XL",
		Description: ptr("Family size"),
		Price:       decimal.RequireFromString("4.75"),
		Quantity:    25,
	}

	// when
	updated, err := s.store.Update(s.ctx, created.ID, params)

	// then
	require.NoError(s.T(), err)
	require.True(s.T(), updated)
	found, ok, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.True(s.T(), ok)
	assert.Equal(s.T(), params.Name, found.Name)
	require.NotNil(s.T(), found.Description)
	assert.Equal(s.T(), "Family size", *found.Description)
	assert.True(s.T(), params.Price.Equal(found.Price))
	assert.Equal(s.T(), params.Quantity, found.Quantity)
	assert.WithinDuration(s.T(), created.CreatedAt, found.CreatedAt, time.Millisecond, "created_at is immutable")
}

func (s *productStoreContract) TestUpdate_ClearsDescription() {
	// given
	created, err := s.store.Create(s.ctx, ProductParams{
		Name:        "Brush",
		Description: ptr("Soft bristles"),
		Price:       decimal.RequireFromString("2"),
	})
	require.NoError(s.T(), err)

	// when
	updated, err := s.store.Update(s.ctx, created.ID, ProductParams{
		Name:  created.Name,
		Price: created.Price,
	})

	// then
	require.NoError(s.T(), err)
	require.True(s.T(), updated)
	found, _, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), found.Description)
}

func (s *productStoreContract) TestUpdate_NotFound() {
	// when
	updated, err := s.store.Update(s.ctx, 424242, ProductParams{Name: "Ghost", Price: decimal.NewFromInt(1)})

	// then
	require.NoError(s.T(), err, "a missing row is not an error")
	assert.False(s.T(), updated)
}

func (s *productStoreContract) TestDelete() {
	// given
	created := s.createTestProduct("Razor", "15.00", 3)

	// when
	deleted, err := s.store.Delete(s.ctx, created.ID)

	// then
	require.NoError(s.T(), err)
	assert.True(s.T(), deleted)
	_, ok, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *productStoreContract) TestDelete_NotFound() {
	// when
	deleted, err := s.store.Delete(s.ctx, 31337)

	// then
	require.NoError(s.T(), err)
	assert.False(s.T(), deleted)
}

func (s *productStoreContract) TestPing() {
	require.NoError(s.T(), s.store.Ping(s.ctx))
}
