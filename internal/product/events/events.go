// Package events defines the change notifications emitted after product writes.
package events

import (
	"encoding/json"
	"time"
)

const (
	StreamName      = "PRODUCTS"
	SubjectWildcard = "products.>"

	TypeCreated = "created"
	TypeUpdated = "updated"
	TypeDeleted = "deleted"
)

// ProductSnapshot is the product state carried by created and updated events.
type ProductSnapshot struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	Quantity    int32     `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProductEvent struct {
	Type       string           `json:"type"`
	ProductID  int64            `json:"product_id"`
	Product    *ProductSnapshot `json:"product,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func (e ProductEvent) Subject() string {
	return "products." + e.Type
}

func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
