package service

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one member of a product request body.
// It tells an absent key apart from an explicit null and from a value of the wrong JSON type.
type Field struct {
	Present  bool
	Null     bool
	IsString bool
	// Text is the decoded string, or the raw literal for non-string JSON values.
	Text string
}

// StringField returns a present field holding s, as decoded from a form or a JSON string.
func StringField(s string) Field {
	return Field{Present: true, IsString: true, Text: s}
}

// LiteralField returns a present field holding a raw non-string JSON literal such as 9.99 or true.
func LiteralField(raw string) Field {
	return Field{Present: true, Text: raw}
}

// NullField returns a present field holding JSON null.
func NullField() Field {
	return Field{Present: true, Null: true}
}

// UnmarshalJSON records presence and keeps the raw literal for later coercion.
// It is also invoked for null because Field is never a pointer inside ProductInput.
func (f *Field) UnmarshalJSON(data []byte) error {
	*f = Field{Present: true}
	raw := bytes.TrimSpace(data)
	switch {
	case len(raw) == 0:
		return fmt.Errorf("empty JSON value")
	case bytes.Equal(raw, []byte("null")):
		f.Null = true
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		f.IsString = true
		f.Text = s
	default:
		f.Text = string(raw)
	}
	return nil
}

// ProductInput is the body of a create or update request.
type ProductInput struct {
	Name        Field `json:"name"`
	Description Field `json:"description"`
	Price       Field `json:"price"`
	Quantity    Field `json:"quantity"`
}
