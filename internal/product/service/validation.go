package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	perrors "github.com/abgdnv/products-api/internal/product/errors"
	"github.com/abgdnv/products-api/internal/product/store"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// PricePolicy selects the lower bound enforced on prices.
type PricePolicy string

const (
	PriceNonNegative PricePolicy = "nonnegative"
	PricePositive    PricePolicy = "positive"
)

// ParsePricePolicy maps a configuration value to a PricePolicy. Empty selects PriceNonNegative.
func ParsePricePolicy(s string) (PricePolicy, error) {
	switch PricePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PriceNonNegative:
		return PriceNonNegative, nil
	case PricePositive:
		return PricePositive, nil
	default:
		return "", fmt.Errorf("unknown price policy %q: must be %q or %q", s, PriceNonNegative, PricePositive)
	}
}

const (
	MsgRequired         = "Name and price are required fields."
	MsgCannotBeEmpty    = "Name and price cannot be empty."
	MsgInvalidID        = "Invalid product ID."
	MsgNameNotString    = "Name must be a string."
	MsgNameTooLong      = "Name must be at most 255 characters."
	MsgDescNotString    = "Description must be a string."
	MsgDescTooLong      = "Description must be at most 2000 characters."
	MsgPriceScale       = "Price must have at most two decimal places."
	MsgPriceTooLarge    = "Price must not exceed 9999999999.99."
	MsgQuantityInvalid  = "Quantity must be a non-negative integer."
	MsgQuantityTooLarge = "Quantity must not exceed 2147483647."

	msgPriceNonNegative = "Price must be a valid non-negative number."
	msgPricePositive    = "Price must be a valid positive number."

	operationCreate = "create"
	operationUpdate = "update"
)

var maxPrice = decimal.RequireFromString("9999999999.99")

// maxExponent bounds the decimal exponent accepted from clients.
// Rescaling a decimal costs time proportional to 10^|exponent|.
const maxExponent = 64

// parseDecimal parses a decimal literal and rejects exponents outside ±maxExponent.
func parseDecimal(text string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(text)
	if err != nil || d.Exponent() < -maxExponent || d.Exponent() > maxExponent {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Message returns the client-facing text for an unparsable or out-of-bound price.
func (p PricePolicy) Message() string {
	if p == PricePositive {
		return msgPricePositive
	}
	return msgPriceNonNegative
}

func (p PricePolicy) allows(d decimal.Decimal) bool {
	if p == PricePositive {
		return d.IsPositive()
	}
	return !d.IsNegative()
}

// productFields is the normalized form of a request, checked with validator tags.
type productFields struct {
	Name        string          `validate:"required,max=255"`
	Description *string         `validate:"omitempty,max=2000"`
	Price       decimal.Decimal `validate:"price,cents,pricecap"`
	Quantity    int64           `validate:"min=0,max=2147483647"`
}

func (f productFields) params() store.ProductParams {
	return store.ProductParams{
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Quantity:    int32(f.Quantity),
	}
}

// inputValidator turns a ProductInput into validated store parameters.
type inputValidator struct {
	validate *validator.Validate
	policy   PricePolicy
}

func newInputValidator(policy PricePolicy) *inputValidator {
	v := validator.New()
	// decimals are validated through their canonical string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	decimalRule := func(rule func(decimal.Decimal) bool) validator.Func {
		return func(fl validator.FieldLevel) bool {
			d, ok := parseDecimal(fl.Field().String())
			return ok && rule(d)
		}
	}
	rules := map[string]validator.Func{
		"price": decimalRule(policy.allows),
		"cents": decimalRule(func(d decimal.Decimal) bool {
			return d.Equal(d.Truncate(2))
		}),
		"pricecap": decimalRule(func(d decimal.Decimal) bool {
			return d.LessThanOrEqual(maxPrice)
		}),
	}
	for tag, rule := range rules {
		if err := v.RegisterValidation(tag, rule); err != nil {
			panic(fmt.Sprintf("failed to register %s validation: %v", tag, err))
		}
	}
	return &inputValidator{validate: v, policy: policy}
}

// forCreate validates a complete new product. Name and price are mandatory.
func (v *inputValidator) forCreate(in ProductInput) (store.ProductParams, error) {
	if !in.Name.Present || in.Name.Null || !in.Price.Present || in.Price.Null {
		return store.ProductParams{}, perrors.NewValidationError(MsgRequired)
	}
	var fields productFields
	var err error
	if fields.Name, err = parseName(in.Name); err != nil {
		return store.ProductParams{}, err
	}
	if fields.Description, err = parseDescription(in.Description); err != nil {
		return store.ProductParams{}, err
	}
	if fields.Price, err = v.parsePrice(in.Price, MsgRequired); err != nil {
		return store.ProductParams{}, err
	}
	if fields.Quantity, err = parseQuantity(in.Quantity); err != nil {
		return store.ProductParams{}, err
	}
	if err = v.validate.Struct(fields); err != nil {
		return store.ProductParams{}, v.translate(err, operationCreate)
	}
	return fields.params(), nil
}

// forUpdate merges the supplied fields over existing. Only supplied fields are re-validated,
// so rows stored under an older policy stay editable.
func (v *inputValidator) forUpdate(existing store.Product, in ProductInput) (store.ProductParams, error) {
	fields := productFields{
		Name:        existing.Name,
		Description: existing.Description,
		Price:       existing.Price,
		Quantity:    int64(existing.Quantity),
	}
	var supplied []string
	var err error
	if in.Name.Present {
		if in.Name.Null {
			return store.ProductParams{}, perrors.NewValidationError(MsgCannotBeEmpty)
		}
		if fields.Name, err = parseName(in.Name); err != nil {
			return store.ProductParams{}, err
		}
		supplied = append(supplied, "Name")
	}
	if in.Description.Present {
		if fields.Description, err = parseDescription(in.Description); err != nil {
			return store.ProductParams{}, err
		}
		supplied = append(supplied, "Description")
	}
	if in.Price.Present {
		if in.Price.Null {
			return store.ProductParams{}, perrors.NewValidationError(MsgCannotBeEmpty)
		}
		if fields.Price, err = v.parsePrice(in.Price, MsgCannotBeEmpty); err != nil {
			return store.ProductParams{}, err
		}
		supplied = append(supplied, "Price")
	}
	if in.Quantity.Present {
		if fields.Quantity, err = parseQuantity(in.Quantity); err != nil {
			return store.ProductParams{}, err
		}
		supplied = append(supplied, "Quantity")
	}
	if len(supplied) > 0 {
		if err = v.validate.StructPartial(fields, supplied...); err != nil {
			return store.ProductParams{}, v.translate(err, operationUpdate)
		}
	}
	return fields.params(), nil
}

func parseName(f Field) (string, error) {
	if !f.IsString {
		return "", perrors.NewValidationError(MsgNameNotString)
	}
	return strings.TrimSpace(f.Text), nil
}

// parseDescription returns nil for absent, null or blank descriptions.
func parseDescription(f Field) (*string, error) {
	if !f.Present || f.Null {
		return nil, nil
	}
	if !f.IsString {
		return nil, perrors.NewValidationError(MsgDescNotString)
	}
	description := strings.TrimSpace(f.Text)
	if description == "" {
		return nil, nil
	}
	return &description, nil
}

// parsePrice accepts a JSON number or a string holding a decimal literal.
// A blank string counts as missing and yields emptyMsg.
func (v *inputValidator) parsePrice(f Field, emptyMsg string) (decimal.Decimal, error) {
	text := strings.TrimSpace(f.Text)
	if f.IsString && text == "" {
		return decimal.Decimal{}, perrors.NewValidationError(emptyMsg)
	}
	d, ok := parseDecimal(text)
	if !ok {
		return decimal.Decimal{}, perrors.NewValidationError(v.policy.Message())
	}
	return d, nil
}

// parseQuantity accepts a JSON integer or an integer string. Absent, null and blank mean zero.
func parseQuantity(f Field) (int64, error) {
	text := strings.TrimSpace(f.Text)
	if !f.Present || f.Null || (f.IsString && text == "") {
		return 0, nil
	}
	d, ok := parseDecimal(text)
	if !ok || !d.IsInteger() {
		return 0, perrors.NewValidationError(MsgQuantityInvalid)
	}
	if d.IsNegative() {
		return 0, perrors.NewValidationError(MsgQuantityInvalid)
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, perrors.NewValidationError(MsgQuantityTooLarge)
	}
	return d.IntPart(), nil
}

// translate maps the first validator failure to a client-facing ValidationError.
func (v *inputValidator) translate(err error, operation string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("failed to validate product: %w", err)
	}
	fe := verrs[0]
	var msg string
	switch fe.Field() {
	case "Name":
		msg = MsgNameTooLong
		if fe.Tag() == "required" {
			msg = MsgRequired
			if operation == operationUpdate {
				msg = MsgCannotBeEmpty
			}
		}
	case "Description":
		msg = MsgDescTooLong
	case "Price":
		switch fe.Tag() {
		case "cents":
			msg = MsgPriceScale
		case "pricecap":
			msg = MsgPriceTooLarge
		default:
			msg = v.policy.Message()
		}
	case "Quantity":
		msg = MsgQuantityInvalid
		if fe.Tag() == "max" {
			msg = MsgQuantityTooLarge
		}
	default:
		msg = fmt.Sprintf("%s is invalid.", fe.Field())
	}
	return perrors.NewValidationError(msg)
}
