package validator_test

import (
	"testing"

	"storefront/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City    string `json:"city" validate:"required"`
	Country string `json:"country" validate:"required,len=2"`
}

type request struct {
	Email    string   `json:"email" validate:"required,email"`
	Quantity int64    `json:"quantity" validate:"gte=1"`
	Ship     address  `json:"shipping_address"`
	Bill     *address `json:"billing_address" validate:"omitempty"`
}

func TestValidate_OK(t *testing.T) {
	v := validator.New()
	err := v.Validate(&request{
		Email:    "hunter@example.com",
		Quantity: 1,
		Ship:     address{City: "Bozeman", Country: "US"},
	})
	assert.NoError(t, err)
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	v := validator.New()
	err := v.Validate(&request{
		Email:    "not-an-email",
		Quantity: 0,
		Ship:     address{City: "Bozeman", Country: "USA"},
		Bill:     &address{Country: "US"},
	})

	var ve *validator.Error
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []validator.FieldError{
		{Field: "email", Rule: "email"},
		{Field: "quantity", Rule: "gte"},
		{Field: "shipping_address.country", Rule: "len"},
		{Field: "billing_address.city", Rule: "required"},
	}, ve.Fields)
	assert.Contains(t, err.Error(), "email:email")
}
