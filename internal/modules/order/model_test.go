package order

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecalculateTotals(t *testing.T) {
	o := &Order{
		Items: []*OrderItem{
			{UnitPrice: 19.99, Quantity: 3},
			{UnitPrice: 5.5, Quantity: 2},
		},
		ShippingCharges: 49,
		Tax:             11.36,
	}
	o.RecalculateTotals()

	assert.Equal(t, 59.97, o.Items[0].LineSubtotal)
	assert.Equal(t, 11.0, o.Items[1].LineSubtotal)
	assert.Equal(t, 70.97, o.Subtotal)
	assert.Equal(t, 131.33, o.Total)
}

func TestRecalculateTotals_NeverNegative(t *testing.T) {
	o := &Order{
		Items:    []*OrderItem{{UnitPrice: 10, Quantity: 1}},
		Discount: 100,
	}
	o.RecalculateTotals()
	assert.Equal(t, 0.0, o.Total)
}

func TestGenerateOrderNumber(t *testing.T) {
	n := generateOrderNumber()
	parts := strings.Split(n, "-")
	assert.Len(t, parts, 3)
	assert.Equal(t, "ORD", parts[0])
	assert.Len(t, parts[1], 8)
	assert.Len(t, parts[2], 4)
	assert.NotEqual(t, n, generateOrderNumber())
}
