package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCartLineTotalPrice(t *testing.T) {
	line := CartLine{
		ProductID:   uuid.New(),
		ProductName: "Test Product",
		UnitPrice:   decimal.NewFromFloat(10.0),
		Quantity:    3,
	}

	assert.True(t, line.TotalPrice().Equal(decimal.NewFromFloat(30.0)))
}

func TestSummarize(t *testing.T) {
	cart := &Cart{
		ID:         uuid.New(),
		TotalPrice: decimal.NewFromFloat(45.0),
	}
	productID := uuid.New()
	lines := []CartLine{
		{
			ProductID:   productID,
			ProductName: "Test Product",
			UnitPrice:   decimal.NewFromFloat(15.0),
			Quantity:    3,
		},
	}

	summary := cart.Summarize(lines)

	assert.Equal(t, cart.ID, summary.ID)
	assert.Equal(t, 45.0, summary.TotalPrice)
	if assert.Len(t, summary.Products, 1) {
		product := summary.Products[0]
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, "Test Product", product.Name)
		assert.Equal(t, 3, product.Quantity)
		assert.Equal(t, 15.0, product.UnitPrice)
		assert.Equal(t, 45.0, product.TotalPrice)
	}
}

func TestSummarizeEmptyCart(t *testing.T) {
	cart := &Cart{ID: uuid.New(), TotalPrice: decimal.Zero}

	summary := cart.Summarize(nil)

	assert.NotNil(t, summary.Products)
	assert.Empty(t, summary.Products)
	assert.Equal(t, 0.0, summary.TotalPrice)
}
