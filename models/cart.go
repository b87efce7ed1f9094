package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cart struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	TotalPrice        decimal.Decimal `json:"total_price" db:"total_price"`
	Abandoned         bool            `json:"abandoned" db:"abandoned"`
	LastInteractionAt *time.Time      `json:"last_interaction_at" db:"last_interaction_at"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

func (Cart) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS carts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		total_price NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (total_price >= 0),
		abandoned BOOLEAN NOT NULL DEFAULT false,
		last_interaction_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}

// CartSummary is the client-facing view of a cart.
type CartSummary struct {
	ID         uuid.UUID        `json:"id"`
	Products   []ProductSummary `json:"products"`
	TotalPrice float64          `json:"total_price"`
}

type ProductSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	TotalPrice float64   `json:"total_price"`
}

// Summarize builds the read-only summary of the cart from its current
// lines. Unit prices are the live catalog prices carried on the lines.
func (c *Cart) Summarize(lines []CartLine) CartSummary {
	products := make([]ProductSummary, 0, len(lines))
	for _, line := range lines {
		products = append(products, ProductSummary{
			ID:         line.ProductID,
			Name:       line.ProductName,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice.InexactFloat64(),
			TotalPrice: line.TotalPrice().InexactFloat64(),
		})
	}
	return CartSummary{
		ID:         c.ID,
		Products:   products,
		TotalPrice: c.TotalPrice.InexactFloat64(),
	}
}
