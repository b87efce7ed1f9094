package services

import (
	"context"
	"errors"
	"time"

	"cart-server/models"
	"cart-server/repository"

	"github.com/google/uuid"
)

var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// CartService holds the cart business rules and delegates persistence to
// the repositories.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

func (s *CartService) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return s.products.GetByID(ctx, productID)
}

func (s *CartService) GetCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	return s.carts.GetCart(ctx, cartID)
}

// CreateCart creates a new empty cart with total 0. The cart is not touched
// on creation; only item mutations reset the abandonment clock.
func (s *CartService) CreateCart(ctx context.Context) (*models.Cart, error) {
	return s.carts.CreateCart(ctx)
}

// AddItem adds the product to the cart, incrementing the quantity when the
// product is already present, then recomputes the total and marks the cart
// as recently active.
func (s *CartService) AddItem(ctx context.Context, cartID uuid.UUID, product *models.Product, quantity int) (*models.CartSummary, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if err := s.carts.AddItem(ctx, cartID, product.ID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.TouchInteraction(ctx, cartID, time.Now()); err != nil {
		return nil, err
	}

	return s.GetSummary(ctx, cartID)
}

// RemoveItem removes the product's item from the cart. A product that is
// not in the cart surfaces as repository.ErrItemNotFound and leaves the
// cart untouched.
func (s *CartService) RemoveItem(ctx context.Context, cartID uuid.UUID, product *models.Product) (*models.CartSummary, error) {
	if _, err := s.carts.RemoveItem(ctx, cartID, product.ID); err != nil {
		return nil, err
	}
	if err := s.carts.TouchInteraction(ctx, cartID, time.Now()); err != nil {
		return nil, err
	}

	return s.GetSummary(ctx, cartID)
}

// GetSummary is a pure read; it never updates last_interaction_at.
func (s *CartService) GetSummary(ctx context.Context, cartID uuid.UUID) (*models.CartSummary, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	lines, err := s.carts.GetLines(ctx, cartID)
	if err != nil {
		return nil, err
	}
	summary := cart.Summarize(lines)
	return &summary, nil
}
