package repository

import (
	"context"
	"errors"
	"time"

	"cart-server/models"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("product not found in cart")
	ErrProductInUse    = errors.New("product is referenced by a cart")
)

// ProductRepository defines the interface for catalog data operations
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CartRepository defines the interface for cart data operations.
// AddItem and RemoveItem are single transactional units: the item
// upsert/delete and the cart total recompute commit together.
type CartRepository interface {
	CreateCart(ctx context.Context) (*models.Cart, error)
	GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	GetLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error)
	TouchInteraction(ctx context.Context, cartID uuid.UUID, at time.Time) error

	// Sweep support. MarkAbandoned is a bulk update over every active cart
	// whose last interaction is at or before idleSince; carts never touched
	// (NULL last_interaction_at) are not selected.
	MarkAbandoned(ctx context.Context, idleSince time.Time) (int64, error)
	ListRemovableAbandoned(ctx context.Context, abandonedSince time.Time) ([]uuid.UUID, error)
	DeleteCart(ctx context.Context, id uuid.UUID) error
}
