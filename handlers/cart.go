package handlers

import (
	"errors"
	"net/http"

	"cart-server/models"
	"cart-server/repository"
	"cart-server/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	cartService   *services.CartService
	products      repository.ProductRepository
	sessionSecret string
)

// InitializeHandlers wires the handler package to its dependencies.
func InitializeHandlers(svc *services.CartService, productRepo repository.ProductRepository, secret string) {
	cartService = svc
	products = productRepo
	sessionSecret = secret
}

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// GetCart handles GET /cart. Viewing never updates last_interaction_at.
func GetCart(c *gin.Context) {
	cartID, ok := cartIDFromSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}

	summary, err := cartService.GetSummary(c.Request.Context(), cartID)
	if errors.Is(err, repository.ErrCartNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// CreateCart handles POST /cart: resolves or lazily creates the session's
// cart, then adds the product. Validation failures never create a cart.
func CreateCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, ok := findProduct(c, req.ProductID)
	if !ok {
		return
	}
	if !validateQuantity(c, req.Quantity) {
		return
	}

	var cart *models.Cart
	if cartID, bound := cartIDFromSession(c); bound {
		existing, err := cartService.GetCart(c.Request.Context(), cartID)
		if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		cart = existing
	}
	if cart == nil {
		created, err := cartService.CreateCart(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cart"})
			return
		}
		cart = created
		bindCartToSession(c, cart.ID)
	}

	summary, err := cartService.AddItem(c.Request.Context(), cart.ID, product, req.Quantity)
	if err != nil {
		renderAddItemError(c, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// AddItem handles POST /cart/add_item. Unlike POST /cart it never creates a
// cart; a session without one is not found.
func AddItem(c *gin.Context) {
	cartID, ok := cartIDFromSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, found := findProduct(c, req.ProductID)
	if !found {
		return
	}
	if !validateQuantity(c, req.Quantity) {
		return
	}

	summary, err := cartService.AddItem(c.Request.Context(), cartID, product, req.Quantity)
	if err != nil {
		renderAddItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RemoveItem handles DELETE /cart/:product_id.
func RemoveItem(c *gin.Context) {
	cartID, ok := cartIDFromSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}

	product, found := findProduct(c, c.Param("product_id"))
	if !found {
		return
	}

	summary, err := cartService.RemoveItem(c.Request.Context(), cartID, product)
	switch {
	case errors.Is(err, repository.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found in cart"})
		return
	case errors.Is(err, repository.ErrCartNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove item from cart"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// findProduct resolves the product id or renders the 404 itself.
func findProduct(c *gin.Context, id string) (*models.Product, bool) {
	productID, err := uuid.Parse(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return nil, false
	}

	product, err := cartService.FindProduct(c.Request.Context(), productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return nil, false
	}
	return product, true
}

// validateQuantity rejects non-positive quantities or renders the 422
// itself.
func validateQuantity(c *gin.Context, quantity int) bool {
	if quantity <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Quantity must be greater than 0"})
		return false
	}
	return true
}

func renderAddItemError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidQuantity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Quantity must be greater than 0"})
	case errors.Is(err, repository.ErrCartNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
	case errors.Is(err, repository.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
	}
}
