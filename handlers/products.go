package handlers

import (
	"errors"
	"net/http"

	"cart-server/models"
	"cart-server/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price"`
}

func productJSON(p *models.Product) gin.H {
	return gin.H{
		"id":         p.ID,
		"name":       p.Name,
		"price":      p.Price.InexactFloat64(),
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
}

func GetProducts(c *gin.Context) {
	list, err := products.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, productJSON(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	product, err := products.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, productJSON(product))
}

func CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Price < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Price must be greater than or equal to 0"})
		return
	}

	product := &models.Product{
		ID:    uuid.New(),
		Name:  req.Name,
		Price: decimal.NewFromFloat(req.Price),
	}
	if err := products.Create(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, productJSON(product))
}

func UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Price < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Price must be greater than or equal to 0"})
		return
	}

	product := &models.Product{
		ID:    id,
		Name:  req.Name,
		Price: decimal.NewFromFloat(req.Price),
	}
	err = products.Update(c.Request.Context(), product)
	if errors.Is(err, repository.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, productJSON(product))
}

func DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	err = products.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if errors.Is(err, repository.ErrProductInUse) {
		c.JSON(http.StatusConflict, gin.H{"error": "Product is still in a cart"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
