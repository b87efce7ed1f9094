package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches all API routes to the router.
func RegisterRoutes(router *gin.Engine) {
	// Cart routes (session-bound)
	router.GET("/cart", GetCart)
	router.POST("/cart", CreateCart)
	router.POST("/cart/add_item", AddItem)
	router.DELETE("/cart/:product_id", RemoveItem)

	// API routes
	api := router.Group("/api/v1")
	{
		// Product catalog routes
		productRoutes := api.Group("/products")
		{
			productRoutes.GET("/", GetProducts)
			productRoutes.GET("/:id", GetProduct)
			productRoutes.POST("/", CreateProduct)
			productRoutes.PUT("/:id", UpdateProduct)
			productRoutes.DELETE("/:id", DeleteProduct)
		}
	}
}
