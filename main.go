package main

import (
	"context"
	"log"
	"net/http"

	"cart-server/config"
	"cart-server/database"
	"cart-server/handlers"
	"cart-server/repository"
	"cart-server/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Connect to database
	db, err := database.Connect(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Initialize tables
	if err := db.InitializeTables(); err != nil {
		log.Fatal("Failed to initialize tables:", err)
	}

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Cart Server is running",
		})
	})

	// Wire repositories and services
	cartRepo := repository.NewPostgresCartRepository(db.DB)
	productRepo := repository.NewPostgresProductRepository(db.DB)
	cartService := services.NewCartService(cartRepo, productRepo)

	handlers.InitializeHandlers(cartService, productRepo, config.AppConfig.SessionSecret)
	handlers.RegisterRoutes(router)

	// Start the abandonment sweep alongside request handling
	sweeper := services.NewAbandonmentSweeper(cartRepo, config.AppConfig.SweepInterval)
	go sweeper.Run(context.Background())

	// Add CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Start server
	log.Printf("Starting Cart Server on 0.0.0.0:%s", config.AppConfig.ServerPort)
	log.Fatal(http.ListenAndServe("0.0.0.0:"+config.AppConfig.ServerPort, c.Handler(router)))
}
