package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookkeys/bookkeys/badwords"
	"github.com/bookkeys/bookkeys/config"
	"github.com/bookkeys/bookkeys/config/db"
	"github.com/bookkeys/bookkeys/logger"
	middleware "github.com/bookkeys/bookkeys/middlewares"
	"github.com/bookkeys/bookkeys/middlewares/cors"
	logger_middleware "github.com/bookkeys/bookkeys/middlewares/logger"
	"github.com/bookkeys/bookkeys/models/request_models"
	"github.com/bookkeys/bookkeys/routes"
)

func init() {
	// Initialize loggers before using
	logger.InitLoggers()

	config.LoadEnv()
	db.Connect()
}

func main() {
	defer db.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	// Create the request tables when absent; tolerate a cold database.
	store := request_models.NewStore(db.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.ErrorLogger.Errorf("schema check failed (will rely on migrations): %v", err)
	}
	cancel()

	// Optional spam screen for visitor-supplied text.
	if err := badwords.LoadBadWords("badwords/en.txt"); err != nil {
		logger.InfoLogger.Warnf("bad words list not loaded: %v", err)
	}

	r := gin.Default()

	// Apply CORS Middleware
	r.Use(cors.CorsMiddleware())

	// Apply Logger Middleware
	r.Use(logger_middleware.GinLogger())

	r.Use(middleware.MetricsMiddleware())

	routes.RegisterBookingRoutes(r)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "ok from booking broker",
		})
	})

	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})

	logger.InfoLogger.Info("Server is started")

	log.Printf("Starting server on port %s...", port)

	r.Run(":" + port)
}
