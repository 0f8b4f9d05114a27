package api

import (
	"net/http"

	"github.com/brainforcegit/vin-bot/internal/api/credit"
	"github.com/brainforcegit/vin-bot/internal/api/payment"
	"github.com/brainforcegit/vin-bot/internal/api/vin"
	"github.com/brainforcegit/vin-bot/internal/middleware"

	"github.com/gin-contrib/cors" // Import the cors middleware
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	Lookups      vin.Lookups
	Payments     payment.Payments
	Credits      credit.Credits
	AllowOrigins []string
	Log          *zap.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger(deps.Log), gin.Recovery())

	// Configure CORS
	router.Use(cors.New(corsConfig(deps.AllowOrigins)))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "CarFact VIN API is running"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	vin.RegisterRoutes(router, vin.NewHandler(deps.Lookups))
	payment.RegisterRoutes(router, payment.NewHandler(deps.Payments))
	credit.RegisterRoutes(router, credit.NewHandler(deps.Credits))

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Stripe-Signature", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        300, // Maximum age for preflight requests
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
