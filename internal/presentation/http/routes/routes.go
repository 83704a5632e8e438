package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/checkoutpos/billing-api/internal/config"
	"github.com/checkoutpos/billing-api/internal/presentation/http/handler"
	"github.com/checkoutpos/billing-api/internal/presentation/http/middleware"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Bill    *handler.BillHandler
	Product *handler.ProductHandler
	Drawer  *handler.DrawerHandler
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": cfg.App.Name,
		})
	})

	rateLimiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.RateLimit.Requests) / float64(cfg.RateLimit.Duration),
		BurstSize:         cfg.RateLimit.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(rateLimiter.Middleware())
	{
		bills := v1.Group("/bills")
		{
			bills.POST("", h.Bill.Create)
			bills.GET("", h.Bill.List)
			bills.GET("/:id", h.Bill.Get)
			bills.GET("/:id/preview", h.Bill.Preview)
		}

		products := v1.Group("/products")
		{
			products.POST("", h.Product.Create)
			products.GET("", h.Product.List)
			products.GET("/:code", h.Product.Get)
		}

		drawer := v1.Group("/drawer")
		{
			drawer.GET("", h.Drawer.List)
			drawer.PUT("", h.Drawer.Replace)
		}
	}

	return router
}
