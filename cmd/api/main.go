package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/checkoutpos/billing-api/internal/application/service"
	"github.com/checkoutpos/billing-api/internal/config"
	"github.com/checkoutpos/billing-api/internal/infrastructure/database"
	"github.com/checkoutpos/billing-api/internal/infrastructure/repository"
	"github.com/checkoutpos/billing-api/internal/presentation/http/handler"
	"github.com/checkoutpos/billing-api/internal/presentation/http/routes"
	"github.com/checkoutpos/billing-api/pkg/email"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed default data
	if err := database.SeedDefaultData(db); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	billRepo := repository.NewBillRepository(db)
	denominationRepo := repository.NewDenominationRepository(db)

	// Initialize email service
	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
	})

	// Initialize services
	billingService := service.NewBillingService(
		billRepo,
		productRepo,
		customerRepo,
		denominationRepo,
		emailService,
		cfg.Billing.CommitRetries,
	)
	productService := service.NewProductService(productRepo)
	drawerService := service.NewDrawerService(denominationRepo)

	// Initialize handlers
	handlers := &routes.Handlers{
		Bill:    handler.NewBillHandler(billingService),
		Product: handler.NewProductHandler(productService),
		Drawer:  handler.NewDrawerHandler(drawerService),
	}

	// Setup router
	router := routes.Setup(handlers, cfg)

	// Start server
	port := cfg.App.Port
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	log.Printf("Starting %s on port %s (env: %s)", cfg.App.Name, port, cfg.App.Env)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
