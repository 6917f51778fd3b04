package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/zloomo02/LMS/backend/config"
	"github.com/zloomo02/LMS/backend/database"
	"github.com/zloomo02/LMS/backend/middleware"
	"github.com/zloomo02/LMS/backend/routes"
	"github.com/zloomo02/LMS/backend/services"
	"github.com/zloomo02/LMS/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database and run migrations before accepting traffic
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Error running migrations: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// External service adapters
	gateway := services.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.Currency)
	verifier, err := services.NewSvixVerifier(cfg.ClerkWebhookSecret)
	if err != nil {
		log.Fatalf("Error initializing webhook verifier: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Stripe-Signature, Svix-Id, Svix-Timestamp, Svix-Signature",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, logger, gateway, verifier)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
