package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/quickserve/quickserve-backend/database"
	"github.com/quickserve/quickserve-backend/internal/auth"
	"github.com/quickserve/quickserve-backend/internal/models"
	"github.com/quickserve/quickserve-backend/internal/routes"
	"github.com/quickserve/quickserve-backend/internal/services"
	"github.com/quickserve/quickserve-backend/internal/storage"
	"github.com/quickserve/quickserve-backend/pkg/aadhaarclient"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}

	// Initialize storage
	var store storage.Store

	// Check if we should use memory store (for testing)
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		// Connect to database
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		// Run migrations
		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Account{},
			&models.OTP{},
			&models.SessionPointer{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		// Use database store
		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}

	// SMS transport: Twilio when configured, log-only otherwise
	var sender services.CodeSender
	if twilioSender, err := services.NewTwilioSender(); err == nil {
		sender = twilioSender
		log.Println("✅ Twilio SMS sender initialized")
	} else {
		sender = services.LogSender{}
		log.Println("⚠️  Twilio credentials not found - OTP codes will be logged")
	}

	// Aadhaar registry: real endpoint when configured, sandbox otherwise
	var registry aadhaarclient.Client
	if baseURL := os.Getenv("AADHAAR_REGISTRY_URL"); baseURL != "" {
		registry = aadhaarclient.NewHTTPClient(baseURL, os.Getenv("AADHAAR_REGISTRY_API_KEY"))
		log.Println("✅ Aadhaar registry client initialized")
	} else {
		registry = &aadhaarclient.Sandbox{Delay: 2 * time.Second}
		log.Println("⚠️  AADHAAR_REGISTRY_URL not set - using sandbox verification")
	}

	// Session tokens
	tokens, err := auth.NewTokenIssuer()
	if err != nil {
		log.Fatal("Failed to initialize token issuer:", err)
	}

	// Initialize all services
	otpService := services.NewOTPService(store, sender)
	if ttl := os.Getenv("OTP_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			otpService.SetTTL(d)
		} else {
			log.Printf("⚠️  Ignoring invalid OTP_TTL %q", ttl)
		}
	}
	kycService := services.NewKYCService(registry)
	directory := services.NewUserDirectory(store)
	flowManager := services.NewFlowManager(otpService, kycService, directory)

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "QuickServe Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Root endpoint with service status
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     "QuickServe Backend API",
			"version":     "1.0.0",
			"status":      "healthy",
			"environment": getEnvironment(),
			"storage":     getStorageType(),
			"services": fiber.Map{
				"onboarding_flows": flowManager.ActiveFlows(),
				"sms":              getSMSStatus(sender),
			},
		})
	})

	// Setup routes
	routes.SetupRoutes(app, flowManager, directory, tokens)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping flow manager...")
		flowManager.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 QuickServe Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Printf("📱 SMS: %s", getSMSStatus(sender))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getEnvironment() string {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func getSMSStatus(sender services.CodeSender) string {
	if _, ok := sender.(*services.TwilioSender); ok {
		return "Twilio"
	}
	return "Log only (dev)"
}
