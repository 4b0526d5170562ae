package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"modelforge/internal/config"
	"modelforge/internal/handlers"
	"modelforge/internal/models"
	"modelforge/internal/repositories"
	"modelforge/internal/services"
	"modelforge/pkg/events"
	"modelforge/pkg/storage"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// NewApp wires repositories, services and handlers into a ready-to-listen
// Fiber app. mqClient may be nil; job events are then skipped.
func NewApp(cfg *config.Config, db *gorm.DB, mqClient *events.Client) (*fiber.App, error) {
	fileStore, err := storage.NewFileStore(cfg.UploadDir, cfg.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	// --- Sessions ---
	// HTTP-only lax cookie; secure flag only outside development.
	sessions := session.New(session.Config{
		Expiration:     cfg.SessionExpiration,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Env == "production",
	})

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	projectRepo := repositories.NewGORMProjectRepository(db)
	imageRepo := repositories.NewGORMImageRepository(db)

	// --- Initialize Services ---
	authService := services.NewAuthService(userRepo)
	projectService := services.NewProjectService(projectRepo, imageRepo, fileStore, services.ParseDeleteMode(cfg.ProjectDeleteMode))
	uploadService := services.NewUploadService(fileStore, userRepo, projectRepo, imageRepo, services.EchoPreviewGenerator{}, mqClient)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService, sessions)
	projectHandler := handlers.NewProjectHandler(projectService, sessions)
	uploadHandler := handlers.NewUploadHandler(uploadService, sessions)

	// --- Initialize Fiber App ---
	// The body limit must admit a full image batch.
	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.MaxFileSize)*services.MaxFilesPerBatch + (1 << 20),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 15 * time.Minute,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowCredentials: true,
	}))

	// Uploaded files are served back verbatim under their generated names.
	app.Static("/uploads", cfg.UploadDir)

	// --- API Routes ---
	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	projectHandler.RegisterRoutes(api)
	uploadHandler.RegisterRoutes(api)

	// --- Health Check Endpoint ---
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "OK",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   Version,
		})
	})

	// JSON 404 for everything unrouted.
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "RouteNotFound",
			"message": "Route not found",
		})
	})

	return app, nil
}

// OpenDatabase connects GORM using the configured driver and migrates the
// schema. TranslateError makes unique-index violations detectable as
// gorm.ErrDuplicatedKey across drivers.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}

	var db *gorm.DB
	var err error
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
	default:
		db, err = gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.ProjectImage{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func main() {
	cfg := config.Load()

	db, err := OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// --- Initialize RabbitMQ Client (optional) ---
	var mqClient *events.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = events.NewClient(events.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	}

	app, err := NewApp(cfg, db, mqClient)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	// --- Start model job consumer in a goroutine ---
	// The shipped consumer only logs; a real reconstruction worker would
	// replace this handler.
	if mqClient != nil {
		go func() {
			log.Println("Starting model job consumer...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received model job (Tag: %d, Type: %s): %s", msg.DeliveryTag, msg.Type, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeModelJobs(messageHandler); consumerErr != nil {
				log.Printf("Failed to start model job consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.Port)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.Port); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
