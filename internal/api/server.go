package api

import (
	"log"

	"github.com/SundayYogurt/equipment_service/config"
	"github.com/SundayYogurt/equipment_service/infra/queue"
	"github.com/SundayYogurt/equipment_service/internal/api/rest/handlers"
	"github.com/SundayYogurt/equipment_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/equipment_service/internal/audit"
	"github.com/SundayYogurt/equipment_service/internal/domain"
	"github.com/SundayYogurt/equipment_service/internal/helper"
	"github.com/SundayYogurt/equipment_service/internal/lease"
	"github.com/SundayYogurt/equipment_service/internal/reconcile"
	"github.com/SundayYogurt/equipment_service/internal/registry"
	"github.com/SundayYogurt/equipment_service/internal/repository"
	"github.com/SundayYogurt/equipment_service/internal/services"
	"github.com/SundayYogurt/equipment_service/pkg/cloudinary"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func StartServer(cfg config.Config) {
	app := fiber.New()

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Println("database connected")

	// ---------- MIGRATION (guarded by advisory lock) ----------
	const migrateLockID int64 = 20260601

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		log.Fatalf("migration lock error: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.Tool{},
		&domain.AuditLog{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("migration successful")

	if err := db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error; err != nil {
		log.Printf("migration unlock error: %v", err)
	}

	// ---------- Infra ----------
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)
	cld, err := cloudinary.New()
	if err != nil {
		log.Fatalf("cloudinary init error: %v", err)
	}
	up := cloudinary.NewCloudinaryUploader(cld)

	authHelper := helper.SetupAuth(cfg.AccessSecret)

	// ---------- Repositories ----------
	toolRepo := repository.NewToolRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// ---------- Core state (owned here, injected everywhere) ----------
	store := registry.NewStore()
	trail := audit.NewTrail()
	leases := lease.NewManager(lease.DefaultTTL)
	reconciler := reconcile.NewReconciler(toolRepo, store)
	reconciler.WarmStore()

	// ---------- Service ----------
	scanSvc := services.NewScanService(
		store,
		trail,
		leases,
		reconciler,
		auditRepo,
		kafkaProducer,
		up,
	)

	// ---------- Routes ----------
	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.Status(200).JSON(fiber.Map{
			"message": "Healthy!",
		})
	})

	authHandler := handlers.NewAuthHandler(authHelper)
	authHandler.SetupRoutes(app)

	app.Use(middleware.AuthMiddleware(authHelper))

	scanHandler := handlers.NewScanHandler(scanSvc)
	scanHandler.SetupRoutes(app)

	photoHandler := handlers.NewPhotoHandler(scanSvc)
	photoHandler.SetupRoutes(app)

	log.Printf("starting server on :%s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
