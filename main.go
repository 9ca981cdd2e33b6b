package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tennis-ledger-api/config"
	_ "tennis-ledger-api/docs" // Swagger docs
	"tennis-ledger-api/packages/auth"
	"tennis-ledger-api/packages/core"
	"tennis-ledger-api/packages/core/events"
	"tennis-ledger-api/packages/core/store/gormstore"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// @title           Tennis Ledger API
// @version         1.0
// @description     Tennis players, head-to-head matches and the balances wagered on them.

// @license.name  MIT
// @license.url   http://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}
	gin.SetMode(cfg.GinMode)

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer config.CloseDatabase(db)

	publisher := newPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("Error closing event publisher: %v", err)
		}
	}()

	coreModule := core.NewModule(gormstore.NewGormStore(db), publisher, cfg.ReconcileSchedule)
	authModule := auth.NewModule(cfg.JWTSecret)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/health", healthHandler(db))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	coreModule.SetupRoutes(r, authModule.AdminOnly()...)

	if err := coreModule.StartScheduler(); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}
	defer coreModule.StopScheduler()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}

func newPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled() {
		log.Println("KAFKA_BROKERS not set, logging events instead")
		return events.NewLogPublisher()
	}
	log.Printf("Publishing events to Kafka topic %s", cfg.KafkaTopic)
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Message  string `json:"message" example:"Server is running"`
	Database string `json:"database" example:"connected"`
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "connected"
		code := http.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			status = "unavailable"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, HealthResponse{
			Message:  "Server is running",
			Database: status,
		})
	}
}
