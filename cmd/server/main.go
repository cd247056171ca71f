package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/handler"
	"lms_backend/internal/logging"
	"lms_backend/internal/mailer"
	"lms_backend/internal/middleware"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	if err := config.AutoMigrate(ctx, dbPool); err != nil {
		logger.Fatalf("Failed to auto-migrate database: %v", err)
	}

	// --- Redis (optional) ---
	rdb, err := config.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}
	var ledger repository.ResetTokenLedger
	if rdb != nil {
		defer rdb.Close()
		ledger = repository.NewRedisResetLedger(rdb)
		logger.WithField("addr", cfg.Redis.Addr).Info("reset tokens tracked in redis")
	} else {
		ledger = repository.NewPostgresResetLedger(dbPool)
	}

	// --- Mail ---
	var mail mailer.Mailer
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	} else {
		logger.Warn("SMTP_HOST not set, password reset mails will only be logged")
		mail = mailer.NewLogMailer(logger)
	}

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	resetSigner := utils.NewResetSigner(cfg.JWTSecret)

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)
	categoryRepo := repository.NewCategoryRepository(dbPool)
	courseRepo := repository.NewCourseRepository(dbPool)
	enrollmentRepo := repository.NewEnrollmentRepository(dbPool)
	blacklist := repository.NewTokenBlacklist(dbPool)

	// --- Initialize Services ---
	authService := service.NewAuthService(service.AuthDeps{
		Users:     userRepo,
		Blacklist: blacklist,
		Ledger:    ledger,
		JWT:       jwtUtil,
		Signer:    resetSigner,
		Mailer:    mail,
		Log:       logger,
	}, service.AuthConfig{
		DefaultFromAddress: cfg.DefaultFromAddress,
		ResetTokenMaxAge:   cfg.ResetTokenMaxAge,
		PublicBaseURL:      cfg.PublicBaseURL,
	})
	catalogService := service.NewCatalogService(categoryRepo, courseRepo, userRepo)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo)
	reportService := service.NewReportService(userRepo, courseRepo, enrollmentRepo)

	// --- Initialize Handlers ---
	if err := handler.RegisterValidators(); err != nil {
		logger.Fatalf("Failed to register validators: %v", err)
	}
	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authService, logger),
		Categories:  handler.NewCategoryHandler(catalogService, logger),
		Courses:     handler.NewCourseHandler(catalogService, logger),
		Enrollments: handler.NewEnrollmentHandler(enrollmentService, logger),
		Dashboard:   handler.NewDashboardHandler(reportService, logger),
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry)

	// --- Setup Gin Router ---
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), metrics.Middleware(), middleware.CORS())

	handler.RegisterRoutes(router, handlers, middleware.JWTAuthMiddleware(authService, logger))

	router.GET("/health", func(c *gin.Context) {
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})
	router.GET("/metrics", middleware.Handler(registry))

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exiting")
}
