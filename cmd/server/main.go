package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/booktime/booktime-backend/config"
	"github.com/booktime/booktime-backend/internal/app/controller"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/internal/app/service"
	"github.com/booktime/booktime-backend/internal/db"
	"github.com/booktime/booktime-backend/internal/middleware"
	"github.com/booktime/booktime-backend/internal/router"
	"github.com/booktime/booktime-backend/internal/scheduler"
	"github.com/booktime/booktime-backend/internal/session"
	"github.com/booktime/booktime-backend/internal/storage"
	"github.com/booktime/booktime-backend/internal/websocket"
	"github.com/booktime/booktime-backend/pkg/logger"
	"github.com/booktime/booktime-backend/pkg/mailer"
	appredis "github.com/booktime/booktime-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	format := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		format = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      format,
		EnableColor: true,
	})

	logger.Info("Starting BookTime Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(db.GetDB()); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Sessions, merge locks and the logout blacklist go to Redis when it is
	// configured, otherwise they stay in this process.
	var (
		sessions  session.Store
		locker    service.Locker
		blacklist service.TokenBlacklist
	)
	if cfg.Redis.Addr != "" {
		client, err := appredis.Init(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.Session.TTL)
		locker = appredis.NewLocker(client)
		blacklist = appredis.NewBlacklist(client)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-process sessions and locks")
		sessions = session.NewMemoryStore(cfg.Session.TTL)
		locker = appredis.NewLocalLocker()
		blacklist = appredis.NewMemoryBlacklist()
	}

	var objects storage.ObjectStorage
	if cfg.S3.Bucket != "" {
		objects = storage.NewS3Storage(cfg.S3)
	} else {
		objects = storage.NewLocalStorage(cfg.Media)
	}

	mail := mailer.New(cfg.Mail)

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize repositories
	gdb := db.GetDB()
	userRepo := repository.NewUserRepository(gdb)
	addressRepo := repository.NewAddressRepository(gdb)
	productRepo := repository.NewProductRepository(gdb)
	tagRepo := repository.NewTagRepository(gdb)
	imageRepo := repository.NewProductImageRepository(gdb)
	basketRepo := repository.NewBasketRepository(gdb)
	orderRepo := repository.NewOrderRepository(gdb)
	reportRepo := repository.NewReportRepository(gdb)

	// Initialize services
	basketService := service.NewBasketService(gdb, basketRepo, orderRepo, locker, hub)
	authService := service.NewAuthService(
		userRepo,
		basketService,
		mail,
		blacklist,
		cfg.Mail.From,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	catalogService := service.NewCatalogService(productRepo, tagRepo)
	imageService := service.NewImageService(productRepo, imageRepo, objects)
	addressService := service.NewAddressService(addressRepo)
	orderService := service.NewOrderService(orderRepo)
	contactService := service.NewContactService(mail, cfg.Mail.From, cfg.Mail.CustomerService)
	adminService := service.NewAdminService(gdb, orderRepo, hub)
	reportService := service.NewReportService(reportRepo)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(catalogService)
	imageController := controller.NewImageController(imageService)
	basketController := controller.NewBasketController(basketService)
	orderController := controller.NewOrderController(orderService)
	addressController := controller.NewAddressController(addressService)
	contactController := controller.NewContactController(contactService)
	adminController := controller.NewAdminController(adminService)
	reportController := controller.NewReportController(reportService)
	liveController := controller.NewLiveController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)
	sessionMiddleware := middleware.NewSessionMiddleware(
		sessions,
		cfg.Session.CookieName,
		cfg.Session.TTL,
		cfg.Server.Environment == "production",
	)

	basketScheduler := scheduler.NewBasketScheduler(
		basketService,
		cfg.Scheduler.BasketPurgeSpec,
		cfg.Scheduler.AbandonedBasketAfter,
	)
	if err := basketScheduler.Start(); err != nil {
		logger.Fatal("Failed to start basket scheduler", err)
	}
	defer basketScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		imageController,
		basketController,
		orderController,
		addressController,
		contactController,
		adminController,
		reportController,
		liveController,
		authMiddleware,
		sessionMiddleware,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}
