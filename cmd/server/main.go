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

	"voting_rooms/internal/config"
	"voting_rooms/internal/handler"
	"voting_rooms/internal/logging"
	"voting_rooms/internal/middleware"
	"voting_rooms/internal/repository"
	"voting_rooms/internal/service"
	"voting_rooms/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("Failed to load app config: %v", err)
	}

	logger := logging.New(appCfg.Environment, os.Stdout)
	ctx := context.Background()

	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		logger.Error(ctx, "failed to load DB config", "error", err)
		os.Exit(1)
	}

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, dbCfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// --- Migrations ---
	if err := config.Migrate(ctx, dbPool); err != nil {
		logger.Error(ctx, "failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "database schema ready")

	// --- Repositories ---
	userRepo := repository.NewUserRepository(dbPool)
	sessionRepo := repository.NewSessionRepository(dbPool)

	// --- Services ---
	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		utils.NewBcryptHasher(appCfg.BcryptCost),
		logger,
		service.AuthOptions{
			InitialAdminEmail: appCfg.InitialAdminEmail,
			StoreTimeout:      appCfg.StoreTimeout,
		},
	)

	// --- Handlers ---
	cookie := middleware.SessionCookie{Secure: appCfg.IsProduction()}
	authHandler := handler.NewAuthHandler(authService, cookie)
	healthHandler := handler.NewHealthHandler(dbPool)

	// --- Router ---
	if appCfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(appCfg.AllowedOrigin))

	sessionMW := middleware.SessionAuthMiddleware(authService, cookie)
	adminMW := middleware.AdminMiddleware()

	apiGroup := router.Group("/api")
	authHandler.RegisterAuthRoutes(apiGroup, sessionMW, adminMW)

	router.GET("/health", healthHandler.Health)

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + appCfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server starting", "port", appCfg.ServerPort, "env", appCfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server forced to shutdown", "error", err)
	}

	logger.Info(ctx, "server exiting")
}
