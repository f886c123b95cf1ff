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

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"docuflow/approval-portal/approval-portal-backend/internal/auth"
	"docuflow/approval-portal/approval-portal-backend/internal/config"
	"docuflow/approval-portal/approval-portal-backend/internal/departments"
	"docuflow/approval-portal/approval-portal-backend/internal/documents"
	"docuflow/approval-portal/approval-portal-backend/internal/migrations"
	"docuflow/approval-portal/approval-portal-backend/internal/notifications"
	"docuflow/approval-portal/approval-portal-backend/internal/notifications/websocket"
	"docuflow/approval-portal/approval-portal-backend/internal/roles"
	"docuflow/approval-portal/approval-portal-backend/internal/stats"
	"docuflow/approval-portal/approval-portal-backend/internal/users"
	"docuflow/approval-portal/approval-portal-backend/internal/workflows"
	"docuflow/approval-portal/approval-portal-backend/pkg/pdf"
)

func main() {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	if err := runMigrations(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	usersRepo := users.NewRepository(db)
	rolesRepo := roles.NewRepository(db)
	depsRepo := departments.NewRepository(db)
	docsRepo := documents.NewRepository(db)
	workflowsRepo := workflows.NewRepository(db)
	notificationsRepo := notifications.NewRepository(db)
	statsRepo := stats.NewRepository(db)

	// Services
	usersService := users.NewService(usersRepo)
	rolesService := roles.NewService(rolesRepo)
	depsService := departments.NewService(depsRepo)
	docsService := documents.NewService(docsRepo, logger)
	authService := auth.NewService(usersService, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	statsService := stats.NewService(statsRepo)

	wsManager := websocket.NewManager(logger)
	defer wsManager.Close()
	notificationsService := notifications.NewService(notificationsRepo, wsManager, logger)

	engine := workflows.NewEngine(
		workflowsRepo,
		docsService,
		usersService,
		workflows.Policy{
			MinRejectionReasonLength:     cfg.Approval.MinRejectionReasonLength,
			RequireStartedBeforeComplete: cfg.Approval.RequireStartedBeforeComplete,
		},
		logger,
		notifications.NewSubscriber(notificationsService, logger),
		documents.NewStatusSync(docsRepo, logger),
	)

	overdueScanner := notifications.NewOverdueScanner(workflowsRepo, notificationsService, cfg.Approval.OverdueScanSpec, logger)
	if err := overdueScanner.Start(); err != nil {
		logger.Fatal("failed to start overdue scanner", zap.Error(err))
	}
	defer overdueScanner.Stop()

	// Handlers
	authHandler := auth.NewHandler(authService)
	usersHandler := users.NewHandler(usersService)
	rolesHandler := roles.NewHandler(rolesService)
	depsHandler := departments.NewHandler(depsService)
	docsHandler := documents.NewHandler(docsService)
	workflowsHandler := workflows.NewHandler(engine, pdf.NewSheetGenerator(), logger)
	notificationsHandler := notifications.NewHandler(notificationsService, wsManager)
	statsHandler := stats.NewHandler(statsService)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	public := router.Group("/api/v1")
	authHandler.RegisterPublicRoutes(public)

	api := router.Group("/api/v1")
	api.Use(auth.Middleware(authService))
	{
		authHandler.RegisterRoutes(api)
		usersHandler.RegisterRoutes(api)
		rolesHandler.RegisterRoutes(api)
		depsHandler.RegisterRoutes(api)
		docsHandler.RegisterRoutes(api)
		workflowsHandler.RegisterRoutes(api)
		notificationsHandler.RegisterRoutes(api)
		statsHandler.RegisterRoutes(api)
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exiting")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil && level != "" {
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func runMigrations(db *sqlx.DB) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
