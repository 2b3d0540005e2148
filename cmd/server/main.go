package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	gangsheetapp "github.com/unaytac-cmd/printnest-sub005/internal/application/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/cache"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/compositor"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/config"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/logger"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/orders"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/persistence"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/storage"
	"github.com/unaytac-cmd/printnest-sub005/internal/interfaces/http/handler"
	"github.com/unaytac-cmd/printnest-sub005/internal/interfaces/http/middleware"
	"github.com/unaytac-cmd/printnest-sub005/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting PrintNest Gangsheet Engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with zap-backed GORM logger
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis-backed live progress and cancellation flags
	progressStore, err := cache.NewRedisProgressStore(&cfg.Redis, cfg.Engine.ProgressTTL)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := progressStore.Close(); err != nil {
			log.Error("Error closing Redis connection", zap.Error(err))
		}
	}()
	log.Info("Redis connected successfully")

	// Object storage for rendered gang sheets
	artifactStorage, err := storage.NewS3ArtifactStorage(&cfg.Storage,
		storage.WithPresignExpiry(cfg.Storage.PresignExpiry),
		storage.WithLogger(log),
	)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	ensureCtx, ensureCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := artifactStorage.EnsureBucket(ensureCtx); err != nil {
		ensureCancel()
		log.Fatal("Failed to ensure storage bucket", zap.Error(err))
	}
	ensureCancel()
	log.Info("Object storage ready", zap.String("bucket", artifactStorage.GetBucket()))

	// Upstream order service client
	designProvider, err := orders.NewClient(&cfg.Orders, orders.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize order service client", zap.Error(err))
	}

	// Roll compositor with bounded-concurrency image fetching
	fetcher := compositor.NewImageFetcher(cfg.Engine.FetchWorkers, cfg.Engine.FetchTimeout,
		compositor.WithFetcherLogger(log))
	rollCompositor := compositor.NewCompositor(fetcher, compositor.WithLogger(log))

	// Repositories
	jobRepo := persistence.NewGormGangsheetJobRepository(db.DB)
	settingsRepo := persistence.NewGormRollSettingsRepository(db.DB)

	// Application service
	gangsheetService := gangsheetapp.NewGangsheetService(
		jobRepo,
		settingsRepo,
		designProvider,
		rollCompositor,
		artifactStorage,
		progressStore,
		cfg.Engine.MaxDesignsPerJob,
		log,
	)

	// Handlers
	gangsheetHandler := handler.NewGangsheetHandler(gangsheetService, log)
	systemHandler := handler.NewSystemHandler()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.RequestLogger(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, progressStore))

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.GangsheetRoutes(gangsheetHandler)).
		Register(handler.SystemRoutes(systemHandler)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports liveness of the database and Redis.
func healthHandler(db *persistence.Database, progress *cache.RedisProgressStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.FromContext(c)

		dbStatus := "ok"
		redisStatus := "ok"
		healthy := true

		if err := db.Ping(); err != nil {
			reqLog.Warn("Database health check failed", zap.Error(err))
			dbStatus = "error"
			healthy = false
		}
		if err := progress.GetClient().Ping(c.Request.Context()).Err(); err != nil {
			reqLog.Warn("Redis health check failed", zap.Error(err))
			redisStatus = "error"
			healthy = false
		}

		status := http.StatusOK
		state := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":   state,
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
			"redis":    redisStatus,
		})
	}
}
