package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/painpoint-labs/painpoint/pkg/validator"

	"github.com/painpoint-labs/painpoint/internal/adapter/handler"
	"github.com/painpoint-labs/painpoint/internal/adapter/repository"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
	"github.com/painpoint-labs/painpoint/internal/infrastructure/cache"
	"github.com/painpoint-labs/painpoint/internal/infrastructure/database"
	"github.com/painpoint-labs/painpoint/internal/infrastructure/storage"
	"github.com/painpoint-labs/painpoint/internal/usecase/cluster"
	"github.com/painpoint-labs/painpoint/internal/usecase/extract"
	"github.com/painpoint-labs/painpoint/internal/usecase/ingest"
	"github.com/painpoint-labs/painpoint/internal/usecase/theme"
	"github.com/painpoint-labs/painpoint/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if cfg.Server.Environment == "development" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	log.Println("🔧 Initializing dependencies...")

	// Repositories: PostgreSQL when configured, in-memory otherwise
	var (
		meetingRepo repositories.MeetingRepository
		oppRepo     repositories.OpportunityRepository
		themeRepo   repositories.ThemeRepository
	)
	if cfg.UseDatabase() {
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)

		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}

		meetingRepo = repository.NewMeetingRepository(db)
		oppRepo = repository.NewOpportunityRepository(db, cfg.Clustering.RepeatCustomerDecay)
		themeRepo = repository.NewThemeRepository(db)
	} else {
		log.Println("📦 Using in-memory repositories (set DB_HOST for PostgreSQL)")
		store := repository.NewMemoryStore()
		meetingRepo = repository.NewMemoryMeetingRepository(store)
		oppRepo = repository.NewMemoryOpportunityRepository(store, cfg.Clustering.RepeatCustomerDecay)
		themeRepo = repository.NewMemoryThemeRepository(store)
	}

	// Read-side cache: Redis when configured, in-process otherwise
	var cacheStore cache.Store
	if cfg.UseRedis() {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		cacheStore = cache.NewRedisStore(redisClient, logger)
	} else {
		cacheStore = cache.NewMemoryStore()
	}

	// Object storage for file/upload meeting notes
	var notesStore ingest.NotesResolver
	if cfg.UseStorage() {
		log.Println("📦 Connecting to MinIO...")
		ns, err := storage.NewNotesStore(&cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		notesStore = ns
	}

	// Signal extraction rules
	rules := extract.DefaultRules()
	if cfg.Clustering.CategoryRules != "" {
		rules = extract.ParseRules(cfg.Clustering.CategoryRules)
	}
	extractor := extract.NewExtractor(rules)

	// Clustering pipeline
	log.Println("⚙️  Initializing pipeline...")
	index := cluster.NewIndex()
	clusterer := cluster.NewClusterer(oppRepo, index, cluster.Config{
		AttachThreshold:     cfg.Clustering.AttachThreshold,
		RepeatCustomerDecay: cfg.Clustering.RepeatCustomerDecay,
		TopK:                cfg.Clustering.TopK,
	}, logger)

	ctx := context.Background()
	if err := clusterer.Rebuild(ctx); err != nil {
		log.Fatalf("Failed to rebuild similarity index: %v", err)
	}

	aggregator := theme.NewAggregator(themeRepo, oppRepo, cfg.Clustering.ThemeThreshold, logger)

	// Handlers
	graphHandler := handler.NewGraphHandler(oppRepo, themeRepo, cacheStore, logger)

	coordinator := ingest.NewCoordinator(
		meetingRepo,
		extractor,
		clusterer,
		aggregator,
		notesStore,
		graphHandler,
		cfg.Ingest.QueueSize,
		logger,
	)
	if err := coordinator.Start(cfg.Ingest.WorkerCount); err != nil {
		log.Fatalf("Failed to start ingestion workers: %v", err)
	}
	defer coordinator.Stop()

	meetingHandler := handler.NewMeetingHandler(coordinator, meetingRepo, logger)
	commandHandler := handler.NewCommandHandler(oppRepo, themeRepo, coordinator, logger)

	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, meetingHandler, graphHandler, commandHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
