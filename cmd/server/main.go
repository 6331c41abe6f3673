package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vsinha/sampledist/pkg/application/services/dashboard"
	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/infrastructure/cache"
	"github.com/vsinha/sampledist/pkg/infrastructure/config"
	"github.com/vsinha/sampledist/pkg/infrastructure/events"
	"github.com/vsinha/sampledist/pkg/infrastructure/logging"
	"github.com/vsinha/sampledist/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/sampledist/pkg/infrastructure/repositories/sqlstore"
	"github.com/vsinha/sampledist/pkg/interfaces/http/handler"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	seedDir := flag.String("seed", "", "Export directory to load into the database at startup")
	seedImport := flag.Int64("seed-import", 1, "Import id of the seeded export")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting sampledist service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	ctx := context.Background()

	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, sqlstore.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	store := sqlstore.NewStore(db, logger)
	if cfg.Database.ApplySchema {
		if err := store.ApplySchema(ctx); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
	}

	if *seedDir != "" {
		dataset, err := csv.NewLoader().LoadDataset(*seedDir, entities.Import{ID: entities.ImportID(*seedImport), Name: *seedDir})
		if err != nil {
			logger.Fatal("Failed to load seed export", zap.Error(err))
		}
		if err := store.Ingest(ctx, dataset); err != nil {
			logger.Fatal("Failed to save seed export", zap.Error(err))
		}
		logger.Info("Seed export loaded", zap.String("dataset", dataset.String()))
	}

	ready := map[string]handler.ReadinessCheck{"database": store.Ping}

	var dashboardCache cache.DashboardCache = cache.NewMemoryCache()
	if cfg.Redis.Enabled {
		rdb := initRedis(cfg.Redis)
		defer rdb.Close()
		dashboardCache = cache.NewRedisCache(rdb, cfg.Redis.Namespace)
		ready["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	svc := dashboard.NewService(dashboard.Config{
		Workers:  cfg.Coverage.Workers,
		TopN:     cfg.Coverage.TopN,
		CacheTTL: cfg.Coverage.CacheTTL,
	}, dashboard.Dependencies{
		Snapshots: store,
		Stock:     store,
		Imports:   store,
		Cache:     dashboardCache,
		Events:    events.NewJournal(1000, logger),
	}, logger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Dashboard:      svc,
		Logger:         logger,
		RequestTimeout: cfg.Server.RequestTimeout,
		Version:        Version,
		BuildTime:      BuildTime,
		Ready:          ready,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
