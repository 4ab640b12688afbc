package main

import (
	"context"
	"log"

	"github.com/dguevara8/ucr-electrical-project/migrations"
	"github.com/dguevara8/ucr-electrical-project/pkg/cache"
	"github.com/dguevara8/ucr-electrical-project/pkg/config"
	"github.com/dguevara8/ucr-electrical-project/pkg/database"
	"github.com/dguevara8/ucr-electrical-project/pkg/logger"
	"github.com/dguevara8/ucr-electrical-project/pkg/metrics"
	"github.com/dguevara8/ucr-electrical-project/pkg/server"
	"github.com/dguevara8/ucr-electrical-project/services/dashboard-svc/internal/handlers"
	"github.com/dguevara8/ucr-electrical-project/services/dashboard-svc/internal/repository"
	"github.com/dguevara8/ucr-electrical-project/services/dashboard-svc/internal/service"
)

func main() {
	cfg, err := config.LoadWithServiceDefaults("kpinet-dashboard", 8080)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx := context.Background()

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)

	// Conexión a PostgreSQL
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	// Migraciones
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(ctx, db.Pool(), &cfg.Database, migrations.FS, migrations.Dir); err != nil {
			logger.Fatal("failed to run migrations", "error", err)
		}
	}

	// Caché de agregados
	var agregadoCache cache.Cache
	if cfg.Cache.Enabled {
		agregadoCache, err = cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Warn("Failed to init cache, continuing without it", "error", err)
		} else {
			defer agregadoCache.Close()
		}
	}

	repo := repository.NewPostgresRepository(db)
	svc := service.New(repo, &service.Options{
		Cache:    agregadoCache,
		CacheTTL: cfg.Cache.DefaultTTL,
		Umbrales: service.UmbralesDesdeConfig(&cfg.KPI),
	})

	h := handlers.New(svc, cfg)
	srv := server.New(cfg, h.Router())

	logger.Info("Starting dashboard service",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if err := srv.Run(); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}
