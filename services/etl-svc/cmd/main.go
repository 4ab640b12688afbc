package main

import (
	"context"
	"flag"
	"log"

	"github.com/dguevara8/ucr-electrical-project/migrations"
	"github.com/dguevara8/ucr-electrical-project/pkg/cache"
	"github.com/dguevara8/ucr-electrical-project/pkg/config"
	"github.com/dguevara8/ucr-electrical-project/pkg/database"
	"github.com/dguevara8/ucr-electrical-project/pkg/logger"
	"github.com/dguevara8/ucr-electrical-project/pkg/metrics"
	"github.com/dguevara8/ucr-electrical-project/services/etl-svc/internal/loader"
)

func main() {
	contadores := flag.String("contadores", "", "ruta del libro de contadores (sobreescribe la configuración)")
	sitios := flag.String("sitios", "", "ruta del libro de sitios (sobreescribe la configuración)")
	truncate := flag.Bool("truncate", false, "vaciar las tablas antes de cargar")
	flag.Parse()

	cfg, err := config.LoadWithServiceDefaults("kpinet-etl", 8081)
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

	if *contadores != "" {
		cfg.ETL.CountersFile = *contadores
	}
	if *sitios != "" {
		cfg.ETL.SitesFile = *sitios
	}
	if *truncate {
		cfg.ETL.Truncate = true
	}

	if cfg.ETL.CountersFile == "" && cfg.ETL.SitesFile == "" {
		logger.Fatal("nothing to load: set etl.counters_file or etl.sites_file")
	}

	ctx := context.Background()

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(ctx, db.Pool(), &cfg.Database, migrations.FS, migrations.Dir); err != nil {
			logger.Fatal("failed to run migrations", "error", err)
		}
	}

	l := loader.New(db, cfg.ETL)

	if cfg.ETL.CountersFile != "" {
		res, err := l.CargarContadores(ctx, cfg.ETL.CountersFile)
		if err != nil {
			logger.Fatal("counter load failed", "error", err)
		}
		logger.Info("Counters loaded",
			"batch_id", res.BatchID,
			"cargadas", res.Cargadas,
			"omitidas", res.Omitidas,
		)
	}

	if cfg.ETL.SitesFile != "" {
		res, err := l.CargarSitios(ctx, cfg.ETL.SitesFile)
		if err != nil {
			logger.Fatal("site load failed", "error", err)
		}
		logger.Info("Sites loaded",
			"batch_id", res.BatchID,
			"cargadas", res.Cargadas,
			"omitidas", res.Omitidas,
		)
	}

	// Una carga nueva deja obsoletos los agregados cacheados
	if cfg.Cache.Enabled {
		c, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Warn("Failed to reach cache for invalidation", "error", err)
			return
		}
		defer c.Close()

		if n, err := c.DeleteByPattern(ctx, "agg:*"); err != nil {
			logger.Warn("Failed to invalidate aggregate cache", "error", err)
		} else {
			logger.Info("Aggregate cache invalidated", "entries", n)
		}
	}
}
