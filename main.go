package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tradescreenhq/tradescreen/backend/repository"
	"github.com/tradescreenhq/tradescreen/backend/services"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Setup structured logging with JSON format
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slogger)

	// Load configuration
	config := services.LoadConfig()

	if err := config.Scoring.Validate(); err != nil {
		slog.Error("Invalid scoring configuration", "error", err)
		os.Exit(1)
	}

	server := services.NewServer(config)

	if config.Database.URL != "" {
		// Fast connectivity probe before handing the DSN to GORM, so a bad
		// database URL fails at startup instead of on the first request.
		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := pgxpool.New(probeCtx, config.Database.URL)
		if err != nil {
			cancel()
			slog.Error("Failed to parse database URL", "error", err)
			os.Exit(1)
		}
		if err := pool.Ping(probeCtx); err != nil {
			cancel()
			slog.Error("Failed to reach database", "error", err)
			os.Exit(1)
		}
		pool.Close()
		cancel()

		gormDB, err := gorm.Open(postgres.New(postgres.Config{
			DSN: config.Database.URL,
		}), &gorm.Config{
			Logger:         gormLogger(config.Database.LogLevel),
			TranslateError: true,
		})
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}

		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.SetMaxIdleConns(config.Database.MaxIdleConns)
			sqlDB.SetMaxOpenConns(config.Database.MaxOpenConns)
		}

		repo := repository.NewGORMRepository(gormDB)
		if err := repo.AutoMigrate(); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Connected to database")

		server.SetDatabase(repo, gormDB)

		if config.Database.Seed {
			seeder := services.NewDatabaseSeeder(repo)
			if err := seeder.SeedDatabase(); err != nil {
				slog.Error("Failed to seed database", "error", err)
			}
		}
	} else {
		slog.Warn("Database URL not configured, running without database")
	}

	if err := server.InitializeServices(); err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	server.Start()
}

func gormLogger(level string) logger.Interface {
	switch level {
	case "info":
		return logger.Default.LogMode(logger.Info)
	case "warn":
		return logger.Default.LogMode(logger.Warn)
	case "error":
		return logger.Default.LogMode(logger.Error)
	default:
		return logger.Default.LogMode(logger.Silent)
	}
}
