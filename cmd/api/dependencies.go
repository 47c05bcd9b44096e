package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	importhandler "github.com/FACorreiaa/sheet-insights/internal/domain/import/handler"
	importservice "github.com/FACorreiaa/sheet-insights/internal/domain/import/service"
	"github.com/FACorreiaa/sheet-insights/internal/domain/insights"
	insightshandler "github.com/FACorreiaa/sheet-insights/internal/domain/insights/handler"
	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger/repository"

	"github.com/FACorreiaa/sheet-insights/pkg/config"
	"github.com/FACorreiaa/sheet-insights/pkg/cron"
	"github.com/FACorreiaa/sheet-insights/pkg/db"
	"github.com/FACorreiaa/sheet-insights/pkg/metrics"
	"github.com/FACorreiaa/sheet-insights/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	SQLite  *sql.DB
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Repositories
	TableStore  repository.Store
	FileStorage storage.Storage

	// Services
	ImportService   *importservice.ImportService
	InsightsService *insights.Service
	Scheduler       *cron.Scheduler

	// Handlers
	ImportHandler   *importhandler.ImportHandler
	InsightsHandler *insightshandler.InsightsHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	// Initialize database
	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize services
	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// Initialize handlers
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase opens the session table store selected by DB_DRIVER and runs
// its migrations.
func (d *Dependencies) initDatabase() error {
	switch d.Config.Database.Driver {
	case config.DriverPostgres:
		database, err := db.New(db.Config{
			DSN:             d.Config.Database.DSN(),
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: 5 * time.Minute,
			MaxConnIdleTime: 10 * time.Minute,
		}, d.Logger)
		if err != nil {
			return err
		}
		d.DB = database

		// Run migrations
		if err := d.DB.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		d.TableStore = repository.NewPostgresStore(d.DB.Pool)

	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(d.Config.Database.SQLitePath, d.Logger)
		if err != nil {
			return err
		}
		d.SQLite = sqlDB
		d.TableStore = repository.NewSQLiteStore(sqlDB)

	default:
		d.TableStore = repository.NewMemoryStore()
	}

	d.Logger.Info("table store ready", slog.String("driver", d.Config.Database.Driver))
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	fileStorage, err := storage.New(&storage.Config{
		Type:      storage.StorageTypeLocal,
		LocalPath: d.Config.Storage.UploadDir,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.ImportService = importservice.NewImportService(d.TableStore, d.FileStorage, d.Metrics, d.Logger)
	d.InsightsService = insights.NewService(d.TableStore, d.Logger)

	// Retention sweep for expired sessions and uploads
	d.Scheduler = cron.NewScheduler(
		d.TableStore,
		d.FileStorage,
		d.Config.Retention.SessionTTL,
		d.Config.Retention.Schedule,
		d.Metrics,
		d.Logger,
	)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Config.Server.MaxUploadBytes, d.Logger)
	d.InsightsHandler = insightshandler.NewInsightsHandler(d.InsightsService, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	if d.SQLite != nil {
		if err := d.SQLite.Close(); err != nil {
			d.Logger.Warn("failed to close sqlite", slog.Any("error", err))
		}
	}
	d.Logger.Info("cleanup completed")
}
