// Package internal contains core application functionality
package internal

import (
	"fmt"

	"github.com/karloscodes/cartridge"

	"jpsystems/internal/config"
	"jpsystems/internal/database"
	"jpsystems/internal/events"
	"jpsystems/internal/http"
	"jpsystems/internal/jobs"
	"jpsystems/internal/pkg/geoip"
	"jpsystems/internal/reports"
	"jpsystems/internal/users"
)

// Application wraps cartridge.Application with app-specific components.
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager
	Reports   *reports.Service
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Country enrichment degrades to "Unknown" when the GeoLite2 database
	// is absent.
	geoip.InitLogger(logger)
	geoip.GetGeoDB()

	db := dbManager.GetConnection()
	reportService := reports.NewService(
		events.NewGormSource(db),
		users.NewGormSource(db),
		logger,
	)
	// The dashboard handlers and the refresh job share this instance so
	// admin loads hit a warm report.
	http.SetReportService(reportService)

	scheduler, err := jobs.NewScheduler(dbManager, logger, reportService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize background jobs: %w", err)
	}

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:            cfg,
		Logger:            logger,
		DBManager:         dbManager,
		RouteMountFunc:    MountAppRoutes,
		BackgroundWorkers: []cartridge.BackgroundWorker{scheduler},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
		Reports:     reportService,
	}, nil
}
