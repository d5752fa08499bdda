package http

import (
	"net/url"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/inertia"
	"github.com/karloscodes/cartridge/structs"
	"log/slog"
	"gorm.io/gorm"

	"jpsystems/internal/events"
	"jpsystems/internal/reports"
	"jpsystems/internal/users"
)

const recentVisitLimit = 20

var (
	reportSvcMu sync.RWMutex
	reportSvc   *reports.Service
)

// SetReportService installs the shared report service used by the dashboard.
// The background scheduler refreshes the same instance, so admin loads mostly
// hit a warm cache.
func SetReportService(svc *reports.Service) {
	reportSvcMu.Lock()
	reportSvc = svc
	reportSvcMu.Unlock()
}

func reportServiceFor(ctx *cartridge.Context) *reports.Service {
	reportSvcMu.RLock()
	svc := reportSvc
	reportSvcMu.RUnlock()
	if svc != nil {
		return svc
	}

	// No shared service installed (minimal test apps). Build a transient one
	// bound to this request's database.
	db := ctx.DB()
	return reports.NewService(events.NewGormSource(db), users.NewGormSource(db), ctx.Logger)
}

// requestLocation resolves the requester's timezone from the _tz cookie set
// at login. Day boundaries of the dashboard window follow this location.
func requestLocation(ctx *cartridge.Context) (*time.Location, error) {
	timeZone := ctx.Cookies("_tz")
	if timeZone != "" {
		if decodedTZ, err := url.QueryUnescape(timeZone); err == nil {
			timeZone = decodedTZ
		}
	}
	if timeZone == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Your cookies have issues, we can't continue")
	}

	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		ctx.Logger.Warn("Unknown timezone in cookie, falling back to UTC",
			slog.String("timezone", timeZone))
		return time.UTC, nil
	}
	return loc, nil
}

func fetchReport(ctx *cartridge.Context) (*reports.Report, error) {
	loc, err := requestLocation(ctx)
	if err != nil {
		return nil, err
	}

	svc := reportServiceFor(ctx)
	report, err := svc.Refresh(ctx.Ctx.Context(), time.Now().In(loc))
	if err != nil {
		ctx.Logger.Error("Error refreshing dashboard report", slog.Any("error", err))
		// Serve the last good report rather than an empty dashboard.
		if current := svc.Current(); current != nil {
			return current, nil
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Error fetching metrics")
	}
	return report, nil
}

// DashboardPageAction renders the admin dashboard with the 14-day report.
func DashboardPageAction(ctx *cartridge.Context) error {
	report, err := fetchReport(ctx)
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return ctx.Status(fiberErr.Code).SendString(fiberErr.Message)
		}
		return err
	}

	db := ctx.DB()
	logger := ctx.Logger

	// Props from the report struct (csrfToken and flash auto-injected)
	props := structs.Map(report)
	props["recent_visits"] = inertia.Defer(func() interface{} {
		return recentVisits(db, logger)
	})

	return inertia.RenderPage(ctx.Ctx, "Dashboard", props)
}

// DashboardDataAction returns the current report as JSON for client refreshes.
func DashboardDataAction(ctx *cartridge.Context) error {
	report, err := fetchReport(ctx)
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}
		return err
	}
	return ctx.JSON(report)
}

type recentVisit struct {
	Path      string `json:"path"`
	Referrer  string `json:"referrer,omitempty"`
	Country   string `json:"country"`
	Browser   string `json:"browser"`
	VisitedAt string `json:"visitedAt"`
}

func recentVisits(db *gorm.DB, logger *slog.Logger) []recentVisit {
	var rows []events.Event
	err := db.Where("type = ?", events.TypePageview).
		Order("created_at DESC").
		Limit(recentVisitLimit).
		Find(&rows).Error
	if err != nil {
		logger.Error("Failed to load recent visits", slog.Any("error", err))
		return []recentVisit{}
	}

	visits := make([]recentVisit, 0, len(rows))
	for _, row := range rows {
		visits = append(visits, recentVisit{
			Path:      row.Path,
			Referrer:  row.Referrer,
			Country:   row.Country,
			Browser:   browserSummary(row.UserAgent),
			VisitedAt: row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return visits
}
