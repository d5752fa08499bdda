package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"jpsystems/internal/settings"
)

// RecordPageviewInput carries everything the public tracking endpoint knows
// about one page view. Identity fields come from the identity cookies; the
// rest is captured defensively and may be empty.
type RecordPageviewInput struct {
	IPAddress    string
	VisitorID    string
	SessionID    string
	SessionIsNew bool
	Path         string
	Referrer     string
	UserAgent    string
}

// RecordPageview appends a pageview row, preceded by a session_start row when
// this request began a new session. CreatedAt is assigned server-side at
// insert; client clocks are never trusted. Both rows go in one transaction so
// a session_start is never orphaned from its first pageview.
//
// Requests from excluded IPs are skipped silently so admin traffic does not
// pollute the stats.
func RecordPageview(dbManager cartridge.DBManager, logger *slog.Logger, input *RecordPageviewInput) error {
	if input.VisitorID == "" || input.SessionID == "" {
		return fmt.Errorf("missing visitor or session id")
	}

	excluded, err := settings.IsIPExcluded(input.IPAddress)
	if err != nil {
		logger.Error("Error checking IP exclusion", slog.Any("error", err))
	} else if excluded {
		logger.Debug("Skipping pageview for excluded IP", slog.String("ip", input.IPAddress))
		return nil
	}

	path := input.Path
	if path == "" {
		path = "/"
	}

	country := GetCountryFromIP(input.IPAddress)
	now := time.Now().UTC()

	rows := make([]*Event, 0, 2)
	if input.SessionIsNew {
		rows = append(rows, &Event{
			Type:      TypeSessionStart,
			VisitorID: input.VisitorID,
			SessionID: input.SessionID,
			Path:      path,
			Referrer:  input.Referrer,
			UserAgent: input.UserAgent,
			Country:   country,
			CreatedAt: now,
		})
	}
	rows = append(rows, &Event{
		Type:      TypePageview,
		VisitorID: input.VisitorID,
		SessionID: input.SessionID,
		Path:      path,
		Referrer:  input.Referrer,
		UserAgent: input.UserAgent,
		Country:   country,
		CreatedAt: now,
	})

	db := dbManager.GetConnection()
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		logger.Error("Failed to store visit events", slog.Any("error", err))
		return fmt.Errorf("failed to store visit events: %w", err)
	}

	return nil
}
