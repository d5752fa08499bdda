package events

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"jpsystems/internal/reports"
)

// EventsSince returns all rows created at or after t, oldest first.
func EventsSince(db *gorm.DB, t time.Time) ([]Event, error) {
	var rows []Event
	if err := db.Where("created_at >= ?", t).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load events since %s: %w", t.Format(time.RFC3339), err)
	}
	return rows, nil
}

// CountSince returns the number of rows created at or after t.
func CountSince(db *gorm.DB, t time.Time) (int64, error) {
	var count int64
	if err := db.Model(&Event{}).Where("created_at >= ?", t).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// GormSource adapts the event table to the aggregation engine's port.
type GormSource struct {
	db *gorm.DB
}

// NewGormSource returns a GormSource over db.
func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

func (s *GormSource) VisitsSince(t time.Time) ([]reports.VisitRecord, error) {
	rows, err := EventsSince(s.db, t)
	if err != nil {
		return nil, err
	}

	records := make([]reports.VisitRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, reports.VisitRecord{
			Type:      row.Type,
			VisitorID: row.VisitorID,
			SessionID: row.SessionID,
			CreatedAt: row.CreatedAt,
		})
	}
	return records, nil
}
