package users

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"jpsystems/internal/reports"
)

// RegistrationsSince returns creation timestamps of accounts registered at or
// after t, oldest first.
func RegistrationsSince(db *gorm.DB, t time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := db.Model(&User{}).
		Where("created_at >= ?", t).
		Order("created_at ASC").
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load registrations since %s: %w", t.Format(time.RFC3339), err)
	}
	return stamps, nil
}

// GormSource adapts the users table to the aggregation engine's port.
type GormSource struct {
	db *gorm.DB
}

// NewGormSource returns a GormSource over db.
func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

func (s *GormSource) RegistrationsSince(t time.Time) ([]reports.RegistrationRecord, error) {
	stamps, err := RegistrationsSince(s.db, t)
	if err != nil {
		return nil, err
	}

	records := make([]reports.RegistrationRecord, 0, len(stamps))
	for _, createdAt := range stamps {
		records = append(records, reports.RegistrationRecord{CreatedAt: createdAt})
	}
	return records, nil
}
