package events

import "time"

// Event types stored in the append-only log.
const (
	TypeSessionStart = "session_start"
	TypePageview     = "pageview"
)

// UnknownCountry is stored when the client IP cannot be resolved.
const UnknownCountry = "Unknown"

// Event is one row in the append-only visit log. Rows are inserted once and
// never updated; the only deletion path is retention cleanup.
type Event struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Type      string `gorm:"index;not null"`
	VisitorID string `gorm:"index;size:64;not null"`
	SessionID string `gorm:"index;size:64;not null"`
	Path      string `gorm:"index"`
	Referrer  string
	UserAgent string
	Country   string
	CreatedAt time.Time `gorm:"index;not null"`
}
