// Package seeder populates the database with realistic demo data: two weeks
// of visits, a handful of registrations and a small gallery.
package seeder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"jpsystems/internal/events"
	"jpsystems/internal/gallery"
	"jpsystems/internal/settings"
	"jpsystems/internal/users"
)

// Seeder handles the demo data seeding process.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	VisitCount int
}

// NewSeeder creates a new seeder instance.
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, visitCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		VisitCount: visitCount,
	}
}

var seedPaths = []string{
	"/",
	"/products",
	"/products/entry-doors",
	"/products/interior-doors",
	"/products/sliding-doors",
	"/gallery",
	"/about",
	"/contact",
	"/register",
}

var seedReferrers = []string{
	"",
	"",
	"https://www.google.com/",
	"https://www.bing.com/",
	"https://www.facebook.com/",
}

var seedUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148",
}

var seedCountries = []string{"es", "fr", "de", "us", "gb", events.UnknownCountry}

var seedGallery = []struct {
	title    string
	category string
}{
	{"Oak entry door", "entry"},
	{"White interior set", "interior"},
	{"Glass sliding door", "sliding"},
	{"Classic walnut double door", "entry"},
	{"Minimal frameless door", "interior"},
}

// Run seeds the full demo dataset.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding demo data...", slog.Int("visitCount", s.VisitCount))

	db := s.DBManager.GetConnection()

	if err := settings.SetupDefaultSettings(db); err != nil {
		return fmt.Errorf("failed to set up default settings: %w", err)
	}
	users.SetupAdminUserIfNotExists(db, "admin@jpsystems.local")

	if err := s.seedVisits(ctx, db); err != nil {
		return err
	}
	if err := s.seedRegistrations(db); err != nil {
		return err
	}
	if err := s.seedGalleryRows(db); err != nil {
		return err
	}

	s.Logger.Info("Seeding completed", slog.Duration("elapsed", time.Since(start)))
	return nil
}

// seedVisits spreads sessions over the last 20 days so both report halves
// and the out-of-window edge get data.
func (s *Seeder) seedVisits(ctx context.Context, db *gorm.DB) error {
	now := time.Now().UTC()
	created := 0

	for created < s.VisitCount {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		visitorID := uuid.NewString()
		sessionID := uuid.NewString()
		dayOffset := rand.IntN(20)
		sessionStart := now.AddDate(0, 0, -dayOffset).
			Add(-time.Duration(rand.IntN(12)) * time.Hour)
		userAgent := seedUserAgents[rand.IntN(len(seedUserAgents))]
		country := seedCountries[rand.IntN(len(seedCountries))]
		pagesInSession := 1 + rand.IntN(4)

		rows := []events.Event{{
			Type:      events.TypeSessionStart,
			VisitorID: visitorID,
			SessionID: sessionID,
			Path:      seedPaths[rand.IntN(len(seedPaths))],
			Referrer:  seedReferrers[rand.IntN(len(seedReferrers))],
			UserAgent: userAgent,
			Country:   country,
			CreatedAt: sessionStart,
		}}
		for i := 0; i < pagesInSession; i++ {
			rows = append(rows, events.Event{
				Type:      events.TypePageview,
				VisitorID: visitorID,
				SessionID: sessionID,
				Path:      seedPaths[rand.IntN(len(seedPaths))],
				UserAgent: userAgent,
				Country:   country,
				CreatedAt: sessionStart.Add(time.Duration(i) * time.Minute),
			})
		}

		err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
			return tx.Create(&rows).Error
		})
		if err != nil {
			return fmt.Errorf("failed to seed visit session: %w", err)
		}
		created += len(rows)
	}

	s.Logger.Info("Seeded visit events", slog.Int("count", created))
	return nil
}

func (s *Seeder) seedRegistrations(db *gorm.DB) error {
	now := time.Now().UTC()
	created := 0

	for i := 0; i < 25; i++ {
		email := fmt.Sprintf("visitor%02d@example.com", i)
		user, err := users.Register(db, &users.RegisterInput{
			Email:     email,
			Password:  "demo-password",
			FirstName: "Demo",
			LastName:  fmt.Sprintf("Visitor %d", i),
		})
		if err != nil {
			if err == users.ErrUserExists {
				continue
			}
			return fmt.Errorf("failed to seed registration: %w", err)
		}

		// Backdate so registrations land across the report window.
		createdAt := now.AddDate(0, 0, -rand.IntN(16))
		err = sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
			return tx.Model(&users.User{}).
				Where("id = ?", user.ID).
				Update("created_at", createdAt).Error
		})
		if err != nil {
			return fmt.Errorf("failed to backdate registration: %w", err)
		}
		created++
	}

	s.Logger.Info("Seeded registrations", slog.Int("count", created))
	return nil
}

func (s *Seeder) seedGalleryRows(db *gorm.DB) error {
	created := 0
	for _, item := range seedGallery {
		image := gallery.Image{
			Title:       item.title,
			Category:    item.category,
			Description: "Demo gallery entry",
			StoragePath: uuid.NewString() + "-" + item.category + ".jpg",
		}
		err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
			return tx.Create(&image).Error
		})
		if err != nil {
			return fmt.Errorf("failed to seed gallery image: %w", err)
		}
		created++
	}

	s.Logger.Info("Seeded gallery images", slog.Int("count", created))
	return nil
}
