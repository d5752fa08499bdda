package v1

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"jpsystems/internal/config"
	"jpsystems/internal/events"
	"jpsystems/internal/identity"
)

// GetVisitorInfoHandler returns the caller's durable visitor id and resolved
// country. The tracker uses it to show visitors what is being collected.
func GetVisitorInfoHandler(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)

	durable := identity.NewDurableCookieStore(ctx.Ctx, cfg.IsProduction())
	visitorID := identity.GetOrCreateVisitorID(durable)

	clientIP := getClientIP(ctx.Ctx)
	country := countryName(events.GetCountryFromIP(clientIP))

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"visitorId":   visitorID,
		"country":     country,
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// countryName resolves a lowercase ISO alpha-2 code to a display name.
func countryName(code string) string {
	if code == events.UnknownCountry {
		return "Unknown"
	}

	countries := gountries.New()
	country, err := countries.FindCountryByAlpha(code)
	if err != nil {
		return cases.Upper(language.AmericanEnglish).String(code)
	}
	return country.Name.Common
}
