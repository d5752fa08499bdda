package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"
	"log/slog"

	"jpsystems/internal/settings"
)

// IngestionSettingsPageAction renders the ingestion settings page (excluded IPs).
func IngestionSettingsPageAction(ctx *cartridge.Context) error {
	excluded, err := settings.GetExcludedIPs(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to load excluded IPs", slog.Any("error", err))
		excluded = []string{}
	}

	return inertia.RenderPage(ctx.Ctx, "IngestionSettings", inertia.Props{
		"excludedIps": strings.Join(excluded, "\n"),
	})
}

// IngestionSettingsFormAction saves the excluded IP list. Visits from these
// addresses are dropped at ingestion so internal traffic stays out of the
// numbers.
func IngestionSettingsFormAction(ctx *cartridge.Context) error {
	raw := ctx.FormValue("excluded_ips")

	ips := make([]string, 0)
	for _, token := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	}) {
		if ip := strings.TrimSpace(token); ip != "" {
			ips = append(ips, ip)
		}
	}

	if err := settings.SaveExcludedIPs(ctx.DB(), ips); err != nil {
		ctx.Logger.Error("Failed to save excluded IPs", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Failed to save settings")
		return ctx.Redirect("/admin/settings/ingestion", fiber.StatusFound)
	}

	ctx.Logger.Info("Excluded IPs updated", slog.Int("count", len(ips)))
	flash.SetFlash(ctx.Ctx, "success", "Settings saved")
	return ctx.Redirect("/admin/settings/ingestion", fiber.StatusFound)
}
