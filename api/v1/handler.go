package v1

import (
	"net/http"
	"time"

	"github.com/karloscodes/cartridge"
	"log/slog"

	"jpsystems/internal/config"
	"jpsystems/internal/events"
	"jpsystems/internal/identity"
)

// CollectPageviewParams is the public pageview payload. Timestamps are never
// accepted from the client; CreatedAt is assigned server-side.
type CollectPageviewParams struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
}

// CollectPageviewPublicAPIHandler ingests one pageview from the marketing
// site tracker. It always answers 202: dropping a beacon is preferable to
// breaking a visitor's page load, so every failure is logged and swallowed.
func CollectPageviewPublicAPIHandler(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)

	var params CollectPageviewParams
	if err := ctx.BodyParser(&params); err != nil {
		// sendBeacon posts arrive as text/plain; BodyParser already handles
		// JSON bodies, anything unreadable is simply an empty pageview.
		ctx.Logger.Debug("Unparseable pageview payload", slog.Any("error", err))
	}

	secure := cfg.IsProduction()
	durable := identity.NewDurableCookieStore(ctx.Ctx, secure)
	session := identity.NewSessionCookieStore(ctx.Ctx, secure)

	visitorID := identity.GetOrCreateVisitorID(durable)
	sessionTimeout := time.Duration(cfg.GetSessionTimeout()) * time.Second
	sessionID, sessionIsNew := identity.GetOrCreateSessionID(session, time.Now(), sessionTimeout)

	userAgent := ctx.Get("User-Agent")
	if forwardedUA := ctx.Get("X-Forwarded-User-Agent"); forwardedUA != "" {
		userAgent = forwardedUA
	}

	input := &events.RecordPageviewInput{
		IPAddress:    getClientIP(ctx.Ctx),
		VisitorID:    visitorID,
		SessionID:    sessionID,
		SessionIsNew: sessionIsNew,
		Path:         params.Path,
		Referrer:     params.Referrer,
		UserAgent:    userAgent,
	}

	if err := events.RecordPageview(ctx.DBManager, ctx.Logger, input); err != nil {
		ctx.Logger.Error("Failed to record pageview",
			slog.String("path", params.Path),
			slog.Any("error", err))
	}

	return ctx.SendStatus(http.StatusAccepted)
}
