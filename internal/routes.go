package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "jpsystems/api/v1"
	"jpsystems/internal/config"
	"jpsystems/internal/http"
)

// publicCORSConfig is shared by all public endpoints: the tracker runs on the
// marketing site's pages, which may live on another origin than this service.
// Identity rides on cookies, so the beacon is a credentialed request; browsers
// reject those against a wildcard origin, so the request origin is echoed back
// instead.
var publicCORSConfig = &cors.Config{
	AllowOriginsFunc: func(string) bool { return true },
	AllowCredentials: true,
	AllowMethods:     "POST,GET,OPTIONS",
	AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// SetupSession configures session management on the server.
func SetupSession(srv *cartridge.Server) {
	cfg := config.GetConfig()
	sessionMgr := cartridge.NewSessionManager(cartridge.SessionConfig{
		CookieName: cfg.AppName + "_session",
		Secret:     cfg.GetSessionSecret(),
		TTL:        time.Duration(cfg.GetLoginSessionTimeout()) * time.Second,
		Secure:     cfg.IsProduction(),
		LoginPath:  "/login",
	})
	srv.SetSession(sessionMgr)
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	SetupSession(srv)

	cfg := config.GetConfig()
	sessionMgr := srv.Session()

	// Rate limiting only in production; in development and tests it would
	// get in the way.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 70/min per IP for pageview ingestion: generous for real visitors,
	// enough to blunt abuse.
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Stricter limit for credential endpoints (login, registration).
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	trackerConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	authConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{authRateLimiter},
	}

	adminConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			sessionMgr.Middleware(),
		},
	}

	// Gallery blobs are served statically from the configured directory.
	srv.App().Static(cfg.GalleryURLPrefix, cfg.GalleryDirectory)

	// === ROOT ROUTES ===
	srv.Get("/", http.HomeIndexAction)

	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === PUBLIC API ROUTES ===
	srv.Post("/x/api/v1/pageviews", v1.CollectPageviewPublicAPIHandler, publicAPIConfig)
	srv.Options("/x/api/v1/pageviews", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)
	srv.Get("/x/api/v1/me", v1.GetVisitorInfoHandler, publicAPIConfig)
	srv.Options("/x/api/v1/me", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)
	srv.Get("/x/api/v1/gallery", v1.ListGalleryPublicAPIHandler, publicAPIConfig)
	srv.Options("/x/api/v1/gallery", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)

	// === TRACKER ===
	srv.Get("/y/api/v1/track.js", v1.GetTrackerAction, trackerConfig)

	// === AUTHENTICATION & REGISTRATION ===
	srv.Get("/login", http.RenderLoginAction)
	srv.Post("/login", http.ProcessLoginAction, authConfig)
	srv.Post("/logout", http.LogoutAction)
	srv.Get("/register", http.RenderRegisterAction)
	srv.Post("/register", http.RegisterAction, authConfig)

	// === PROTECTED ADMIN ROUTES ===
	srv.Get("/admin", func(ctx *cartridge.Context) error {
		return ctx.Redirect("/admin/dashboard", fiber.StatusFound)
	}, adminConfig)

	srv.Get("/admin/dashboard", http.DashboardPageAction, adminConfig)
	srv.Get("/admin/api/dashboard", http.DashboardDataAction, adminConfig)

	srv.Get("/admin/users", http.AdminUsersPageAction, adminConfig)
	srv.Post("/admin/users/:id/role", http.AdminUserRoleFormAction, adminConfig)

	srv.Get("/admin/gallery", http.GalleryPageAction, adminConfig)
	srv.Post("/admin/gallery", http.GalleryCreateFormAction, adminConfig)
	srv.Post("/admin/gallery/:id", http.GalleryUpdateFormAction, adminConfig)
	srv.Post("/admin/gallery/:id/delete", http.GalleryDeleteFormAction, adminConfig)

	srv.Get("/admin/account", http.AccountPageAction, adminConfig)
	srv.Post("/admin/account/change-password", http.AccountChangePasswordFormAction, adminConfig)

	srv.Get("/admin/settings/ingestion", http.IngestionSettingsPageAction, adminConfig)
	srv.Post("/admin/settings/ingestion", http.IngestionSettingsFormAction, adminConfig)
}
