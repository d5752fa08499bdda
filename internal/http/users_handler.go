package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/crypto"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"
	"log/slog"

	"jpsystems/internal/users"
)

// RenderLoginAction renders the login page
func RenderLoginAction(ctx *cartridge.Context) error {
	ctx.Logger.Debug("is authenticated", slog.Bool("isAuthenticated", ctx.Session.IsAuthenticated(ctx.Ctx)))

	if ctx.Session.IsAuthenticated(ctx.Ctx) {
		return ctx.Redirect("/admin/dashboard")
	}

	// Render the login page using Inertia (csrfToken and flash auto-injected)
	return inertia.RenderPage(ctx.Ctx, "Login", inertia.Props{})
}

// ProcessLoginAction handles the login form submission
func ProcessLoginAction(ctx *cartridge.Context) error {
	// Parse login form - try both form value and JSON body (for Inertia.js)
	email := ctx.FormValue("email")
	password := ctx.FormValue("password")
	tz := ctx.FormValue("_tz")

	if email == "" && password == "" {
		var jsonBody struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			Tz       string `json:"_tz"`
		}
		if err := ctx.BodyParser(&jsonBody); err == nil {
			if jsonBody.Email != "" {
				email = jsonBody.Email
			}
			if jsonBody.Password != "" {
				password = jsonBody.Password
			}
			if jsonBody.Tz != "" {
				tz = jsonBody.Tz
			}
		}
	}

	if email == "" || password == "" {
		flash.SetFlash(ctx.Ctx, "error", "Email and password are required")
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	db := ctx.DB()

	user, result := users.FindByEmail(db, email)

	// Always verify a password so response time does not reveal whether the
	// email exists.
	var passwordValid bool
	if result != nil {
		ctx.Logger.Debug("User not found during login",
			slog.String("email", email))
		dummyHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy" // bcrypt hash of "dummy"
		crypto.VerifyPassword(dummyHash, password)
		passwordValid = false
	} else {
		passwordValid = crypto.VerifyPassword(user.EncryptedPassword, password)
		if !passwordValid {
			ctx.Logger.Debug("Invalid password attempt",
				slog.String("email", email))
		}
	}

	if !passwordValid {
		// Generic error message - don't reveal whether email exists
		flash.SetFlash(ctx.Ctx, "error", "Invalid email or password")
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	if err := ctx.Session.SetSession(ctx.Ctx, user.ID); err != nil {
		ctx.Logger.Error("Failed to set session", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Login failed")
		return ctx.Redirect("/login", fiber.StatusFound)
	}
	ctx.Logger.Debug("Login successful",
		slog.String("email", email),
		slog.Int("userId", int(user.ID)))

	// The browser timezone drives the dashboard's day boundaries, keep it
	// around long-term (10 years).
	tzExpiration := time.Now().Add(10 * 365 * 24 * time.Hour)
	ctx.Cookie(&fiber.Cookie{
		Name:     "_tz",
		Value:    tz,
		Path:     "/",
		MaxAge:   int((10 * 365 * 24 * time.Hour).Seconds()),
		Expires:  tzExpiration,
		Secure:   ctx.Config.IsProduction(),
		HTTPOnly: true,
		SameSite: "Lax",
		Domain:   "",
	})

	return ctx.Redirect("/admin/dashboard", fiber.StatusFound)
}

// LogoutAction handles user logout
func LogoutAction(ctx *cartridge.Context) error {
	userID, isAuthenticated := ctx.Session.GetUserID(ctx.Ctx)
	ctx.Logger.Debug("LogoutAction: Current auth state",
		slog.Uint64("userID", uint64(userID)),
		slog.Bool("isAuthenticated", isAuthenticated))

	ctx.Session.ClearSession(ctx.Ctx)

	// Also clear the timezone cookie for clean logout
	ctx.ClearCookie("_tz")
	ctx.Cookie(&fiber.Cookie{
		Name:     "_tz",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-24 * time.Hour),
		Secure:   ctx.Config.IsProduction(),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	flash.SetFlash(ctx.Ctx, "success", "You have been successfully logged out")

	return ctx.Redirect("/login", fiber.StatusFound)
}

// RegisterAction handles public account registration from the marketing site.
// Form posts get the flash-and-redirect treatment, JSON clients get JSON back.
func RegisterAction(ctx *cartridge.Context) error {
	input := users.RegisterInput{
		Email:     ctx.FormValue("email"),
		Password:  ctx.FormValue("password"),
		FirstName: ctx.FormValue("first_name"),
		LastName:  ctx.FormValue("last_name"),
	}
	wantsJSON := strings.Contains(ctx.Get("Content-Type"), "json")
	if wantsJSON {
		var jsonBody struct {
			Email     string `json:"email"`
			Password  string `json:"password"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		}
		if err := ctx.BodyParser(&jsonBody); err == nil {
			input.Email = jsonBody.Email
			input.Password = jsonBody.Password
			input.FirstName = jsonBody.FirstName
			input.LastName = jsonBody.LastName
		}
	}

	fail := func(status int, message string) error {
		if wantsJSON {
			return ctx.Status(status).JSON(fiber.Map{"error": message})
		}
		flash.SetFlash(ctx.Ctx, "error", message)
		return ctx.Redirect("/register", fiber.StatusFound)
	}

	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return fail(fiber.StatusBadRequest, "Email and password are required")
	}
	if len(input.Password) < 8 {
		return fail(fiber.StatusBadRequest, "Password must be at least 8 characters long")
	}

	user, err := users.Register(ctx.DB(), &input)
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			return fail(fiber.StatusConflict, "An account with this email already exists")
		}
		ctx.Logger.Error("Failed to register user", slog.Any("error", err))
		return fail(fiber.StatusInternalServerError, "Registration failed")
	}

	ctx.Logger.Info("User registered",
		slog.String("email", user.Email),
		slog.Uint64("userId", uint64(user.ID)))

	if wantsJSON {
		return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    user.ID,
			"email": user.Email,
		})
	}
	flash.SetFlash(ctx.Ctx, "success", "Account created, you can now sign in")
	return ctx.Redirect("/login", fiber.StatusFound)
}

// RenderRegisterAction renders the public registration page.
func RenderRegisterAction(ctx *cartridge.Context) error {
	return inertia.RenderPage(ctx.Ctx, "Register", inertia.Props{})
}
