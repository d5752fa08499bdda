package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"
	"github.com/mileusna/useragent"
	"log/slog"

	"jpsystems/internal/users"
)

type adminUserRow struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// AdminUsersPageAction renders the user management page with an optional
// search filter over name, email and role.
func AdminUsersPageAction(ctx *cartridge.Context) error {
	actor, err := adminUser(ctx)
	if err != nil {
		return denyNonAdmin(ctx, err)
	}

	search := strings.TrimSpace(ctx.Query("search"))
	list, err := users.List(ctx.DB(), search)
	if err != nil {
		ctx.Logger.Error("Failed to list users", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).SendString("Error loading users")
	}

	rows := make([]adminUserRow, 0, len(list))
	for _, u := range list {
		rows = append(rows, adminUserRow{
			ID:        u.ID,
			Email:     u.Email,
			FullName:  u.FullName(),
			Role:      u.Role,
			CreatedAt: u.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}

	return inertia.RenderPage(ctx.Ctx, "Users", inertia.Props{
		"users":         rows,
		"search":        search,
		"currentUserId": actor.ID,
		"browser":       browserSummary(ctx.Get("User-Agent")),
	})
}

// AdminUserRoleFormAction promotes or demotes a user. Admins cannot demote
// their own account.
func AdminUserRoleFormAction(ctx *cartridge.Context) error {
	actor, err := adminUser(ctx)
	if err != nil {
		return denyNonAdmin(ctx, err)
	}

	targetID, err := ctx.ParamsInt("id")
	if err != nil || targetID <= 0 {
		flash.SetFlash(ctx.Ctx, "error", "Unknown user")
		return ctx.Redirect("/admin/users", fiber.StatusFound)
	}
	role := strings.TrimSpace(ctx.FormValue("role"))

	err = users.ChangeRole(ctx.DB(), actor.ID, uint(targetID), role)
	switch {
	case err == nil:
		ctx.Logger.Info("User role changed",
			slog.Uint64("actorId", uint64(actor.ID)),
			slog.Int("targetId", targetID),
			slog.String("role", role))
		flash.SetFlash(ctx.Ctx, "success", "Role updated")
	case errors.Is(err, users.ErrSelfDemotion):
		flash.SetFlash(ctx.Ctx, "error", "You cannot remove your own administrator role")
	case errors.Is(err, users.ErrInvalidRole):
		flash.SetFlash(ctx.Ctx, "error", "Unknown role")
	case errors.Is(err, users.ErrUserNotFound):
		flash.SetFlash(ctx.Ctx, "error", "Unknown user")
	default:
		ctx.Logger.Error("Failed to change user role", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Failed to update role")
	}

	return ctx.Redirect("/admin/users", fiber.StatusFound)
}

func denyNonAdmin(ctx *cartridge.Context, err error) error {
	if errors.Is(err, errNotAdmin) {
		flash.SetFlash(ctx.Ctx, "error", "Administrator access required")
		return ctx.Redirect("/admin/dashboard", fiber.StatusFound)
	}
	ctx.Logger.Error("Failed to resolve session user", slog.Any("error", err))
	return ctx.Redirect("/login", fiber.StatusFound)
}

// browserSummary turns a raw User-Agent into a short "Chrome on macOS" label.
func browserSummary(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "Unknown"
	}
	parsed := useragent.Parse(rawUA)
	name := parsed.Name
	if name == "" {
		name = "Unknown"
	}
	if parsed.OS == "" {
		return name
	}
	return name + " on " + parsed.OS
}
