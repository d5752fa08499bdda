package http

import (
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/inertia"
	"log/slog"

	"jpsystems/internal/gallery"
)

// HomeIndexAction renders the public marketing home page with the gallery.
func HomeIndexAction(ctx *cartridge.Context) error {
	images, err := gallery.List(ctx.DB(), galleryStore(ctx))
	if err != nil {
		ctx.Logger.Error("Failed to load gallery for home page", slog.Any("error", err))
		images = []gallery.ImageView{}
	}

	return inertia.RenderPage(ctx.Ctx, "Home", inertia.Props{
		"images": images,
	})
}
