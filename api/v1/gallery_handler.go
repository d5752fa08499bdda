package v1

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"log/slog"

	"jpsystems/internal/config"
	"jpsystems/internal/gallery"
)

// ListGalleryPublicAPIHandler returns the published gallery for the marketing
// site, newest first.
func ListGalleryPublicAPIHandler(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)
	store := gallery.NewDiskStore(cfg.GalleryDirectory, cfg.GalleryURLPrefix, ctx.Logger)

	images, err := gallery.List(ctx.DB(), store)
	if err != nil {
		ctx.Logger.Error("Failed to list gallery images", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load gallery",
			"code":  "GALLERY_LOAD_ERROR",
		})
	}

	type publicImage struct {
		Title       string `json:"title"`
		Category    string `json:"category,omitempty"`
		Description string `json:"description,omitempty"`
		URL         string `json:"url"`
		ThumbURL    string `json:"thumbUrl"`
	}

	items := make([]publicImage, 0, len(images))
	for _, image := range images {
		items = append(items, publicImage{
			Title:       image.Title,
			Category:    image.Category,
			Description: image.Description,
			URL:         image.URL,
			ThumbURL:    store.ThumbnailURL(image.StoragePath),
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"images":      items,
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}
