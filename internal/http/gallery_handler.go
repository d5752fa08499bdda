package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"
	"log/slog"

	"jpsystems/internal/config"
	"jpsystems/internal/gallery"
)

func galleryStore(ctx *cartridge.Context) *gallery.DiskStore {
	cfg := ctx.Config.(*config.Config)
	return gallery.NewDiskStore(cfg.GalleryDirectory, cfg.GalleryURLPrefix, ctx.Logger)
}

// GalleryPageAction renders the gallery management page.
func GalleryPageAction(ctx *cartridge.Context) error {
	store := galleryStore(ctx)
	images, err := gallery.List(ctx.DB(), store)
	if err != nil {
		ctx.Logger.Error("Failed to list gallery images", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).SendString("Error loading gallery")
	}

	return inertia.RenderPage(ctx.Ctx, "Gallery", inertia.Props{
		"images": images,
	})
}

// GalleryCreateFormAction handles a multipart image upload.
func GalleryCreateFormAction(ctx *cartridge.Context) error {
	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		flash.SetFlash(ctx.Ctx, "error", "An image file is required")
		return ctx.Redirect("/admin/gallery", fiber.StatusFound)
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.Logger.Error("Failed to open uploaded image", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not read the uploaded file")
		return ctx.Redirect("/admin/gallery", fiber.StatusFound)
	}
	defer file.Close()

	input := &gallery.CreateInput{
		Title:       ctx.FormValue("title"),
		Category:    ctx.FormValue("category"),
		Description: ctx.FormValue("description"),
		Filename:    fileHeader.Filename,
		Data:        file,
	}

	image, err := gallery.Create(ctx.DB(), ctx.Logger, galleryStore(ctx), input)
	if err != nil {
		ctx.Logger.Error("Failed to create gallery image", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Upload failed: "+err.Error())
		return ctx.Redirect("/admin/gallery", fiber.StatusFound)
	}

	ctx.Logger.Info("Gallery image uploaded",
		slog.Uint64("imageId", uint64(image.ID)),
		slog.String("path", image.StoragePath))
	flash.SetFlash(ctx.Ctx, "success", "Image uploaded")
	return ctx.Redirect("/admin/gallery", fiber.StatusFound)
}

// GalleryUpdateFormAction applies a partial metadata edit.
func GalleryUpdateFormAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		flash.SetFlash(ctx.Ctx, "error", "Unknown image")
		return ctx.Redirect("/admin/gallery", fiber.StatusFound)
	}

	input := &gallery.UpdateInput{}
	if v := ctx.FormValue("title"); v != "" || formHasField(ctx, "title") {
		input.Title = &v
	}
	if v := ctx.FormValue("category"); v != "" || formHasField(ctx, "category") {
		input.Category = &v
	}
	if v := ctx.FormValue("description"); v != "" || formHasField(ctx, "description") {
		input.Description = &v
	}

	if _, err := gallery.Update(ctx.DB(), ctx.Logger, uint(id), input); err != nil {
		ctx.Logger.Error("Failed to update gallery image",
			slog.Int("imageId", id),
			slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Update failed: "+err.Error())
		return ctx.Redirect("/admin/gallery", fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Image updated")
	return ctx.Redirect("/admin/gallery", fiber.StatusFound)
}

// GalleryDeleteFormAction removes an image and its stored blob.
func GalleryDeleteFormAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		flash.SetFlash(ctx.Ctx, "error", "Unknown image")
		return ctx.Redirect("/admin/gallery", fiber.StatusFound)
	}

	if err := gallery.Delete(ctx.DB(), ctx.Logger, galleryStore(ctx), uint(id)); err != nil {
		ctx.Logger.Error("Failed to delete gallery image",
			slog.Int("imageId", id),
			slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Delete failed")
		return ctx.Redirect("/admin/gallery", fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Image deleted")
	return ctx.Redirect("/admin/gallery", fiber.StatusFound)
}

// formHasField reports whether the field was present in the submitted form,
// so empty values can still clear a column.
func formHasField(ctx *cartridge.Context, name string) bool {
	form, err := ctx.MultipartForm()
	if err != nil || form == nil {
		return false
	}
	_, ok := form.Value[name]
	return ok
}
