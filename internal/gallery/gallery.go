// Package gallery manages the marketing site's image gallery: metadata rows
// in the database, blobs behind a storage port.
package gallery

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Image is the metadata row for one gallery entry. The blob itself lives in
// a BlobStore under StoragePath.
type Image struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Category    string `gorm:"index"`
	Description string
	StoragePath string    `gorm:"uniqueIndex;not null"`
	CreatedAt   time.Time `gorm:"index;autoCreateTime"`
}

// ImageView is an Image with its public URL resolved for rendering.
type ImageView struct {
	Image
	URL string `json:"url"`
}

// BlobStore abstracts where image bytes live.
type BlobStore interface {
	Put(path string, r io.Reader) error
	Remove(path string) error
	PublicURL(path string) string
}

// ErrImageNotFound is returned when an image lookup fails.
var ErrImageNotFound = gorm.ErrRecordNotFound

// CreateInput carries the admin upload form.
type CreateInput struct {
	Title       string
	Category    string
	Description string
	Filename    string
	Data        io.Reader
}

// UpdateInput carries a partial metadata edit; nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Category    *string
	Description *string
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// Create uploads the blob and inserts the metadata row. The storage path is
// prefixed with a UUID so concurrent uploads of the same filename never
// collide. If the row insert fails the uploaded blob is removed again.
func Create(db *gorm.DB, logger *slog.Logger, store BlobStore, input *CreateInput) (*Image, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.New("title cannot be empty")
	}
	if input.Data == nil {
		return nil, errors.New("image data is required")
	}

	storagePath := uuid.NewString() + "-" + sanitizeFilename(input.Filename)
	if err := store.Put(storagePath, input.Data); err != nil {
		return nil, fmt.Errorf("failed to store image blob: %w", err)
	}

	image := &Image{
		Title:       title,
		Category:    strings.TrimSpace(input.Category),
		Description: strings.TrimSpace(input.Description),
		StoragePath: storagePath,
	}

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(image).Error
	})
	if err != nil {
		if removeErr := store.Remove(storagePath); removeErr != nil {
			logger.Error("Failed to remove orphaned blob after insert failure",
				slog.String("path", storagePath),
				slog.Any("error", removeErr))
		}
		return nil, fmt.Errorf("failed to create gallery image: %w", err)
	}

	return image, nil
}

// Update applies a partial metadata edit.
func Update(db *gorm.DB, logger *slog.Logger, id uint, input *UpdateInput) (*Image, error) {
	image, err := FindByID(db, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errors.New("title cannot be empty")
		}
		changes["title"] = title
	}
	if input.Category != nil {
		changes["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Description != nil {
		changes["description"] = strings.TrimSpace(*input.Description)
	}
	if len(changes) == 0 {
		return image, nil
	}

	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(image).Updates(changes).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update gallery image: %w", err)
	}
	return image, nil
}

// Delete removes the metadata row, then the blob best-effort. A blob removal
// failure is logged and not surfaced: the row is gone, so the image no longer
// exists as far as the site is concerned.
func Delete(db *gorm.DB, logger *slog.Logger, store BlobStore, id uint) error {
	image, err := FindByID(db, id)
	if err != nil {
		return err
	}

	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Delete(image).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete gallery image: %w", err)
	}

	if err := store.Remove(image.StoragePath); err != nil {
		logger.Error("Failed to remove gallery blob",
			slog.String("path", image.StoragePath),
			slog.Any("error", err))
	}
	return nil
}

// FindByID retrieves an image by ID.
func FindByID(db *gorm.DB, id uint) (*Image, error) {
	var image Image
	if err := db.Where("id = ?", id).First(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// List returns all images newest first, with resolved public URLs.
func List(db *gorm.DB, store BlobStore) ([]ImageView, error) {
	var images []Image
	if err := db.Order("created_at DESC").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list gallery images: %w", err)
	}

	views := make([]ImageView, 0, len(images))
	for _, image := range images {
		views = append(views, ImageView{
			Image: image,
			URL:   store.PublicURL(image.StoragePath),
		})
	}
	return views, nil
}

func sanitizeFilename(name string) string {
	base := strings.ToLower(filepath.Base(strings.TrimSpace(name)))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "image"
	}
	base = unsafeFilenameChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		return "image"
	}
	return base
}
