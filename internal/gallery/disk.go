package gallery

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	thumbsDir = "thumbs"
	thumbSize = 480
)

// DiskStore keeps gallery blobs on the local filesystem and serves them under
// a static URL prefix. A bounded-size thumbnail is generated next to each
// blob; thumbnail failures never fail the upload.
type DiskStore struct {
	root      string
	urlPrefix string
	logger    *slog.Logger
}

// NewDiskStore returns a DiskStore rooted at root, serving under urlPrefix.
func NewDiskStore(root, urlPrefix string, logger *slog.Logger) *DiskStore {
	return &DiskStore{
		root:      root,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		logger:    logger,
	}
}

var _ BlobStore = (*DiskStore)(nil)

func (s *DiskStore) Put(path string, r io.Reader) error {
	full := filepath.Join(s.root, filepath.Clean("/"+path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create gallery directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("failed to create gallery file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return fmt.Errorf("failed to write gallery file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return fmt.Errorf("failed to close gallery file: %w", err)
	}

	s.generateThumbnail(path, full)
	return nil
}

func (s *DiskStore) Remove(path string) error {
	full := filepath.Join(s.root, filepath.Clean("/"+path))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove gallery file: %w", err)
	}

	thumb := s.thumbPath(path)
	if err := os.Remove(thumb); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove gallery thumbnail",
			slog.String("path", thumb),
			slog.Any("error", err))
	}
	return nil
}

func (s *DiskStore) PublicURL(path string) string {
	return s.urlPrefix + "/" + strings.TrimPrefix(path, "/")
}

// ThumbnailURL returns the public URL of the thumbnail for path. The file
// may be absent if generation failed; callers should fall back to the
// original.
func (s *DiskStore) ThumbnailURL(path string) string {
	return s.urlPrefix + "/" + thumbsDir + "/" + strings.TrimPrefix(path, "/")
}

func (s *DiskStore) thumbPath(path string) string {
	return filepath.Join(s.root, thumbsDir, filepath.Clean("/"+path))
}

func (s *DiskStore) generateThumbnail(path, full string) {
	img, err := imaging.Open(full, imaging.AutoOrientation(true))
	if err != nil {
		s.logger.Warn("Skipping thumbnail for unreadable image",
			slog.String("path", path),
			slog.Any("error", err))
		return
	}

	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)
	dst := s.thumbPath(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		s.logger.Warn("Failed to create thumbnail directory", slog.Any("error", err))
		return
	}
	if err := imaging.Save(thumb, dst); err != nil {
		s.logger.Warn("Failed to save thumbnail",
			slog.String("path", dst),
			slog.Any("error", err))
	}
}
