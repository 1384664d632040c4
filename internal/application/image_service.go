package application

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parkingmate/service-parking/internal/common/domain"
)

const (
	// SpaceImageFolder is where parking space photos are stored.
	SpaceImageFolder  = "parking-spaces"
	maxImagesPerBatch = 5
)

var (
	allowedImageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}
	folderPattern          = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)
)

// UploadFile is one uploaded file as received from the transport layer.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ImageDTO is the URL of a stored image.
type ImageDTO struct {
	URL string `json:"url"`
}

// ImageService validates and stores uploaded images.
type ImageService struct {
	store  ImageStore
	logger *zap.Logger
}

// NewImageService creates a new ImageService.
func NewImageService(store ImageStore, logger *zap.Logger) *ImageService {
	return &ImageService{store: store, logger: logger}
}

// UploadSpaceImages stores 1 to 5 parking space photos. Every file is checked
// before anything is stored.
func (s *ImageService) UploadSpaceImages(ctx context.Context, files []UploadFile) ([]ImageDTO, error) {
	if len(files) == 0 {
		return nil, domain.NewValidationError("at least one file is required")
	}
	if len(files) > maxImagesPerBatch {
		return nil, domain.NewValidationError(fmt.Sprintf("at most %d files can be uploaded at once", maxImagesPerBatch))
	}
	for _, f := range files {
		if err := validateImage(f); err != nil {
			return nil, err
		}
	}

	out := make([]ImageDTO, 0, len(files))
	for _, f := range files {
		url, err := s.store.Upload(ctx, SpaceImageFolder, objectName(f.Filename), f.ContentType, f.Content, f.Size)
		if err != nil {
			return nil, domain.NewInternalError("failed to upload image", err)
		}
		out = append(out, ImageDTO{URL: url})
	}

	s.logger.Info("parking space images uploaded", zap.Int("count", len(out)))
	return out, nil
}

// UploadImage stores a single image under folder.
func (s *ImageService) UploadImage(ctx context.Context, file UploadFile, folder string) (*ImageDTO, error) {
	if folder == "" {
		folder = "images"
	}
	if !folderPattern.MatchString(folder) {
		return nil, domain.NewValidationError("folder may contain only lowercase letters, digits and dashes")
	}
	if err := validateImage(file); err != nil {
		return nil, err
	}

	url, err := s.store.Upload(ctx, folder, objectName(file.Filename), file.ContentType, file.Content, file.Size)
	if err != nil {
		return nil, domain.NewInternalError("failed to upload image", err)
	}
	return &ImageDTO{URL: url}, nil
}

// DeleteImage removes a stored image by URL.
func (s *ImageService) DeleteImage(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return domain.NewValidationError("url is required")
	}
	if err := s.store.Delete(ctx, url); err != nil {
		return domain.NewInternalError("failed to delete image", err)
	}
	return nil
}

func validateImage(f UploadFile) error {
	if f.Size <= 0 || f.Content == nil {
		return domain.NewValidationError(fmt.Sprintf("file %q is empty", f.Filename))
	}
	if !slices.Contains(allowedImageExtensions, extensionOf(f.Filename)) {
		return domain.NewValidationError(fmt.Sprintf("file %q must be one of: %s", f.Filename, strings.Join(allowedImageExtensions, ", ")))
	}
	return nil
}

func extensionOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

// objectName gives every upload a unique key while keeping the extension.
func objectName(filename string) string {
	return uuid.NewString() + "." + extensionOf(filename)
}
