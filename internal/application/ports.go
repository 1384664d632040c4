package application

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/domain/notification"
	"github.com/parkingmate/service-parking/internal/domain/user"
)

// IdentityResolver maps an authenticated caller identity to a user.
type IdentityResolver interface {
	Resolve(ctx context.Context, identity string) (*user.User, error)
}

// Notifier delivers a notification to a user. Implementations may be asynchronous.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string, typ notification.Type) error
}

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, folder, filename, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, url string) error
}
