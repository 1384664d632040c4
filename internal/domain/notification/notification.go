package notification

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/common/domain"
)

// Type classifies a notification.
type Type string

const (
	TypeBookingCreated  Type = "BOOKING_CREATED"
	TypeBookingCanceled Type = "BOOKING_CANCELED"
	TypeBookingReminder Type = "BOOKING_REMINDER"
	TypeNewSpaceNearby  Type = "NEW_SPACE_NEARBY"
	TypeSystem          Type = "SYSTEM"
)

const maxMessageLength = 500

// IsValid returns true if t is a known notification type.
func (t Type) IsValid() bool {
	switch t {
	case TypeBookingCreated, TypeBookingCanceled, TypeBookingReminder, TypeNewSpaceNearby, TypeSystem:
		return true
	}
	return false
}

// Notification is a message addressed to a single user.
type Notification struct {
	id        uuid.UUID
	userID    uuid.UUID
	title     string
	message   string
	typ       Type
	read      bool
	createdAt time.Time
}

// NewNotification creates an unread notification.
func NewNotification(userID uuid.UUID, title, message string, typ Type) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return nil, domain.NewValidationError(fmt.Sprintf("message must be at most %d characters", maxMessageLength))
	}
	if !typ.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid notification type: %s", typ))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate notification ID: %w", err)
	}
	return &Notification{
		id:        id,
		userID:    userID,
		title:     title,
		message:   message,
		typ:       typ,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructNotification rebuilds a Notification from persistence data (no validation).
func ReconstructNotification(id, userID uuid.UUID, title, message string, typ Type, read bool, createdAt time.Time) *Notification {
	return &Notification{
		id:        id,
		userID:    userID,
		title:     title,
		message:   message,
		typ:       typ,
		read:      read,
		createdAt: createdAt,
	}
}

func (n *Notification) ID() uuid.UUID        { return n.id }
func (n *Notification) UserID() uuid.UUID    { return n.userID }
func (n *Notification) Title() string        { return n.title }
func (n *Notification) Message() string      { return n.message }
func (n *Notification) Type() Type           { return n.typ }
func (n *Notification) IsRead() bool         { return n.read }
func (n *Notification) CreatedAt() time.Time { return n.createdAt }

// IsOwnedBy reports whether the notification is addressed to userID.
func (n *Notification) IsOwnedBy(userID uuid.UUID) bool {
	return n.userID == userID
}

// MarkAsRead flags the notification as read. Repeated calls are no-ops.
func (n *Notification) MarkAsRead() {
	n.read = true
}
