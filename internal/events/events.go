// Package events carries notification requests over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	// TopicNotifications carries notification requests from the booking flow.
	TopicNotifications = "parking.notifications"

	// NotificationRequested is the CloudEvent type of NotificationRequestedEvent.
	NotificationRequested = "parking.notification.requested"

	eventSource = "service-parking"
)

// NotificationRequestedEvent asks for a notification to be stored for a user.
type NotificationRequestedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
}
