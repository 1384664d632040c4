package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/application"
	"github.com/parkingmate/service-parking/internal/common/kafka"
	"github.com/parkingmate/service-parking/internal/domain/notification"
)

type publisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// KafkaNotifier publishes notification requests instead of storing them inline.
type KafkaNotifier struct {
	producer publisher
	topic    string
}

// NewKafkaNotifier creates a KafkaNotifier publishing to topic.
func NewKafkaNotifier(producer publisher, topic string) *KafkaNotifier {
	if topic == "" {
		topic = TopicNotifications
	}
	return &KafkaNotifier{producer: producer, topic: topic}
}

var _ application.Notifier = (*KafkaNotifier)(nil)

// Notify publishes a NotificationRequestedEvent keyed by the user so one
// user's notifications stay ordered.
func (n *KafkaNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string, typ notification.Type) error {
	evt := NotificationRequestedEvent{
		UserID:     userID,
		Title:      title,
		Message:    message,
		Type:       string(typ),
		OccurredAt: time.Now().UTC(),
	}
	ce, err := kafka.NewCloudEvent(eventSource, NotificationRequested, evt)
	if err != nil {
		return fmt.Errorf("failed to create cloud event: %w", err)
	}
	return n.producer.PublishEvent(ctx, n.topic, ce.WithSubject(userID.String()))
}
