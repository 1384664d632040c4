package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/parkingmate/service-parking/internal/application"
	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/common/kafka"
	"github.com/parkingmate/service-parking/internal/domain/notification"
)

// NotificationEventConsumer stores notifications requested over Kafka.
type NotificationEventConsumer struct {
	consumer *kafka.Consumer
	writer   application.Notifier
	logger   *zap.Logger
}

// NewNotificationEventConsumer creates a new NotificationEventConsumer.
func NewNotificationEventConsumer(
	brokers []string,
	groupID string,
	topic string,
	writer application.Notifier,
	logger *zap.Logger,
) *NotificationEventConsumer {
	if topic == "" {
		topic = TopicNotifications
	}
	return &NotificationEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, topic, logger),
		writer:   writer,
		logger:   logger,
	}
}

// Start begins consuming notification events. This blocks until the context is cancelled.
func (c *NotificationEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *NotificationEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *NotificationEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from notification topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case NotificationRequested:
		return c.handleNotificationRequested(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled notification event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *NotificationEventConsumer) handleNotificationRequested(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt NotificationRequestedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse NotificationRequestedEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	err := c.writer.Notify(ctx, evt.UserID, evt.Title, evt.Message, notification.Type(evt.Type))
	if domain.IsValidation(err) {
		c.logger.Error("dropping invalid notification request",
			zap.String("event_id", cloudEvent.ID),
			zap.Error(err),
		)
		return nil
	}
	if err != nil {
		c.logger.Error("failed to store notification",
			zap.String("user_id", evt.UserID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
