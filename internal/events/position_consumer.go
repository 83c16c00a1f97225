package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/wayfarer-travel/service-companion/internal/application"
	"github.com/wayfarer-travel/service-companion/internal/contract"
	"github.com/wayfarer-travel/service-companion/internal/domain"
	"github.com/wayfarer-travel/service-companion/internal/platform/kafka"
)

// PositionSink receives decoded position samples. *application.SafetyService implements it.
type PositionSink interface {
	UpdatePosition(ctx context.Context, travelerID uuid.UUID, update application.PositionUpdate) (*application.SafetyView, error)
}

// PositionConsumer feeds device position samples from Kafka into the safety pipeline.
type PositionConsumer struct {
	consumer *kafka.Consumer
	sink     PositionSink
	logger   *zap.Logger
}

// NewPositionConsumer creates a new PositionConsumer.
func NewPositionConsumer(
	brokers []string,
	groupID string,
	topic string,
	sink PositionSink,
	logger *zap.Logger,
) *PositionConsumer {
	if topic == "" {
		topic = contract.TopicTravelerPositions
	}
	return &PositionConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, topic, logger),
		sink:     sink,
		logger:   logger,
	}
}

// Start begins consuming position samples. This blocks until the context is cancelled.
func (c *PositionConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PositionConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PositionConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from positions topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case contract.PositionReported:
		return c.handlePositionReported(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled position event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PositionConsumer) handlePositionReported(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt contract.PositionReportedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PositionReportedEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}
	if evt.TravelerID == uuid.Nil {
		c.logger.Warn("position event without traveler id", zap.String("event_id", cloudEvent.ID))
		return nil
	}

	update := application.PositionUpdate{
		Latitude:    evt.Latitude,
		Longitude:   evt.Longitude,
		Unavailable: evt.Unavailable,
	}
	view, err := c.sink.UpdatePosition(ctx, evt.TravelerID, update)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			c.logger.Warn("rejected position sample",
				zap.String("traveler_id", evt.TravelerID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to apply position sample",
			zap.String("traveler_id", evt.TravelerID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Debug("position applied",
		zap.String("traveler_id", evt.TravelerID.String()),
		zap.String("level", string(view.Status.Level)),
		zap.Bool("fallback", view.UsedFallback),
	)
	return nil
}
