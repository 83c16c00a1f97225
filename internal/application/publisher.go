package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wayfarer-travel/service-companion/internal/contract"
	"github.com/wayfarer-travel/service-companion/internal/platform/kafka"
)

// publishTimeout bounds event writes issued from timer callbacks, which have
// no request context of their own.
const publishTimeout = 5 * time.Second

// EventPublisher writes CloudEvents to a topic. *kafka.Producer implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// discardPublisher drops every event. It stands in when Kafka is disabled.
type discardPublisher struct{}

func (discardPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }

func publisherOrDiscard(p EventPublisher) EventPublisher {
	if p == nil {
		return discardPublisher{}
	}
	return p
}

// publishEvent builds and writes an event, logging instead of failing the
// caller: the engine state has already changed and must not roll back.
func publishEvent(ctx context.Context, p EventPublisher, log *zap.Logger, topic, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(contract.Source, eventType, data)
	if err != nil {
		log.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := p.PublishEvent(ctx, topic, cloudEvent.WithSubject(key)); err != nil {
		log.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
