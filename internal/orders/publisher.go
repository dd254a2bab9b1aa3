package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ecomlabs/order-service/internal/kafka"
	"github.com/ecomlabs/order-service/internal/logger"
)

// EventPublisher announces durably persisted orders downstream. A publish
// failure never invalidates the already-committed order; in async mode it is
// only logged, in sync mode it surfaces to the caller.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o *Order) error
}

type KafkaPublisher struct {
	producer *kafkax.Producer
	// Sync makes OrderCreated wait for broker acknowledgment, bounded by
	// AckTimeout. Pick one mode per deployment and keep it.
	Sync       bool
	AckTimeout time.Duration
}

func NewKafkaPublisher(p *kafkax.Producer, sync bool, ackTimeout time.Duration) *KafkaPublisher {
	if ackTimeout <= 0 {
		ackTimeout = 10 * time.Second
	}
	return &KafkaPublisher{producer: p, Sync: sync, AckTimeout: ackTimeout}
}

func (k *KafkaPublisher) OrderCreated(ctx context.Context, o *Order) error {
	ev := OrderCreatedEvent{
		EventID:     uuid.NewString(),
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalPrice,
		EventType:   EventOrderCreated,
	}
	value := kafkax.MustMarshal(ev)
	headers := []kafkago.Header{
		{Key: "x-event-type", Value: []byte(EventOrderCreated)},
		{Key: "x-event-id", Value: []byte(ev.EventID)},
	}

	log := logger.FromCtx(ctx).With(
		zap.Int64("order_id", o.ID),
		zap.String("event_id", ev.EventID))

	if k.Sync {
		wctx, cancel := context.WithTimeout(ctx, k.AckTimeout)
		defer cancel()
		if err := k.producer.PublishSync(wctx, PartitionKey(o.ID), value, headers...); err != nil {
			log.Error("order created event publish failed", zap.Error(err))
			return err
		}
		log.Info("order created event acknowledged")
		return nil
	}

	k.producer.Publish(PartitionKey(o.ID), value, headers...)
	log.Info("order created event enqueued")
	return nil
}
