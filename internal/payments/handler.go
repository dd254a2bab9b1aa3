package payments

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ecomlabs/order-service/internal/logger"
	"github.com/ecomlabs/order-service/internal/orders"
)

// StatusUpdater is the slice of the order service the payment path needs.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id int64, newStatus orders.Status) (*orders.View, error)
}

// Handler maps payment outcomes onto order transitions. Returning nil acks
// the message (offset committed); returning an error leaves it unacknowledged
// and the consumer keeps retrying it in place. The status update is
// transactional, so the handler is safe to re-invoke: a duplicate SUCCESS
// after the order left PENDING fails the transition check and stays
// unacknowledged until an operator or a dead-letter policy steps in.
type Handler struct {
	Orders StatusUpdater
}

func (h *Handler) Handle(ctx context.Context, m kafkago.Message) error {
	log := logger.FromCtx(ctx).With(
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset))

	var ev Event
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		// Poison payloads are dropped, not retried: redelivery cannot fix them.
		log.Error("undecodable payment event, dropping", zap.Error(err))
		return nil
	}

	log = log.With(
		zap.Int64("order_id", ev.OrderID),
		zap.Int64("user_id", ev.UserID),
		zap.String("payment_status", string(ev.Status)))
	log.Info("payment event received")

	var target orders.Status
	switch ev.Status {
	case StatusSuccess:
		target = orders.StatusProcessing
	case StatusFailed:
		log.Warn("payment failed, cancelling order")
		target = orders.StatusCancelled
	default:
		log.Warn("non-actionable payment status, skipping")
		return nil
	}

	if _, err := h.Orders.UpdateStatus(ctx, ev.OrderID, target); err != nil {
		log.Error("order status update failed, leaving event for redelivery", zap.Error(err))
		return err
	}
	log.Info("order status updated from payment event", zap.String("new_status", string(target)))
	return nil
}
