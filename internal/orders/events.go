package orders

import (
	"strconv"

	"github.com/shopspring/decimal"
)

const EventOrderCreated = "ORDER_CREATED"

// OrderCreatedEvent is the notification published after an order has been
// durably persisted.
type OrderCreatedEvent struct {
	EventID     string          `json:"eventId"`
	OrderID     int64           `json:"orderId"`
	UserID      int64           `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	EventType   string          `json:"eventType"`
}

// Partition key = order id, so all events of one order keep their order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
