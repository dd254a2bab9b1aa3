package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

// Event is a payment outcome as delivered by the payment service. It is never
// persisted here; each delivery drives at most one order status transition.
type Event struct {
	PaymentID     string          `json:"paymentId"`
	OrderID       int64           `json:"orderId"`
	UserID        int64           `json:"userId"`
	Status        Status          `json:"status"`
	PaymentAmount decimal.Decimal `json:"paymentAmount"`
	Timestamp     time.Time       `json:"timestamp"`
	EventType     string          `json:"eventType"`
}
